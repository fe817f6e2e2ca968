package helpfile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexusd/nexusd/internal/handle"
)

type fakeSender struct {
	notices   []string
	privmsgs  []string
	wallchops []string
}

func (f *fakeSender) Notice(target, text string)    { f.notices = append(f.notices, target+": "+text) }
func (f *fakeSender) Privmsg(target, text string)   { f.privmsgs = append(f.privmsgs, target+": "+text) }
func (f *fakeSender) Wallchops(target, text string) { f.wallchops = append(f.wallchops, target+": "+text) }

func TestRenderLiteralTemplateUnchanged(t *testing.T) {
	sender := &fakeSender{}
	r := NewRenderer(NewCatalog(), ServiceNicks{}, sender)
	r.Render(&Recipient{Target: "alice"}, "OpServ", KindNotice, "nothing special here", nil)
	require.Len(t, sender.notices, 1)
	assert.Equal(t, "alice: nothing special here", sender.notices[0])
}

func TestRenderDoubleDollarIsLiteralDollar(t *testing.T) {
	sender := &fakeSender{}
	r := NewRenderer(NewCatalog(), ServiceNicks{}, sender)
	r.Render(&Recipient{Target: "alice"}, "OpServ", KindNotice, "cost: $$5", nil)
	assert.Equal(t, []string{"alice: cost: $5"}, sender.notices)
}

func TestRenderServiceNickEscapes(t *testing.T) {
	sender := &fakeSender{}
	nicks := ServiceNicks{Global: "Global", ChanServ: "CS", OpServ: "OS", NickServ: "NS", Self: "services.example"}
	r := NewRenderer(NewCatalog(), nicks, sender)
	r.Render(&Recipient{Target: "alice"}, "OpServ", KindNotice, "$S says hi via $s, see $G $C $N", nil)
	assert.Equal(t, []string{"alice: OpServ says hi via services.example, see Global CS NS"}, sender.notices)
}

func TestRenderServiceNickEscapesFallBackWhenUnset(t *testing.T) {
	sender := &fakeSender{}
	r := NewRenderer(NewCatalog(), ServiceNicks{}, sender)
	r.Render(&Recipient{Target: "alice"}, "OpServ", KindNotice, "$G $C $O $N", nil)
	assert.Equal(t, []string{"alice: Global ChanServ OpServ NickServ"}, sender.notices)
}

func TestRenderFormatEscapesRespectMircColorPref(t *testing.T) {
	sender := &fakeSender{}
	r := NewRenderer(NewCatalog(), ServiceNicks{}, sender)

	colorOn := &Recipient{Target: "alice", Handle: &handle.Info{Prefs: handle.DisplayPrefs{MircColor: true}}}
	r.Render(colorOn, "OpServ", KindNotice, "$bbold$o", nil)
	assert.Equal(t, []string{"alice: \x02bold\x0f"}, sender.notices)

	sender.notices = nil
	colorOff := &Recipient{Target: "alice", Handle: &handle.Info{Prefs: handle.DisplayPrefs{MircColor: false}}}
	r.Render(colorOff, "OpServ", KindNotice, "$bbold$o", nil)
	assert.Equal(t, []string{"alice: bold"}, sender.notices)
}

func TestRenderExplicitNewlineFlushesLine(t *testing.T) {
	sender := &fakeSender{}
	r := NewRenderer(NewCatalog(), ServiceNicks{}, sender)
	r.Render(&Recipient{Target: "alice"}, "OpServ", KindNotice, "line one\nline two", nil)
	assert.Equal(t, []string{"alice: line one", "alice: line two"}, sender.notices)
}

func TestRenderWrapsAtScreenWidthOnASpace(t *testing.T) {
	sender := &fakeSender{}
	r := NewRenderer(NewCatalog(), ServiceNicks{}, sender)
	rcpt := &Recipient{Target: "alice", Handle: &handle.Info{Prefs: handle.DisplayPrefs{ScreenWidth: 40}}}
	r.Render(rcpt, "OpServ", KindNotice, "the quick brown fox jumps over the lazy dog again", nil)
	for _, line := range sender.notices {
		assert.LessOrEqual(t, len(strings.TrimPrefix(line, "alice: ")), 40)
	}
	assert.Equal(t, []string{"alice: the quick brown fox jumps over the lazy", "alice: dog again"}, sender.notices)
}

func TestRenderOverlongWordGetsItsOwnLineNotDropped(t *testing.T) {
	sender := &fakeSender{}
	r := NewRenderer(NewCatalog(), ServiceNicks{}, sender)
	rcpt := &Recipient{Target: "alice", Handle: &handle.Info{Prefs: handle.DisplayPrefs{ScreenWidth: 40}}}
	word := strings.Repeat("a", 40) + strings.Repeat("b", 40)
	r.Render(rcpt, "OpServ", KindNotice, "short "+word+" end", nil)
	assert.Equal(t, []string{
		"alice: short",
		"alice: " + strings.Repeat("a", 40),
		"alice: " + strings.Repeat("b", 40),
		"alice: end",
	}, sender.notices)
}

func TestRenderCustomStringExpansion(t *testing.T) {
	sender := &fakeSender{}
	r := NewRenderer(NewCatalog(), ServiceNicks{}, sender)
	expand := func(name string) Expansion {
		if name == "target" {
			return Expansion{Kind: ExpandString, Str: "#help"}
		}
		return Expansion{}
	}
	r.Render(&Recipient{Target: "alice"}, "OpServ", KindNotice, "channel is ${target} now", expand)
	assert.Equal(t, []string{"alice: channel is #help now"}, sender.notices)
}

func TestRenderTableExpansionFlushesPendingLineFirst(t *testing.T) {
	sender := &fakeSender{}
	r := NewRenderer(NewCatalog(), ServiceNicks{}, sender)
	expand := func(name string) Expansion {
		return Expansion{Kind: ExpandTable, Table: &Table{
			Headers: []string{"Nick", "Level"},
			Rows:    [][]string{{"alice", "9"}, {"bob", "1"}},
		}}
	}
	r.Render(&Recipient{Target: "alice"}, "OpServ", KindNotice, "roster: $(roster)", expand)
	require.Len(t, sender.notices, 4)
	assert.Equal(t, "alice: roster:", sender.notices[0])
	assert.Equal(t, "alice: Nick  Level", sender.notices[1])
	assert.Equal(t, "alice: alice 9", sender.notices[2])
	assert.Equal(t, "alice: bob   1", sender.notices[3])
}

func TestRenderUnknownBraceEscapeFallsBackToLiteral(t *testing.T) {
	sender := &fakeSender{}
	r := NewRenderer(NewCatalog(), ServiceNicks{}, sender)
	r.Render(&Recipient{Target: "alice"}, "OpServ", KindNotice, "unterminated ${oops", nil)
	assert.Equal(t, []string{"alice: unterminated ${oops"}, sender.notices)
}

func TestMessageUsesRecipientLanguageWithFallback(t *testing.T) {
	sender := &fakeSender{}
	cat := NewCatalog()
	cat.Base().SetMessage("HI", "hello")
	fr := cat.Register("fr", nil)
	fr.SetMessage("HI", "bonjour")
	r := NewRenderer(cat, ServiceNicks{}, sender)

	frenchUser := &Recipient{Target: "alice", Handle: &handle.Info{Prefs: handle.DisplayPrefs{Language: "fr"}}}
	ok := r.Message(frenchUser, "OpServ", KindNotice, "HI", nil)
	assert.True(t, ok)
	assert.Equal(t, []string{"alice: bonjour"}, sender.notices)

	sender.notices = nil
	noHandle := &Recipient{Target: "bob"}
	ok = r.Message(noHandle, "OpServ", KindNotice, "HI", nil)
	assert.True(t, ok)
	assert.Equal(t, []string{"bob: hello"}, sender.notices)
}

func TestMessageUnregisteredMsgidReportsFalse(t *testing.T) {
	sender := &fakeSender{}
	r := NewRenderer(NewCatalog(), ServiceNicks{}, sender)
	ok := r.Message(&Recipient{Target: "alice"}, "OpServ", KindNotice, "NOPE", nil)
	assert.False(t, ok)
	assert.Empty(t, sender.notices)
}

func TestUsePrivmsgPrefOverridesNoticeKind(t *testing.T) {
	sender := &fakeSender{}
	r := NewRenderer(NewCatalog(), ServiceNicks{}, sender)
	rcpt := &Recipient{Target: "alice", Handle: &handle.Info{Prefs: handle.DisplayPrefs{UsePrivmsg: true}}}
	r.Render(rcpt, "OpServ", KindNotice, "hi", nil)
	assert.Empty(t, sender.notices)
	assert.Equal(t, []string{"alice: hi"}, sender.privmsgs)
}
