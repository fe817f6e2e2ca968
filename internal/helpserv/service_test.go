package helpserv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexusd/nexusd/internal/clock"
	"github.com/nexusd/nexusd/internal/handle"
	"github.com/nexusd/nexusd/internal/network"
	"github.com/nexusd/nexusd/internal/timeq"
)

type recordingNotices struct {
	network.NullActions
	notices []string
}

func (r *recordingNotices) Notice(target, text string) {
	r.notices = append(r.notices, target+": "+text)
}

func TestHandlePrivmsgOpensThenAppends(t *testing.T) {
	clk := clock.NewAt(time.Unix(1_700_000_000, 0))
	state := network.New("services.example", clk)
	actions := &recordingNotices{}
	svc := NewService(state, actions, timeq.New())
	b := NewBot("HelpServ", "#help")
	svc.AddBot(b)

	u := state.CreateUser("alice", "alice", "host", state.Self)
	svc.HandlePrivmsg(b, u, "I need help", clk.Now())
	require.Len(t, b.Requests, 1)
	req := b.Requests[1]
	assert.Equal(t, 0, len(req.Text), "the opening message itself is not appended as a follow-on")

	svc.HandlePrivmsg(b, u, "more detail", clk.Now())
	assert.Equal(t, []string{"more detail"}, req.Text)
	assert.Len(t, b.Requests, 1, "second message should not open a second request")
}

func TestHelperMessagesDoNotOpenRequests(t *testing.T) {
	clk := clock.NewAt(time.Unix(1_700_000_000, 0))
	state := network.New("services.example", clk)
	svc := NewService(state, &recordingNotices{}, timeq.New())
	b := NewBot("HelpServ", "#help")
	svc.AddBot(b)

	u := state.CreateUser("helperguy", "h", "host", state.Self)
	u.Handle = nil // handleKeyFor returns "" for unauthed; register under "" to simulate a roster entry
	b.Helpers[""] = &Helper{HandleName: "", Level: LevelHelper}

	svc.HandlePrivmsg(b, u, "just chatting", clk.Now())
	assert.Empty(t, b.Requests)
}

func TestEmptyChannelAlertFiresOnLastFullHelperLeaving(t *testing.T) {
	clk := clock.NewAt(time.Unix(1_700_000_000, 0))
	state := network.New("services.example", clk)
	actions := &recordingNotices{}
	svc := NewService(state, actions, timeq.New())
	b := NewBot("HelpServ", "#help")
	b.Templates.Empty = "channel is empty"
	svc.AddBot(b)

	h := &Helper{HandleName: "h", Level: LevelHelper, JoinTime: clk.Now()}
	b.Helpers["h"] = h
	u := state.CreateUser("h", "h", "host", state.Self)
	u.Handle = &handle.Info{Nickname: "h"}

	svc.HandlePart(b, u, clk.Now())
	assert.Contains(t, actions.notices, "#help: channel is empty")
}
