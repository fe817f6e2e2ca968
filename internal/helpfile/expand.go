package helpfile

import (
	"strings"

	"github.com/nexusd/nexusd/internal/handle"
)

// ServiceNicks supplies the $G/$C/$O/$N/$s escape substitutions: the
// live nicknames of the well-known pseudo-clients, grounded on
// helpfile.c's global/chanserv/opserv/nickserv/self lookups. A zero
// Global, ChanServ, OpServ or NickServ field falls back to the same
// English default name vsend_message uses when that pseudo-client isn't
// currently linked; a zero Self expands to the empty string.
type ServiceNicks struct {
	Global, ChanServ, OpServ, NickServ, Self string
}

// ExpansionKind distinguishes a custom expansion that inlines a string
// from one that flushes a table, matching helpfile.h's
// struct helpfile_expansion union tag.
type ExpansionKind int

const (
	ExpandString ExpansionKind = iota
	ExpandTable
)

// Expansion is the result of an ExpandFunc callback.
type Expansion struct {
	Kind  ExpansionKind
	Str   string
	Table *Table
}

// ExpandFunc resolves a "${name}" or "$(name)" reference; name carries
// any "module:" prefix verbatim, so a callback that wants the
// $(module:name) per-module form can split on the first colon itself.
// The zero Expansion (ExpandString, "") is the correct response to an
// unrecognized name.
type ExpandFunc func(name string) Expansion

// Kind selects which IRC command carries a rendered message.
type Kind int

const (
	KindNotice Kind = iota
	KindPrivmsg
	KindWallchops
)

// Recipient is the target of a rendered message. Handle is nil for a
// channel, a server mask, or an unauthenticated user; in that case
// rendering uses the base language, the maximum line width, NOTICE, and
// color enabled, matching vsend_message's no-handle branch.
type Recipient struct {
	Target string
	Handle *handle.Info
}

// Sender is the subset of network.Actions the renderer needs to flush a
// finished line; any network.Actions value satisfies it directly.
type Sender interface {
	Notice(target, text string)
	Privmsg(target, text string)
	Wallchops(target, text string)
}

// Renderer expands templates against a Catalog and flushes the wrapped
// result through a Sender. Grounded on vsend_message/send_help/
// table_send, restructured as a byte-indexed scan over the template the
// way girc's format.go walks a string for its own inline substitution
// language.
type Renderer struct {
	Catalog *Catalog
	Nicks   ServiceNicks
	Out     Sender
}

// NewRenderer constructs a Renderer.
func NewRenderer(catalog *Catalog, nicks ServiceNicks, out Sender) *Renderer {
	return &Renderer{Catalog: catalog, Nicks: nicks, Out: out}
}

func (r *Renderer) widthFor(rcpt *Recipient) int {
	if rcpt.Handle != nil && rcpt.Handle.Prefs.ScreenWidth > 0 {
		return rcpt.Handle.Prefs.ScreenWidth
	}
	return MaxLineSize
}

func (r *Renderer) colorFor(rcpt *Recipient) bool {
	if rcpt.Handle != nil {
		return rcpt.Handle.Prefs.MircColor
	}
	return true
}

func (r *Renderer) kindFor(rcpt *Recipient, kind Kind) Kind {
	if kind == KindNotice && rcpt.Handle != nil && rcpt.Handle.Prefs.UsePrivmsg {
		return KindPrivmsg
	}
	return kind
}

func (r *Renderer) dispatch(rcpt *Recipient, kind Kind, line string) {
	switch r.kindFor(rcpt, kind) {
	case KindPrivmsg:
		r.Out.Privmsg(rcpt.Target, line)
	case KindWallchops:
		r.Out.Wallchops(rcpt.Target, line)
	default:
		r.Out.Notice(rcpt.Target, line)
	}
}

// Message looks up msgid in rcpt's preferred language (falling back
// through the parent chain to the base language) and renders it,
// matching user_find_message/handle_find_message feeding vsend_message.
// It reports false without sending anything if msgid isn't registered
// anywhere in the chain, matching language_find_message's failure mode.
func (r *Renderer) Message(rcpt *Recipient, src string, kind Kind, msgid string, expand ExpandFunc) bool {
	lang := r.Catalog.languageFor(rcpt)
	tmpl, ok := lang.Find(msgid)
	if !ok {
		return false
	}
	r.Render(rcpt, src, kind, tmpl, expand)
	return true
}

// Render expands template literally (no catalog lookup) and sends the
// wrapped result to rcpt, matching send_target_message's NOXLATE path.
func (r *Renderer) Render(rcpt *Recipient, src string, kind Kind, template string, expand ExpandFunc) {
	useColor := r.colorFor(rcpt)
	size := r.widthFor(rcpt)
	ln := newLiner(size, func(line string) { r.dispatch(rcpt, kind, line) })

	var token strings.Builder
	flush := func() {
		if token.Len() > 0 {
			ln.addChunk(token.String())
			token.Reset()
		}
	}

	for i := 0; i < len(template); {
		ch := template[i]
		switch {
		case ch == '\n':
			flush()
			ln.breakLine()
			i++
		case ch == ' ':
			flush()
			i++
		case ch == '$' && i+1 < len(template):
			next := template[i+1]
			switch {
			case next == '$':
				token.WriteByte('$')
				i += 2
			case next == 'b' || next == 'o' || next == 'r' || next == 'u':
				if useColor {
					token.WriteByte(formatCode(next))
				}
				i += 2
			case next == 'S':
				token.WriteString(src)
				i += 2
			case next == 'G':
				token.WriteString(orDefault(r.Nicks.Global, "Global"))
				i += 2
			case next == 'C':
				token.WriteString(orDefault(r.Nicks.ChanServ, "ChanServ"))
				i += 2
			case next == 'O':
				token.WriteString(orDefault(r.Nicks.OpServ, "OpServ"))
				i += 2
			case next == 'N':
				token.WriteString(orDefault(r.Nicks.NickServ, "NickServ"))
				i += 2
			case next == 's':
				token.WriteString(r.Nicks.Self)
				i += 2
			case next == 'H':
				token.WriteString(handleName(rcpt))
				i += 2
			case next == '{' || next == '(':
				name, consumed, ok := scanExpansionName(template[i+2:], next)
				if !ok || expand == nil {
					token.WriteByte('$')
					token.WriteByte(next)
					i += 2
					continue
				}
				exp := expand(name)
				if exp.Kind == ExpandTable {
					flush()
					ln.flush()
					if exp.Table != nil {
						for _, line := range exp.Table.Render(size) {
							r.dispatch(rcpt, kind, line)
						}
					}
				} else {
					token.WriteString(exp.Str)
				}
				i += 2 + consumed
			default:
				token.WriteByte('$')
				token.WriteByte(next)
				i += 2
			}
		default:
			token.WriteByte(ch)
			i++
		}
	}
	flush()
	ln.flush()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func handleName(rcpt *Recipient) string {
	if rcpt.Handle != nil {
		return rcpt.Handle.Nickname
	}
	return "Account"
}

// formatCode maps a formatting escape letter to its mIRC control byte.
func formatCode(letter byte) byte {
	switch letter {
	case 'b':
		return '\x02' // bold
	case 'u':
		return '\x1f' // underline
	case 'o':
		return '\x0f' // reset
	case 'r':
		return '\x16' // reverse
	}
	return 0
}

// scanExpansionName scans the inner name of a "${name}" or "$(name)"
// reference. s starts just past the opening delimiter; open is '{' or
// '('. It returns the name, how many bytes of s were consumed
// (including the closing delimiter), and whether a matching close was
// found before the end of input.
func scanExpansionName(s string, open byte) (name string, consumed int, ok bool) {
	closer := byte('}')
	if open == '(' {
		closer = ')'
	}
	for i := 0; i < len(s); i++ {
		if s[i] == closer {
			return s[:i], i + 1, true
		}
	}
	return "", 0, false
}
