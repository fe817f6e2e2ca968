package network

import (
	"strconv"
	"strings"
)

// modeLetters maps a channel mode letter to the bit it sets/clears.
// Grounded on girc's CMode/CModes (modes.go), narrowed from a
// full ISUPPORT-driven, argument-classed mode table (girc tracks
// server-supplied list/arg/setarg/noarg classes because it must
// round-trip arbitrary network mode sets) to the fixed set of modes
// this core's own logic inspects, per spec.md §3.2/§4.5 ("+mD" for
// moderated+no-external during join-flood, "secret+invite-only" for bad
// channels). Unknown letters are skipped: they do not affect
// ChanNode.Modes and are not stored anywhere, so ModeString omits them.
var modeLetters = map[byte]ChanMode{
	'i': ChanInviteOnly,
	'm': ChanModerated,
	's': ChanSecret,
	'p': ChanPrivate,
	'n': ChanNoExternal,
	't': ChanTopicLock,
	'r': ChanRegistered,
}

// ApplyChannelModes parses a "+mode-mode args..." string (as produced
// by an inbound MODE line) and applies it to ch, consuming key/limit
// arguments from args in order as girc's CModes.Parse does for type-B
// modes.
func ApplyChannelModes(ch *ChanNode, modeStr string, args []string) {
	add := true
	argi := 0
	nextArg := func() string {
		if argi >= len(args) {
			return ""
		}
		v := args[argi]
		argi++
		return v
	}

	for i := 0; i < len(modeStr); i++ {
		switch c := modeStr[i]; c {
		case '+':
			add = true
		case '-':
			add = false
		case 'k':
			if add {
				ch.Key = nextArg()
			} else {
				ch.Key = ""
				nextArg()
			}
		case 'l':
			if add {
				ch.Limit, _ = strconv.Atoi(nextArg())
			} else {
				ch.Limit = 0
			}
		default:
			bit, known := modeLetters[c]
			if !known {
				continue
			}
			if add {
				ch.Modes |= bit
			} else {
				ch.Modes &^= bit
			}
		}
	}
}

// ApplyMemberModes parses a "+ov-v..." style membership mode string
// against a single member (e.g. "+o" for a MODE #chan +o nick line).
func ApplyMemberModes(m *ModeNode, modeStr string) {
	add := true
	for i := 0; i < len(modeStr); i++ {
		switch c := modeStr[i]; c {
		case '+':
			add = true
		case '-':
			add = false
		case 'o':
			m.Op = add
		case 'v':
			m.Voice = add
		}
	}
}

// ModeString renders ch's modes back to a "+modes key limit" form, in a
// fixed, deterministic letter order, the way girc's CModes.String joins
// its active mode set for display.
func ModeString(ch *ChanNode) string {
	var letters strings.Builder
	var args []string
	order := []byte{'i', 'm', 's', 'p', 'n', 't', 'r'}
	for _, c := range order {
		if ch.Modes.Has(modeLetters[c]) {
			letters.WriteByte(c)
		}
	}
	if ch.Key != "" {
		letters.WriteByte('k')
		args = append(args, ch.Key)
	}
	if ch.Limit > 0 {
		letters.WriteByte('l')
		args = append(args, strconv.Itoa(ch.Limit))
	}
	if letters.Len() == 0 {
		return ""
	}
	out := "+" + letters.String()
	for _, a := range args {
		out += " " + a
	}
	return out
}
