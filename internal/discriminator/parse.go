package discriminator

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ChannelExists reports whether name currently exists in network state.
// ParseUser calls it, when non-nil, to enforce spec.md §4.4's
// requirement that a "channel" field name a channel that currently
// exists. Callers with no network.State to check against (tests, or
// contexts parsing a discriminator ahead of any state) may pass nil to
// skip the check.
type ChannelExists func(name string) bool

// ParseUser compiles a space-separated key/value token list into a User
// discriminator, per spec.md §4.4 and opserv.c's opserv_discrim_create.
// now anchors relative-duration fields ("age", "linked", "nickage");
// callers pass internal/clock's current time rather than letting this
// package read the OS clock. exists validates the "channel" field
// against live network state; pass nil where no such validation is
// wanted or possible.
func ParseUser(tokens []string, now time.Time, exists ChannelExists) (*User, error) {
	d := &User{Limit: 250, DomainDepth: 2}

	for i := 0; i < len(tokens); i++ {
		key := strings.ToLower(tokens[i])
		arg := func() (string, error) {
			if i+1 >= len(tokens) {
				return "", errors.Errorf("missing argument for %q", key)
			}
			i++
			return tokens[i], nil
		}

		switch key {
		case "mask":
			v, err := arg()
			if err != nil {
				return nil, err
			}
			nick, ident, host, err := splitIRCMask(v)
			if err != nil {
				return nil, err
			}
			d.NickGlob, d.IdentGlob, d.HostGlob = nick, ident, host
		case "nick":
			v, err := arg()
			if err != nil {
				return nil, err
			}
			d.NickGlob = v
		case "ident":
			v, err := arg()
			if err != nil {
				return nil, err
			}
			d.IdentGlob = v
		case "host":
			v, err := arg()
			if err != nil {
				return nil, err
			}
			d.HostGlob = v
		case "info":
			v, err := arg()
			if err != nil {
				return nil, err
			}
			d.InfoGlob = v
		case "server":
			v, err := arg()
			if err != nil {
				return nil, err
			}
			d.ServerGlob = v
		case "account":
			if d.Authed == TriNo {
				return nil, errors.New("account conflicts with authed no")
			}
			v, err := arg()
			if err != nil {
				return nil, err
			}
			d.AccountGlob = v
			d.Authed = TriYes
		case "authed":
			v, err := arg()
			if err != nil {
				return nil, err
			}
			switch strings.ToLower(v) {
			case "yes", "true", "on", "1":
				d.Authed = TriYes
			case "no", "false", "off", "0":
				if d.AccountGlob != "" {
					return nil, errors.New("authed no conflicts with account")
				}
				d.Authed = TriNo
			default:
				return nil, errors.Errorf("invalid boolean %q for authed", v)
			}
		case "info_space":
			v, err := arg()
			if err != nil {
				return nil, err
			}
			if b, err := parseBool(v); err == nil {
				if b {
					d.InfoLeadingSpace = TriYes
				} else {
					d.InfoLeadingSpace = TriNo
				}
			} else {
				return nil, err
			}
		case "duration":
			v, err := arg()
			if err != nil {
				return nil, err
			}
			dur, err := ParseInterval(v)
			if err != nil {
				return nil, err
			}
			d.Duration = dur
		case "reason":
			d.Reason = strings.Join(tokens[i+1:], " ")
			i = len(tokens)
		case "channel":
			v, err := arg()
			if err != nil {
				return nil, err
			}
			name, req, forbid := parseChannelPrefix(v)
			if exists != nil && !exists(name) {
				return nil, errors.Errorf("channel %q does not exist", name)
			}
			d.Channel = name
			d.RequireOp = req&modeChanop != 0
			d.RequireVoice = req&modeVoice != 0
			d.ForbidOp = forbid&modeChanop != 0
			d.ForbidVoice = forbid&modeVoice != 0
		case "numchannels":
			v, err := arg()
			if err != nil {
				return nil, err
			}
			n, convErr := strconv.Atoi(v)
			if convErr != nil {
				return nil, errors.Wrap(convErr, "numchannels")
			}
			d.ChannelCount = IntBound{Set: true, Op: '=', N: n}
		case "limit":
			v, err := arg()
			if err != nil {
				return nil, err
			}
			n, convErr := strconv.Atoi(v)
			if convErr != nil {
				return nil, errors.Wrap(convErr, "limit")
			}
			d.Limit = n
		case "age", "linked", "nickage":
			v, err := arg()
			if err != nil {
				return nil, err
			}
			t, boundErr := parseRelativeBound(v, now)
			if boundErr != nil {
				return nil, boundErr
			}
			d.TimestampAfter, d.TimestampBefore = t.after, t.before
		case "access":
			v, err := arg()
			if err != nil {
				return nil, err
			}
			b, boundErr := parseIntBound(v)
			if boundErr != nil {
				return nil, boundErr
			}
			d.OpservLevel = b
		case "clones":
			v, err := arg()
			if err != nil {
				return nil, err
			}
			b, boundErr := parseIntBound(v)
			if boundErr != nil {
				return nil, boundErr
			}
			d.MinClones = b
		case "ip":
			v, err := arg()
			if err != nil {
				return nil, err
			}
			prefix, bits, ipErr := parseIPPrefix(v)
			if ipErr != nil {
				return nil, ipErr
			}
			d.IPPrefix, d.IPPrefixBits, d.HasIPPrefix = prefix, bits, true
		case "opers":
			d.MatchOpers = true
		case "log":
			d.LogMatch = true
		default:
			return nil, errors.Errorf("unrecognized discriminator field %q", key)
		}
	}
	return d, nil
}

const (
	modeChanop = 1 << iota
	modeVoice
)

// parseChannelPrefix splits a "[-+@]#name" token into the bare channel
// name and required/forbidden membership mode bits, per opserv.c's
// inline +/-/@ prefix scan in opserv_discrim_create.
func parseChannelPrefix(tok string) (name string, required, forbidden int) {
	i := 0
	for i < len(tok) {
		switch tok[i] {
		case '-':
			forbidden |= modeChanop | modeVoice
		case '+':
			required |= modeVoice
			forbidden |= modeChanop
		case '@':
			required |= modeChanop
		default:
			forbidden &^= required
			return tok[i:], required, forbidden
		}
		i++
	}
	return "", required, forbidden
}

func splitIRCMask(mask string) (nick, ident, host string, err error) {
	bang := strings.IndexByte(mask, '!')
	at := strings.IndexByte(mask, '@')
	if bang < 0 || at < 0 || at < bang {
		return "", "", "", errors.Errorf("invalid ircmask %q", mask)
	}
	return mask[:bang], mask[bang+1 : at], mask[at+1:], nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "on", "1":
		return true, nil
	case "no", "false", "off", "0":
		return false, nil
	default:
		return false, errors.Errorf("invalid boolean %q", s)
	}
}

func parseIntBound(s string) (IntBound, error) {
	if s == "" {
		return IntBound{}, errors.New("empty bound")
	}
	op := byte('=')
	rest := s
	switch {
	case strings.HasPrefix(s, "<="):
		op, rest = 'L', s[2:]
	case strings.HasPrefix(s, ">="):
		op, rest = 'G', s[2:]
	case strings.HasPrefix(s, "<"):
		op, rest = '<', s[1:]
	case strings.HasPrefix(s, ">"):
		op, rest = '>', s[1:]
	case strings.HasPrefix(s, "="):
		op, rest = '=', s[1:]
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return IntBound{}, errors.Wrapf(err, "invalid integer bound %q", s)
	}
	return IntBound{Set: true, Op: op, N: n}, nil
}

type timestampBound struct{ after, before time.Time }

// parseRelativeBound interprets "age"/"linked"/"nickage" comparisons
// (</<=/>/>=/= followed by a duration) as an after/before pair relative
// to now, mirroring opserv.c's min_ts/max_ts pair for the same fields.
func parseRelativeBound(s string, now time.Time) (timestampBound, error) {
	var op byte = '='
	rest := s
	switch {
	case strings.HasPrefix(s, "<="):
		op, rest = 'L', s[2:]
	case strings.HasPrefix(s, ">="):
		op, rest = 'G', s[2:]
	case strings.HasPrefix(s, "<"):
		op, rest = '<', s[1:]
	case strings.HasPrefix(s, ">"):
		op, rest = '>', s[1:]
	case strings.HasPrefix(s, "="):
		rest = s[1:]
	}
	dur, err := ParseInterval(rest)
	if err != nil {
		return timestampBound{}, err
	}
	cutoff := now.Add(-dur)
	switch op {
	case '<', 'L':
		// age < dur means the event happened more recently than
		// cutoff: timestamp after cutoff.
		return timestampBound{after: cutoff}, nil
	default:
		// age > dur (or exact): timestamp before cutoff.
		return timestampBound{before: cutoff}, nil
	}
}

// ParseInterval parses a srvx-style duration string ("5m", "2h30m",
// "1d") into a time.Duration. Grounded on original_source/src/common.c's
// ParseInterval, which accepts a sequence of number+unit pairs with
// units y/w/d/h/m/s; this implementation supports the same unit set via
// time.ParseDuration-compatible suffixes plus d/w/y, which the standard
// library's parser does not accept.
func ParseInterval(s string) (time.Duration, error) {
	if s == "" {
		return 0, errors.New("empty interval")
	}
	var total time.Duration
	i := 0
	for i < len(s) {
		start := i
		for i < len(s) && (s[i] >= '0' && s[i] <= '9') {
			i++
		}
		if i == start {
			return 0, errors.Errorf("invalid interval %q", s)
		}
		n, err := strconv.Atoi(s[start:i])
		if err != nil {
			return 0, errors.Wrapf(err, "invalid interval %q", s)
		}
		if i >= len(s) {
			return 0, errors.Errorf("interval %q missing unit", s)
		}
		unit := s[i]
		i++
		var mult time.Duration
		switch unit {
		case 's':
			mult = time.Second
		case 'm':
			mult = time.Minute
		case 'h':
			mult = time.Hour
		case 'd':
			mult = 24 * time.Hour
		case 'w':
			mult = 7 * 24 * time.Hour
		case 'y':
			mult = 365 * 24 * time.Hour
		default:
			return 0, errors.Errorf("invalid interval unit %q in %q", unit, s)
		}
		total += time.Duration(n) * mult
	}
	return total, nil
}

func parseIPPrefix(s string) (string, int, error) {
	bits := 32
	addr := s
	if slash := strings.IndexByte(s, '/'); slash >= 0 {
		addr = s[:slash]
		n, err := strconv.Atoi(s[slash+1:])
		if err != nil {
			return "", 0, errors.Wrapf(err, "invalid ip prefix %q", s)
		}
		bits = n
	} else if strings.Contains(s, ":") {
		bits = 128
	}
	return addr, bits, nil
}
