package discriminator

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/nexusd/nexusd/internal/network"
)

// Channel is a compiled channel discriminator, the parallel structure
// to User for channel-wide mass actions (spec.md §4.4's "Channel
// discriminator" paragraph), grounded on opserv.c's
// opserv_cdiscrim_create/_search.
type Channel struct {
	NameGlob  string
	TopicGlob string

	UserCount IntBound

	// TimestampAfter/Before follow the same "ago" vs. absolute-Unix-time
	// rule as opserv.c's cdiscrim: a bare digits-only argument is an
	// absolute timestamp, anything else is parsed as a duration "ago".
	TimestampAfter  time.Time
	TimestampBefore time.Time

	Limit int
}

// Matches reports whether ch satisfies d.
func (d *Channel) Matches(ch *network.ChanNode) bool {
	if d.NameGlob != "" && !network.MatchGlob(ch.Name, d.NameGlob) {
		return false
	}
	if d.TopicGlob != "" && !network.MatchGlob(ch.Topic, d.TopicGlob) {
		return false
	}
	if !d.UserCount.Conforms(len(ch.Members)) {
		return false
	}
	if !d.TimestampAfter.IsZero() && ch.CreatedAt.Before(d.TimestampAfter) {
		return false
	}
	if !d.TimestampBefore.IsZero() && ch.CreatedAt.After(d.TimestampBefore) {
		return false
	}
	return true
}

// ParseChannel compiles a channel discriminator from space-separated
// tokens.
func ParseChannel(tokens []string, now time.Time) (*Channel, error) {
	d := &Channel{Limit: 250}
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
		case "name":
			v, err := arg()
			if err != nil {
				return nil, err
			}
			d.NameGlob = v
		case "topic":
			v, err := arg()
			if err != nil {
				return nil, err
			}
			d.TopicGlob = v
		case "usercount":
			v, err := arg()
			if err != nil {
				return nil, err
			}
			b, boundErr := parseIntBound(v)
			if boundErr != nil {
				return nil, boundErr
			}
			d.UserCount = b
		case "limit":
			v, err := arg()
			if err != nil {
				return nil, err
			}
			n, convErr := parseIntBoundDigits(v)
			if convErr != nil {
				return nil, convErr
			}
			d.Limit = n
		case "age":
			v, err := arg()
			if err != nil {
				return nil, err
			}
			bound, boundErr := parseChannelTimestamp(v, now)
			if boundErr != nil {
				return nil, boundErr
			}
			d.TimestampAfter, d.TimestampBefore = bound.after, bound.before
		default:
			return nil, errors.Errorf("unrecognized channel discriminator field %q", key)
		}
	}
	return d, nil
}

func parseIntBoundDigits(s string) (int, error) {
	b, err := parseIntBound(s)
	if err != nil {
		return 0, err
	}
	return b.N, nil
}

// parseChannelTimestamp implements opserv.c's cdiscrim age parsing: a
// digits-only argument is an absolute Unix timestamp; anything else
// (optionally prefixed with a relational operator) is parsed as a
// duration relative to now, "ago"-style.
func parseChannelTimestamp(s string, now time.Time) (timestampBound, error) {
	if isAllDigits(s) {
		n, err := parseIntBoundDigits(s)
		if err != nil {
			return timestampBound{}, err
		}
		return timestampBound{after: time.Unix(int64(n), 0)}, nil
	}
	return parseRelativeBound(s, now)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
