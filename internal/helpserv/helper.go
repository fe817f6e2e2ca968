package helpserv

import "time"

// StatBucket is one of the five parallel stats vectors spec.md §3.4
// names: index 0-3 are the last four weeks, index 4 is lifetime.
type StatBucket [5]int

// Add credits n to every bucket index that is currently being
// accumulated (index 0, the current week, plus the lifetime index 4).
func (b *StatBucket) Add(n int) {
	b[0] += n
	b[4] += n
}

// Helper is one roster entry on a Bot, per spec.md §3.4. Grounded on
// mod-helpserv.c's struct helpserv_user (the teacher's code calls it a
// "helper" the same way; renamed here to avoid colliding with the
// handle identity type in internal/handle).
type Helper struct {
	HandleName string
	Level      Level

	WeekStartDay time.Weekday

	// JoinTime is zero when the helper is not currently present in the
	// help channel.
	JoinTime time.Time

	TimeInChannel  StatBucket
	PickedUp       StatBucket
	Closed         StatBucket
	ReassignedFrom StatBucket
	ReassignedTo   StatBucket

	// ExtraCommands is the per-bot "helper command privilege" override
	// from SUPPLEMENTED FEATURES: a helper may be granted command access
	// beyond their level.
	ExtraCommands []string

	LastStatsUpdate time.Time
}

// Present reports whether the helper is currently in the help channel.
func (h *Helper) Present() bool { return !h.JoinTime.IsZero() }

// Rollover shifts the five stats vectors so index 0 is cleared and
// indexes 1-3 receive the previous 0-2 values (index 4, lifetime, is
// unchanged), per spec.md §4.6's "Weekly stats rollover". If the helper
// is currently present, elapsed in-channel time since `since` is
// credited first.
func (h *Helper) Rollover(now, since time.Time) {
	if h.Present() {
		elapsed := int(now.Sub(maxTime(h.JoinTime, since)).Minutes())
		if elapsed > 0 {
			h.TimeInChannel[0] += elapsed
			h.TimeInChannel[4] += elapsed
		}
	}
	shift(&h.TimeInChannel)
	shift(&h.PickedUp)
	shift(&h.Closed)
	shift(&h.ReassignedFrom)
	shift(&h.ReassignedTo)
	h.LastStatsUpdate = now
}

func shift(b *StatBucket) {
	b[3] = b[2]
	b[2] = b[1]
	b[1] = b[0]
	b[0] = 0
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// HasExtraCommand reports whether cmd is individually granted to h
// beyond its level.
func (h *Helper) HasExtraCommand(cmd string) bool {
	for _, c := range h.ExtraCommands {
		if c == cmd {
			return true
		}
	}
	return false
}
