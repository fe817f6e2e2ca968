package helpserv

import "time"

// RolloverDue runs Helper.Rollover for every helper on b whose
// WeekStartDay matches today's weekday, per spec.md §4.6's "Weekly
// stats rollover". since is the last time stats were updated (so a
// helper's present in-channel time is credited from the later of their
// join time or since); callers invoke this once per elapsed midnight,
// replaying any missed rollovers during downtime between since and now.
func (b *Bot) RolloverDue(now, since time.Time) {
	weekday := now.Weekday()
	for _, h := range b.Helpers {
		if h.WeekStartDay == weekday {
			h.Rollover(now, since)
		}
	}
}

// ReplayMissedRollovers runs RolloverDue once per midnight boundary
// between since and now (exclusive of since, inclusive of now),
// matching mod-helpserv.c's note that "missed rollovers during downtime
// are replayed between last_stats_update and now".
func (b *Bot) ReplayMissedRollovers(now, since time.Time) {
	cursor := nextMidnight(since)
	for !cursor.After(now) {
		b.RolloverDue(cursor, since)
		since = cursor
		cursor = cursor.AddDate(0, 0, 1)
	}
}

func nextMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	if !midnight.After(t) {
		midnight = midnight.AddDate(0, 0, 1)
	}
	return midnight
}

// EmptyChannelState tracks whether b's help channel currently has no
// full (non-trial) helper present, for the "Empty-channel alerting"
// behavior of spec.md §4.6.
type EmptyChannelState struct {
	Empty       bool
	FirstAlert  bool // true once the first alert for this empty spell has fired
}

// FullHelperCount returns the number of helpers at LevelHelper or above
// currently present in the help channel.
func (b *Bot) FullHelperCount() int {
	n := 0
	for _, h := range b.Helpers {
		if h.Present() && h.Level >= LevelHelper {
			n++
		}
	}
	return n
}

// EmptyAlertKind distinguishes the initial alert (no full helper at
// all) from the "only trials present" variant, per spec.md §4.6's
// "firstempty/firstonlytrial alert".
type EmptyAlertKind int

const (
	NoEmptyAlert EmptyAlertKind = iota
	AlertFirstEmpty
	AlertFirstOnlyTrial
	AlertNoLongerEmpty
)

// UpdatePresence recomputes b's empty-channel state after a join/part
// and returns which alert (if any) should fire.
func (b *Bot) UpdatePresence(state *EmptyChannelState) EmptyAlertKind {
	fullCount := b.FullHelperCount()
	anyPresent := false
	for _, h := range b.Helpers {
		if h.Present() {
			anyPresent = true
			break
		}
	}

	wasEmpty := state.Empty
	state.Empty = fullCount == 0

	if !wasEmpty && state.Empty {
		if anyPresent {
			return AlertFirstOnlyTrial
		}
		return AlertFirstEmpty
	}
	if wasEmpty && !state.Empty {
		return AlertNoLongerEmpty
	}
	return NoEmptyAlert
}
