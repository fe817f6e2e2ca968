package operserv

import (
	"time"

	"github.com/nexusd/nexusd/internal/network"
)

// Gag is a masked silence entry, linked (in this port, sliced) per
// spec.md §3.3. Grounded on opserv.c's struct gag_entry / gagList.
type Gag struct {
	Mask    string
	Owner   string
	Reason  string
	Expires time.Time // zero means permanent
}

// GagList holds the active gags in insertion order, matching gagList's
// singly-linked-list iteration order in opserv.c.
type GagList struct {
	gags []*Gag
}

func NewGagList() *GagList { return &GagList{} }

// Add appends a new gag.
func (l *GagList) Add(g *Gag) { l.gags = append(l.gags, g) }

// Remove deletes the first gag with the given mask.
func (l *GagList) Remove(mask string) bool {
	for i, g := range l.gags {
		if g.Mask == mask {
			l.gags = append(l.gags[:i], l.gags[i+1:]...)
			return true
		}
	}
	return false
}

// All returns the gags currently active, matching opserv.c's
// behavior of treating an expired-but-not-yet-reaped gag as still
// present until the time queue fires its removal.
func (l *GagList) All() []*Gag { return l.gags }

// Matching returns the first gag whose mask matches u's hostmask.
func (l *GagList) Matching(u *network.UserNode) *Gag {
	mask := u.Mask()
	for _, g := range l.gags {
		if network.MatchGlob(mask, g.Mask) {
			return g
		}
	}
	return nil
}

// ExpireBefore removes (and returns) every gag whose expiry is
// non-zero and at or before now, for the time-queue callback that
// reaps expired gags.
func (l *GagList) ExpireBefore(now time.Time) []*Gag {
	var expired []*Gag
	kept := l.gags[:0]
	for _, g := range l.gags {
		if !g.Expires.IsZero() && !g.Expires.After(now) {
			expired = append(expired, g)
			continue
		}
		kept = append(kept, g)
	}
	l.gags = kept
	return expired
}
