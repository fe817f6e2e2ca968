package operserv

import (
	"time"

	cmap "github.com/orcaman/concurrent-map"
)

// Gline is a network-wide ban on a target mask, per spec.md §4.5's
// "Gline scheduling". Grounded on opserv.c's struct gline plus
// gline_add/gline_remove/gline_refresh.
type Gline struct {
	Target    string
	Issuer    string
	Reason    string
	IssuedAt  time.Time
	ExpiresAt time.Time // zero means permanent
	Enabled   bool
}

// GlineTable holds active glines keyed by target mask.
type GlineTable struct {
	byTarget cmap.ConcurrentMap
}

func NewGlineTable() *GlineTable {
	return &GlineTable{byTarget: cmap.New()}
}

// Advertiser is the outbound collaborator a GlineTable uses to announce
// gline state changes to the network's uplink, narrowing
// internal/network.Actions down to the one call glines need.
type Advertiser interface {
	AdvertiseGline(target, reason string, expiresAt time.Time)
	WithdrawGline(target string)
}

// Add records and enables a gline, advertising it to the uplink.
func (t *GlineTable) Add(g *Gline, adv Advertiser) {
	g.Enabled = true
	t.byTarget.Set(g.Target, g)
	adv.AdvertiseGline(g.Target, g.Reason, g.ExpiresAt)
}

// Remove withdraws and deletes a gline by target.
func (t *GlineTable) Remove(target string, adv Advertiser) bool {
	_, ok := t.byTarget.Get(target)
	if !ok {
		return false
	}
	t.byTarget.Remove(target)
	adv.WithdrawGline(target)
	return true
}

// Lookup returns the active gline for target, if any.
func (t *GlineTable) Lookup(target string) (*Gline, bool) {
	v, ok := t.byTarget.Get(target)
	if !ok {
		return nil, false
	}
	return v.(*Gline), true
}

// Refresh re-advertises every non-expired gline to the uplink, matching
// opserv.c's periodic gline_refresh.
func (t *GlineTable) Refresh(now time.Time, adv Advertiser) {
	for item := range t.byTarget.IterBuffered() {
		g := item.Val.(*Gline)
		if !g.ExpiresAt.IsZero() && !g.ExpiresAt.After(now) {
			continue
		}
		adv.AdvertiseGline(g.Target, g.Reason, g.ExpiresAt)
	}
}

// ExpireBefore removes (and returns) every gline whose expiry is
// non-zero and at or before now, for the timeq-driven expiry callback.
func (t *GlineTable) ExpireBefore(now time.Time, adv Advertiser) []*Gline {
	var expired []*Gline
	for item := range t.byTarget.IterBuffered() {
		g := item.Val.(*Gline)
		if !g.ExpiresAt.IsZero() && !g.ExpiresAt.After(now) {
			expired = append(expired, g)
		}
	}
	for _, g := range expired {
		t.Remove(g.Target, adv)
	}
	return expired
}
