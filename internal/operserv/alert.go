package operserv

import (
	"time"

	"github.com/nexusd/nexusd/internal/discriminator"
	"github.com/nexusd/nexusd/internal/network"
)

// Reaction is a UserAlert's response to a match, per spec.md §3.3.
type Reaction int

const (
	ReactNotice Reaction = iota
	ReactKill
	ReactGline
)

// UserAlert is a named, compiled user discriminator with a reaction,
// per spec.md §3.3. Grounded on opserv.c's userAlert struct and
// cmd_alert's discrim-plus-reaction pairing.
type UserAlert struct {
	Name       string
	Owner      string
	Text       string
	Discrim    *discriminator.User
	Reaction   Reaction
}

// hasNickGlob / hasChannelCriterion decide which index(es) an alert
// belongs to, per spec.md §3.3: "Indexed in three dicts: all alerts;
// alerts with a nickname mask (checked on nick change); alerts with a
// channel or min-channels criterion (checked on join)."
func (a *UserAlert) hasNickGlob() bool   { return a.Discrim.NickGlob != "" }
func (a *UserAlert) hasChannelCriterion() bool {
	return a.Discrim.Channel != "" || a.Discrim.ChannelCount.Set
}

// AlertTable indexes alerts per spec.md §3.3's three views.
type AlertTable struct {
	byName    map[string]*UserAlert
	nickAlerts []*UserAlert
	joinAlerts []*UserAlert
}

func NewAlertTable() *AlertTable {
	return &AlertTable{byName: make(map[string]*UserAlert)}
}

// Add registers an alert and indexes it into whichever of the
// nick-change/join views apply.
func (t *AlertTable) Add(a *UserAlert) {
	t.byName[a.Name] = a
	if a.hasNickGlob() {
		t.nickAlerts = append(t.nickAlerts, a)
	}
	if a.hasChannelCriterion() {
		t.joinAlerts = append(t.joinAlerts, a)
	}
}

// Remove deletes the alert registered under name from every index.
func (t *AlertTable) Remove(name string) bool {
	a, ok := t.byName[name]
	if !ok {
		return false
	}
	delete(t.byName, name)
	t.nickAlerts = removeAlert(t.nickAlerts, a)
	t.joinAlerts = removeAlert(t.joinAlerts, a)
	return true
}

func removeAlert(list []*UserAlert, target *UserAlert) []*UserAlert {
	for i, a := range list {
		if a == target {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// All returns every registered alert, checked on new-user per spec.md
// §4.5's new-user pipeline step 1.
func (t *AlertTable) All() []*UserAlert {
	out := make([]*UserAlert, 0, len(t.byName))
	for _, a := range t.byName {
		out = append(out, a)
	}
	return out
}

// OnNickChange returns alerts with a nickname mask.
func (t *AlertTable) OnNickChange() []*UserAlert { return t.nickAlerts }

// OnJoin returns alerts with a channel or min-channels criterion.
func (t *AlertTable) OnJoin() []*UserAlert { return t.joinAlerts }

// MatchResult is the outcome of evaluating one alert against a user:
// which alert fired and what reaction it calls for.
type MatchResult struct {
	Alert *UserAlert
}

// Evaluate checks every alert in list against u (with its current
// clone count) and returns the first match, nil if none.
func Evaluate(list []*UserAlert, u *network.UserNode, cloneCount int) *MatchResult {
	for _, a := range list {
		if a.Discrim.Matches(u, cloneCount) {
			return &MatchResult{Alert: a}
		}
	}
	return nil
}

// BlockDuration returns the gline duration for a GLINE reaction: the
// discriminator's own Duration if set, else defaultDuration, matching
// opserv.c falling back to opserv_conf.block_gline_duration.
func (a *UserAlert) BlockDuration(defaultDuration time.Duration) time.Duration {
	if a.Discrim.Duration > 0 {
		return a.Discrim.Duration
	}
	return defaultDuration
}
