package operserv

import (
	"strings"

	"github.com/nexusd/nexusd/internal/network"
)

// BadWords is the set of substrings that make a channel name "bad"
// unless the channel is on the exempt list. Grounded on opserv.c's
// badwords dict + cmd_addbad/cmd_delbad, and on DESIGN.md's Open
// Question decision: matching is case-insensitive substring containment
// (srvx's actual behavior), not a glob.
type BadWords struct {
	words  []string
	exempt map[string]struct{}
}

func NewBadWords() *BadWords {
	return &BadWords{exempt: make(map[string]struct{})}
}

func (b *BadWords) Add(word string)    { b.words = append(b.words, strings.ToLower(word)) }
func (b *BadWords) Remove(word string) {
	w := strings.ToLower(word)
	for i, have := range b.words {
		if have == w {
			b.words = append(b.words[:i], b.words[i+1:]...)
			return
		}
	}
}

func (b *BadWords) Exempt(channel string)       { b.exempt[strings.ToLower(channel)] = struct{}{} }
func (b *BadWords) Unexempt(channel string)     { delete(b.exempt, strings.ToLower(channel)) }
func (b *BadWords) IsExempt(channel string) bool {
	_, ok := b.exempt[strings.ToLower(channel)]
	return ok
}

// IsBad reports whether channel contains a bad word and is not exempt.
func (b *BadWords) IsBad(channel string) bool {
	if b.IsExempt(channel) {
		return false
	}
	lower := strings.ToLower(channel)
	for _, w := range b.words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// ChannelWarnings maps a channel name to a reason broadcast to opers on
// every join, per spec.md §3.3's ChannelWarning.
type ChannelWarnings struct {
	byName map[string]string
}

func NewChannelWarnings() *ChannelWarnings {
	return &ChannelWarnings{byName: make(map[string]string)}
}

func (w *ChannelWarnings) Set(channel, reason string) { w.byName[strings.ToLower(channel)] = reason }
func (w *ChannelWarnings) Clear(channel string)       { delete(w.byName, strings.ToLower(channel)) }
func (w *ChannelWarnings) Get(channel string) (string, bool) {
	r, ok := w.byName[strings.ToLower(channel)]
	return r, ok
}

// ShutdownReaction decides the channel-shutdown reaction spec.md §4.5
// step 1 describes for a channel that has been judged "bad" (bad word,
// not exempt, or an active gline on its name): killing the joining
// user if the name does not start with '#', otherwise an in-channel
// lockdown.
type ShutdownReaction int

const (
	ReactionKillUser ShutdownReaction = iota
	ReactionLockdownChannel
)

// DecideReaction returns which reaction applies to a join onto a
// channel named name, which has already been judged bad.
func DecideReaction(name string) ShutdownReaction {
	if !strings.HasPrefix(name, "#") {
		return ReactionKillUser
	}
	return ReactionLockdownChannel
}

// LockdownPlan is the set of things a lockdown asks the Actions
// collaborator to perform: ensure services holds ops, set
// secret+invite-only with a catch-all ban, kick every non-service
// member, and the delayed part is scheduled by the caller via timeq.
type LockdownPlan struct {
	Channel       *network.ChanNode
	KickTargets   []*network.UserNode
	NeedsOpSelf   bool
}

// PlanLockdown inspects ch and returns the actions needed to lock it
// down, per spec.md §4.5 step 1's "ensure OperServ holds ops, set the
// channel to secret+invite-only with a *!*@* ban, kick everyone but
// services" sequence. It does not mutate ch; callers apply the plan
// through the Actions/State collaborators and record it in the time
// queue for the delayed part.
func PlanLockdown(ch *network.ChanNode, self *network.UserNode) *LockdownPlan {
	plan := &LockdownPlan{Channel: ch}
	selfOpped := false
	for _, m := range ch.Members {
		if m.User == self {
			selfOpped = m.Op
			continue
		}
		if !m.User.Modes.Has(network.UserService) {
			plan.KickTargets = append(plan.KickTargets, m.User)
		}
	}
	plan.NeedsOpSelf = !selfOpped
	return plan
}
