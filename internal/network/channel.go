package network

import (
	"time"

	"github.com/nexusd/nexusd/internal/policer"
)

// ChanMode is a bitmask of channel modes. Only the subset spec.md §3.2
// and §4.5 care about are named; unrecognized modes are not recorded.
type ChanMode uint16

const (
	ChanInviteOnly ChanMode = 1 << iota
	ChanModerated
	ChanSecret
	ChanPrivate
	ChanNoExternal
	ChanTopicLock
	ChanRegistered
)

// Has reports whether every bit in want is set in m.
func (m ChanMode) Has(want ChanMode) bool { return m&want == want }

// ChanNode is a tracked channel. Grounded on girc's state.go Channel
// type (ChannelList/joined bookkeeping), extended with the
// topic/ban/policer/lock/bad-channel fields spec.md §3.2 names.
type ChanNode struct {
	Name      string
	CreatedAt time.Time

	Topic      string
	TopicSetBy string
	TopicSetAt time.Time

	Modes ChanMode
	Key   string
	Limit int

	Members []*ModeNode
	Bans    []*BanNode

	JoinPolicer *policer.Policer

	// LockCount suspends the empty-channel deletion invariant while
	// greater than zero (spec.md §3.2).
	LockCount int

	BadChannel  bool
	JoinFlooded bool
}

// NewChanNode constructs an empty ChanNode created at "at".
func NewChanNode(name string, at time.Time) *ChanNode {
	return &ChanNode{Name: name, CreatedAt: at}
}

// Lock increments LockCount, suspending deletion-on-empty.
func (c *ChanNode) Lock() { c.LockCount++ }

// Unlock decrements LockCount. Callers must re-check Deletable after
// Unlock to apply the deferred deletion.
func (c *ChanNode) Unlock() {
	if c.LockCount > 0 {
		c.LockCount--
	}
}

// Deletable reports whether c is empty, unlocked, and not registered:
// the condition under which spec.md §3.2 requires immediate deletion on
// the last part/kick.
func (c *ChanNode) Deletable() bool {
	return len(c.Members) == 0 && c.LockCount == 0 && !c.Modes.Has(ChanRegistered)
}

// MemberNode returns the ModeNode for u on c, if present.
func (c *ChanNode) MemberNode(u *UserNode) *ModeNode {
	for _, m := range c.Members {
		if m.User == u {
			return m
		}
	}
	return nil
}

// BanMatching returns the first ban whose mask matches hostmask, if
// any.
func (c *ChanNode) BanMatching(hostmask string) *BanNode {
	for _, b := range c.Bans {
		if MatchGlob(hostmask, b.Mask) {
			return b
		}
	}
	return nil
}

// AddBan appends a ban to c's ban list, owned by c from then on.
func (c *ChanNode) AddBan(mask, setter string, at time.Time) *BanNode {
	b := &BanNode{Mask: mask, Setter: setter, SetAt: at}
	c.Bans = append(c.Bans, b)
	return b
}

// RemoveBan deletes the ban with the given mask, if present.
func (c *ChanNode) RemoveBan(mask string) bool {
	for i, b := range c.Bans {
		if b.Mask == mask {
			c.Bans = append(c.Bans[:i], c.Bans[i+1:]...)
			return true
		}
	}
	return false
}

func (c *ChanNode) addMember(m *ModeNode) {
	c.Members = append(c.Members, m)
}

func (c *ChanNode) removeMember(m *ModeNode) {
	for i, existing := range c.Members {
		if existing == m {
			c.Members = append(c.Members[:i], c.Members[i+1:]...)
			return
		}
	}
}
