package network

import (
	"net"
	"time"

	"github.com/nexusd/nexusd/internal/handle"
)

// UserMode is a bitmask of per-user mode flags named in spec.md §3.2.
type UserMode uint16

const (
	UserInvisible UserMode = 1 << iota
	UserOper
	UserHelper
	UserService
	UserDeaf
	UserHiddenHost
	UserGagged
	UserStamped
	UserPersistent
	UserLocal
	UserDead
	UserRegistering
)

// Has reports whether every bit in want is set in m.
func (m UserMode) Has(want UserMode) bool { return m&want == want }

// UserNode is a tracked network user. Grounded on girc's state.go User
// type, re-keyed from a single-connection's-eye-view to the network-wide
// entity spec.md §3.2 describes, with girc's Nick/Ident/Host/Extras
// fields kept and the mode-bit/handle/membership fields added.
type UserNode struct {
	Nick     string
	Ident    string
	Host     string
	Fakehost string
	IP       net.IP
	Info     string

	Modes UserMode

	// NickTime is the timestamp of the user's most recent nick change
	// (or arrival, if they have never changed nick).
	NickTime time.Time

	Uplink *Server

	// Handle is the authenticated account identity, if any. Owned by
	// the handle store; the network package only holds the pointer.
	Handle *handle.Info

	// Memberships is the ordered list of channels this user currently
	// occupies, one ModeNode per channel.
	Memberships []*ModeNode
}

// NewUserNode constructs a UserNode attached to uplink with the given
// nick timestamp.
func NewUserNode(nick, ident, host string, uplink *Server, at time.Time) *UserNode {
	return &UserNode{
		Nick:     nick,
		Ident:    ident,
		Host:     host,
		NickTime: at,
		Uplink:   uplink,
	}
}

// Mask returns the nick!ident@host hostmask, matching girc's User.Mask
// field.
func (u *UserNode) Mask() string {
	return u.Nick + "!" + u.Ident + "@" + u.Host
}

// VisibleHost returns Fakehost if set and the hidden-host mode is on,
// else Host.
func (u *UserNode) VisibleHost() string {
	if u.Modes.Has(UserHiddenHost) && u.Fakehost != "" {
		return u.Fakehost
	}
	return u.Host
}

// MembershipOn returns the ModeNode binding u to ch, if the user is
// currently on that channel.
func (u *UserNode) MembershipOn(ch *ChanNode) *ModeNode {
	for _, m := range u.Memberships {
		if m.Channel == ch {
			return m
		}
	}
	return nil
}

// removeMembership deletes m from u's membership list. It is a no-op if
// m is not present.
func (u *UserNode) removeMembership(m *ModeNode) {
	for i, existing := range u.Memberships {
		if existing == m {
			u.Memberships = append(u.Memberships[:i], u.Memberships[i+1:]...)
			return
		}
	}
}
