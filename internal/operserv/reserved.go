package operserv

import "github.com/nexusd/nexusd/internal/network"

// ReservedNick is a pseudo-user held by services to block a nickname,
// per spec.md §3.3 and §4.5's "Reserved nicks". The user it blocks is a
// regular UserNode in internal/network's clients dict (so existing
// collision handling applies unmodified); this only records the
// metadata saxdb needs to recreate it on startup.
type ReservedNick struct {
	Nick       string
	Persistent bool
}

// ReservedNicks owns the reserved-nick roster and the UserNode each one
// currently occupies in internal/network's clients dict (nil if not
// currently held, e.g. loaded from saxdb before the pseudo-client is
// (re)created).
type ReservedNicks struct {
	byNick map[string]*ReservedNick
	held   map[string]*network.UserNode
}

func NewReservedNicks() *ReservedNicks {
	return &ReservedNicks{
		byNick: make(map[string]*ReservedNick),
		held:   make(map[string]*network.UserNode),
	}
}

// Reserve registers the nick as reserved and records the pseudo-user
// currently holding it.
func (r *ReservedNicks) Reserve(nick string, persistent bool, holder *network.UserNode) {
	r.byNick[nick] = &ReservedNick{Nick: nick, Persistent: persistent}
	r.held[nick] = holder
}

// Release removes the reservation entirely.
func (r *ReservedNicks) Release(nick string) {
	delete(r.byNick, nick)
	delete(r.held, nick)
}

// IsReserved reports whether nick is currently held by a reservation.
func (r *ReservedNicks) IsReserved(nick string) bool {
	_, ok := r.byNick[nick]
	return ok
}

// Persistent returns the set of reservations to recreate on startup.
func (r *ReservedNicks) Persistent() []*ReservedNick {
	var out []*ReservedNick
	for _, rn := range r.byNick {
		if rn.Persistent {
			out = append(out, rn)
		}
	}
	return out
}
