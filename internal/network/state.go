package network

import (
	"time"

	cmap "github.com/orcaman/concurrent-map"

	"github.com/nexusd/nexusd/internal/clock"
)

// State is the network-wide entity graph: every UserNode, ChanNode, and
// Server is owned by exactly one of its three dicts, per spec.md §5's
// "Shared resources and lifetime" rule. Grounded on girc's state.go
// (cmap-backed users/channels dicts owned by a single state value),
// widened from one connection's view to the whole network and given the
// createX/deleteX/lookupX operations spec.md §6.3 names.
type State struct {
	clients  cmap.ConcurrentMap
	channels cmap.ConcurrentMap
	servers  cmap.ConcurrentMap

	Self *Server

	Hooks *Hooks
	clock *clock.Clock
}

// New constructs an empty State rooted at a local pseudo-server named
// self, using clk as the single time source every state-mutating
// operation consults (spec.md's Design Notes: business logic never
// reads the OS clock directly).
func New(self string, clk *clock.Clock) *State {
	root := &Server{Name: self, LinkTime: clk.Now()}
	s := &State{
		clients:  cmap.New(),
		channels: cmap.New(),
		servers:  cmap.New(),
		Self:     root,
		Hooks:    NewHooks(),
		clock:    clk,
	}
	s.servers.Set(foldCase(self), root)
	return s
}

func key(name string) string { return foldCase(name) }

// LookupUser finds a UserNode by current nickname, case-insensitively.
func (s *State) LookupUser(nick string) (*UserNode, bool) {
	v, ok := s.clients.Get(key(nick))
	if !ok {
		return nil, false
	}
	return v.(*UserNode), true
}

// LookupChannel finds a ChanNode by name, case-insensitively.
func (s *State) LookupChannel(name string) (*ChanNode, bool) {
	v, ok := s.channels.Get(key(name))
	if !ok {
		return nil, false
	}
	return v.(*ChanNode), true
}

// LookupServer finds a Server by name, case-insensitively.
func (s *State) LookupServer(name string) (*Server, bool) {
	v, ok := s.servers.Get(key(name))
	if !ok {
		return nil, false
	}
	return v.(*Server), true
}

// CreateUser indexes a new UserNode by nickname and links it under
// uplink, then fires new-user hooks. Corresponds to spec.md §6.3's
// "User arrival".
func (s *State) CreateUser(nick, ident, host string, uplink *Server) *UserNode {
	u := NewUserNode(nick, ident, host, uplink, s.clock.Now())
	s.clients.Set(key(nick), u)
	uplink.ClientCount++
	s.Hooks.NewUser.Each(func(h NewUserHook) { h(&NewUserEvent{User: u}) })
	return u
}

// DeleteUser fires del-user hooks, parts the user from every channel
// (applying the empty-channel deletion rule), and removes them from
// clients and their uplink. Corresponds to spec.md §6.3's "User
// departure".
func (s *State) DeleteUser(u *UserNode, reason string) {
	s.Hooks.DelUser.Each(func(h DelUserHook) { h(&DelUserEvent{User: u, Reason: reason}) })

	// Copy first: Part mutates u.Memberships as it goes.
	memberships := append([]*ModeNode(nil), u.Memberships...)
	for _, m := range memberships {
		s.Part(u, m.Channel, reason, false)
	}

	s.clients.Remove(key(u.Nick))
	if u.Uplink != nil {
		u.Uplink.ClientCount--
	}
	u.Modes |= UserDead
}

// usersOn returns every UserNode currently linked directly under srv.
func (s *State) usersOn(srv *Server) []*UserNode {
	var out []*UserNode
	for _, v := range s.clients.Items() {
		u := v.(*UserNode)
		if u.Uplink == srv {
			out = append(out, u)
		}
	}
	return out
}

// CreateServer links a newly-bursted remote server under uplink and
// indexes it by name, then fires ServerLink hooks. Corresponds to
// spec.md §6.3's server burst and §6.4's server-link.
func (s *State) CreateServer(name, numeric string, uplink *Server) *Server {
	srv := NewServer(name, numeric, uplink, s.clock.Now())
	s.servers.Set(key(name), srv)
	s.Hooks.ServerLink.Each(func(h ServerLinkHook) { h(&ServerLinkEvent{Server: srv}) })
	return srv
}

// DeleteServer removes srv and its whole subtree from the server tree.
// Per spec.md §3.2's "On DelServer, all downstream users are removed
// first (depth-first, post-order)", it walks the subtree with
// walkPostOrder so every descendant server has its users removed (via
// DeleteUser) and is itself unindexed and Exit-hooked before srv's own
// ancestors are touched; srv is finally detached from its uplink.
func (s *State) DeleteServer(srv *Server, reason string) {
	srv.walkPostOrder(func(n *Server) {
		for _, u := range s.usersOn(n) {
			s.DeleteUser(u, reason)
		}
		s.servers.Remove(key(n.Name))
		s.Hooks.Exit.Each(func(h ExitHook) { h(&ExitEvent{Server: n}) })
	})
	srv.detach()
}

// Rename changes u's nickname, re-indexing it in clients, updating
// NickTime, and firing nick-change hooks with the prior nickname.
// Corresponds to spec.md §6.3's "Nick change".
func (s *State) Rename(u *UserNode, newNick string) {
	old := u.Nick
	s.clients.Remove(key(old))
	u.Nick = newNick
	u.NickTime = s.clock.Now()
	s.clients.Set(key(newNick), u)
	s.Hooks.NickChange.Each(func(h NickChangeHook) { h(&NickChangeEvent{User: u, OldNick: old}) })
}

// CreateChannel creates an empty ChanNode and fires new-channel hooks.
func (s *State) CreateChannel(name string) *ChanNode {
	ch := NewChanNode(name, s.clock.Now())
	s.channels.Set(key(name), ch)
	s.Hooks.NewChannel.Each(func(h NewChannelHook) { h(&NewChannelEvent{Channel: ch}) })
	return ch
}

// DeleteChannel fires del-channel hooks and removes ch from channels.
// Callers must have already verified ch.Deletable().
func (s *State) DeleteChannel(ch *ChanNode) {
	s.Hooks.DelChannel.Each(func(h DelChannelHook) { h(&DelChannelEvent{Channel: ch}) })
	s.channels.Remove(key(ch.Name))
}

// Join adds u to channel `name`, creating the channel if it does not
// exist. If the channel already exists and `remoteCreated` is set, the
// timestamp half of spec.md §6.3's wipeout/merge/ignore policy is
// applied by comparing remoteCreated against the channel's CreatedAt
// before the membership is added; pass a zero time to skip this (a
// purely local join, e.g. a service joining its own channel). Join has
// no replacement topic/mode/ban payload to apply; callers that do have
// one (a real server burst or server-link channel merge) use JoinBurst
// instead, which performs the policy's wipe in full.
func (s *State) Join(u *UserNode, name string, remoteCreated time.Time) (*ChanNode, *ModeNode) {
	ch, existed := s.LookupChannel(name)
	relAge := 0
	if !existed {
		ch = s.CreateChannel(name)
		if !remoteCreated.IsZero() {
			ch.CreatedAt = remoteCreated
		}
	} else if !remoteCreated.IsZero() {
		relAge = applyBurstPolicy(ch, remoteCreated)
	}

	m := &ModeNode{Channel: ch, User: u, IdleSince: s.clock.Now()}
	ch.addMember(m)
	u.Memberships = append(u.Memberships, m)

	s.Hooks.Join.Each(func(h JoinHook) { h(&JoinEvent{User: u, Channel: ch, RelAge: relAge}) })
	return ch, m
}

// BurstChannelState carries the topic/mode/ban set a remote server
// reports for a channel during burst or a server-link channel merge:
// the payload spec.md §6.3's wipeout policy replaces a channel's own
// topic/modes/bans with when the reported creation time is strictly
// older than the one already recorded.
type BurstChannelState struct {
	CreatedAt  time.Time
	Topic      string
	TopicSetBy string
	TopicSetAt time.Time
	Modes      ChanMode
	Bans       []*BanNode
}

// JoinBurst is Join's burst-aware counterpart: u joins name carrying
// burst's full replacement topic/mode/ban set, so spec.md §6.3's
// wipeout/merge/ignore policy can actually replace a channel's recorded
// state instead of only comparing timestamps. A channel that does not
// yet exist is created from burst's payload outright.
func (s *State) JoinBurst(u *UserNode, name string, burst BurstChannelState) (*ChanNode, *ModeNode) {
	ch, existed := s.LookupChannel(name)
	relAge := 0
	if !existed {
		ch = s.CreateChannel(name)
		ch.CreatedAt = burst.CreatedAt
		ch.Topic, ch.TopicSetBy, ch.TopicSetAt = burst.Topic, burst.TopicSetBy, burst.TopicSetAt
		ch.Modes = burst.Modes
		ch.Bans = append([]*BanNode(nil), burst.Bans...)
	} else {
		relAge = applyBurstReplace(ch, burst)
	}

	m := &ModeNode{Channel: ch, User: u, IdleSince: s.clock.Now()}
	ch.addMember(m)
	u.Memberships = append(u.Memberships, m)

	s.Hooks.Join.Each(func(h JoinHook) { h(&JoinEvent{User: u, Channel: ch, RelAge: relAge}) })
	return ch, m
}

// applyBurstReplace is applyBurstPolicy's full counterpart, used by
// JoinBurst where a replacement payload is actually available: on a
// strictly older inbound timestamp it replaces ch's topic, modes, and
// bans with burst's values and re-ops any services that held ops
// (spec.md §6.3's wipeout); on an equal timestamp it merges modes by
// OR rather than replacing them; on a newer timestamp it ignores
// burst's payload entirely.
func applyBurstReplace(ch *ChanNode, burst BurstChannelState) int {
	switch {
	case burst.CreatedAt.Before(ch.CreatedAt):
		ch.CreatedAt = burst.CreatedAt
		ch.Topic, ch.TopicSetBy, ch.TopicSetAt = burst.Topic, burst.TopicSetBy, burst.TopicSetAt
		ch.Modes = burst.Modes
		ch.Bans = append([]*BanNode(nil), burst.Bans...)
		for _, m := range ch.Members {
			if m.User.Modes.Has(UserService) {
				m.Op = true
			}
		}
		return -1
	case burst.CreatedAt.After(ch.CreatedAt):
		return 1
	default:
		ch.Modes |= burst.Modes
		return 0
	}
}

// applyBurstPolicy compares a newly-received creation timestamp against
// ch's recorded one and applies the timestamp half of spec.md §6.3's
// wipeout/merge/ignore rule, returning -1 (we wiped out, theirs was
// older), 0 (merge, equal), or +1 (ignore, ours was older). It has no
// replacement payload to apply, so on the wipeout branch it only
// updates the timestamp and re-ops any services that held ops; see
// applyBurstReplace for the full wipe.
func applyBurstPolicy(ch *ChanNode, remoteCreated time.Time) int {
	switch {
	case remoteCreated.Before(ch.CreatedAt):
		ch.CreatedAt = remoteCreated
		for _, m := range ch.Members {
			if m.User.Modes.Has(UserService) {
				m.Op = true
			}
		}
		return -1
	case remoteCreated.After(ch.CreatedAt):
		return 1
	default:
		return 0
	}
}

// Part removes u's membership on ch, fires part hooks (unless
// suppressed by a kick, which fires its own), and deletes ch if it
// becomes empty and deletable. Corresponds to spec.md §6.3's
// "Part/Kick".
func (s *State) Part(u *UserNode, ch *ChanNode, reason string, firePart bool) {
	m := u.MembershipOn(ch)
	if m == nil {
		return
	}
	ch.removeMember(m)
	u.removeMembership(m)

	if firePart {
		s.Hooks.Part.Each(func(h PartHook) { h(&PartEvent{User: u, Channel: ch, Reason: reason}) })
	}
	if ch.Deletable() {
		s.DeleteChannel(ch)
	}
}

// Kick removes target's membership on ch (via Part, without firing
// part hooks) and fires kick hooks instead.
func (s *State) Kick(kicker, target *UserNode, ch *ChanNode, reason string) {
	s.Hooks.Kick.Each(func(h KickHook) {
		h(&KickEvent{Kicker: kicker, Target: target, Channel: ch, Reason: reason})
	})
	s.Part(target, ch, reason, false)
}

// SetTopic updates ch's topic/setter/time. It fires no hook.
func (s *State) SetTopic(ch *ChanNode, topic, setter string) {
	ch.Topic = topic
	ch.TopicSetBy = setter
	ch.TopicSetAt = s.clock.Now()
}
