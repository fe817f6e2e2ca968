package operserv

import (
	"time"

	"github.com/nexusd/nexusd/internal/network"
	"github.com/nexusd/nexusd/internal/timeq"
)

// Config holds the tunables opserv.c keeps in opserv_conf: clone/block
// gline durations and join-flood moderation thresholds.
type Config struct {
	CloneGlineDuration          time.Duration
	BlockGlineDuration          time.Duration
	JoinFloodModerateThreshold  int
	DefaultCloneLimit           int
}

// Service wires the network state and every OperServ substructure
// together and implements the join-time and new-user policy pipelines
// of spec.md §4.5. Grounded on opserv.c's handle_join/handle_new_user
// top-level dispatch.
type Service struct {
	State      *network.State
	Actions    network.Actions
	Advertiser Advertiser

	Trust    *TrustTable
	Gags     *GagList
	Alerts   *AlertTable
	Glines   *GlineTable
	BadWords *BadWords
	Warnings *ChannelWarnings
	Reserved *ReservedNicks

	Timeq *timeq.Queue

	NewUserPolicer *NewConnPolicer

	Conf Config
}

// NewConnPolicer tracks the new-connection flood policer and its
// derived "flood alert" latch, per spec.md §4.5 step 4: "an exhaustion
// transitions into 'flood alert' state, cleared when the policer
// recovers."
type NewConnPolicer struct {
	conformsFn func(now time.Time, cost int) bool
	InFlood    bool
}

// NewNewConnPolicer wraps a conforms predicate (typically a
// *policer.Policer's Conforms method) with flood-alert latch tracking.
func NewNewConnPolicer(conforms func(now time.Time, cost int) bool) *NewConnPolicer {
	return &NewConnPolicer{conformsFn: conforms}
}

// Drive runs one token through the policer and updates InFlood,
// returning whether the flood-alert state just transitioned true.
func (p *NewConnPolicer) Drive(now time.Time) (enteredFlood bool) {
	ok := p.conformsFn(now, 1)
	if !ok && !p.InFlood {
		p.InFlood = true
		return true
	}
	if ok && p.InFlood {
		p.InFlood = false
	}
	return false
}

// JoinOutcome summarizes what OnJoin decided, for callers (tests, the
// services wiring layer) to assert on or log.
type JoinOutcome struct {
	Lockdown    *LockdownPlan
	Killed      bool
	AlertFired  *MatchResult
	Moderated   bool
	JustFlooded bool
}

// OnJoin runs spec.md §4.5's join-time policy pipeline for u joining
// ch.
func (s *Service) OnJoin(u *network.UserNode, ch *network.ChanNode, now time.Time) *JoinOutcome {
	out := &JoinOutcome{}

	// Step 1: bad-channel shutdown reaction.
	if s.isBadChannel(ch) {
		switch DecideReaction(ch.Name) {
		case ReactionKillUser:
			s.Actions.Kill(u.Nick, "Bad channel name")
			out.Killed = true
			return out
		case ReactionLockdownChannel:
			plan := PlanLockdown(ch, s.selfUser())
			out.Lockdown = plan
			s.applyLockdown(plan, now)
		}
	}

	// Step 2: channel-based alerts.
	cloneCount := s.cloneCountFor(u)
	if m := Evaluate(s.Alerts.OnJoin(), u, cloneCount); m != nil {
		out.AlertFired = m
		s.react(m.Alert, u, now)
	}

	// Step 3: join-policer / flood detection.
	if ch.JoinPolicer != nil {
		if !ch.JoinPolicer.Conforms(now, 1) {
			if !ch.JoinFlooded {
				ch.JoinFlooded = true
				out.JustFlooded = true
				if len(ch.Members) > s.Conf.JoinFloodModerateThreshold {
					network.ApplyChannelModes(ch, "+m", nil)
					out.Moderated = true
				}
			}
		}
	}

	return out
}

// isBadChannel reports whether ch's name is judged bad, per step 1:
// a bad word (and not exempt) or an active gline on the name.
func (s *Service) isBadChannel(ch *network.ChanNode) bool {
	if s.BadWords.IsBad(ch.Name) {
		return true
	}
	if _, ok := s.Glines.Lookup(ch.Name); ok {
		return true
	}
	return false
}

func (s *Service) applyLockdown(plan *LockdownPlan, now time.Time) {
	ch := plan.Channel
	if plan.NeedsOpSelf {
		s.Actions.Mode(ch.Name, "+o "+s.selfUser().Nick)
	}
	network.ApplyChannelModes(ch, "+si", nil)
	ch.AddBan("*!*@*", s.selfUser().Nick, now)
	s.Actions.Mode(ch.Name, "+b *!*@*")
	for _, target := range plan.KickTargets {
		s.Actions.Kick(ch.Name, target.Nick, "Channel is locked down")
	}
	s.Timeq.Add(now.Add(time.Minute), func(data interface{}) {
		s.Actions.Part(ch.Name, "Lockdown complete")
	}, ch)
}

// NewUserOutcome summarizes OnNewUser's decision.
type NewUserOutcome struct {
	Aborted    bool
	AlertFired *MatchResult
	Gagged     bool
	Gline      *Gline
	EnteredFlood bool
}

// OnNewUser runs spec.md §4.5's new-user pipeline for a freshly
// arrived u connecting from ip.
func (s *Service) OnNewUser(u *network.UserNode, ip string, now time.Time) *NewUserOutcome {
	out := &NewUserOutcome{}

	// Step 1: user alerts; KILL/GLINE abandons further processing.
	if m := Evaluate(s.Alerts.All(), u, 0); m != nil {
		out.AlertFired = m
		s.react(m.Alert, u, now)
		if m.Alert.Reaction == ReactKill || m.Alert.Reaction == ReactGline {
			out.Aborted = true
			return out
		}
	}

	// Step 2: gag list.
	if g := s.Gags.Matching(u); g != nil {
		u.Modes |= network.UserGagged
		out.Gagged = true
	}

	// Step 3: HostInfo bookkeeping + clone gline.
	if ip != "" && !isLoopback(ip) {
		count := s.Trust.Connect(ip, u.Nick)
		limit := s.Trust.LimitFor(ip, s.Conf.DefaultCloneLimit)
		if count >= limit {
			for _, nick := range s.hostInfoClients(ip) {
				s.Actions.Notice(nick, "Multiple connections detected from your host.")
			}
		}
		if count > limit {
			g := &Gline{
				Target:   "*@" + ip,
				Issuer:   "OperServ",
				Reason:   "AUTO Excessive connections from a single host.",
				IssuedAt: now,
				ExpiresAt: now.Add(s.Conf.CloneGlineDuration),
			}
			s.Glines.Add(g, s.Advertiser)
			out.Gline = g
		}
	}

	// Step 4: new-connection policer.
	if s.NewUserPolicer != nil {
		out.EnteredFlood = s.NewUserPolicer.Drive(now)
	}

	return out
}

func (s *Service) react(a *UserAlert, u *network.UserNode, now time.Time) {
	switch a.Reaction {
	case ReactNotice:
		s.Actions.Notice("#opers", a.Text)
	case ReactKill:
		s.Actions.Kill(u.Nick, a.Text)
	case ReactGline:
		dur := a.BlockDuration(s.Conf.BlockGlineDuration)
		g := &Gline{
			Target:    "*@" + u.IP.String(),
			Issuer:    a.Owner,
			Reason:    a.Text,
			IssuedAt:  now,
			ExpiresAt: now.Add(dur),
		}
		s.Glines.Add(g, s.Advertiser)
	}
}

func (s *Service) selfUser() *network.UserNode {
	u, _ := s.State.LookupUser("operserv")
	return u
}

func (s *Service) cloneCountFor(u *network.UserNode) int {
	if u.IP == nil {
		return 0
	}
	hi, ok := s.Trust.Host(u.IP.String())
	if !ok {
		return 0
	}
	return len(hi.Clients)
}

func (s *Service) hostInfoClients(ip string) []string {
	hi, ok := s.Trust.Host(ip)
	if !ok {
		return nil
	}
	return hi.Clients
}

func isLoopback(ip string) bool {
	return ip == "127.0.0.1" || ip == "::1"
}
