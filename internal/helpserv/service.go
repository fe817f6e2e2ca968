package helpserv

import (
	"strconv"
	"time"

	"github.com/nexusd/nexusd/internal/helpfile"
	"github.com/nexusd/nexusd/internal/network"
	"github.com/nexusd/nexusd/internal/timeq"
)

// Service wires one or more Bots to network state, deciding when an
// inbound message/join should open a request per spec.md §4.6's
// "Request creation" trigger rule.
type Service struct {
	Bots    map[string]*Bot // keyed by bot nickname
	State   *network.State
	Actions network.Actions
	Timeq   *timeq.Queue

	// Render expands Bot.Templates against the $-escape grammar before
	// they're sent. A nil Render (the zero value, and what the unit
	// tests in this package use) falls back to sending the template
	// text unexpanded, so this package stays testable without a
	// catalog/service-nick wiring.
	Render *helpfile.Renderer

	empty map[string]*EmptyChannelState // keyed by bot nickname
}

// NewService constructs an empty Service.
func NewService(state *network.State, actions network.Actions, tq *timeq.Queue) *Service {
	return &Service{
		Bots:    make(map[string]*Bot),
		State:   state,
		Actions: actions,
		Timeq:   tq,
		empty:   make(map[string]*EmptyChannelState),
	}
}

// AddBot registers bot and arms its empty-channel tracking.
func (s *Service) AddBot(b *Bot) {
	s.Bots[b.Nick] = b
	s.empty[b.Nick] = &EmptyChannelState{}
}

// HandlePrivmsg implements spec.md §4.6's "Request creation"/"Message
// routing": a privmsg from a user not on the helper roster either opens
// a new request (if they have none open) or appends to their existing
// one.
func (s *Service) HandlePrivmsg(b *Bot, u *network.UserNode, text string, now time.Time) {
	if _, isHelper := b.Helpers[handleKeyFor(u)]; isHelper {
		return
	}
	if req := s.findOpenRequest(b, u); req != nil {
		if b.IsStale(req, now) {
			b.AppendMessage(req, "[stale update]", now)
		}
		b.AppendMessage(req, text, now)
		return
	}
	req, err := CreateRequest(b, u, "", now, time.Time{})
	if err != nil {
		return
	}
	s.notifyOpened(b, u, req)
}

// HandleJoin implements the req_on_join trigger: a join to the help
// channel by a non-helper opens a request if FlagReqOnJoin is set.
func (s *Service) HandleJoin(b *Bot, u *network.UserNode, now time.Time) {
	if !b.Flags.Has(FlagReqOnJoin) {
		return
	}
	if _, isHelper := b.Helpers[handleKeyFor(u)]; isHelper {
		return
	}
	if s.findOpenRequest(b, u) != nil {
		return
	}
	req, err := CreateRequest(b, u, "", now, time.Time{})
	if err != nil {
		return
	}
	s.notifyOpened(b, u, req)
}

func (s *Service) findOpenRequest(b *Bot, u *network.UserNode) *Request {
	for _, req := range b.Requests {
		if req.BoundUser == u {
			return req
		}
	}
	return nil
}

func handleKeyFor(u *network.UserNode) string {
	if u.Handle == nil {
		return ""
	}
	return u.Handle.Nickname
}

// notifyOpened sends b.Templates.Opened to req's requester, expanding
// its "${id}"/"${position}" references through s.Render when one is
// configured, and otherwise sending the raw template text.
func (s *Service) notifyOpened(b *Bot, u *network.UserNode, req *Request) {
	tmpl := b.Templates.Opened
	if tmpl == "" {
		tmpl = "Your request has been opened."
	}
	if s.Render == nil {
		s.Actions.Notice(u.Nick, tmpl)
		return
	}
	pos := b.WaitPosition(req)
	expand := func(name string) helpfile.Expansion {
		switch name {
		case "id":
			return helpfile.Expansion{Kind: helpfile.ExpandString, Str: strconv.Itoa(req.ID)}
		case "position":
			return helpfile.Expansion{Kind: helpfile.ExpandString, Str: strconv.Itoa(pos)}
		}
		return helpfile.Expansion{}
	}
	s.Render.Render(&helpfile.Recipient{Target: u.Nick, Handle: u.Handle}, b.Nick, helpfile.KindNotice, tmpl, expand)
}

// HandlePart applies the configured presence policies to a requester or
// helper who parts the help channel: only PolicyPart acts on a part.
func (s *Service) HandlePart(b *Bot, u *network.UserNode, now time.Time) {
	if req := s.findOpenRequest(b, u); req != nil && b.RequestPolicy == PolicyPart {
		b.ApplyRequesterDeparture(req, b.RequestPolicy)
	}
	if h, ok := b.Helpers[handleKeyFor(u)]; ok && h.Present() {
		h.JoinTime = time.Time{}
		if b.HelperPolicy == PolicyPart {
			b.ApplyHelperDeparture(h, b.HelperPolicy)
		}
		s.fireEmptyAlert(b, now)
	}
}

func (s *Service) fireEmptyAlert(b *Bot, now time.Time) {
	state := s.empty[b.Nick]
	switch b.UpdatePresence(state) {
	case AlertFirstEmpty:
		s.Actions.Notice(b.HelpChannel, b.Templates.Empty)
		if b.Intervals.EmptyInterval > 0 {
			s.armEmptyTimer(b, now)
		}
	case AlertFirstOnlyTrial:
		s.Actions.Notice(b.HelpChannel, b.Templates.Empty)
	case AlertNoLongerEmpty:
		s.Actions.Notice(b.HelpChannel, "A full helper has rejoined.")
	}
}

// armEmptyTimer schedules a re-emit of the empty-channel alert every
// EmptyInterval until a full helper rejoins, per spec.md §4.6.
func (s *Service) armEmptyTimer(b *Bot, now time.Time) {
	var recur timeq.Callback
	recur = func(data interface{}) {
		state := s.empty[b.Nick]
		if !state.Empty {
			return
		}
		s.Actions.Notice(b.HelpChannel, b.Templates.Empty)
		when := data.(time.Time).Add(b.Intervals.EmptyInterval)
		s.Timeq.Add(when, recur, when)
	}
	when := now.Add(b.Intervals.EmptyInterval)
	s.Timeq.Add(when, recur, when)
}
