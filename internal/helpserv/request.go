package helpserv

import (
	"time"

	"github.com/pkg/errors"

	"github.com/nexusd/nexusd/internal/network"
)

// Request is one open help ticket, per spec.md §3.4. Grounded on
// mod-helpserv.c's struct helpserv_request.
type Request struct {
	ID             int
	AssignedHelper *Helper
	Text           []string

	BoundUser   *network.UserNode
	BoundHandle string // set when the bound user has quit under PolicyClose

	OpenTime     time.Time
	AssignedTime time.Time
	LastUpdate   time.Time
}

// ErrNoIdentity is returned by CreateRequest when neither a user nor a
// handle is supplied, violating spec.md §3.4's invariant that
// (user=∅ ∧ handle=∅) is disallowed.
var ErrNoIdentity = errors.New("request must be bound to a user or a handle")

// CreateRequest opens a new request on b for user (and/or handleName),
// per spec.md §4.6's "Request creation". burstBegin, if non-zero,
// indicates the request was created during a net-burst: it is
// prepended (rather than appended in open-time order) and its
// OpenTime is pinned to burstBegin, matching mod-helpserv.c's
// burst-order preservation.
func CreateRequest(b *Bot, user *network.UserNode, handleName string, now time.Time, burstBegin time.Time) (*Request, error) {
	if user == nil && handleName == "" {
		return nil, ErrNoIdentity
	}
	openTime := now
	if !burstBegin.IsZero() {
		openTime = burstBegin
	}
	req := &Request{
		ID:          b.nextID(),
		BoundUser:   user,
		BoundHandle: handleName,
		OpenTime:    openTime,
		LastUpdate:  now,
	}
	b.Requests[req.ID] = req

	if !burstBegin.IsZero() {
		b.Unhandled = append([]*Request{req}, b.Unhandled...)
	} else {
		b.Unhandled = append(b.Unhandled, req)
	}
	return req, nil
}

// WaitPosition returns req's 1-based position in the unhandled queue,
// or 0 if it is not unhandled (already assigned).
func (b *Bot) WaitPosition(req *Request) int {
	for i, r := range b.Unhandled {
		if r == req {
			return i + 1
		}
	}
	return 0
}

// AppendMessage appends text to req, up to b.MaxRequestLength lines,
// per spec.md §4.6's "Message routing". Returns false if the request is
// already full.
func (b *Bot) AppendMessage(req *Request, line string, now time.Time) bool {
	if b.MaxRequestLength > 0 && len(req.Text) >= b.MaxRequestLength {
		return false
	}
	req.Text = append(req.Text, line)
	req.LastUpdate = now
	return true
}

// IsStale reports whether req has been idle longer than
// b.Intervals.StaleDelay and still has room for more text, per spec.md
// §4.6: a stale, non-full request pages the helper with a marker.
func (b *Bot) IsStale(req *Request, now time.Time) bool {
	if b.Intervals.StaleDelay <= 0 {
		return false
	}
	if b.MaxRequestLength > 0 && len(req.Text) >= b.MaxRequestLength {
		return false
	}
	return now.Sub(req.LastUpdate) > b.Intervals.StaleDelay
}

// removeUnhandled deletes req from the unhandled queue, if present.
func (b *Bot) removeUnhandled(req *Request) {
	for i, r := range b.Unhandled {
		if r == req {
			b.Unhandled = append(b.Unhandled[:i], b.Unhandled[i+1:]...)
			return
		}
	}
}

// Assign binds req to helper, removing it from the unhandled queue and
// crediting the helper's picked-up (assign) or reassigned-to (reassign)
// counter, per spec.md §4.6's "Assignment".
func (b *Bot) Assign(req *Request, helper *Helper, now time.Time, reassign bool) {
	if req.AssignedHelper != nil && req.AssignedHelper != helper {
		req.AssignedHelper.ReassignedFrom.Add(1)
	}
	req.AssignedHelper = helper
	req.AssignedTime = now
	b.removeUnhandled(req)
	if reassign {
		helper.ReassignedTo.Add(1)
	} else {
		helper.PickedUp.Add(1)
	}
}

// Close removes req from b entirely and credits the assigned helper's
// closed counter, per spec.md §4.6.
func (b *Bot) Close(req *Request, now time.Time) {
	if req.AssignedHelper != nil {
		req.AssignedHelper.Closed.Add(1)
	}
	b.removeUnhandled(req)
	delete(b.Requests, req.ID)
}

// Unassign returns req to the unhandled queue at its original
// open-time position, per the `part`/`quit` presence policy's "a
// helper's assignments are unassigned (returned to the unhandled queue
// in their original open-time position)".
func (b *Bot) Unassign(req *Request) {
	req.AssignedHelper = nil
	req.AssignedTime = time.Time{}

	inserted := false
	for i, r := range b.Unhandled {
		if r.OpenTime.After(req.OpenTime) {
			b.Unhandled = append(b.Unhandled[:i], append([]*Request{req}, b.Unhandled[i:]...)...)
			inserted = true
			break
		}
	}
	if !inserted {
		b.Unhandled = append(b.Unhandled, req)
	}
}

// ApplyRequesterDeparture handles a bound user's part or quit from the
// help channel per spec.md §4.6's presence policy table.
func (b *Bot) ApplyRequesterDeparture(req *Request, policy PresencePolicy) {
	switch policy {
	case PolicyPart, PolicyQuit:
		b.Close(req, req.LastUpdate)
	case PolicyClose:
		req.BoundUser = nil
	}
}

// ApplyHelperDeparture handles a helper's part/quit from the help
// channel per spec.md §4.6's presence policy table: under part/quit
// every assignment is unassigned; under close, assignments persist
// until the helper reconnects.
func (b *Bot) ApplyHelperDeparture(helper *Helper, policy PresencePolicy) []*Request {
	var affected []*Request
	for _, req := range b.Requests {
		if req.AssignedHelper != helper {
			continue
		}
		affected = append(affected, req)
		if policy != PolicyClose {
			b.Unassign(req)
		}
	}
	return affected
}
