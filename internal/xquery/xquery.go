// Package xquery implements spec.md §6.6: the lightweight keyed
// request/response channel a peer server addresses to the pseudo-server
// (e.g. an IAuth module's "LOGIN2 ip host user account password").
// Distinct from network.Hooks.XQuery, which is a fire-and-forget
// notification registry for anything that merely wants to observe an
// inbound xquery; a Dispatcher here is what actually answers one,
// producing the OK/AGAIN/NO response the core sends back as an
// xresponse outbound action. Grounded on
// original_source/src/mod-iauth_loc.c's iauth_loc_xquery, the only
// xquery responder in the retrieved source.
package xquery

import "strings"

// Kind tags how a query request was answered.
type Kind int

const (
	OK Kind = iota
	Again
	No
)

func (k Kind) String() string {
	switch k {
	case OK:
		return "OK"
	case Again:
		return "AGAIN"
	case No:
		return "NO"
	default:
		return "NO"
	}
}

// Response is a Handler's answer to a query it recognized.
type Response struct {
	Kind    Kind
	Payload string
}

// Handler inspects an inbound query and, if it recognizes it, answers
// it and reports true. It reports false for anything it doesn't
// recognize so Dispatch can fall through to the next registered
// handler, the same way each mod-*.c xquery function pattern-matches
// on the query string's own prefix rather than being routed to by key.
type Handler func(fromServer, routing, query string) (Response, bool)

// PrefixHandler builds a Handler that only fires for queries beginning
// with prefix+" ", passing fn the remainder of the query string,
// matching iauth_loc_xquery's `strncmp(query, "LOGIN2 ", 7)` guard
// followed by parsing what comes after it.
func PrefixHandler(prefix string, fn func(fromServer, routing, rest string) Response) Handler {
	full := prefix + " "
	return func(fromServer, routing, query string) (Response, bool) {
		if !strings.HasPrefix(query, full) {
			return Response{}, false
		}
		return fn(fromServer, routing, query[len(full):]), true
	}
}

// Dispatcher holds every registered Handler, tried in registration
// order.
type Dispatcher struct {
	handlers []Handler
}

// NewDispatcher constructs an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Register appends h to the dispatch order.
func (d *Dispatcher) Register(h Handler) {
	d.handlers = append(d.handlers, h)
}

// Dispatch tries every registered handler in order and returns the
// first response produced. If nothing recognizes the query it answers
// NO, since an unaddressed xquery must still get a reply.
func (d *Dispatcher) Dispatch(fromServer, routing, query string) Response {
	for _, h := range d.handlers {
		if resp, ok := h(fromServer, routing, query); ok {
			return resp
		}
	}
	return Response{Kind: No, Payload: "unrecognized query"}
}
