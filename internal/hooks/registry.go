// Package hooks implements the generic callback-registry abstraction
// spec.md's Design Notes call for: "a single generic registry
// abstraction parameterized by the callback signature" replacing the
// source's per-event growable function-pointer arrays (new_user_func_t,
// del_user_func_t, join_func_t, ...).
//
// Grounded on github.com/lrstanley/girc's Caller/nestedHandlers
// (caller.go, handler.go): a registration-ordered list of callbacks per
// command, with stable ids for removal. Unlike girc (which dispatches
// concurrently across goroutines and accepts any iteration order),
// registries here preserve registration order and run callbacks
// synchronously, per spec.md §5's single-threaded cooperative model and
// §8's ordering invariants.
package hooks

import (
	"fmt"
	"sync/atomic"
)

// Handle identifies a single registered callback for later removal.
type Handle uint64

var handleSeq uint64

func nextHandle() Handle {
	return Handle(atomic.AddUint64(&handleSeq, 1))
}

type entry[F any] struct {
	id Handle
	fn F
}

// Registry holds an ordered list of callbacks of type F. F is typically
// a function type; the zero value is not usable, use NewRegistry.
type Registry[F any] struct {
	entries []entry[F]
}

// NewRegistry constructs an empty registry.
func NewRegistry[F any]() *Registry[F] {
	return &Registry[F]{}
}

// Add appends fn to the end of the registration order and returns a
// Handle that can later be passed to Remove.
func (r *Registry[F]) Add(fn F) Handle {
	h := nextHandle()
	r.entries = append(r.entries, entry[F]{id: h, fn: fn})
	return h
}

// Remove deregisters the callback associated with h. It reports whether
// a matching entry was found. Safe to call while Each is iterating a
// snapshot (see Each).
func (r *Registry[F]) Remove(h Handle) bool {
	for i, e := range r.entries {
		if e.id == h {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Len reports how many callbacks are currently registered.
func (r *Registry[F]) Len() int {
	return len(r.entries)
}

// Each calls visit once per registered callback, in registration order,
// over a snapshot taken at call time. Snapshotting means a callback that
// adds or removes entries (including removing itself) never corrupts
// the in-flight iteration: the exact tolerance spec.md §5 requires
// ("a callback that removes the user it was passed must signal this...
// so the iterating registry does not dereference freed memory"; here
// the registry itself is immune by construction, and the callback's own
// signal is an application-level return value on F, not a hooks concern).
func (r *Registry[F]) Each(visit func(F)) {
	snapshot := make([]entry[F], len(r.entries))
	copy(snapshot, r.entries)
	for _, e := range snapshot {
		visit(e.fn)
	}
}

// Clear removes every registered callback.
func (r *Registry[F]) Clear() {
	r.entries = nil
}

func (r *Registry[F]) String() string {
	return fmt.Sprintf("<Registry len=%d>", r.Len())
}

// StopIteration is the distinguished return value hook functions may
// use (spec.md Design Notes: "Hook functions signal destructive
// consumption of their argument via a distinguished return value so
// that the registry stops iterating"). EachUntilStop honors it.
const StopIteration = true

// EachUntilStop calls visit once per registered callback, in
// registration order, stopping early the first time visit returns
// true (StopIteration).
func (r *Registry[F]) EachUntilStop(visit func(F) bool) {
	snapshot := make([]entry[F], len(r.entries))
	copy(snapshot, r.entries)
	for _, e := range snapshot {
		if visit(e.fn) {
			return
		}
	}
}
