// Package timeq implements spec.md component G: a min-heap of
// (when, callback, data) tuples, used by every subsystem that needs to
// schedule future work (gline expiry, trust expiry, HelpServ stale/whine
// timers, mail retry, ...).
//
// Grounded on original_source's timeq.c (referenced by spec.md's Design
// Notes) for the add/del/dispatch contract, and on
// sandia-minimega-minimega/src/minimega/scheduler.go for idiomatic use
// of container/heap in this corpus (see SPEC_FULL.md Domain Stack for
// why container/heap and not an ecosystem priority queue).
package timeq

import (
	"container/heap"
	"reflect"
	"time"
)

// Callback is invoked with the data it was scheduled with, once its
// time has arrived.
type Callback func(data interface{})

// MatchFlags controls which fields Del must match; data always has to
// match (it's effectively the scheduling key). Leaving MatchWhen/
// MatchFunc unset makes that field a wildcard, matching the source's
// "flags allow wildcard match on when or fn."
type MatchFlags int

const (
	MatchWhen MatchFlags = 1 << iota
	MatchFunc
)

type item struct {
	when  time.Time
	fn    Callback
	data  interface{}
	seq   uint64
	index int
}

func funcIdentity(fn Callback) uintptr {
	if fn == nil {
		return 0
	}
	return reflect.ValueOf(fn).Pointer()
}

// Queue is a min-heap ordered by scheduled time, with stable FIFO
// tie-breaking via an insertion sequence counter.
type Queue struct {
	items []*item
	seq   uint64
}

// New returns an empty queue.
func New() *Queue {
	q := &Queue{}
	heap.Init(q)
	return q
}

// Add schedules fn(data) to run at or after when. Multiple entries with
// identical (when, fn, data) may coexist; each Add call is independent.
func (q *Queue) Add(when time.Time, fn Callback, data interface{}) {
	q.seq++
	heap.Push(q, &item{when: when, fn: fn, data: data, seq: q.seq})
}

// Del removes every entry whose data matches (via ==, so data is
// typically a pointer or other comparable key), additionally requiring
// a when/fn match when the corresponding MatchFlags bit is set. It
// returns the number of entries removed.
func (q *Queue) Del(when time.Time, fn Callback, data interface{}, flags MatchFlags) int {
	wantFn := funcIdentity(fn)
	removed := 0
	// Walk from the end so index shifts from heap.Remove don't skip
	// entries we haven't examined yet.
	for i := len(q.items) - 1; i >= 0; i-- {
		it := q.items[i]
		if it.data != data {
			continue
		}
		if flags&MatchWhen != 0 && !it.when.Equal(when) {
			continue
		}
		if flags&MatchFunc != 0 && funcIdentity(it.fn) != wantFn {
			continue
		}
		heap.Remove(q, it.index)
		removed++
	}
	return removed
}

// DelData removes every entry scheduled with exactly this data,
// regardless of when or fn: the common case ("cancel whatever timer
// is pending for this gline/request/trust entry").
func (q *Queue) DelData(data interface{}) int {
	return q.Del(time.Time{}, nil, data, 0)
}

// Len reports how many entries are pending.
func (q *Queue) Len() int {
	return len(q.items)
}

// Peek returns the earliest scheduled time without dispatching, and
// whether the queue is non-empty.
func (q *Queue) Peek() (time.Time, bool) {
	if len(q.items) == 0 {
		return time.Time{}, false
	}
	return q.items[0].when, true
}

// Dispatch pops and runs every entry due at or before now, in ascending
// time order (ties broken by insertion order). Callbacks that
// themselves Add or Del entries are safe: Dispatch re-checks the heap
// root after each run rather than iterating a snapshot, so newly added
// due entries run in the same pass and deletions just shrink the heap
// out from under the loop.
func (q *Queue) Dispatch(now time.Time) {
	for {
		if len(q.items) == 0 {
			return
		}
		next := q.items[0]
		if next.when.After(now) {
			return
		}
		heap.Pop(q)
		next.fn(next.data)
	}
}

// heap.Interface implementation.

func (q *Queue) Less(i, j int) bool {
	if q.items[i].when.Equal(q.items[j].when) {
		return q.items[i].seq < q.items[j].seq
	}
	return q.items[i].when.Before(q.items[j].when)
}

func (q *Queue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].index = i
	q.items[j].index = j
}

func (q *Queue) Push(x interface{}) {
	it := x.(*item)
	it.index = len(q.items)
	q.items = append(q.items, it)
}

func (q *Queue) Pop() interface{} {
	old := q.items
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	q.items = old[:n-1]
	return it
}
