package timeq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(s int) time.Time {
	return time.Unix(int64(s), 0)
}

func TestDispatchOrdersByTimeThenInsertion(t *testing.T) {
	q := New()
	var ran []string

	q.Add(at(30), func(d interface{}) { ran = append(ran, d.(string)) }, "third")
	q.Add(at(10), func(d interface{}) { ran = append(ran, d.(string)) }, "first")
	q.Add(at(10), func(d interface{}) { ran = append(ran, d.(string)) }, "first-b")
	q.Add(at(20), func(d interface{}) { ran = append(ran, d.(string)) }, "second")

	q.Dispatch(at(25))
	assert.Equal(t, []string{"first", "first-b", "second"}, ran)
	assert.Equal(t, 1, q.Len())

	q.Dispatch(at(100))
	assert.Equal(t, []string{"first", "first-b", "second", "third"}, ran)
	assert.Equal(t, 0, q.Len())
}

func TestDelByDataOnly(t *testing.T) {
	q := New()
	type token struct{ id int }
	a, b := &token{1}, &token{2}

	q.Add(at(10), func(interface{}) {}, a)
	q.Add(at(20), func(interface{}) {}, b)

	assert.Equal(t, 1, q.DelData(a))
	assert.Equal(t, 1, q.Len())
}

func TestCallbackMutatesQueueDuringDispatch(t *testing.T) {
	q := New()
	var ran []string

	q.Add(at(10), func(d interface{}) {
		ran = append(ran, "first")
		q.Add(at(10), func(d2 interface{}) { ran = append(ran, "added-during-dispatch") }, nil)
	}, nil)

	q.Dispatch(at(50))
	assert.Equal(t, []string{"first", "added-during-dispatch"}, ran)
}

func TestDelWithWhenAndFuncMatch(t *testing.T) {
	q := New()
	fn1 := func(interface{}) {}
	fn2 := func(interface{}) {}

	q.Add(at(10), fn1, "x")
	q.Add(at(20), fn2, "x")

	removed := q.Del(at(10), fn1, "x", MatchWhen|MatchFunc)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, q.Len())
}

func TestPeek(t *testing.T) {
	q := New()
	_, ok := q.Peek()
	assert.False(t, ok)

	q.Add(at(99), func(interface{}) {}, nil)
	when, ok := q.Peek()
	assert.True(t, ok)
	assert.Equal(t, at(99), when)
}
