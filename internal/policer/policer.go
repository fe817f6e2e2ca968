// Package policer implements spec.md component H: a token bucket rate
// limiter used by OperServ's join-flood and new-user/new-connection
// policies.
//
// Grounded on golang.org/x/time/rate's use as the IRC rate-limiting
// idiom in other_examples/261d2990_CyberFlameGO-senpai__irc-session.go
// and other_examples/6a0ccf4c_hhirtz-senpai__irc-session.go. rate.Limiter
// already implements exactly the semantics spec.md §4.9 describes
// (drain elapsed-time-scaled tokens up to a capped burst, then
// check-and-consume), and critically its AllowN takes an explicit `now`
// so the policer never reads the OS clock itself (spec.md's Design
// Notes: "Time discipline").
package policer

import (
	"time"

	"golang.org/x/time/rate"
)

// Policer is a token bucket with capacity size, replenished at
// drainRate tokens per second.
type Policer struct {
	limiter   *rate.Limiter
	size      int
	drainRate float64
}

// New constructs a Policer. size is the bucket capacity (burst); a size
// of 0 conforms to nothing. drainRate is tokens replenished per second;
// a drainRate of 0 never replenishes beyond the initial burst.
func New(size int, drainRate float64) *Policer {
	return &Policer{
		limiter:   rate.NewLimiter(rate.Limit(drainRate), size),
		size:      size,
		drainRate: drainRate,
	}
}

// Conforms drains (now-lastRequest)*drainRate tokens (capped at size),
// then, if at least cost tokens remain, consumes cost and returns true.
// Otherwise it returns false and leaves the bucket untouched.
func (p *Policer) Conforms(now time.Time, cost int) bool {
	if p.size == 0 {
		return false
	}
	return p.limiter.AllowN(now, cost)
}

// Size returns the bucket's capacity.
func (p *Policer) Size() int { return p.size }

// DrainRate returns the replenishment rate in tokens per second.
func (p *Policer) DrainRate() float64 { return p.drainRate }
