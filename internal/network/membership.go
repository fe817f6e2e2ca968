package network

import "time"

// ModeNode is the per-membership back-reference pair linking one
// ChanNode and one UserNode, per spec.md §3.2. Exactly one exists per
// (channel, user) while the user is joined; it is inserted into both
// owning lists atomically by State.Join (or State.JoinBurst) and removed
// from both by State.Part.
type ModeNode struct {
	Channel *ChanNode
	User    *UserNode

	Op    bool
	Voice bool

	// IdleSince is reset whenever the member speaks; OperServ's
	// idle-alert discriminator field reads it.
	IdleSince time.Time

	// OpLevel is an optional non-rfc op-level (e.g. halfop-style
	// graduated access); nil when the network has no such concept.
	OpLevel *int
}
