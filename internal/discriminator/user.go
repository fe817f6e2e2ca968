// Package discriminator implements spec.md §4.4: compiled user and
// channel predicates used by OperServ's alerts, trace, and mass-action
// commands. Grounded on original_source/src/opserv.c's
// opserv_discrim_create/opserv_discrim_search (the "discrim" struct and
// its field-by-field parser) and opserv_cdiscrim_create/_search for the
// channel-side parallel.
package discriminator

import (
	"net"
	"time"

	"github.com/nexusd/nexusd/internal/network"
)

// Tri is a tri-state yes/no/unset flag, used for fields like "authed"
// where absence must match everything rather than defaulting to false.
type Tri int

const (
	TriUnset Tri = iota
	TriYes
	TriNo
)

// IntBound is an optional relational bound: "< n", "<= n", "> n",
// ">= n", or "= n", parsed from opserv.c's age/linked/nickage/access/
// clones/limit comparisons (all share one parser there, `opserv_check_cmp`-
// style token dispatch).
type IntBound struct {
	Set bool
	Op  byte // '<', 'L' (<=), '>', 'G' (>=), '='
	N   int
}

// Conforms reports whether n satisfies the bound, or true if the bound
// is unset.
func (b IntBound) Conforms(n int) bool {
	if !b.Set {
		return true
	}
	switch b.Op {
	case '<':
		return n < b.N
	case 'L':
		return n <= b.N
	case '>':
		return n > b.N
	case 'G':
		return n >= b.N
	default: // '='
		return n == b.N
	}
}

// User is a compiled user discriminator per spec.md §4.4. An unset
// field (empty glob, Tri unset, unset bound) matches all.
type User struct {
	NickGlob    string
	IdentGlob   string
	HostGlob    string
	InfoGlob    string
	ServerGlob  string
	AccountGlob string

	IPPrefix     string
	IPPrefixBits int
	HasIPPrefix  bool

	TimestampAfter  time.Time
	TimestampBefore time.Time

	OpservLevel IntBound

	Channel     string
	RequireOp   bool
	RequireVoice bool
	ForbidOp    bool
	ForbidVoice bool

	ChannelCount IntBound
	MinClones    IntBound

	Authed           Tri
	InfoLeadingSpace Tri
	MatchOpers       bool

	Duration time.Duration
	Reason   string
	LogMatch bool

	// DomainDepth is the number of trailing hostname labels (or leading
	// IPv4/IPv6 octets/bits) a domain-aggregated report keeps. ParseUser
	// sets it to 2; nothing in this package reads it or aggregates
	// matches by domain.
	DomainDepth int

	Limit int
}

// Matches reports whether u satisfies d. cloneCount is the number of
// clients currently sharing u's IP (from OperServ's HostInfo index,
// §3.3), since the network package has no notion of per-IP grouping of
// its own.
func (d *User) Matches(u *network.UserNode, cloneCount int) bool {
	if d.NickGlob != "" && !network.MatchGlob(u.Nick, d.NickGlob) {
		return false
	}
	if d.IdentGlob != "" && !network.MatchGlob(u.Ident, d.IdentGlob) {
		return false
	}
	if d.HostGlob != "" && !network.MatchGlob(u.Host, d.HostGlob) {
		return false
	}
	if d.InfoGlob != "" && !network.MatchGlob(u.Info, d.InfoGlob) {
		return false
	}
	if d.ServerGlob != "" && (u.Uplink == nil || !network.MatchGlob(u.Uplink.Name, d.ServerGlob)) {
		return false
	}
	if d.AccountGlob != "" {
		if u.Handle == nil || !network.MatchGlob(u.Handle.Nickname, d.AccountGlob) {
			return false
		}
	}
	if d.HasIPPrefix && !ipInPrefix(u.IP.String(), d.IPPrefix, d.IPPrefixBits) {
		return false
	}
	if !d.TimestampAfter.IsZero() && u.NickTime.Before(d.TimestampAfter) {
		return false
	}
	if !d.TimestampBefore.IsZero() && u.NickTime.After(d.TimestampBefore) {
		return false
	}
	level := 0
	if u.Handle != nil {
		level = u.Handle.OpservLevel
	}
	if !d.OpservLevel.Conforms(level) {
		return false
	}
	if d.Authed == TriYes && u.Handle == nil {
		return false
	}
	if d.Authed == TriNo && u.Handle != nil {
		return false
	}
	if !d.ChannelCount.Conforms(len(u.Memberships)) {
		return false
	}
	if !d.MinClones.Conforms(cloneCount) {
		return false
	}
	if d.Channel != "" {
		m := membershipOn(u, d.Channel)
		if m == nil {
			return false
		}
		if d.RequireOp && !m.Op {
			return false
		}
		if d.RequireVoice && !m.Voice {
			return false
		}
		if d.ForbidOp && m.Op {
			return false
		}
		if d.ForbidVoice && m.Voice {
			return false
		}
	}
	if !d.MatchOpers && u.Modes.Has(network.UserOper) {
		return false
	}
	return true
}

func membershipOn(u *network.UserNode, name string) *network.ModeNode {
	for _, m := range u.Memberships {
		if m.Channel.Name == name {
			return m
		}
	}
	return nil
}

// ipInPrefix reports whether ip's first bits bits match prefix, using
// net.IP.Mask so it works uniformly for IPv4 and IPv6.
func ipInPrefix(ip, prefix string, bits int) bool {
	target := net.ParseIP(ip)
	base := net.ParseIP(prefix)
	if target == nil || base == nil {
		return false
	}
	if v4 := target.To4(); v4 != nil {
		target = v4
	}
	if v4 := base.To4(); v4 != nil {
		base = v4
	}
	if len(target) != len(base) {
		return false
	}
	mask := net.CIDRMask(bits, len(base)*8)
	return target.Mask(mask).Equal(base.Mask(mask))
}
