package mailqueue

import (
	"strings"

	"github.com/nexusd/nexusd/internal/network"
	"github.com/nexusd/nexusd/internal/recdb"
)

// prohibitedKey is the saxdb record key mail_saxdb_write files the
// banlist under (mail-common.c's KEY_PROHIBITED).
const prohibitedKey = "prohibited"

// Banlist tracks email addresses and address globs that are forbidden
// as mail recipients, grounded on mail-common.c's prohibited_addrs/
// prohibited_masks dicts.
type Banlist struct {
	addrs map[string]string // exact address -> reason
	masks map[string]string // glob -> reason
}

// NewBanlist constructs an empty Banlist.
func NewBanlist() *Banlist {
	return &Banlist{addrs: make(map[string]string), masks: make(map[string]string)}
}

func isGlob(addr string) bool {
	return strings.ContainsAny(addr, "*?")
}

// Ban forbids addr (a literal address or a glob containing '*'/'?') with
// the given reason. It reports false if addr was already banned,
// matching mail_ban_address's "already banned" branch.
func (b *Banlist) Ban(addr, reason string) bool {
	target := b.addrs
	if isGlob(addr) {
		target = b.masks
	}
	if _, exists := target[addr]; exists {
		return false
	}
	target[addr] = reason
	return true
}

// Unban removes addr from whichever table it was banned under,
// reporting whether it had been banned at all.
func (b *Banlist) Unban(addr string) bool {
	target := b.addrs
	if isGlob(addr) {
		target = b.masks
	}
	if _, exists := target[addr]; !exists {
		return false
	}
	delete(target, addr)
	return true
}

// Reason reports why addr is prohibited, checking the exact-address
// table first and then every glob, matching mail_prohibited_address.
func (b *Banlist) Reason(addr string) (string, bool) {
	if reason, ok := b.addrs[addr]; ok {
		return reason, true
	}
	for glob, reason := range b.masks {
		if network.MatchGlob(addr, glob) {
			return reason, true
		}
	}
	return "", false
}

// Entries returns every banned address/glob and its reason, masks
// first then exact addresses, matching cmd_stats_email's iteration
// order.
func (b *Banlist) Entries() [][2]string {
	out := make([][2]string, 0, len(b.addrs)+len(b.masks))
	for glob, reason := range b.masks {
		out = append(out, [2]string{glob, reason})
	}
	for addr, reason := range b.addrs {
		out = append(out, [2]string{addr, reason})
	}
	return out
}

// ReadSaxdb loads the banlist from a "prohibited" record object,
// matching mail_saxdb_read.
func (b *Banlist) ReadSaxdb(db *recdb.Record) {
	if db == nil || db.Kind() != recdb.Object {
		return
	}
	sub, ok := db.Get(prohibitedKey)
	if !ok || sub.Kind() != recdb.Object {
		return
	}
	for _, key := range sub.Keys() {
		v, ok := sub.Get(key)
		if !ok || v.Kind() != recdb.QString {
			continue
		}
		b.Ban(key, v.QStringValue())
	}
}

// WriteSaxdb renders the banlist as a "prohibited" record object,
// matching mail_saxdb_write.
func (b *Banlist) WriteSaxdb() *recdb.Record {
	sub := recdb.NewObject()
	for glob, reason := range b.masks {
		sub.Set(glob, recdb.NewQString(reason))
	}
	for addr, reason := range b.addrs {
		sub.Set(addr, recdb.NewQString(reason))
	}
	out := recdb.NewObject()
	out.Set(prohibitedKey, sub)
	return out
}
