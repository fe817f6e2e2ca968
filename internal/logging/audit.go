package logging

import (
	"container/list"
	"fmt"
	"time"

	"github.com/nexusd/nexusd/internal/network"
)

// AuditFlags modifies how an audit entry records the acting user,
// grounded on log.c's AUDIT_HOSTMASK.
type AuditFlags uint8

const AuditHostmask AuditFlags = 1 << 0

// AuditEntry is one recorded command/override/staff action, grounded on
// log.c's struct logEntry. The doubly linked list a log type keeps its
// entries in (log_oldest/log_newest) is modeled with container/list
// instead of hand-rolled prev/next pointers.
type AuditEntry struct {
	Time        time.Time
	Severity    Severity
	Bot         string
	Channel     string
	UserNick    string
	UserAccount string
	UserHostmask string
	Command     string
}

// DefaultDescription renders the entry the way log_format_audit does,
// without the leading timestamp (destinations that want one - file and
// std - already timestamp every line they write).
func (e *AuditEntry) DefaultDescription() string {
	who := e.UserNick
	if e.UserHostmask != "" {
		who += "!" + e.UserHostmask
	}
	if e.UserAccount != "" {
		who += ":" + e.UserAccount
	}
	where := e.Bot
	if e.Channel != "" {
		where += ":" + e.Channel
	}
	return fmt.Sprintf("(%s) [%s]: %s", where, who, e.Command)
}

// logType is one registered log facility: a name, the Cartesian-product
// destination table keyed by severity, and its own retained audit
// history. Grounded on log.c's struct log_type.
type logType struct {
	name       string
	dests      [int(numSeverities)][]Destination
	entries    *list.List // of *AuditEntry, oldest at Front
	maxAge     time.Duration
	maxCount   int
	defaultSet bool
}

func newLogType(name string) *logType {
	return &logType{
		name:     name,
		entries:  list.New(),
		maxAge:   10 * time.Minute,
		maxCount: 1024,
	}
}

// join appends dest to sev's destination list unless it is already
// present, matching logList_join's dedup-on-join.
func (t *logType) join(sev Severity, dest Destination) {
	for _, d := range t.dests[sev] {
		if d == dest {
			return
		}
	}
	t.dests[sev] = append(t.dests[sev], dest)
}

// record appends entry to the type's retained history and trims it
// against maxCount/maxAge, matching log_audit's list-maintenance block.
func (t *logType) record(entry *AuditEntry, now time.Time) {
	t.entries.PushBack(entry)
	for t.entries.Len() > t.maxCount {
		t.entries.Remove(t.entries.Front())
	}
	for t.entries.Len() > 0 {
		oldest := t.entries.Front().Value.(*AuditEntry)
		if now.Sub(oldest.Time) <= t.maxAge {
			break
		}
		t.entries.Remove(t.entries.Front())
	}
}

// AuditDiscriminator selects a subset of a type's retained entries,
// grounded on log.c's struct logSearch / log_entry_search.
type AuditDiscriminator struct {
	Since        time.Time
	Until        time.Time
	Severity     SeverityMask
	ChannelGlob  string
	BotGlob      string
	NickGlob     string
	AccountGlob  string
	HostmaskGlob string
	CommandGlob  string
	Limit        int
}

func (d *AuditDiscriminator) matches(e *AuditEntry) bool {
	if !d.Since.IsZero() && e.Time.Before(d.Since) {
		return false
	}
	if !d.Until.IsZero() && e.Time.After(d.Until) {
		return false
	}
	if d.Severity != (SeverityMask{}) && !d.Severity[e.Severity] {
		return false
	}
	if d.ChannelGlob != "" && !network.MatchGlob(e.Channel, d.ChannelGlob) {
		return false
	}
	if d.BotGlob != "" && !network.MatchGlob(e.Bot, d.BotGlob) {
		return false
	}
	if d.NickGlob != "" && !network.MatchGlob(e.UserNick, d.NickGlob) {
		return false
	}
	if d.AccountGlob != "" && (e.UserAccount == "" || !network.MatchGlob(e.UserAccount, d.AccountGlob)) {
		return false
	}
	if d.HostmaskGlob != "" && e.UserHostmask != "" && !network.MatchGlob(e.UserHostmask, d.HostmaskGlob) {
		return false
	}
	if d.CommandGlob != "" && !network.MatchGlob(e.Command, d.CommandGlob) {
		return false
	}
	return true
}
