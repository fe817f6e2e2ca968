package logging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(s int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, s, 0, time.UTC)
}

func TestAuditEntryDefaultDescriptionFormatsLikeLogFormatAudit(t *testing.T) {
	e := &AuditEntry{
		Time: at(0), Severity: SeverityCommand, Bot: "OpServ", Channel: "#help",
		UserNick: "alice", UserAccount: "alice_acc", Command: "op #help alice",
	}
	assert.Equal(t, "(OpServ:#help) [alice:alice_acc]: op #help alice", e.DefaultDescription())
}

func TestAuditEntryDefaultDescriptionWithHostmaskNoChannel(t *testing.T) {
	e := &AuditEntry{
		Time: at(0), Severity: SeverityStaff, Bot: "OpServ",
		UserNick: "bob", UserHostmask: "bob@example.com", Command: "gline set *@spam.example",
	}
	assert.Equal(t, "(OpServ) [bob!bob@example.com]: gline set *@spam.example", e.DefaultDescription())
}

func TestLogTypeRecordTrimsByMaxCount(t *testing.T) {
	typ := newLogType("test")
	typ.maxCount = 2
	typ.record(&AuditEntry{Time: at(0), Command: "one"}, at(0))
	typ.record(&AuditEntry{Time: at(1), Command: "two"}, at(1))
	typ.record(&AuditEntry{Time: at(2), Command: "three"}, at(2))

	assert.Equal(t, 2, typ.entries.Len())
	assert.Equal(t, "two", typ.entries.Front().Value.(*AuditEntry).Command)
}

func TestLogTypeRecordTrimsByMaxAge(t *testing.T) {
	typ := newLogType("test")
	typ.maxAge = 5 * time.Second
	typ.maxCount = 1024
	typ.record(&AuditEntry{Time: at(0), Command: "old"}, at(0))
	typ.record(&AuditEntry{Time: at(10), Command: "new"}, at(10))

	assert.Equal(t, 1, typ.entries.Len())
	assert.Equal(t, "new", typ.entries.Front().Value.(*AuditEntry).Command)
}

func TestLogTypeJoinDedupesSameDestination(t *testing.T) {
	typ := newLogType("test")
	dest := &stdDestination{args: "err"}
	typ.join(SeverityInfo, dest)
	typ.join(SeverityInfo, dest)
	assert.Len(t, typ.dests[SeverityInfo], 1)
}

func TestAuditDiscriminatorMatchesOnGlobsAndSeverity(t *testing.T) {
	entry := &AuditEntry{
		Time: at(5), Severity: SeverityOverride, Bot: "OpServ", Channel: "#help",
		UserNick: "alice", UserAccount: "alice_acc", Command: "op #help alice",
	}

	var mask SeverityMask
	mask[SeverityOverride] = true
	d := &AuditDiscriminator{Severity: mask, ChannelGlob: "#h*", CommandGlob: "op *"}
	assert.True(t, d.matches(entry))

	d2 := &AuditDiscriminator{CommandGlob: "gline *"}
	assert.False(t, d2.matches(entry))

	d3 := &AuditDiscriminator{Since: at(6)}
	assert.False(t, d3.matches(entry))
}
