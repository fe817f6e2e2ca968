package mailqueue

import (
	"testing"

	"github.com/nexusd/nexusd/internal/recdb"
)

func TestBanlistExactAndGlob(t *testing.T) {
	b := NewBanlist()
	if !b.Ban("spammer@example.com", "abuse") {
		t.Fatalf("first Ban() should succeed")
	}
	if b.Ban("spammer@example.com", "abuse again") {
		t.Fatalf("second Ban() of same address should report already-banned")
	}
	if !b.Ban("*@blocked.example", "domain ban") {
		t.Fatalf("glob Ban() should succeed")
	}

	if reason, ok := b.Reason("spammer@example.com"); !ok || reason != "abuse" {
		t.Fatalf("Reason() = %q, %v", reason, ok)
	}
	if reason, ok := b.Reason("anyone@blocked.example"); !ok || reason != "domain ban" {
		t.Fatalf("Reason() via glob = %q, %v", reason, ok)
	}
	if _, ok := b.Reason("clean@example.com"); ok {
		t.Fatalf("Reason() should not match an unbanned address")
	}
}

func TestBanlistUnban(t *testing.T) {
	b := NewBanlist()
	b.Ban("x@example.com", "r")
	if !b.Unban("x@example.com") {
		t.Fatalf("Unban() of banned address should report true")
	}
	if b.Unban("x@example.com") {
		t.Fatalf("Unban() of already-unbanned address should report false")
	}
	if _, ok := b.Reason("x@example.com"); ok {
		t.Fatalf("unbanned address should no longer be prohibited")
	}
}

func TestBanlistEntriesOrder(t *testing.T) {
	b := NewBanlist()
	b.Ban("a@example.com", "ra")
	b.Ban("*@glob.example", "rg")
	entries := b.Entries()
	if len(entries) != 2 {
		t.Fatalf("Entries() len = %d, want 2", len(entries))
	}
	if entries[0][0] != "*@glob.example" {
		t.Fatalf("Entries()[0] = %v, want masks first", entries[0])
	}
}

func TestBanlistSaxdbRoundTrip(t *testing.T) {
	b := NewBanlist()
	b.Ban("a@example.com", "reason-a")
	b.Ban("*@b.example", "reason-b")

	saved := b.WriteSaxdb()

	loaded := NewBanlist()
	loaded.ReadSaxdb(saved)

	if reason, ok := loaded.Reason("a@example.com"); !ok || reason != "reason-a" {
		t.Fatalf("Reason() after round trip = %q, %v", reason, ok)
	}
	if reason, ok := loaded.Reason("x@b.example"); !ok || reason != "reason-b" {
		t.Fatalf("Reason() via glob after round trip = %q, %v", reason, ok)
	}
}

func TestBanlistReadSaxdbIgnoresMissingOrWrongKind(t *testing.T) {
	b := NewBanlist()
	b.ReadSaxdb(nil)
	b.ReadSaxdb(recdb.NewQString("not an object"))
	b.ReadSaxdb(recdb.NewObject())
	if len(b.Entries()) != 0 {
		t.Fatalf("expected no entries after loading empty/invalid records")
	}
}
