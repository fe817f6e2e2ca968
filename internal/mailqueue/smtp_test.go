package mailqueue

import (
	"strings"
	"testing"
)

type recordingWriter struct {
	lines  []string
	closed bool
}

func (w *recordingWriter) WriteLine(line string) error {
	w.lines = append(w.lines, line)
	return nil
}
func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func newTestSender() (*SMTPSender, *recordingWriter) {
	w := &recordingWriter{}
	s := &SMTPSender{FromAddress: "services@example.net", MyName: "services.example.net"}
	s.out = w
	return s, w
}

func TestParseReplyCode(t *testing.T) {
	code, cont := parseReplyCode("250-PIPELINING")
	if code != 250 || !cont {
		t.Fatalf("parseReplyCode() = %d, %v, want 250, true", code, cont)
	}
	code, cont = parseReplyCode("250 OK")
	if code != 250 || cont {
		t.Fatalf("parseReplyCode() = %d, %v, want 250, false", code, cont)
	}
	code, _ = parseReplyCode("xx")
	if code != 0 {
		t.Fatalf("parseReplyCode() on short line = %d, want 0", code)
	}
}

func TestHandleGreetingSendsEHLOOnSuccess(t *testing.T) {
	s, w := newTestSender()
	s.state = StateWaitingGreeting
	s.handleGreeting(220)
	if s.state != StateSentEHLO {
		t.Fatalf("state = %v, want StateSentEHLO", s.state)
	}
	if len(w.lines) != 1 || !strings.HasPrefix(w.lines[0], "EHLO ") {
		t.Fatalf("lines = %v, want a single EHLO line", w.lines)
	}
}

func TestHandleGreetingClosesOnError(t *testing.T) {
	s, w := newTestSender()
	s.state = StateWaitingGreeting
	s.handleGreeting(554)
	if !w.closed {
		t.Fatalf("expected connection to be closed on 5xx greeting")
	}
}

func TestHandleEHLOFallsBackToHELOOn500(t *testing.T) {
	s, w := newTestSender()
	s.state = StateSentEHLO
	s.handleEHLO(500)
	if s.state != StateSentHELO {
		t.Fatalf("state = %v, want StateSentHELO", s.state)
	}
	if len(w.lines) != 1 || !strings.HasPrefix(w.lines[0], "HELO ") {
		t.Fatalf("lines = %v, want a single HELO line", w.lines)
	}
}

func TestHandleEHLOGoesIdleAndStartsWorkOn250(t *testing.T) {
	s, w := newTestSender()
	s.state = StateSentEHLO
	m := &PendingMail{ToEmail: "dest@example.com"}
	s.queue.Append(m)
	s.handleEHLO(250)
	if s.state != StateSentMailFrom {
		t.Fatalf("state = %v, want StateSentMailFrom", s.state)
	}
	if len(w.lines) != 1 || w.lines[0] != "MAIL FROM:<services@example.net>" {
		t.Fatalf("lines = %v", w.lines)
	}
}

func TestFullTransactionHappyPath(t *testing.T) {
	s, w := newTestSender()
	m := &PendingMail{From: "OpServ", ToName: "nick", ToEmail: "dest@example.com", Subject: "hi", Body: "hello there"}
	s.queue.Append(m)
	s.state = StateIdle
	s.idleWorkLocked()
	if s.state != StateSentMailFrom {
		t.Fatalf("state after idleWork = %v", s.state)
	}

	s.handleMailFrom(250, "250 OK")
	if s.state != StateSentRcptTo {
		t.Fatalf("state after MAIL FROM = %v", s.state)
	}
	if w.lines[len(w.lines)-1] != "RCPT TO:<dest@example.com>" {
		t.Fatalf("last line = %q", w.lines[len(w.lines)-1])
	}

	s.handleRcptTo(250, "250 OK")
	if s.state != StateSentData {
		t.Fatalf("state after RCPT TO = %v", s.state)
	}
	if w.lines[len(w.lines)-1] != "DATA" {
		t.Fatalf("last line = %q", w.lines[len(w.lines)-1])
	}

	s.handleData(354, "354 go ahead")
	if s.state != StateSentBody {
		t.Fatalf("state after DATA = %v", s.state)
	}
	if w.lines[len(w.lines)-1] != "." {
		t.Fatalf("body should terminate with a lone dot, got %q", w.lines[len(w.lines)-1])
	}

	s.handleBody(250, "250 Queued")
	if s.state != StateIdle {
		t.Fatalf("state after body accepted = %v, want StateIdle", s.state)
	}
	if s.queue.Len() != 0 {
		t.Fatalf("queue should be empty after successful delivery")
	}
}

func TestMailFromErrorDiscardsAndResets(t *testing.T) {
	s, w := newTestSender()
	m := &PendingMail{ToEmail: "dest@example.com"}
	s.queue.Append(m)
	s.active = m
	s.state = StateSentMailFrom
	s.handleMailFrom(550, "550 no such user")
	if s.state != StateSentRset {
		t.Fatalf("state = %v, want StateSentRset", s.state)
	}
	if s.queue.Len() != 0 {
		t.Fatalf("failed mail should be dropped from the queue")
	}
	if w.lines[len(w.lines)-1] != "RSET" {
		t.Fatalf("last line = %q, want RSET", w.lines[len(w.lines)-1])
	}
	s.handleRset()
	if s.state != StateIdle {
		t.Fatalf("state after RSET ack = %v, want StateIdle", s.state)
	}
}

func TestDotStuff(t *testing.T) {
	if got := dotStuff("..leading dots"); got != "...leading dots" {
		t.Fatalf("dotStuff() = %q", got)
	}
	if got := dotStuff("no dot"); got != "no dot" {
		t.Fatalf("dotStuff() = %q", got)
	}
}

func TestStateString(t *testing.T) {
	if StateIdle.String() != "idle" {
		t.Fatalf("String() = %q", StateIdle.String())
	}
	if State(999).String() != "unknown" {
		t.Fatalf("String() of out-of-range state = %q", State(999).String())
	}
}
