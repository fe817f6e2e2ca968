package mailqueue

import (
	"bytes"
	"fmt"
	"os/exec"

	"github.com/nexusd/nexusd/internal/logging"
)

// SendmailConfig holds the mail/* settings consumed by mail_send's
// sendmail(8) backend.
type SendmailConfig struct {
	FromAddress     string
	Charset         string // defaults to "us-ascii"
	Mailer          string // defaults to "/usr/sbin/sendmail"
	ExtraHeaders    []string
	BodyPrefix      []string
	BodyPrefixFirst []string
	BodySuffix      []string
	BodySuffixFirst []string
}

func (c *SendmailConfig) charset() string {
	if c.Charset != "" {
		return c.Charset
	}
	return "us-ascii"
}

func (c *SendmailConfig) mailer() string {
	if c.Mailer != "" {
		return c.Mailer
	}
	return "/usr/sbin/sendmail"
}

func (c *SendmailConfig) fromAddress() string {
	if c.FromAddress != "" {
		return c.FromAddress
	}
	return "admin@poorly.configured.network"
}

// buildMessage assembles the full RFC 2822-ish message body that the
// mailer's stdin receives, matching the mid-level child in mail_send
// byte-for-byte (extra headers, Content-Type with format=flowed,
// From/To/Subject, then the flowed body sandwiched between the
// configured prefix/suffix sections).
func (c *SendmailConfig) buildMessage(m *PendingMail) []byte {
	var buf bytes.Buffer
	prefix, suffix := c.BodyPrefix, c.BodySuffix
	if m.FirstTime {
		prefix, suffix = c.BodyPrefixFirst, c.BodySuffixFirst
	}

	for _, h := range c.ExtraHeaders {
		buf.WriteString(h)
		buf.WriteString("\n")
	}
	fmt.Fprintf(&buf, "Content-Type: text/plain; charset=%s; format=flowed\n", c.charset())
	fmt.Fprintf(&buf, "From: %s <%s>\n", m.From, c.fromAddress())
	fmt.Fprintf(&buf, "To: \"%s\" <%s>\n", m.ToName, m.ToEmail)
	fmt.Fprintf(&buf, "Subject: %s\n", m.Subject)
	buf.WriteString("\n")

	if len(prefix) > 0 {
		for _, p := range prefix {
			writeFlowedText(&buf, p)
		}
		buf.WriteString("\n")
	}
	writeFlowedText(&buf, m.Body)
	if len(suffix) > 0 {
		buf.WriteString("\n")
		for _, s := range suffix {
			writeFlowedText(&buf, s)
		}
	}
	return buf.Bytes()
}

// SendmailSender delivers mail by piping a fully-assembled message into
// a sendmail(8)-compatible mailer subprocess, replacing mail_send's
// fork/pipe/exec dance with os/exec.
type SendmailSender struct {
	Config *SendmailConfig
	Router *logging.Router
}

// Send builds and delivers m, logging success or failure the way
// mail_send's mid-level child does after wait4 returns.
func (s *SendmailSender) Send(m *PendingMail) error {
	msg := s.Config.buildMessage(m)

	args := []string{"-f", s.Config.fromAddress(), m.ToEmail}

	cmd := exec.Command(s.Config.mailer(), args...)
	cmd.Stdin = bytes.NewReader(msg)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		s.logModule(logging.SeverityError, "sendmail() to %s: %v: %s", m.ToEmail, err, stderr.String())
		return err
	}
	s.logModule(logging.SeverityInfo, "sendmail() sent email to %s <%s>: %s", m.ToName, m.ToEmail, m.Subject)
	return nil
}

func (s *SendmailSender) logModule(sev logging.Severity, format string, args ...interface{}) {
	if s.Router == nil {
		return
	}
	s.Router.Module(mailLogType, sev, fmt.Sprintf(format, args...))
}
