package logging

import (
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nexusd/nexusd/internal/network"
)

// Destination is one write sink a log type's severity can be routed to.
// Grounded on log.c's logDest_vtable: open/reopen/close plus the three
// entry points a router dispatches through (module, audit, replay).
type Destination interface {
	Name() string
	LogModule(typeName string, sev Severity, message string)
	LogAudit(typeName string, entry *AuditEntry)
	LogReplay(typeName string, isWrite bool, line string)
	Reopen() error
	Close() error
}

// fileDestination appends to a named file, grounded on log.c's "file:"
// destination (ldFile_vtbl). logrus supplies timestamping and formatting;
// the router supplies severity comparison and routing, which logrus
// levels don't model.
type fileDestination struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	logger *logrus.Logger
}

func openFileDestination(args string) (Destination, error) {
	f, err := os.OpenFile(args, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "logging: open file destination %q", args)
	}
	logger := logrus.New()
	logger.SetOutput(f)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	return &fileDestination{path: args, file: f, logger: logger}, nil
}

func (d *fileDestination) Name() string { return "file:" + d.path }

func (d *fileDestination) LogModule(typeName string, sev Severity, message string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logger.WithFields(logrus.Fields{"type": typeName, "severity": sev.String()}).Info(message)
}

func (d *fileDestination) LogAudit(typeName string, entry *AuditEntry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logger.WithFields(logrus.Fields{"type": typeName, "severity": entry.Severity.String()}).Info(entry.DefaultDescription())
}

func (d *fileDestination) LogReplay(typeName string, isWrite bool, line string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	mark := "   "
	if isWrite {
		mark = "W: "
	}
	d.logger.WithFields(logrus.Fields{"type": typeName}).Info(mark + line)
}

func (d *fileDestination) Reopen() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.file.Close(); err != nil {
		return errors.Wrap(err, "logging: close before reopen")
	}
	f, err := os.OpenFile(d.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(err, "logging: reopen %q", d.path)
	}
	d.file = f
	d.logger.SetOutput(f)
	return nil
}

func (d *fileDestination) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.file.Close()
}

// stdDestination writes to the process's own stdout/stderr, grounded on
// ldStd_vtbl. ldStd_open's fd/"err" dispatch is preserved as-is,
// oddity and all: "1" and "err" map to stdout, anything else to stderr.
type stdDestination struct {
	mu     sync.Mutex
	args   string
	logger *logrus.Logger
}

func openStdDestination(args string) (Destination, error) {
	out := os.Stderr
	switch {
	case args == "1":
		out = os.Stdout
	case args == "2":
		out = os.Stderr
	case strings.EqualFold(args, "err"):
		out = os.Stdout
	}
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	return &stdDestination{args: args, logger: logger}, nil
}

func (d *stdDestination) Name() string { return "std:" + d.args }

func (d *stdDestination) LogModule(typeName string, sev Severity, message string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logger.WithFields(logrus.Fields{"type": typeName}).Info(sev.String() + ": " + message)
}

func (d *stdDestination) LogAudit(typeName string, entry *AuditEntry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logger.WithFields(logrus.Fields{"type": typeName}).Info(entry.DefaultDescription())
}

func (d *stdDestination) LogReplay(typeName string, isWrite bool, line string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	mark := "   "
	if isWrite {
		mark = "W: "
	}
	d.logger.Info(mark + line)
}

func (d *stdDestination) Reopen() error { return nil }
func (d *stdDestination) Close() error  { return nil }

// ircDestination echoes log lines to an IRC target via the service's own
// notice path, grounded on ldIrc_vtbl. Replay is intentionally dropped,
// matching ldIrc_vtbl's comment that replaying to IRC "would be a recipe
// for disaster".
type ircDestination struct {
	target  string
	botNick string
	actions network.Actions
}

func (d *ircDestination) Name() string { return "irc:" + d.target }

func (d *ircDestination) LogModule(typeName string, sev Severity, message string) {
	d.actions.Notice(d.target, typeName+" "+sev.String()+": "+message)
}

func (d *ircDestination) LogAudit(typeName string, entry *AuditEntry) {
	d.actions.Notice(d.target, entry.DefaultDescription())
}

func (d *ircDestination) LogReplay(string, bool, string) {}

func (d *ircDestination) Reopen() error { return nil }
func (d *ircDestination) Close() error  { return nil }
