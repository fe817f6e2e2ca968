package logging

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/nexusd/nexusd/internal/network"
	"github.com/nexusd/nexusd/internal/recdb"
)

// ErrIllegalAuditSeverity is returned when Audit is called with a
// severity other than command/override/staff, matching log_audit's
// "Illegal audit severity" guard.
var ErrIllegalAuditSeverity = errors.New("logging: illegal audit severity")

// ErrUnknownDestinationKind is returned when a destination name's
// scheme (the part before ':') has no registered opener.
var ErrUnknownDestinationKind = errors.New("logging: unknown destination kind")

type openEntry struct {
	dest   Destination
	refcnt int
}

// Router is the log/audit router: it owns every named destination, every
// registered log type's severity-to-destination table, and each type's
// retained audit history. Grounded on log.c's module-level log_dests/
// log_types/log_default globals, collapsed into one value so a process
// can run more than one independently.
type Router struct {
	openers map[string]func(args string) (Destination, error)
	dests   map[string]*openEntry
	types   map[string]*logType

	// initialized mirrors log_inited: before it's set, Module falls back
	// to writing directly to stderr instead of routing through
	// destinations, matching log_module's pre-init special case.
	initialized bool
}

// defaultTypeName is srvx's wildcard log type name ("*" in log.c),
// consulted for every severity in addition to a message's own type.
const defaultTypeName = "*"

// NewRouter constructs a Router with the file:/std:/irc: destination
// kinds registered, and its own "*" default type. actions is used by
// "irc:" destinations to deliver lines; it may be nil if the caller
// never configures one.
func NewRouter(actions network.Actions) *Router {
	r := &Router{
		openers: make(map[string]func(string) (Destination, error)),
		dests:   make(map[string]*openEntry),
		types:   make(map[string]*logType),
	}
	r.openers["file"] = openFileDestination
	r.openers["std"] = openStdDestination
	r.openers["irc"] = func(args string) (Destination, error) {
		if actions == nil {
			return nil, errors.New("logging: irc: destination requires actions")
		}
		return &ircDestination{target: args, actions: actions}, nil
	}
	r.types[defaultTypeName] = newLogType(defaultTypeName)
	return r
}

// SetInitialized marks the router as fully up, matching log_inited's
// transition at the end of log_init.
func (r *Router) SetInitialized(v bool) { r.initialized = v }

// RegisterType finds or creates the named log type, matching
// log_register_type (the defaultLog/default_set behavior is driven
// through Configure instead of this constructor).
func (r *Router) RegisterType(name string) *logType {
	if t, ok := r.types[name]; ok {
		return t
	}
	t := newLogType(name)
	r.types[name] = t
	return t
}

// Open opens (or re-references) a named destination such as
// "file:/var/log/nexusd.log", matching log_open.
func (r *Router) Open(name string) (Destination, error) {
	if e, ok := r.dests[name]; ok {
		e.refcnt++
		return e.dest, nil
	}
	kind, args, _ := strings.Cut(name, ":")
	opener, ok := r.openers[kind]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownDestinationKind, "%q", name)
	}
	dest, err := opener(args)
	if err != nil {
		return nil, err
	}
	r.dests[name] = &openEntry{dest: dest, refcnt: 1}
	return dest, nil
}

// Configure applies a "logs" record object, matching log_conf_read: keys
// of the form "type[,type...].sevset[,sevset...]" open a destination
// (or list of destinations) and join it to each named type's matching
// severities; keys naming a bare registered type with an object value
// set that type's max_age/max_count.
func (r *Router) Configure(logs *recdb.Record) error {
	if logs == nil || logs.Kind() != recdb.Object {
		return nil
	}
	for _, key := range logs.Keys() {
		value, _ := logs.Get(key)
		if typeNames, sevSpec, ok := strings.Cut(key, "."); ok {
			mask, err := ParseSeverityMask(sevSpec)
			if err != nil {
				return errors.Wrapf(err, "logging: key %q", key)
			}
			names, err := destinationNames(value)
			if err != nil {
				return errors.Wrapf(err, "logging: key %q", key)
			}
			opened := make([]Destination, 0, len(names))
			for _, n := range names {
				dest, err := r.Open(n)
				if err != nil {
					return err
				}
				opened = append(opened, dest)
			}
			for _, typeName := range strings.Split(typeNames, ",") {
				typeName = strings.TrimSpace(typeName)
				if typeName == "" {
					continue
				}
				t := r.RegisterType(typeName)
				for sev := Severity(0); sev < numSeverities; sev++ {
					if !mask[sev] {
						continue
					}
					for _, dest := range opened {
						t.join(sev, dest)
					}
				}
			}
			continue
		}
		if value != nil && value.Kind() == recdb.Object {
			t := r.RegisterType(key)
			applyOptions(t, value)
			continue
		}
		return errors.Errorf("logging: unknown logs subkey %q", key)
	}
	return nil
}

func destinationNames(v *recdb.Record) ([]string, error) {
	if v == nil {
		return nil, errors.New("logging: missing destination value")
	}
	switch v.Kind() {
	case recdb.QString:
		return []string{v.QStringValue()}, nil
	case recdb.StringList:
		return v.StringListValue(), nil
	default:
		return nil, errors.New("logging: destination value must be a string or string list")
	}
}

func applyOptions(t *logType, opts *recdb.Record) {
	if v, ok := opts.Get("max_age"); ok && v.Kind() == recdb.QString {
		if d, err := time.ParseDuration(v.QStringValue()); err == nil {
			t.maxAge = d
		}
	}
	if v, ok := opts.Get("max_count"); ok && v.Kind() == recdb.QString {
		if count, err := strconv.Atoi(v.QStringValue()); err == nil {
			t.maxCount = count
		}
	}
}

func (r *Router) destinationsFor(typeName string, sev Severity) []Destination {
	var out []Destination
	if t, ok := r.types[typeName]; ok {
		out = append(out, t.dests[sev]...)
	}
	if typeName != defaultTypeName {
		out = append(out, r.types[defaultTypeName].dests[sev]...)
	}
	return out
}

// Module routes a one-off diagnostic line, matching log_module. Before
// SetInitialized(true) has been called it writes straight to stderr
// instead, matching log_module's "before we start full operation" path.
func (r *Router) Module(typeName string, sev Severity, message string) {
	if sev > SeverityFatal {
		r.Module(defaultTypeName, SeverityError, fmt.Sprintf("illegal log_module severity %d", sev))
		return
	}
	if !r.initialized {
		fmt.Fprintf(os.Stderr, "%s: %s\n", sev, message)
		return
	}
	for _, dest := range r.destinationsFor(typeName, sev) {
		dest.LogModule(typeName, sev, message)
	}
}

// Audit records a command/override/staff action and dispatches it to
// every destination subscribed to typeName (and the default type) at
// sev, matching log_audit.
func (r *Router) Audit(typeName string, sev Severity, now time.Time, bot, channel, userNick, userAccount, userHostmask, command string, flags AuditFlags) (*AuditEntry, error) {
	if !sev.IsAuditSeverity() {
		return nil, errors.Wrapf(ErrIllegalAuditSeverity, "%s", sev)
	}
	if flags&AuditHostmask == 0 {
		userHostmask = ""
	}
	entry := &AuditEntry{
		Time:         now,
		Severity:     sev,
		Bot:          bot,
		Channel:      channel,
		UserNick:     userNick,
		UserAccount:  userAccount,
		UserHostmask: userHostmask,
		Command:      command,
	}
	t := r.RegisterType(typeName)
	t.record(entry, now)
	for _, dest := range r.destinationsFor(typeName, sev) {
		dest.LogAudit(typeName, entry)
	}
	return entry, nil
}

// Replay routes a journal replay line, matching log_replay.
func (r *Router) Replay(typeName string, isWrite bool, line string) {
	for _, dest := range r.destinationsFor(typeName, SeverityReplay) {
		dest.LogReplay(typeName, isWrite, line)
	}
}

// Search runs discrim over one type's (or, with an empty typeName, every
// registered type's) retained audit history, matching log_entry_search.
func (r *Router) Search(typeName string, discrim *AuditDiscriminator) []*AuditEntry {
	limit := discrim.Limit
	if limit <= 0 {
		limit = 1 << 30
	}
	var out []*AuditEntry
	search := func(t *logType) {
		for e := t.entries.Front(); e != nil; e = e.Next() {
			entry := e.Value.(*AuditEntry)
			if discrim.matches(entry) {
				out = append(out, entry)
				if len(out) >= limit {
					return
				}
			}
		}
	}
	if typeName != "" {
		if t, ok := r.types[typeName]; ok {
			search(t)
		}
		return out
	}
	for _, t := range r.types {
		search(t)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// Reopen reopens every open destination, matching log_reopen (used on
// SIGHUP to pick up log rotation).
func (r *Router) Reopen() error {
	for name, e := range r.dests {
		if err := e.dest.Reopen(); err != nil {
			return errors.Wrapf(err, "logging: reopen %q", name)
		}
	}
	return nil
}

// Close closes every open destination, matching close_logs/cleanup_logs.
func (r *Router) Close() error {
	var first error
	for name, e := range r.dests {
		if err := e.dest.Close(); err != nil && first == nil {
			first = errors.Wrapf(err, "logging: close %q", name)
		}
		delete(r.dests, name)
	}
	return first
}
