// Package command implements spec.md §6.5: the service command surface
// contract each service (OperServ, HelpServ) registers its commands
// against: argv splitting, level-gated dispatch, and the command flags
// spec.md names (require channel argument, require authentication,
// never invokable via the operator interface, operator-only, hide from
// logs). The core only specifies this contract; which commands exist
// and what they do is the concern of each service package, per spec.md
// §1's "specified only where the core touches them."
package command

import (
	"strings"

	"github.com/nexusd/nexusd/internal/network"
)

// Flag is a bitmask of per-command dispatch modifiers.
type Flag uint8

const (
	// RequireChannel means the command needs a channel argument; Dispatch
	// rejects the call if DispatchRequest.Channel is nil.
	RequireChannel Flag = 1 << iota
	// RequireAuth means the issuing user must be authenticated to a
	// handle.
	RequireAuth
	// NeverViaOper means the command cannot be invoked through the
	// operator-interface trampoline (e.g. OpServ's "act as" override).
	NeverViaOper
	// OperOnly means the command requires the issuing user to currently
	// hold IRC operator status.
	OperOnly
	// HideFromLogs means dispatch of this command should not generate an
	// audit log entry, regardless of its severity.
	HideFromLogs
)

// Has reports whether every bit in want is set in f.
func (f Flag) Has(want Flag) bool { return f&want == want }

// Context is what a Handler receives for one invocation.
type Context struct {
	User    *network.UserNode
	Bot     string
	Argv    []string
	Channel *network.ChanNode
}

// Handler executes one command invocation and reports whether it
// succeeded, so the dispatch framework can use the result for audit
// logging (spec.md §7: "Command handlers never abort the process; they
// return a truthy/falsy result that the dispatch framework may use for
// audit logging").
type Handler func(ctx *Context) bool

// Command binds a name to the access level and flags that gate it and
// the Handler that runs it.
type Command struct {
	Name    string
	Level   int
	Flags   Flag
	Handler Handler
}

// Table is a case-insensitive, name-indexed command registry for one
// service.
type Table struct {
	commands map[string]*Command
}

// NewTable constructs an empty Table.
func NewTable() *Table {
	return &Table{commands: make(map[string]*Command)}
}

// Register adds cmd, keyed case-insensitively by its Name. Registering
// the same name twice replaces the earlier entry.
func (t *Table) Register(cmd *Command) {
	t.commands[strings.ToLower(cmd.Name)] = cmd
}

// Lookup finds a registered command by name, case-insensitively.
func (t *Table) Lookup(name string) (*Command, bool) {
	c, ok := t.commands[strings.ToLower(name)]
	return c, ok
}

// SplitArgv splits a command line into whitespace-separated tokens,
// matching the plain (non-colon-trailing) form of split_line used at
// every command-dispatch call site in the retrieved source
// (mod-helpserv.c's REQUIRE_PARAMS parsing, opserv.c's discriminator
// parsing); unlike raw IRC line parsing, a service command's argument
// text has no further colon-trailing-parameter convention to honor.
func SplitArgv(line string) []string {
	return strings.Fields(line)
}

// Outcome reports how Dispatch resolved a command lookup, so the caller
// can pick the right message-id (spec.md §7: "every command that cannot
// succeed emits a specific message-id").
type Outcome int

const (
	NotFound Outcome = iota
	AccessDenied
	NotAuthenticated
	MissingChannel
	Forbidden
	Dispatched
)

// DispatchRequest carries everything about the caller and the
// invocation path that a Command's Flags are checked against.
type DispatchRequest struct {
	Level            int
	Authenticated    bool
	Channel          *network.ChanNode
	IsOper           bool
	ViaOperInterface bool
}

// Dispatch looks up argv[0] in t and, if every access/flag check
// passes, calls the command's Handler with ctx populated from argv and
// req. ctx.User and ctx.Bot must already be set by the caller.
func (t *Table) Dispatch(argv []string, req DispatchRequest, ctx *Context) (Outcome, bool) {
	if len(argv) == 0 {
		return NotFound, false
	}
	cmd, ok := t.Lookup(argv[0])
	if !ok {
		return NotFound, false
	}
	if req.Level < cmd.Level {
		return AccessDenied, false
	}
	if cmd.Flags.Has(RequireAuth) && !req.Authenticated {
		return NotAuthenticated, false
	}
	if cmd.Flags.Has(RequireChannel) && req.Channel == nil {
		return MissingChannel, false
	}
	if cmd.Flags.Has(NeverViaOper) && req.ViaOperInterface {
		return Forbidden, false
	}
	if cmd.Flags.Has(OperOnly) && !req.IsOper {
		return Forbidden, false
	}

	ctx.Argv = argv
	ctx.Channel = req.Channel
	ok = cmd.Handler(ctx)
	return Dispatched, ok
}
