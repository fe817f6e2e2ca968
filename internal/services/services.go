// Package services wires every subsystem into one process value and
// runs the single-threaded cooperative dispatch loop spec.md §5
// requires: all core-state mutation happens on one goroutine, fed by a
// channel of work items, so hook registries never need locks. Grounded
// on github.com/lrstanley/girc's Client: Client.rx/execLoop is a
// single-goroutine select loop draining a channel of *Event and running
// registered handlers synchronously, which is exactly the shape this
// package generalizes from "one IRC connection's events" to "every
// inbound semantic event, timer tick, and xquery this daemon handles."
package services

import (
	"context"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/nexusd/nexusd/internal/clock"
	"github.com/nexusd/nexusd/internal/command"
	"github.com/nexusd/nexusd/internal/config"
	"github.com/nexusd/nexusd/internal/helpserv"
	"github.com/nexusd/nexusd/internal/logging"
	"github.com/nexusd/nexusd/internal/mailqueue"
	"github.com/nexusd/nexusd/internal/network"
	"github.com/nexusd/nexusd/internal/operserv"
	"github.com/nexusd/nexusd/internal/saxdb"
	"github.com/nexusd/nexusd/internal/timeq"
	"github.com/nexusd/nexusd/internal/xquery"
)

// MailSender is the fire-and-forget mail backend Services drives,
// satisfied directly by *mailqueue.SMTPSender and, via sendmailAdapter,
// by *mailqueue.SendmailSender.
type MailSender interface {
	Send(m *mailqueue.PendingMail)
}

// sendmailAdapter adapts SendmailSender's error-returning Send to
// MailSender's fire-and-forget shape; SendmailSender already logs any
// failure itself before returning it, so there is nothing left for a
// caller here to do with the error.
type sendmailAdapter struct{ sender *mailqueue.SendmailSender }

func (a sendmailAdapter) Send(m *mailqueue.PendingMail) { _ = a.sender.Send(m) }

// NewSendmailMailer adapts sender to the MailSender interface.
func NewSendmailMailer(sender *mailqueue.SendmailSender) MailSender {
	return sendmailAdapter{sender: sender}
}

// Task is one unit of work run on the single dispatch goroutine: an
// inbound semantic event already decoded by the protocol adapter, a
// timer tick, an xquery, or a saxdb snapshot request. Every mutation of
// network/operserv/helpserv state must reach Services through a Task,
// never directly from another goroutine.
type Task func(*Services)

// Services is the top-level process value: every subsystem a running
// nexusd needs, plus the channel-fed dispatch loop that serializes
// access to all of them. Corresponds to spec.md's Design Notes: "Global
// mutable singletons... as members of a top-level Services value."
type Services struct {
	Clock   *clock.Clock
	State   *network.State
	Actions network.Actions
	Config  *config.Service
	Router  *logging.Router
	Timeq   *timeq.Queue

	OperServ *operserv.Service
	HelpServ *helpserv.Service

	Saxdb  *saxdb.Registry
	XQuery *xquery.Dispatcher
	Mail   MailSender

	// OperCommands/HelpCommands hold each service's registered command
	// surface (spec.md §6.5): "the core expects each service to be
	// registrable under a trigger nickname and to route inbound IRC
	// messages through a privmsg-func registration." What commands exist
	// is the external collaborator's concern; these tables are where it
	// registers them.
	OperCommands *command.Table
	HelpCommands *command.Table

	rx chan Task
	wg conc.WaitGroup
}

// New constructs a Services with every ambient subsystem (state, log
// router, config, timer queue, saxdb registry, xquery dispatcher,
// command tables) wired up and empty. OperServ/HelpServ are left nil;
// callers attach them with AttachOperServ/AttachHelpServ once their own
// Config is known, since spec.md's Design Notes don't fix construction
// order for those two.
func New(selfServerName string, clk *clock.Clock, actions network.Actions) *Services {
	s := &Services{
		Clock:   clk,
		State:   network.New(selfServerName, clk),
		Actions: actions,
		Config:  config.New(),
		Router:  logging.NewRouter(actions),
		Timeq:   timeq.New(),

		Saxdb:  saxdb.NewRegistry(),
		XQuery: xquery.NewDispatcher(),

		OperCommands: command.NewTable(),
		HelpCommands: command.NewTable(),

		rx: make(chan Task, 256),
	}
	return s
}

// AttachOperServ installs the OperServ service, so commands/hooks that
// depend on it can be wired after construction without a nil check at
// every call site.
func (s *Services) AttachOperServ(svc *operserv.Service) { s.OperServ = svc }

// AttachHelpServ installs the HelpServ service.
func (s *Services) AttachHelpServ(svc *helpserv.Service) { s.HelpServ = svc }

// RegisterMailBanlist wires b's ReadSaxdb/WriteSaxdb pair into the
// saxdb registry under the top-level name mail-common.c's own
// saxdb_register call uses ("sendmail"); ReadSaxdb/WriteSaxdb
// themselves handle the "prohibited" subkey within that object.
func (s *Services) RegisterMailBanlist(name string, b *mailqueue.Banlist) {
	s.Saxdb.Register(name, b.ReadSaxdb, b.WriteSaxdb)
}

// Enqueue schedules fn to run on the dispatch goroutine. Safe to call
// from any goroutine (the mail queue's reader, the timer ticker, a
// future protocol adapter's read loop); fn itself must not be called
// directly by its submitter, since that would violate the
// single-threaded mutation rule of spec.md §5.
func (s *Services) Enqueue(fn Task) {
	s.rx <- fn
}

// Run drives the single-threaded dispatch loop until ctx is cancelled.
// Grounded on girc's Client.execLoop: a select between the context's
// Done channel and the work channel, draining whatever remains queued
// before returning so a callback mid-flight (e.g. one reacting to a
// QUIT during shutdown) still completes, per spec.md §5's "operations...
// run to completion."
func (s *Services) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case fn := <-s.rx:
					fn(s)
				default:
					return
				}
			}
		case fn := <-s.rx:
			fn(s)
		}
	}
}

// StartTimerTicks launches a background goroutine, supervised by a
// conc.WaitGroup so a panic inside it surfaces through Wait rather than
// silently killing the daemon, that wakes every period and enqueues a
// timer-dispatch Task carrying the tick's own timestamp. The task
// itself (not the ticker goroutine) calls Timeq.Dispatch, so timed
// callbacks still fire on the single dispatch goroutine, per spec.md
// §5's "Timed callbacks fire between I/O dispatches." Grounded on
// girc's conn.go ping ticker (time.NewTicker(c.Config.PingDelay)
// feeding a select loop).
func (s *Services) StartTimerTicks(ctx context.Context, period time.Duration) {
	s.wg.Go(func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.Enqueue(func(s *Services) {
					s.Timeq.Dispatch(now)
				})
			}
		}
	})
}

// Wait blocks until every background goroutine started via
// StartTimerTicks (or any future s.wg.Go caller) has returned, re-panicking
// if one of them did.
func (s *Services) Wait() {
	s.wg.Wait()
}

// DispatchOperCommand splits line into argv and runs it against the
// OperServ command table.
func (s *Services) DispatchOperCommand(line string, req command.DispatchRequest, ctx *command.Context) (command.Outcome, bool) {
	return s.OperCommands.Dispatch(command.SplitArgv(line), req, ctx)
}

// DispatchHelpCommand splits line into argv and runs it against the
// HelpServ command table.
func (s *Services) DispatchHelpCommand(line string, req command.DispatchRequest, ctx *command.Context) (command.Outcome, bool) {
	return s.HelpCommands.Dispatch(command.SplitArgv(line), req, ctx)
}
