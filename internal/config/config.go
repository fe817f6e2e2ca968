// Package config implements spec.md component B: a thin wrapper around
// recdb that adds path lookup, a registration-ordered reload-hook list,
// and atomic-swap-on-success reload semantics.
//
// Grounded on original_source/src/conf.c's conf_read/conf_register_reload
// pair, and on girc's Config struct naming.
package config

import (
	"sync"

	"github.com/nexusd/nexusd/internal/hooks"
	"github.com/nexusd/nexusd/internal/recdb"
)

// ReloadHook is called once per successful (re)load, in registration
// order. A hook must be idempotent and must not assume its keys exist:
// missing keys mean the owning module reverts to its documented
// defaults (spec.md §4.2).
type ReloadHook func(s *Service)

// ErrorLogger receives parse/IO failures so the caller can surface them
// without the config package importing the logging package (which, in
// turn, is configured from this config tree, and importing it back here
// would cycle).
type ErrorLogger func(err error)

// Service holds the live configuration tree and its reload hooks.
type Service struct {
	mu    sync.RWMutex
	tree  *recdb.Record
	path  string
	hooks *hooks.Registry[ReloadHook]
	onErr ErrorLogger
}

// New constructs an empty, unloaded Service.
func New() *Service {
	return &Service{hooks: hooks.NewRegistry[ReloadHook]()}
}

// SetErrorLogger installs the callback invoked on read/parse failure.
func (s *Service) SetErrorLogger(fn ErrorLogger) {
	s.onErr = fn
}

// Read parses path and, on success, atomically swaps it in as the
// active tree and fires every reload hook in registration order. On
// failure the active tree (and therefore every module's view of
// config) is left completely unchanged and no hook observes the
// failed load (spec.md §8 invariant 5).
func (s *Service) Read(path string) error {
	newTree, err := recdb.ReadFile(path)
	if err != nil {
		if s.onErr != nil {
			s.onErr(err)
		}
		return err
	}

	s.mu.Lock()
	s.tree = newTree
	s.path = path
	s.mu.Unlock()

	s.hooks.Each(func(h ReloadHook) { h(s) })
	return nil
}

// RegisterReload appends hook to the reload list. If a tree is already
// loaded, the hook fires immediately so a module registering after boot
// still sees current config (spec.md §4.2).
func (s *Service) RegisterReload(hook ReloadHook) hooks.Handle {
	handle := s.hooks.Add(hook)
	s.mu.RLock()
	loaded := s.tree != nil
	s.mu.RUnlock()
	if loaded {
		hook(s)
	}
	return handle
}

// DeregisterReload removes a previously registered hook.
func (s *Service) DeregisterReload(h hooks.Handle) bool {
	return s.hooks.Remove(h)
}

// Tree returns the currently active tree, or nil if nothing has loaded
// yet.
func (s *Service) Tree() *recdb.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree
}

// Path returns the path most recently loaded successfully.
func (s *Service) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// GetString reads a QString at path from the active tree.
func (s *Service) GetString(path string) (string, bool) {
	return recdb.GetString(s.Tree(), path)
}

// GetStringDefault is GetString with a fallback for a missing key,
// matching spec.md §4.2's "missing keys revert the module to
// documented defaults."
func (s *Service) GetStringDefault(path, def string) string {
	if v, ok := s.GetString(path); ok {
		return v
	}
	return def
}

// GetStringList reads a StringList at path from the active tree.
func (s *Service) GetStringList(path string) ([]string, bool) {
	return recdb.GetStringList(s.Tree(), path)
}

// GetObject reads an Object at path from the active tree.
func (s *Service) GetObject(path string) (*recdb.Record, bool) {
	return recdb.GetObject(s.Tree(), path)
}
