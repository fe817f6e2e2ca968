// Package saxdb implements spec.md component §6.1: the "state and auxiliary
// X database" persistence layer. Every subsystem that holds data beyond
// what a restart can rebuild from config (global messages, helper
// accounts, mail banlists, open requests) registers a named read/write
// pair; ReadFile/WriteFile dispatch to every registration in order,
// exactly as saxdb_register/saxdb_read/saxdb_write do across srvx's
// mod-*.c files (see global.c's global_saxdb_read/_write and
// mail-common.c's mail_saxdb_read/_write for the call shape).
package saxdb

import (
	"github.com/nexusd/nexusd/internal/recdb"
)

// ReadFunc loads one subsystem's state from its named sub-object. It is
// called with nil if the saxdb file has no object under the subsystem's
// name (a fresh install, or a subsystem registered after the last
// snapshot was taken); implementations must tolerate that the same way
// global_saxdb_read tolerates dict_first() on a database with no
// matching entry.
type ReadFunc func(db *recdb.Record)

// WriteFunc renders one subsystem's current state as a record, to be
// filed under the subsystem's name in the saxdb root object.
type WriteFunc func() *recdb.Record

type entry struct {
	name  string
	read  ReadFunc
	write WriteFunc
}

// Registry holds every subsystem's saxdb read/write pair, in
// registration order, matching the order saxdb_register calls appear in
// srvx's init sequence (opserv first, then nickserv, chanserv,
// helpserv, global, sendmail, ...).
type Registry struct {
	entries []entry
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds name's read/write pair. Registering the same name twice
// keeps both entries (srvx itself never deduplicates saxdb_register
// calls); callers are expected to register each subsystem exactly once
// at startup.
func (r *Registry) Register(name string, read ReadFunc, write WriteFunc) {
	r.entries = append(r.entries, entry{name: name, read: read, write: write})
}

// ReadFile loads path and dispatches each registered subsystem's object
// (or nil, if absent) to its ReadFunc, in registration order.
func (r *Registry) ReadFile(path string) error {
	root, err := recdb.ReadFile(path)
	if err != nil {
		return err
	}
	r.Load(root)
	return nil
}

// Load dispatches each registered subsystem's object out of an
// already-parsed root record, in registration order. A nil root (or one
// missing a given subsystem's key) dispatches nil to that subsystem.
func (r *Registry) Load(root *recdb.Record) {
	for _, e := range r.entries {
		var sub *recdb.Record
		if root != nil && root.Kind() == recdb.Object {
			if v, ok := root.Get(e.name); ok {
				sub = v
			}
		}
		e.read(sub)
	}
}

// Snapshot renders every registered subsystem's current state into a
// single root object, in registration order, matching how saxdb_write
// walks its registrations to build one file.
func (r *Registry) Snapshot() *recdb.Record {
	root := recdb.NewObject()
	for _, e := range r.entries {
		root.Set(e.name, e.write())
	}
	return root
}

// WriteFile renders a snapshot and writes it to path atomically (write
// to a temp file, then rename), matching srvx's own saxdb write-then-
// rename convention.
func (r *Registry) WriteFile(path string) error {
	return recdb.WriteFileAtomic(path, r.Snapshot())
}
