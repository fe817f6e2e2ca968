// Package recdb implements the nested record database format used both
// for configuration and for on-disk daemon state (spec.md component A).
//
// A record is a tagged sum of a QString (a single string), a StringList
// (an ordered sequence of strings), or an Object (an ordered mapping of
// string key to record, insertion order preserved). Paths of the form
// "a/b/c" descend through objects only.
package recdb

import "github.com/pkg/errors"

// Kind tags which alternative of the record sum a Record holds.
type Kind int

const (
	QString Kind = iota
	StringList
	Object
)

func (k Kind) String() string {
	switch k {
	case QString:
		return "qstring"
	case StringList:
		return "string-list"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// Record is one node of the record tree.
type Record struct {
	kind Kind

	str  string
	list []string

	// keys preserves insertion order; obj holds the actual values.
	// Both are only meaningful when kind == Object.
	keys []string
	obj  map[string]*Record
}

// ErrWrongKind describes a path that resolves to a record of a
// different kind than requested. The lookup functions in this package
// report that case as !ok and do not return this error.
var ErrWrongKind = errors.New("recdb: record is not of the requested kind")

// ErrNotFound describes a path that does not resolve. The lookup
// functions in this package report that case as !ok and do not return
// this error.
var ErrNotFound = errors.New("recdb: path not found")

// NewQString builds a leaf QString record.
func NewQString(s string) *Record {
	return &Record{kind: QString, str: s}
}

// NewStringList builds a leaf StringList record. The slice is copied.
func NewStringList(items []string) *Record {
	cp := make([]string, len(items))
	copy(cp, items)
	return &Record{kind: StringList, list: cp}
}

// NewObject builds an empty Object record.
func NewObject() *Record {
	return &Record{kind: Object, obj: make(map[string]*Record)}
}

// Kind reports which alternative this record holds.
func (r *Record) Kind() Kind { return r.kind }

// QStringValue returns the string value, valid only when Kind() == QString.
func (r *Record) QStringValue() string { return r.str }

// StringListValue returns the ordered string slice, valid only when
// Kind() == StringList. The returned slice must not be mutated.
func (r *Record) StringListValue() []string { return r.list }

// Keys returns the object's keys in insertion order. Valid only when
// Kind() == Object.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Get looks up a direct child of an Object record by key.
func (r *Record) Get(key string) (*Record, bool) {
	if r.kind != Object {
		return nil, false
	}
	v, ok := r.obj[key]
	return v, ok
}

// Set inserts or replaces a direct child of an Object record. New keys
// are appended to preserve insertion order; existing keys keep their
// original position.
func (r *Record) Set(key string, value *Record) {
	if r.kind != Object {
		return
	}
	if _, exists := r.obj[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.obj[key] = value
}

// Delete removes a direct child of an Object record, if present.
func (r *Record) Delete(key string) {
	if r.kind != Object {
		return
	}
	if _, exists := r.obj[key]; !exists {
		return
	}
	delete(r.obj, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
}

// Len reports how many direct children an Object has (0 for non-objects).
func (r *Record) Len() int {
	if r.kind != Object {
		return 0
	}
	return len(r.keys)
}

// GetPath walks path (slash-separated) through nested Objects, returning
// the leaf record. Every component but the last must resolve to an
// Object; encountering a non-object, or a missing key at any level,
// returns !ok.
func GetPath(root *Record, path string) (*Record, bool) {
	if root == nil {
		return nil, false
	}
	cur := root
	for _, part := range splitPath(path) {
		if cur.kind != Object {
			return nil, false
		}
		next, ok := cur.obj[part]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// GetData is database_get_data(path, expected_type): it resolves path
// and returns the leaf only if its kind matches expected; a kind
// mismatch or missing path is reported as !ok, never an error, matching
// spec.md's "Parse routines return absent instead of failing."
func GetData(root *Record, path string, expected Kind) (*Record, bool) {
	rec, ok := GetPath(root, path)
	if !ok || rec.kind != expected {
		return nil, false
	}
	return rec, true
}

// GetString is the QString convenience form of GetData.
func GetString(root *Record, path string) (string, bool) {
	rec, ok := GetData(root, path, QString)
	if !ok {
		return "", false
	}
	return rec.str, true
}

// GetStringList is the StringList convenience form of GetData.
func GetStringList(root *Record, path string) ([]string, bool) {
	rec, ok := GetData(root, path, StringList)
	if !ok {
		return nil, false
	}
	return rec.list, true
}

// GetObject is the Object convenience form of GetData.
func GetObject(root *Record, path string) (*Record, bool) {
	return GetData(root, path, Object)
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	var parts []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			if i > start {
				parts = append(parts, path[start:i])
			}
			start = i + 1
		}
	}
	if start < len(path) {
		parts = append(parts, path[start:])
	}
	return parts
}
