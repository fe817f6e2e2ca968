// Package helpfile implements spec.md component D: a per-language
// message catalog, the "$"-escape/expansion renderer that turns a
// template plus live state into wrapped IRC lines, and the helpfile
// topic lookup that sits on top of both.
//
// Grounded on original_source/src/helpfile.c throughout (language_find,
// vsend_message, table_send, send_help); the escape-expander is
// structured as an explicit byte-indexed state machine the way girc's
// format.go walks a string for its own small inline substitution
// language, since spec.md's Design Notes call for exactly that shape
// rather than repeated string replacement.
package helpfile

import "strings"

// Language is one node of the message-catalog parent chain: lookups
// that miss fall back to Parent, eventually reaching the catalog's
// base "C" language. Grounded on helpfile.c's struct language and
// language_find_message's parent walk.
type Language struct {
	Name     string
	Parent   *Language
	messages map[string]string
}

// NewLanguage constructs an empty language under parent (nil means the
// catalog base once registered).
func NewLanguage(name string, parent *Language) *Language {
	return &Language{Name: name, Parent: parent, messages: make(map[string]string)}
}

// SetMessage registers or replaces the template for msgid in this
// language specifically (not its ancestors).
func (l *Language) SetMessage(msgid, template string) {
	l.messages[msgid] = template
}

// Find walks l's parent chain for msgid, returning the nearest
// override, matching language_find_message.
func (l *Language) Find(msgid string) (string, bool) {
	for cur := l; cur != nil; cur = cur.Parent {
		if tmpl, ok := cur.messages[msgid]; ok {
			return tmpl, true
		}
	}
	return "", false
}

// Catalog owns the full language tree. The base language is always
// named "C" and has no parent, matching helpfile.c's lang_C.
type Catalog struct {
	base   *Language
	byName map[string]*Language
}

// NewCatalog constructs a Catalog containing only the base "C" language.
func NewCatalog() *Catalog {
	base := NewLanguage("C", nil)
	return &Catalog{base: base, byName: map[string]*Language{"C": base}}
}

// Base returns the root "C" language every other language ultimately
// falls back to.
func (c *Catalog) Base() *Language { return c.base }

// Register adds a new language under parent (the base language if
// parent is nil), matching language_alloc's default parent of lang_C.
func (c *Catalog) Register(name string, parent *Language) *Language {
	if parent == nil {
		parent = c.base
	}
	l := NewLanguage(name, parent)
	c.byName[name] = l
	return l
}

// Language resolves name to a registered Language, falling back to the
// portion before an underscore (so "en_US" finds "en" if "en_US" itself
// was never registered) and finally to the base language, matching
// language_find's alt_name handling.
func (c *Catalog) Language(name string) *Language {
	if l, ok := c.byName[name]; ok {
		return l
	}
	if idx := strings.IndexByte(name, '_'); idx >= 0 {
		if l, ok := c.byName[name[:idx]]; ok {
			return l
		}
	}
	return c.base
}

// RegisterTable bulk-registers msgid->template pairs into the base
// language, matching message_register_table's module-startup calls.
func (c *Catalog) RegisterTable(table map[string]string) {
	for msgid, tmpl := range table {
		c.base.SetMessage(msgid, tmpl)
	}
}

// languageFor resolves the language a recipient's messages should be
// looked up in: their handle's preferred language if authenticated and
// registered, else the base language.
func (c *Catalog) languageFor(r *Recipient) *Language {
	if r == nil || r.Handle == nil || r.Handle.Prefs.Language == "" {
		return c.base
	}
	return c.Language(r.Handle.Prefs.Language)
}
