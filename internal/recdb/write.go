package recdb

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

const wrapColumn = 72

// Write serializes root (an Object record) to w using two-space
// indentation, one key-value pair per line. String lists that would
// overflow wrapColumn break across multiple indented lines for
// readability; this is purely cosmetic and round-trips losslessly
// since commas are the only separator that matters.
func Write(w io.Writer, root *Record) error {
	bw := bufio.NewWriter(w)
	if err := writeObjectBody(bw, root, 0); err != nil {
		return err
	}
	return bw.Flush()
}

func writeObjectBody(w *bufio.Writer, obj *Record, depth int) error {
	indent := strings.Repeat("  ", depth)
	for _, key := range obj.Keys() {
		val, _ := obj.Get(key)
		fmt.Fprintf(w, "%s%s ", indent, quote(key))
		if err := writeValue(w, val, depth); err != nil {
			return err
		}
		fmt.Fprint(w, ";\n")
	}
	return nil
}

func writeValue(w *bufio.Writer, val *Record, depth int) error {
	switch val.Kind() {
	case QString:
		fmt.Fprint(w, quote(val.QStringValue()))
	case StringList:
		writeStringList(w, val.StringListValue(), depth)
	case Object:
		fmt.Fprint(w, "{\n")
		if err := writeObjectBody(w, val, depth+1); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s}", strings.Repeat("  ", depth))
	default:
		return errors.Errorf("recdb: unknown record kind %v", val.Kind())
	}
	return nil
}

func writeStringList(w *bufio.Writer, items []string, depth int) {
	indent := strings.Repeat("  ", depth+1)
	fmt.Fprint(w, "(")
	col := 1
	for i, item := range items {
		piece := quote(item)
		if i > 0 {
			piece = ", " + piece
		}
		if col+len(piece) > wrapColumn && i > 0 {
			fmt.Fprintf(w, "\n%s", indent)
			col = len(indent)
			piece = quote(item)
			if i > 0 {
				piece = ", " + piece
			}
		}
		fmt.Fprint(w, piece)
		col += len(piece)
	}
	fmt.Fprint(w, ")")
}

func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(s[i])
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(s[i])
		}
	}
	b.WriteByte('"')
	return b.String()
}

// WriteFileAtomic writes root to path by first writing to path+".new"
// and then renaming it over path, so a crash mid-write never leaves a
// truncated file in place (spec.md §6.1).
func WriteFileAtomic(path string, root *Record) error {
	tmp := path + ".new"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "recdb: create %s", tmp)
	}
	if err := Write(f, root); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrapf(err, "recdb: write %s", tmp)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "recdb: close %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "recdb: rename %s to %s", tmp, path)
	}
	return nil
}

// ReadFile parses the file at path. On failure the caller must discard
// any previously loaded tree rather than assume partial progress.
func ReadFile(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "recdb: read %s", path)
	}
	root, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "recdb: parse %s", path)
	}
	return root, nil
}
