package recdb

import (
	"fmt"

	"github.com/pkg/errors"
)

// ParseError reports a syntax problem at a specific line/column, so
// callers can log a useful diagnostic before discarding the partial
// tree (spec.md §7: "recovery is to skip the bad record and continue,
// except a totally unparsable config reload reverts to the prior
// tree").
type ParseError struct {
	Line, Col int
	Msg       string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("recdb: %d:%d: %s", e.Line, e.Col, e.Msg)
}

type parser struct {
	data      []byte
	pos       int
	line, col int
}

// Parse reads a UTF-8-clean byte buffer holding a single top-level
// object (without surrounding braces, matching srvx's on-disk format)
// and returns the resulting Object record.
func Parse(data []byte) (*Record, error) {
	p := &parser{data: data, line: 1, col: 1}
	root := NewObject()
	if err := p.parseObjectBody(root, false); err != nil {
		return nil, errors.Wrap(err, "recdb: parse failed")
	}
	return root, nil
}

func (p *parser) errf(format string, args ...interface{}) error {
	return &ParseError{Line: p.line, Col: p.col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) peek() (byte, bool) {
	if p.pos >= len(p.data) {
		return 0, false
	}
	return p.data[p.pos], true
}

func (p *parser) advance() {
	if p.pos >= len(p.data) {
		return
	}
	if p.data[p.pos] == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
	p.pos++
}

// skipSpace consumes whitespace and '#'-to-EOL comments.
func (p *parser) skipSpace() {
	for {
		c, ok := p.peek()
		if !ok {
			return
		}
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			p.advance()
		case c == '#':
			for {
				c, ok := p.peek()
				if !ok || c == '\n' {
					break
				}
				p.advance()
			}
		default:
			return
		}
	}
}

// parseObjectBody parses (key value ';')* until EOF (top-level) or '}'
// (nested, consuming the closing brace itself when braced is true).
func (p *parser) parseObjectBody(into *Record, braced bool) error {
	for {
		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			if braced {
				return p.errf("unexpected end of input, expected '}'")
			}
			return nil
		}
		if c == '}' {
			if !braced {
				return p.errf("unexpected '}'")
			}
			p.advance()
			return nil
		}

		key, err := p.parseQuoted()
		if err != nil {
			return err
		}

		p.skipSpace()
		val, err := p.parseValue()
		if err != nil {
			return err
		}

		p.skipSpace()
		if c, ok := p.peek(); !ok || c != ';' {
			return p.errf("expected ';' after value for key %q", key)
		}
		p.advance()

		into.Set(key, val)
	}
}

func (p *parser) parseValue() (*Record, error) {
	c, ok := p.peek()
	if !ok {
		return nil, p.errf("unexpected end of input, expected a value")
	}
	switch c {
	case '"':
		s, err := p.parseQuoted()
		if err != nil {
			return nil, err
		}
		return NewQString(s), nil
	case '(':
		return p.parseStringList()
	case '{':
		p.advance()
		obj := NewObject()
		if err := p.parseObjectBody(obj, true); err != nil {
			return nil, err
		}
		return obj, nil
	default:
		return nil, p.errf("unexpected character %q, expected '\"', '(' or '{'", c)
	}
}

func (p *parser) parseStringList() (*Record, error) {
	p.advance() // consume '('
	var items []string
	for {
		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, p.errf("unexpected end of input in string list")
		}
		if c == ')' {
			p.advance()
			return NewStringList(items), nil
		}
		if len(items) > 0 {
			if c != ',' {
				return nil, p.errf("expected ',' or ')' in string list")
			}
			p.advance()
			p.skipSpace()
		}
		s, err := p.parseQuoted()
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
}

// parseQuoted reads a double-quoted string with backslash escapes
// (\", \\, \n, \t, and \xNN passthrough-as-literal for anything else).
func (p *parser) parseQuoted() (string, error) {
	c, ok := p.peek()
	if !ok || c != '"' {
		return "", p.errf("expected '\"'")
	}
	p.advance()

	var out []byte
	for {
		c, ok := p.peek()
		if !ok {
			return "", p.errf("unterminated string")
		}
		if c == '"' {
			p.advance()
			return string(out), nil
		}
		if c == '\\' {
			p.advance()
			esc, ok := p.peek()
			if !ok {
				return "", p.errf("unterminated escape sequence")
			}
			switch esc {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case '"', '\\':
				out = append(out, esc)
			default:
				out = append(out, esc)
			}
			p.advance()
			continue
		}
		out = append(out, c)
		p.advance()
	}
}
