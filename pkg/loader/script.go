package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"

	"github.com/vanderheijden86/navplus/pkg/navtree"
)

// ErrChunkShape is returned when a script global does not have the
// [label, ref|null, children] tuple shape.
var ErrChunkShape = errors.New("loader: unexpected chunk shape")

// errUnsupported marks an initializer that is not a literal array, string or
// null. Such globals are skipped.
var errUnsupported = errors.New("unsupported initializer")

// Globals maps script-level variable names to their literal values. Values
// are string, nil, or []any of those.
type Globals map[string]any

// ParseScript extracts the literal globals declared by a generated
// navigation script. It understands "var NAME = <literal>;" and plain
// "NAME = <literal>;" statements at the top level, which is all the
// generator ever emits. Declarations with other initializers are ignored.
func ParseScript(src []byte) (Globals, error) {
	p := &scriptParser{lex: js.NewLexer(parse.NewInputBytes(stripBOM(src)))}
	p.next()

	globals := Globals{}
	for p.tt != js.ErrorToken {
		switch {
		case isDeclKeyword(p.data):
			p.next()
			if !isIdentifierName(p.data) {
				p.skipStatement()
				continue
			}
			p.declare(globals)
		case isIdentifierName(p.data):
			p.declare(globals)
		default:
			p.skipStatement()
		}
	}
	if err := p.lex.Err(); err != nil && !errors.Is(err, io.EOF) {
		return globals, fmt.Errorf("parsing script: %w", err)
	}
	return globals, nil
}

// ParseScriptArray returns the node list held by the first of names that is
// declared as an array in src. The boolean is false when none is.
func ParseScriptArray(src []byte, names ...string) ([]*navtree.Node, bool, error) {
	globals, err := ParseScript(src)
	if err != nil {
		return nil, false, err
	}
	for _, name := range names {
		v, ok := globals[name].([]any)
		if !ok {
			continue
		}
		nodes, err := NodesFromValue(v)
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", name, err)
		}
		return nodes, true, nil
	}
	return nil, false, nil
}

// NodesFromValue converts a literal array of tuples into nodes.
func NodesFromValue(v []any) ([]*navtree.Node, error) {
	nodes := make([]*navtree.Node, 0, len(v))
	for i, item := range v {
		n, err := nodeFromValue(item)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func nodeFromValue(v any) (*navtree.Node, error) {
	tuple, ok := v.([]any)
	if !ok || len(tuple) < 3 {
		return nil, fmt.Errorf("%w: want a 3-tuple, got %T", ErrChunkShape, v)
	}

	label, ok := tuple[0].(string)
	if !ok {
		return nil, fmt.Errorf("%w: label is %T", ErrChunkShape, tuple[0])
	}

	var ref *string
	switch r := tuple[1].(type) {
	case nil:
	case string:
		ref = &r
	default:
		return nil, fmt.Errorf("%w: ref is %T", ErrChunkShape, tuple[1])
	}

	var kids navtree.Children
	switch c := tuple[2].(type) {
	case nil:
		kids = navtree.Leaf()
	case string:
		kids = navtree.Deferred(c)
	case []any:
		nodes, err := NodesFromValue(c)
		if err != nil {
			return nil, err
		}
		kids = navtree.List(nodes...)
	default:
		return nil, fmt.Errorf("%w: children are %T", ErrChunkShape, tuple[2])
	}
	return navtree.New(label, ref, kids), nil
}

type scriptParser struct {
	lex  *js.Lexer
	tt   js.TokenType
	data []byte
	// newline is set when a line terminator preceded the current token.
	newline bool
}

// next advances to the next significant token.
func (p *scriptParser) next() {
	p.newline = false
	for {
		p.tt, p.data = p.lex.Next()
		switch p.tt {
		case js.WhitespaceToken, js.CommentToken:
			continue
		case js.LineTerminatorToken, js.CommentLineTerminatorToken:
			p.newline = true
			continue
		}
		return
	}
}

// declare parses "NAME = literal" with the current token on NAME.
func (p *scriptParser) declare(globals Globals) {
	name := string(p.data)
	p.next()
	if p.tt != js.EqToken {
		p.skipStatement()
		return
	}
	p.next()
	v, err := p.value()
	if err != nil {
		p.skipStatement()
		return
	}
	globals[name] = v
	if p.tt == js.SemicolonToken {
		p.next()
	}
}

func (p *scriptParser) value() (any, error) {
	switch {
	case string(p.data) == "null":
		p.next()
		return nil, nil
	case p.tt == js.StringToken:
		s, err := unquote(p.data)
		if err != nil {
			return nil, err
		}
		p.next()
		return s, nil
	case p.tt == js.OpenBracketToken:
		return p.array()
	default:
		return nil, errUnsupported
	}
}

func (p *scriptParser) array() ([]any, error) {
	p.next() // [
	out := []any{}
	for {
		switch p.tt {
		case js.CloseBracketToken:
			p.next()
			return out, nil
		case js.CommaToken:
			// Elision or trailing comma.
			p.next()
			continue
		case js.ErrorToken:
			return nil, fmt.Errorf("unterminated array")
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		switch p.tt {
		case js.CommaToken:
			p.next()
		case js.CloseBracketToken:
		default:
			return nil, errUnsupported
		}
	}
}

// skipStatement advances past the current statement: up to a semicolon or a
// line break outside of any brackets.
func (p *scriptParser) skipStatement() {
	depth := 0
	for p.tt != js.ErrorToken {
		switch p.tt {
		case js.OpenBracketToken, js.OpenBraceToken, js.OpenParenToken:
			depth++
		case js.CloseBracketToken, js.CloseBraceToken, js.CloseParenToken:
			if depth > 0 {
				depth--
			}
		case js.SemicolonToken:
			if depth == 0 {
				p.next()
				return
			}
		}
		p.next()
		if depth == 0 && p.newline {
			return
		}
	}
}

func isDeclKeyword(b []byte) bool {
	switch string(b) {
	case "var", "let", "const":
		return true
	}
	return false
}

// isIdentifierName reports whether b is an ASCII identifier. Generated
// scripts never use other names.
func isIdentifierName(b []byte) bool {
	if len(b) == 0 || isDeclKeyword(b) {
		return false
	}
	for i, c := range b {
		switch {
		case c == '_' || c == '$' || (c|0x20 >= 'a' && c|0x20 <= 'z'):
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

// unquote decodes a JavaScript string literal including its quotes.
func unquote(lit []byte) (string, error) {
	if len(lit) < 2 {
		return "", fmt.Errorf("bad string literal %q", lit)
	}
	body := lit[1 : len(lit)-1]
	if bytes.IndexByte(body, '\\') < 0 {
		return string(body), nil
	}

	var sb strings.Builder
	sb.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 == len(body) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch e := body[i]; e {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'v':
			sb.WriteByte('\v')
		case '0':
			sb.WriteByte(0)
		case '\r':
			// Line continuation, optionally \r\n.
			if i+1 < len(body) && body[i+1] == '\n' {
				i++
			}
		case '\n':
		case 'x':
			if i+2 >= len(body) {
				return "", fmt.Errorf("short \\x escape in %q", lit)
			}
			r, err := strconv.ParseUint(string(body[i+1:i+3]), 16, 8)
			if err != nil {
				return "", fmt.Errorf("bad \\x escape in %q", lit)
			}
			sb.WriteRune(rune(r))
			i += 2
		case 'u':
			r, n, err := unicodeEscape(body[i+1:])
			if err != nil {
				return "", fmt.Errorf("%v in %q", err, lit)
			}
			// Surrogate pair.
			if r >= 0xD800 && r < 0xDC00 && i+1+n+1 < len(body) && body[i+1+n] == '\\' && body[i+2+n] == 'u' {
				if lo, m, err := unicodeEscape(body[i+3+n:]); err == nil && lo >= 0xDC00 && lo < 0xE000 {
					r = (r-0xD800)<<10 + (lo - 0xDC00) + 0x10000
					n += 2 + m
				}
			}
			if !utf8.ValidRune(r) {
				r = utf8.RuneError
			}
			sb.WriteRune(r)
			i += n
		default:
			sb.WriteByte(e)
		}
	}
	return sb.String(), nil
}

// unicodeEscape decodes the part after "\u": either four hex digits or a
// braced code point. It returns the rune and the bytes consumed.
func unicodeEscape(b []byte) (rune, int, error) {
	if len(b) > 0 && b[0] == '{' {
		end := bytes.IndexByte(b, '}')
		if end < 2 {
			return 0, 0, errors.New("bad \\u{} escape")
		}
		r, err := strconv.ParseUint(string(b[1:end]), 16, 32)
		if err != nil {
			return 0, 0, errors.New("bad \\u{} escape")
		}
		return rune(r), end + 1, nil
	}
	if len(b) < 4 {
		return 0, 0, errors.New("short \\u escape")
	}
	r, err := strconv.ParseUint(string(b[:4]), 16, 16)
	if err != nil {
		return 0, 0, errors.New("bad \\u escape")
	}
	return rune(r), 4, nil
}

// stripBOM removes the UTF-8 byte order mark if present.
func stripBOM(b []byte) []byte {
	return bytes.TrimPrefix(b, []byte{0xEF, 0xBB, 0xBF})
}
