package pagescan

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ws matches the whitespace a browser reports in rendered member tables,
// including the no-break spaces the generator emits between tokens.
const ws = `[\s\x0b\x{00a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}]`

type rewrite struct {
	re   *regexp.Regexp
	repl string
}

func rw(pattern, repl string) rewrite {
	return rewrite{re: regexp.MustCompile(strings.ReplaceAll(pattern, `\s`, ws)), repl: repl}
}

var (
	spaceBeforeRef = rw(`\s+([*&]{1,2})`, "${1}")

	tidyBrackets = []rewrite{
		rw(`<\s+`, "<"),
		rw(`\s+>`, ">"),
		rw(`\s+<\s+`, "<"),
		rw(`\s+>\s+`, ">"),
		rw(`\s+,`, ","),
	}

	tidyParens = []rewrite{
		rw(`\(\s+`, "("),
		rw(`\s+\)`, ")"),
		rw(`\s+\(`, "("),
		rw(`\s*=\s*(default|delete|0)`, " = ${1}"),
		rw(`\s{2,}`, " "),
		rw(`^\}+\s*`, ""),
		rw(`\s*\{+$`, ""),
	}

	wsRun    = regexp.MustCompile(ws + `+`)
	enumBody = regexp.MustCompile(`(?s)` + ws + `*\{.*\}`)
)

// FormatSignature normalizes a C++ member declaration for display:
// "const std::vector< int > & values ( ) const" becomes
// "const std::vector<int>& values() const".
func FormatSignature(text string) string {
	s := spaceBeforeRef.re.ReplaceAllString(text, spaceBeforeRef.repl)
	s = spaceAfterRef(s)
	for _, r := range tidyBrackets {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	s = spaceAfterComma(s)
	for _, r := range tidyParens {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	return trimSpace(s)
}

// spaceAfterRef puts a space after every run of one or two '*' or '&' that is
// not already followed by whitespace. A two-character run followed by space
// is retried as a single character, as a backtracking matcher would.
func spaceAfterRef(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); {
		if !isRef(s[i]) {
			b.WriteByte(s[i])
			i++
			continue
		}
		if i+1 < len(s) && isRef(s[i+1]) && !spaceAt(s, i+2) {
			b.WriteString(s[i : i+2])
			b.WriteByte(' ')
			i += 2
			continue
		}
		if !spaceAt(s, i+1) {
			b.WriteByte(s[i])
			b.WriteByte(' ')
			i++
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// spaceAfterComma puts one space after every comma not followed by
// whitespace.
func spaceAfterComma(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		b.WriteByte(s[i])
		if s[i] == ',' && !spaceAt(s, i+1) {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func isRef(c byte) bool { return c == '*' || c == '&' }

// spaceAt reports whether whitespace starts at byte offset i.
func spaceAt(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return isSpace(r)
}

func isSpace(r rune) bool {
	return (unicode.IsSpace(r) && r != '\u0085') || r == '\ufeff'
}

func trimSpace(s string) string {
	return strings.TrimFunc(s, isSpace)
}

// collapse squeezes whitespace runs to one space and trims.
func collapse(s string) string {
	return trimSpace(wsRun.ReplaceAllString(s, " "))
}

// stripEnumBody removes the first brace-enclosed enumerator list.
func stripEnumBody(label string) string {
	if loc := enumBody.FindStringIndex(label); loc != nil {
		label = label[:loc[0]] + label[loc[1]:]
	}
	return trimSpace(label)
}
