package snippet

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// renderBody formats a request body for embedding in generated code.
// Valid JSON comes back pretty-printed with two-space indentation and
// isJSON set; anything else comes back as quote(body).
func renderBody(body string, quote func(string) string) (out string, isJSON bool) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(strings.TrimSpace(body)), "", "  "); err != nil {
		return quote(body), false
	}
	return buf.String(), true
}

// indentTail prefixes every line but the first with prefix, so a multi-line
// value can sit after a key at some nesting depth.
func indentTail(s, prefix string) string {
	return strings.ReplaceAll(s, "\n", "\n"+prefix)
}

// jsString renders s as a single-quoted JavaScript string literal.
func jsString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\u2028':
			b.WriteString(`\u2028`)
		case '\u2029':
			b.WriteString(`\u2029`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// pyString renders s as a double-quoted Python string literal.
func pyString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// goString renders s as a Go string literal.
func goString(s string) string {
	return strconv.Quote(s)
}
