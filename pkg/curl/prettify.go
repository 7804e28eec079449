package curl

import "strings"

// Prettify puts every flag of a cURL command on its own continuation line.
// Whitespace inside quotes is left alone, and existing continuations are
// normalized rather than doubled. Empty input yields "".
func Prettify(cmd string) string {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return ""
	}

	var b strings.Builder
	runes := []rune(cmd)
	var quote rune

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if quote != 0 {
			if r == quote {
				quote = 0
			} else if r == '\\' && quote == '"' && i+1 < len(runes) {
				b.WriteRune(r)
				i++
				r = runes[i]
			}
			b.WriteRune(r)
			continue
		}

		// An escaped character outside quotes is literal.
		if r == '\\' && i+1 < len(runes) && !isGap(runes, i) {
			b.WriteRune(r)
			i++
			b.WriteRune(runes[i])
			continue
		}

		if r == '\'' || r == '"' {
			quote = r
			b.WriteRune(r)
			continue
		}

		if !isGap(runes, i) {
			b.WriteRune(r)
			continue
		}

		// Swallow the whole gap, including line continuations.
		j := i
		for j < len(runes) && isGap(runes, j) {
			if runes[j] == '\\' {
				j++
			}
			j++
		}
		if j < len(runes) && runes[j] == '-' {
			b.WriteString(continuation)
		} else {
			b.WriteRune(' ')
		}
		i = j - 1
	}

	return b.String()
}

// isGap reports whether runes[i] starts whitespace or a backslash-newline.
func isGap(runes []rune, i int) bool {
	switch runes[i] {
	case ' ', '\t', '\n', '\r':
		return true
	case '\\':
		return i+1 < len(runes) && (runes[i+1] == '\n' || runes[i+1] == '\r')
	default:
		return false
	}
}
