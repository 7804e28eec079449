package curl

import (
	"strings"
	"unicode"
)

// token is one shell word of a command line.
type token struct {
	// text is the word with quotes removed and escapes resolved.
	text string

	// quoted is set when the word opened with a quote character.
	quoted bool
}

// isFlag reports whether the token is an option rather than an argument.
// A quoted word counts only when it spells a known flag exactly, since the
// shell hands "-H" to curl the same as -H.
func (t token) isFlag() bool {
	if t.quoted {
		return knownFlag(t.text)
	}
	return strings.HasPrefix(t.text, "-") && len(t.text) > 1
}

// tokenize splits a command into shell words.
//
// Single-quoted text is literal. Inside double quotes a backslash escapes
// only ", \, $, ` and newline. Outside quotes a backslash escapes the next
// character, and a backslash followed by a newline (or CRLF) is dropped so
// multi-line commands read as one line.
func tokenize(cmd string) []token {
	var (
		tokens  []token
		current strings.Builder
		inWord  bool
		quoted  bool
		quote   rune
	)

	flush := func() {
		if !inWord {
			return
		}
		tokens = append(tokens, token{text: current.String(), quoted: quoted})
		current.Reset()
		inWord = false
		quoted = false
	}

	runes := []rune(cmd)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch {
		case quote == '\'':
			if r == '\'' {
				quote = 0
			} else {
				current.WriteRune(r)
			}

		case quote == '"':
			switch {
			case r == '"':
				quote = 0
			case r == '\\' && i+1 < len(runes) && strings.ContainsRune("\"\\$`\n", runes[i+1]):
				i++
				if runes[i] != '\n' {
					current.WriteRune(runes[i])
				}
			default:
				current.WriteRune(r)
			}

		case r == '\\':
			if i+1 >= len(runes) {
				continue
			}
			i++
			switch {
			case runes[i] == '\n':
			case runes[i] == '\r' && i+1 < len(runes) && runes[i+1] == '\n':
				i++
			default:
				current.WriteRune(runes[i])
				inWord = true
			}

		case r == '\'' || r == '"':
			quote = r
			if !inWord {
				quoted = true
			}
			inWord = true

		case unicode.IsSpace(r):
			flush()

		default:
			current.WriteRune(r)
			inWord = true
		}
	}
	flush()

	return tokens
}
