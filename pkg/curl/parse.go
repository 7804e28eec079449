package curl

import (
	"encoding/base64"
	"strings"

	"github.com/reqlab/reqlab/pkg/request"
)

// Flag spellings recognized by the extraction passes.
var (
	methodFlags = map[string]bool{"-X": true, "--request": true}
	headerFlags = map[string]bool{"-H": true, "--header": true}
	dataFlags   = map[string]bool{
		"-d":            true,
		"--data":        true,
		"--data-raw":    true,
		"--data-binary": true,
		"--json":        true,
	}
	userFlags = map[string]bool{"-u": true, "--user": true}
)

// knownFlag reports whether s is one of the flag spellings above.
func knownFlag(s string) bool {
	return methodFlags[s] || headerFlags[s] || dataFlags[s] || userFlags[s]
}

// Parse extracts a request from a cURL command.
//
// It never fails: input with no recognizable flags yields a GET request with
// a placeholder header, no body and an empty URL. Callers must treat an empty
// URL as "nothing useful extracted". Run LooksLikeCurl first; Parse does not
// reject non-curl input.
func Parse(text string) *request.Request {
	tokens := dropCommand(tokenize(strings.TrimSpace(text)))

	method, tokens := takeMethod(tokens)
	headers, tokens := takeHeaders(tokens)
	body, tokens := takeBody(tokens)
	url := takeURL(tokens)

	return &request.Request{
		Method:  method,
		URL:     url,
		Headers: request.EnsurePlaceholder(headers),
		Body:    body,
	}
}

// dropCommand removes a leading "curl" word.
func dropCommand(tokens []token) []token {
	if len(tokens) > 0 && !tokens[0].quoted && strings.EqualFold(tokens[0].text, "curl") {
		return tokens[1:]
	}
	return tokens
}

// argumentAt returns the argument following the flag at index i, if any.
// A following unquoted flag is not an argument.
func argumentAt(tokens []token, i int) (token, bool) {
	if i+1 >= len(tokens) || tokens[i+1].isFlag() {
		return token{}, false
	}
	return tokens[i+1], true
}

// takeMethod finds the first -X/--request clause (also the attached -XPOST
// form). Every method clause is consumed; the first one wins.
func takeMethod(tokens []token) (request.Method, []token) {
	method := request.MethodGet
	found := false
	rest := make([]token, 0, len(tokens))

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		var value string
		switch {
		case tok.isFlag() && methodFlags[tok.text]:
			if arg, ok := argumentAt(tokens, i); ok {
				value = arg.text
				i++
			}
		case !tok.quoted && strings.HasPrefix(tok.text, "-X") && len(tok.text) > 2:
			value = tok.text[2:]
		default:
			rest = append(rest, tok)
			continue
		}

		if !found && value != "" {
			method = request.ParseMethod(value)
			found = true
		}
	}

	return method, rest
}

// takeHeaders collects -H/--header clauses in source order. Only quoted
// values are kept; unquoted ones, and values without a colon or with nothing
// before it, are consumed and dropped. Basic auth
// given with -u/--user becomes an Authorization header at its position.
func takeHeaders(tokens []token) ([]request.Header, []token) {
	var headers []request.Header
	rest := make([]token, 0, len(tokens))

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		switch {
		case tok.isFlag() && headerFlags[tok.text]:
			arg, ok := argumentAt(tokens, i)
			if !ok {
				continue
			}
			i++
			if !arg.quoted {
				continue
			}
			if h, ok := splitHeader(arg.text); ok {
				headers = append(headers, h)
			}

		case tok.isFlag() && userFlags[tok.text]:
			arg, ok := argumentAt(tokens, i)
			if !ok {
				continue
			}
			i++
			if arg.text != "" {
				headers = append(headers, request.Header{
					Key:   "Authorization",
					Value: "Basic " + base64.StdEncoding.EncodeToString([]byte(arg.text)),
				})
			}

		default:
			rest = append(rest, tok)
		}
	}

	return headers, rest
}

// splitHeader splits "Key: Value" at the first colon and trims both sides.
func splitHeader(s string) (request.Header, bool) {
	idx := strings.Index(s, ":")
	if idx <= 0 {
		return request.Header{}, false
	}
	key := strings.TrimSpace(s[:idx])
	if key == "" {
		return request.Header{}, false
	}
	return request.Header{Key: key, Value: strings.TrimSpace(s[idx+1:])}, true
}

// takeBody returns the argument of the first data flag. All data clauses are
// consumed so that their arguments are never mistaken for the URL.
func takeBody(tokens []token) (string, []token) {
	var body string
	found := false
	rest := make([]token, 0, len(tokens))

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if !tok.isFlag() || !dataFlags[tok.text] {
			rest = append(rest, tok)
			continue
		}

		arg, ok := argumentAt(tokens, i)
		if !ok {
			continue
		}
		i++
		if !found {
			body = arg.text
			found = true
		}
	}

	return body, rest
}

// takeURL picks the URL from the tokens left over by the other passes.
// A quoted word starting with http:// or https:// takes precedence over the
// first unquoted one; in unquoted words the URL may start mid-word
// (e.g. --url=https://...).
func takeURL(tokens []token) string {
	for _, tok := range tokens {
		if tok.quoted && hasHTTPScheme(tok.text) {
			return tok.text
		}
	}
	for _, tok := range tokens {
		if tok.quoted {
			continue
		}
		if idx := schemeIndex(tok.text); idx >= 0 {
			return tok.text[idx:]
		}
	}
	return ""
}

func hasHTTPScheme(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// schemeIndex returns the offset of the first http:// or https:// in s, or -1.
func schemeIndex(s string) int {
	idx := -1
	for _, scheme := range []string{"http://", "https://"} {
		if i := strings.Index(s, scheme); i >= 0 && (idx < 0 || i < idx) {
			idx = i
		}
	}
	return idx
}
