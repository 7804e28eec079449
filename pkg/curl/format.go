package curl

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/reqlab/reqlab/pkg/request"
)

// continuation separates flags in formatted output.
const continuation = " \\\n  "

// Format renders r as a cURL command:
//
//	curl -X POST 'https://api.example.com/users' \
//	  -H 'Content-Type: application/json' \
//	  -d '{"name":"John"}'
//
// Only active headers are written, in order. The body is written for non-GET
// requests with a non-blank body; JSON bodies are compacted first and anything
// else is emitted verbatim. An empty URL yields "".
func Format(r *request.Request) string {
	if r == nil || r.URL == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString("curl -X ")
	b.WriteString(r.EffectiveMethod().String())
	b.WriteString(" '")
	b.WriteString(r.URL)
	b.WriteString("'")

	for _, h := range r.ActiveHeaders() {
		b.WriteString(continuation)
		b.WriteString("-H '")
		b.WriteString(h.Key)
		b.WriteString(": ")
		b.WriteString(h.Value)
		b.WriteString("'")
	}

	if r.SendsBody() {
		b.WriteString(continuation)
		b.WriteString("-d '")
		b.WriteString(compactJSON(r.Body))
		b.WriteString("'")
	}

	return b.String()
}

// compactJSON strips insignificant whitespace from a JSON document.
// Non-JSON input is returned unchanged.
func compactJSON(body string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(body)); err != nil {
		return body
	}
	return buf.String()
}
