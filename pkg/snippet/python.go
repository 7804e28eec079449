package snippet

import (
	"strings"

	"github.com/reqlab/reqlab/pkg/request"
)

type pythonGenerator struct{}

func (pythonGenerator) Target() Target   { return TargetPython }
func (pythonGenerator) Label() string    { return "Python (requests)" }
func (pythonGenerator) Language() string { return "python" }

func (pythonGenerator) Generate(r *request.Request) string {
	if r == nil || r.URL == "" {
		return ""
	}

	var (
		payload string
		isJSON  bool
	)
	if r.SendsBody() {
		payload, isJSON = renderBody(r.Body, pyString)
	}

	var b strings.Builder
	b.WriteString("import requests\n")
	if isJSON {
		b.WriteString("import json\n")
	}
	b.WriteString("\nurl = " + pyString(r.URL) + "\n")

	headers := r.ActiveHeaders()
	if len(headers) == 0 {
		b.WriteString("headers = {}\n\n")
	} else {
		lines := make([]string, len(headers))
		for i, h := range headers {
			lines[i] = "    " + pyString(h.Key) + ": " + pyString(h.Value)
		}
		b.WriteString("headers = {\n" + strings.Join(lines, ",\n") + "\n}\n\n")
	}

	call := strings.ToLower(r.EffectiveMethod().String())
	switch {
	case !r.SendsBody():
		b.WriteString("response = requests." + call + "(url, headers=headers)\n")
	case isJSON:
		b.WriteString("payload = json.loads(" + pyJSONLiteral(payload) + ")\n\n")
		b.WriteString("response = requests." + call + "(url, headers=headers, json=payload)\n")
	default:
		b.WriteString("payload = " + payload + "\n\n")
		b.WriteString("response = requests." + call + "(url, headers=headers, data=payload)\n")
	}

	b.WriteString("\nprint(\"Status Code:\", response.status_code)\n")
	b.WriteString("print(\"Response:\", response.json())")
	return b.String()
}

// pyJSONLiteral wraps pretty-printed JSON in a raw triple-quoted string so
// backslash escapes inside JSON strings reach json.loads untouched.
func pyJSONLiteral(doc string) string {
	if strings.Contains(doc, "'''") {
		return pyString(doc)
	}
	return "r'''\n" + doc + "\n'''"
}
