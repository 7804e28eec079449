package snippet

import (
	"strings"

	"github.com/reqlab/reqlab/pkg/request"
)

// goMethodConst maps a method to its net/http constant.
var goMethodConst = map[request.Method]string{
	request.MethodGet:     "http.MethodGet",
	request.MethodPost:    "http.MethodPost",
	request.MethodPut:     "http.MethodPut",
	request.MethodDelete:  "http.MethodDelete",
	request.MethodPatch:   "http.MethodPatch",
	request.MethodHead:    "http.MethodHead",
	request.MethodOptions: "http.MethodOptions",
}

type goGenerator struct{}

func (goGenerator) Target() Target   { return TargetGo }
func (goGenerator) Label() string    { return "Go (net/http)" }
func (goGenerator) Language() string { return "go" }

func (goGenerator) Generate(r *request.Request) string {
	if r == nil || r.URL == "" {
		return ""
	}

	var (
		payload string
		isJSON  bool
	)
	sendsBody := r.SendsBody()
	if sendsBody {
		payload, isJSON = renderBody(r.Body, goString)
	}

	var b strings.Builder
	b.WriteString("package main\n\nimport (\n")
	if sendsBody {
		b.WriteString("\t\"bytes\"\n")
	}
	if isJSON {
		b.WriteString("\t\"encoding/json\"\n")
	}
	b.WriteString("\t\"fmt\"\n\t\"io\"\n\t\"net/http\"\n)\n\n")

	b.WriteString("func main() {\n")
	b.WriteString("\turl := " + goString(r.URL) + "\n")

	method := goMethodConst[r.EffectiveMethod()]
	switch {
	case !sendsBody:
		b.WriteString("\n\treq, err := http.NewRequest(" + method + ", url, nil)\n")
	case isJSON:
		b.WriteString("\tpayload := json.RawMessage(" + goJSONLiteral(payload) + ")\n\n")
		b.WriteString("\tjsonData, err := json.Marshal(payload)\n")
		b.WriteString(goErrCheck)
		b.WriteString("\n\treq, err := http.NewRequest(" + method + ", url, bytes.NewBuffer(jsonData))\n")
	default:
		b.WriteString("\tpayload := []byte(" + payload + ")\n")
		b.WriteString("\n\treq, err := http.NewRequest(" + method + ", url, bytes.NewBuffer(payload))\n")
	}
	b.WriteString(goErrCheck)

	for _, h := range r.ActiveHeaders() {
		b.WriteString("\treq.Header.Add(" + goString(h.Key) + ", " + goString(h.Value) + ")\n")
	}

	b.WriteString("\n\tclient := &http.Client{}\n")
	b.WriteString("\tresp, err := client.Do(req)\n")
	b.WriteString(goErrCheck)
	b.WriteString("\tdefer resp.Body.Close()\n\n")
	b.WriteString("\tbody, err := io.ReadAll(resp.Body)\n")
	b.WriteString(goErrCheck)
	b.WriteString("\tfmt.Println(\"Status:\", resp.Status)\n")
	b.WriteString("\tfmt.Println(\"Response:\", string(body))\n")
	b.WriteString("}")
	return b.String()
}

const goErrCheck = "\tif err != nil {\n\t\tfmt.Println(\"Error:\", err)\n\t\treturn\n\t}\n"

// goJSONLiteral embeds pretty-printed JSON as a raw string, falling back to
// an interpreted literal when the document contains a backtick.
func goJSONLiteral(doc string) string {
	if strings.Contains(doc, "`") {
		return goString(doc)
	}
	return "`" + indentTail(doc, "\t") + "`"
}
