package snippet

import (
	"strings"

	"github.com/reqlab/reqlab/pkg/request"
)

// jsHeaderBlock renders headers as the body of a JavaScript object literal,
// one "'key': 'value'" entry per line. Returns "" when there are none.
func jsHeaderBlock(headers []request.Header, indent string) string {
	if len(headers) == 0 {
		return ""
	}
	lines := make([]string, len(headers))
	for i, h := range headers {
		lines[i] = indent + jsString(h.Key) + ": " + jsString(h.Value)
	}
	return strings.Join(lines, ",\n")
}

type fetchGenerator struct{}

func (fetchGenerator) Target() Target   { return TargetFetch }
func (fetchGenerator) Label() string    { return "JavaScript (fetch)" }
func (fetchGenerator) Language() string { return "javascript" }

func (fetchGenerator) Generate(r *request.Request) string {
	if r == nil || r.URL == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString("fetch(" + jsString(r.URL) + ", {\n")
	b.WriteString("  method: " + jsString(r.EffectiveMethod().String()))

	if block := jsHeaderBlock(r.ActiveHeaders(), "    "); block != "" {
		b.WriteString(",\n  headers: {\n" + block + "\n  }")
	}

	if r.SendsBody() {
		body, isJSON := renderBody(r.Body, jsString)
		if isJSON {
			b.WriteString(",\n  body: JSON.stringify(" + indentTail(body, "  ") + ")")
		} else {
			b.WriteString(",\n  body: " + body)
		}
	}

	b.WriteString("\n})\n")
	b.WriteString(".then(response => response.json())\n")
	b.WriteString(".then(data => console.log(data))\n")
	b.WriteString(".catch(error => console.error('Error:', error));")
	return b.String()
}

type axiosGenerator struct{}

func (axiosGenerator) Target() Target   { return TargetAxios }
func (axiosGenerator) Label() string    { return "JavaScript (axios)" }
func (axiosGenerator) Language() string { return "javascript" }

func (axiosGenerator) Generate(r *request.Request) string {
	if r == nil || r.URL == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString("const axios = require('axios');\n\n")
	b.WriteString("axios({\n")
	b.WriteString("  method: " + jsString(strings.ToLower(r.EffectiveMethod().String())) + ",\n")
	b.WriteString("  url: " + jsString(r.URL))

	if block := jsHeaderBlock(r.ActiveHeaders(), "    "); block != "" {
		b.WriteString(",\n  headers: {\n" + block + "\n  }")
	}

	if r.SendsBody() {
		body, _ := renderBody(r.Body, jsString)
		b.WriteString(",\n  data: " + indentTail(body, "  "))
	}

	b.WriteString("\n})\n")
	b.WriteString(".then(response => {\n  console.log(response.data);\n})\n")
	b.WriteString(".catch(error => {\n  console.error('Error:', error);\n});")
	return b.String()
}

type nodeGenerator struct{}

func (nodeGenerator) Target() Target   { return TargetNodeJS }
func (nodeGenerator) Label() string    { return "Node.js (http)" }
func (nodeGenerator) Language() string { return "javascript" }

func (nodeGenerator) Generate(r *request.Request) string {
	if r == nil || r.URL == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString("const https = require('https');\n")
	b.WriteString("const http = require('http');\n")
	b.WriteString("const { URL } = require('url');\n\n")
	b.WriteString("const urlObj = new URL(" + jsString(r.URL) + ");\n")
	b.WriteString("const client = urlObj.protocol === 'https:' ? https : http;\n\n")

	b.WriteString("const options = {\n")
	b.WriteString("  hostname: urlObj.hostname,\n")
	b.WriteString("  port: urlObj.port,\n")
	b.WriteString("  path: urlObj.pathname + urlObj.search,\n")
	b.WriteString("  method: " + jsString(r.EffectiveMethod().String()))
	if block := jsHeaderBlock(r.ActiveHeaders(), "    "); block != "" {
		b.WriteString(",\n  headers: {\n" + block + "\n  }")
	}
	b.WriteString("\n};\n\n")

	var write string
	if r.SendsBody() {
		body, isJSON := renderBody(r.Body, jsString)
		b.WriteString("const postData = " + body + ";\n\n")
		if isJSON {
			write = "req.write(JSON.stringify(postData));\n"
		} else {
			write = "req.write(postData);\n"
		}
	}

	b.WriteString(`const req = client.request(options, (res) => {
  let data = '';

  res.on('data', (chunk) => {
    data += chunk;
  });

  res.on('end', () => {
    console.log('Status:', res.statusCode);
    console.log('Response:', JSON.parse(data));
  });
});

req.on('error', (error) => {
  console.error('Error:', error);
});

`)
	b.WriteString(write)
	b.WriteString("req.end();")
	return b.String()
}
