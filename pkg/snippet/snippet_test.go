package snippet

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqlab/reqlab/pkg/request"
)

func postJSON() *request.Request {
	return &request.Request{
		Method: request.MethodPost,
		URL:    "https://api.example.com/users",
		Headers: []request.Header{
			{Key: "Content-Type", Value: "application/json"},
			{Key: "X-Trace", Value: "abc"},
			{Key: "", Value: "orphan"},
		},
		Body: `{"name":"John","age":30}`,
	}
}

// ============================================================================
// Registry
// ============================================================================

func TestTargets_StableOrder(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []Target{
		TargetCurl, TargetFetch, TargetAxios, TargetPython, TargetGo, TargetNodeJS,
	}, Targets())

	for _, g := range List() {
		assert.NotEmpty(t, g.Label(), g.Target())
		assert.NotEmpty(t, g.Language(), g.Target())
	}
}

func TestGenerate_UnknownTarget(t *testing.T) {
	t.Parallel()

	_, err := Generate("cobol", postJSON())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownTarget))
	assert.Contains(t, err.Error(), `"cobol"`)
}

func TestRegistry_ReplaceKeepsPosition(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(curlGenerator{})
	reg.Register(pythonGenerator{})
	reg.Register(curlGenerator{})
	reg.Register(nil)

	assert.Equal(t, []Target{TargetCurl, TargetPython}, reg.Targets())
	assert.Nil(t, reg.Get(TargetGo))
}

// ============================================================================
// Shared rules
// ============================================================================

func TestAllTargets_EmptyURL(t *testing.T) {
	t.Parallel()

	for _, target := range Targets() {
		t.Run(string(target), func(t *testing.T) {
			t.Parallel()
			code, err := Generate(target, &request.Request{Method: request.MethodPost, Body: "{}"})
			require.NoError(t, err)
			assert.Empty(t, code)

			code, err = Generate(target, nil)
			require.NoError(t, err)
			assert.Empty(t, code)
		})
	}
}

func TestAllTargets_GetOmitsBody(t *testing.T) {
	t.Parallel()

	r := &request.Request{
		Method: request.MethodGet,
		URL:    "https://api.example.com/items",
		Body:   `{"marker":"should-not-appear"}`,
	}
	for _, target := range Targets() {
		t.Run(string(target), func(t *testing.T) {
			t.Parallel()
			code, err := Generate(target, r)
			require.NoError(t, err)
			assert.Contains(t, code, "https://api.example.com/items")
			assert.NotContains(t, code, "should-not-appear")
		})
	}
}

func TestAllTargets_ActiveHeadersInOrder(t *testing.T) {
	t.Parallel()

	for _, target := range Targets() {
		t.Run(string(target), func(t *testing.T) {
			t.Parallel()
			code, err := Generate(target, postJSON())
			require.NoError(t, err)

			ct := strings.Index(code, "Content-Type")
			trace := strings.Index(code, "X-Trace")
			require.GreaterOrEqual(t, ct, 0)
			require.GreaterOrEqual(t, trace, 0)
			assert.Less(t, ct, trace)
			assert.NotContains(t, code, "orphan")
		})
	}
}

func TestAllTargets_DoNotMutateInput(t *testing.T) {
	t.Parallel()

	r := postJSON()
	before := r.Clone()
	for _, target := range Targets() {
		_, err := Generate(target, r)
		require.NoError(t, err)
	}
	assert.Equal(t, before, r)
}

// ============================================================================
// Per-target output
// ============================================================================

func TestCurl_DelegatesToFormatter(t *testing.T) {
	t.Parallel()

	code, err := Generate(TargetCurl, postJSON())
	require.NoError(t, err)
	assert.Equal(t, "curl -X POST 'https://api.example.com/users' \\\n"+
		"  -H 'Content-Type: application/json' \\\n"+
		"  -H 'X-Trace: abc' \\\n"+
		"  -d '{\"name\":\"John\",\"age\":30}'", code)
}

func TestFetch(t *testing.T) {
	t.Parallel()

	t.Run("json body", func(t *testing.T) {
		t.Parallel()
		expected := "fetch('https://api.example.com/users', {\n" +
			"  method: 'POST',\n" +
			"  headers: {\n" +
			"    'Content-Type': 'application/json',\n" +
			"    'X-Trace': 'abc'\n" +
			"  },\n" +
			"  body: JSON.stringify({\n" +
			"    \"name\": \"John\",\n" +
			"    \"age\": 30\n" +
			"  })\n" +
			"})\n" +
			".then(response => response.json())\n" +
			".then(data => console.log(data))\n" +
			".catch(error => console.error('Error:', error));"
		assert.Equal(t, expected, fetchGenerator{}.Generate(postJSON()))
	})

	t.Run("raw body is quoted", func(t *testing.T) {
		t.Parallel()
		r := &request.Request{Method: request.MethodPut, URL: "https://x.test", Body: "it's raw"}
		code := fetchGenerator{}.Generate(r)
		assert.Contains(t, code, `body: 'it\'s raw'`)
		assert.NotContains(t, code, "JSON.stringify")
		assert.NotContains(t, code, "headers:")
	})
}

func TestAxios(t *testing.T) {
	t.Parallel()

	code := axiosGenerator{}.Generate(postJSON())
	assert.True(t, strings.HasPrefix(code, "const axios = require('axios');\n\naxios({\n"))
	assert.Contains(t, code, "  method: 'post',\n  url: 'https://api.example.com/users',\n")
	assert.Contains(t, code, "  data: {\n    \"name\": \"John\",\n    \"age\": 30\n  }\n})")
	assert.True(t, strings.HasSuffix(code, "console.error('Error:', error);\n});"))

	raw := axiosGenerator{}.Generate(&request.Request{Method: request.MethodPatch, URL: "https://x.test", Body: "a=b"})
	assert.Contains(t, raw, "data: 'a=b'")
}

func TestPython(t *testing.T) {
	t.Parallel()

	t.Run("json body", func(t *testing.T) {
		t.Parallel()
		expected := "import requests\n" +
			"import json\n" +
			"\n" +
			"url = \"https://api.example.com/users\"\n" +
			"headers = {\n" +
			"    \"Content-Type\": \"application/json\",\n" +
			"    \"X-Trace\": \"abc\"\n" +
			"}\n" +
			"\n" +
			"payload = json.loads(r'''\n" +
			"{\n" +
			"  \"name\": \"John\",\n" +
			"  \"age\": 30\n" +
			"}\n" +
			"''')\n" +
			"\n" +
			"response = requests.post(url, headers=headers, json=payload)\n" +
			"\n" +
			"print(\"Status Code:\", response.status_code)\n" +
			"print(\"Response:\", response.json())"
		assert.Equal(t, expected, pythonGenerator{}.Generate(postJSON()))
	})

	t.Run("get without headers", func(t *testing.T) {
		t.Parallel()
		code := pythonGenerator{}.Generate(&request.Request{Method: request.MethodGet, URL: "https://x.test"})
		assert.Contains(t, code, "headers = {}\n")
		assert.Contains(t, code, "response = requests.get(url, headers=headers)\n")
		assert.NotContains(t, code, "import json")
	})

	t.Run("raw body uses data", func(t *testing.T) {
		t.Parallel()
		code := pythonGenerator{}.Generate(&request.Request{Method: request.MethodDelete, URL: "https://x.test", Body: `say "hi"`})
		assert.Contains(t, code, `payload = "say \"hi\""`)
		assert.Contains(t, code, "requests.delete(url, headers=headers, data=payload)")
	})

	t.Run("triple quote in json falls back", func(t *testing.T) {
		t.Parallel()
		code := pythonGenerator{}.Generate(&request.Request{Method: request.MethodPost, URL: "https://x.test", Body: `{"q":"'''"}`})
		assert.NotContains(t, code, "r'''")
		assert.Contains(t, code, "json.loads(\"")
	})
}

func TestGo(t *testing.T) {
	t.Parallel()

	t.Run("json body", func(t *testing.T) {
		t.Parallel()
		code := goGenerator{}.Generate(postJSON())
		assert.True(t, strings.HasPrefix(code, "package main\n\nimport (\n\t\"bytes\"\n\t\"encoding/json\"\n\t\"fmt\"\n\t\"io\"\n\t\"net/http\"\n)\n"))
		assert.Contains(t, code, "\tpayload := json.RawMessage(`{\n\t  \"name\": \"John\",\n\t  \"age\": 30\n\t}`)\n")
		assert.Contains(t, code, "http.NewRequest(http.MethodPost, url, bytes.NewBuffer(jsonData))")
		assert.Contains(t, code, "\treq.Header.Add(\"Content-Type\", \"application/json\")\n\treq.Header.Add(\"X-Trace\", \"abc\")\n")
		assert.True(t, strings.HasSuffix(code, "}"))
	})

	t.Run("get has no body imports", func(t *testing.T) {
		t.Parallel()
		code := goGenerator{}.Generate(&request.Request{Method: request.MethodGet, URL: "https://x.test"})
		assert.NotContains(t, code, "\"bytes\"")
		assert.NotContains(t, code, "encoding/json")
		assert.Contains(t, code, "http.NewRequest(http.MethodGet, url, nil)")
	})

	t.Run("raw body", func(t *testing.T) {
		t.Parallel()
		code := goGenerator{}.Generate(&request.Request{Method: request.MethodPut, URL: "https://x.test", Body: "line1\nline2"})
		assert.Contains(t, code, "payload := []byte(\"line1\\nline2\")")
		assert.NotContains(t, code, "encoding/json")
	})

	t.Run("backtick in json falls back to quoted", func(t *testing.T) {
		t.Parallel()
		code := goGenerator{}.Generate(&request.Request{Method: request.MethodPost, URL: "https://x.test", Body: "{\"a\":\"`\"}"})
		assert.Contains(t, code, "json.RawMessage(\"{\\n  \\\"a\\\": \\\"`\\\"\\n}\")")
	})
}

func TestNodeJS(t *testing.T) {
	t.Parallel()

	code := nodeGenerator{}.Generate(postJSON())
	assert.Contains(t, code, "const urlObj = new URL('https://api.example.com/users');\n")
	assert.Contains(t, code, "  method: 'POST',\n  headers: {\n    'Content-Type': 'application/json',\n    'X-Trace': 'abc'\n  }\n};\n")
	assert.Contains(t, code, "const postData = {\n  \"name\": \"John\",\n  \"age\": 30\n};\n")
	assert.Contains(t, code, "req.write(JSON.stringify(postData));\nreq.end();")

	raw := nodeGenerator{}.Generate(&request.Request{Method: request.MethodPost, URL: "https://x.test", Body: "plain"})
	assert.Contains(t, raw, "const postData = 'plain';\n")
	assert.Contains(t, raw, "req.write(postData);\nreq.end();")

	get := nodeGenerator{}.Generate(&request.Request{Method: request.MethodGet, URL: "https://x.test"})
	assert.NotContains(t, get, "postData")
	assert.True(t, strings.HasSuffix(get, "});\n\nreq.end();"))
}

// ============================================================================
// Helpers
// ============================================================================

func TestRenderBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		body   string
		want   string
		isJSON bool
	}{
		{name: "object", body: `{"a":[1,2]}`, want: "{\n  \"a\": [\n    1,\n    2\n  ]\n}", isJSON: true},
		{name: "surrounding whitespace", body: "  [true] \n", want: "[\n  true\n]", isJSON: true},
		{name: "scalar", body: "42", want: "42", isJSON: true},
		{name: "invalid", body: "{oops", want: "'{oops'", isJSON: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, isJSON := renderBody(tt.body, jsString)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.isJSON, isJSON)
		})
	}
}

func TestStringLiterals(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `'a\\b\'c\nd'`, jsString("a\\b'c\nd"))
	assert.Equal(t, `'\u2028'`, jsString("\u2028"))
	assert.Equal(t, `"a\\b\"c\td"`, pyString("a\\b\"c\td"))
	assert.Equal(t, `"x\"y"`, goString(`x"y`))
}
