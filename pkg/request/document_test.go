package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDocument(t *testing.T) {
	t.Parallel()

	got, err := DecodeDocument([]byte(`{
		"name": "Create user",
		"method": "post",
		"url": "https://api.example.com/users",
		"headers": [{"key": "Content-Type", "value": "application/json"}],
		"body": "{\"name\":\"Ada\"}"
	}`))
	require.NoError(t, err)
	assert.Equal(t, &Request{
		Name:    "Create user",
		Method:  MethodPost,
		URL:     "https://api.example.com/users",
		Headers: []Header{{Key: "Content-Type", Value: "application/json"}},
		Body:    `{"name":"Ada"}`,
	}, got)
}

func TestDecodeDocument_Defaults(t *testing.T) {
	t.Parallel()

	got, err := DecodeDocument([]byte(`{"url": "https://a.test"}`))
	require.NoError(t, err)
	assert.Equal(t, MethodGet, got.Method)
	assert.Equal(t, []Header{{}}, got.Headers)
}

func TestDecodeDocument_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		field string
	}{
		{"url not a string", `{"url": 42}`, "url"},
		{"header without key", `{"headers": [{"value": "x"}]}`, "headers.0"},
		{"header value not a string", `{"headers": [{"key": "A", "value": 1}]}`, "headers.0.value"},
		{"method with spaces", `{"method": "GE T"}`, "method"},
		{"body object", `{"body": {"a": 1}}`, "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := DecodeDocument([]byte(tt.input))
			var docErr *DocumentError
			require.ErrorAs(t, err, &docErr)
			require.NotEmpty(t, docErr.Errors)

			fields := make([]string, 0, len(docErr.Errors))
			for _, fe := range docErr.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestDecodeDocument_UnknownField(t *testing.T) {
	t.Parallel()

	_, err := DecodeDocument([]byte(`{"url": "https://a.test", "header": []}`))
	var docErr *DocumentError
	require.ErrorAs(t, err, &docErr)
	assert.Contains(t, err.Error(), "header")
}

func TestDecodeDocument_NotJSON(t *testing.T) {
	t.Parallel()

	_, err := DecodeDocument([]byte(`{"url": `))
	require.Error(t, err)
	var docErr *DocumentError
	assert.NotErrorAs(t, err, &docErr)
}
