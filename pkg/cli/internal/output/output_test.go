package output

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Method string `json:"method" yaml:"method"`
	URL    string `json:"url" yaml:"url"`
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, sample{Method: "GET", URL: "https://x"}))
	assert.Equal(t, "{\n  \"method\": \"GET\",\n  \"url\": \"https://x\"\n}\n", buf.String())
}

func TestYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, YAML(&buf, sample{Method: "GET", URL: "https://x"}))
	assert.Equal(t, "method: GET\nurl: https://x\n", buf.String())
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	tw := Table(&buf)
	fmt.Fprintln(tw, "TARGET\tLABEL")
	fmt.Fprintln(tw, "go\tGo (net/http)")
	require.NoError(t, tw.Flush())
	assert.Equal(t, "TARGET  LABEL\ngo      Go (net/http)\n", buf.String())
}

func TestWarn(t *testing.T) {
	var buf bytes.Buffer
	Warn(&buf, "clipboard unavailable: %s", "no display")
	assert.Equal(t, "Warning: clipboard unavailable: no display\n", buf.String())
}
