package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/reqlab/reqlab/pkg/cli/internal/output"
	"github.com/reqlab/reqlab/pkg/proxy"
)

var sendFlags struct {
	req      requestFlags
	fromCurl string
	timeout  time.Duration
	jsonPath string
	include  bool
}

var sendCmd = &cobra.Command{
	Use:   "send [URL]",
	Short: "Send a request and print the response",
	Long: `Send a request built from the curl-like flags, a request file, or a cURL
command (--curl), and print the response body. JSON bodies are indented.

With --jsonpath only the matching values are printed, one per line.
With --json the full result (status, headers, body, timing) is printed.`,
	Example: `  reqlab send https://api.example.com/users
  reqlab send -X POST -H 'Content-Type: application/json' -d '{"name":"Ada"}' https://api.example.com/users
  reqlab send --curl "$(pbpaste)" --jsonpath '$.items[*].id'
  reqlab send -f create-user.yaml -i`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSend,
}

func init() {
	f := &sendFlags
	fs := sendCmd.Flags()
	f.req.register(fs)
	fs.StringVar(&f.fromCurl, "curl", "", "Build the request from a cURL command ('-' reads stdin)")
	fs.DurationVar(&f.timeout, "timeout", proxy.DefaultTimeout, "Request timeout")
	fs.StringVar(&f.jsonPath, "jsonpath", "", "Print only the values matching this JSONPath expression")
	fs.BoolVarP(&f.include, "include", "i", false, "Print the status line and response headers")

	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	f := &sendFlags

	req, err := resolveRequest(cmd.InOrStdin(), &f.req, f.fromCurl, args)
	if err != nil {
		return err
	}

	result, err := proxy.NewExecutor(f.timeout).Execute(cmd.Context(), proxy.FromModel(req))
	if err != nil {
		return err
	}
	if result.Truncated {
		output.Warn(cmd.ErrOrStderr(), "response body truncated to %d bytes", proxy.MaxResponseSize)
	}

	w := cmd.OutOrStdout()
	if f.jsonPath != "" {
		matches, err := result.Query(f.jsonPath)
		if err != nil {
			return err
		}
		return printResult(w, matches, func() {
			for _, m := range matches {
				writeValue(w, m)
			}
		})
	}

	return printResult(w, result, func() {
		if f.include {
			writeHead(w, result)
		}
		writeBody(w, result.Data)
	})
}

// writeHead prints "STATUS TEXT" and the headers sorted by name, then a
// blank line.
func writeHead(w io.Writer, result *proxy.Result) {
	fmt.Fprintf(w, "%d %s\n", result.Status, result.StatusText)
	names := make([]string, 0, len(result.Headers))
	for k := range result.Headers {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(w, "%s: %s\n", k, result.Headers[k])
	}
	fmt.Fprintln(w)
}

func writeBody(w io.Writer, data any) {
	raw, ok := data.(json.RawMessage)
	if !ok {
		fmt.Fprintln(w, data)
		return
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		fmt.Fprintln(w, string(raw))
		return
	}
	fmt.Fprintln(w, buf.String())
}

// writeValue prints strings bare and everything else as compact JSON.
func writeValue(w io.Writer, v any) {
	if s, ok := v.(string); ok {
		fmt.Fprintln(w, s)
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintln(w, v)
		return
	}
	fmt.Fprintln(w, string(data))
}
