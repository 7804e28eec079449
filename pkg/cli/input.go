package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/reqlab/reqlab/pkg/cli/internal/flags"
	"github.com/reqlab/reqlab/pkg/curl"
	"github.com/reqlab/reqlab/pkg/request"
)

// readText returns the positional arguments joined by spaces, or stdin when
// there are none or the only one is "-".
func readText(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	return strings.Join(args, " "), nil
}

// requestFlags are the curl-like flags shared by commands that build a
// request.
type requestFlags struct {
	method  string
	headers flags.Headers
	data    string
	file    string
}

func (f *requestFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.method, "request", "X", "", "HTTP method (default GET, or POST with --data)")
	fs.VarP(&f.headers, "header", "H", "Header as 'Key: Value' (repeatable)")
	fs.StringVarP(&f.data, "data", "d", "", "Request body; @path reads it from a file")
	fs.StringVarP(&f.file, "file", "f", "", "Request file (JSON with comments, or YAML)")
}

// build assembles a request from the file, if any, then the flags, then the
// URL argument. Flags override the file; headers are appended to it.
func (f *requestFlags) build(args []string) (*request.Request, error) {
	req := request.New()
	if f.file != "" {
		loaded, err := loadRequestFile(f.file)
		if err != nil {
			return nil, err
		}
		req = loaded
	}

	if len(args) > 0 {
		req.URL = strings.TrimSpace(args[0])
	}
	if len(f.headers) > 0 {
		req.Headers = append(req.ActiveHeaders(), f.headers...)
	}
	if f.data != "" {
		body, err := readData(f.data)
		if err != nil {
			return nil, err
		}
		req.Body = body
		if f.method == "" && f.file == "" {
			req.Method = request.MethodPost
		}
	}
	if f.method != "" {
		req.Method = request.ParseMethod(f.method)
	}

	if req.URL == "" {
		return nil, ErrMissingURL
	}
	return req, nil
}

// readData resolves a --data value, reading @path from disk.
func readData(value string) (string, error) {
	path, ok := strings.CutPrefix(value, "@")
	if !ok {
		return value, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(data), nil
}

// resolveRequest builds the request from a cURL command when fromCurl is set
// ('-' reads it from stdin), otherwise from the request flags. When nothing
// names a URL and stdin is a terminal, the user is asked for one.
func resolveRequest(stdin io.Reader, rf *requestFlags, fromCurl string, args []string) (*request.Request, error) {
	if fromCurl == "" {
		req, err := rf.build(args)
		if errors.Is(err, ErrMissingURL) && rf.file == "" && isTerminal(stdin) {
			return promptRequest(rf)
		}
		return req, err
	}

	text := fromCurl
	if text == "-" {
		var err error
		if text, err = readText(stdin, nil); err != nil {
			return nil, err
		}
	}
	return curl.Import(text)
}

// loadRequestFile reads a request from YAML (.yaml, .yml) or JSON, where
// comments and trailing commas are allowed.
func loadRequestFile(path string) (*request.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if data, err = json.Marshal(doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		data = jsonc.ToJSON(data)
	}

	req, err := request.DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return req, nil
}
