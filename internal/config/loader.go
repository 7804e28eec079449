package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LocalFileNames are searched for in the working directory, in order.
var LocalFileNames = []string{"reqlab.yaml", "reqlab.yml"}

// Error is a configuration error, with the file line when known.
type Error struct {
	Path    string
	Line    int
	Message string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return e.Path + " (line " + strconv.Itoa(e.Line) + "): " + e.Message
	}
	return e.Path + ": " + e.Message
}

// FindLocal returns the first of LocalFileNames present in dir, or "".
func FindLocal(dir string) string {
	for _, name := range LocalFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

// LoadFile parses a YAML config file into a partial Config. Keys absent from
// the file are left at their zero value and not recorded in Sources.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, yamlError(path, err)
	}

	var present map[string]any
	_ = yaml.Unmarshal(data, &present)
	cfg.Sources = make(map[string]string, len(present))
	for key := range present {
		cfg.Sources[key] = SourceFile
	}
	return &cfg, nil
}

func yamlError(path string, err error) *Error {
	msg := strings.TrimPrefix(err.Error(), "yaml: ")
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
		msg = typeErr.Errors[0]
	}

	cfgErr := &Error{Path: path, Message: msg}
	if m := yamlLine.FindStringSubmatch(msg); m != nil {
		cfgErr.Line, _ = strconv.Atoi(m[1])
		cfgErr.Message = strings.TrimSpace(strings.TrimPrefix(strings.Replace(msg, m[0], "", 1), ":"))
	}
	return cfgErr
}

// Merge copies the keys src has a source for into dst.
func Merge(dst, src *Config) {
	if src == nil {
		return
	}
	if dst.Sources == nil {
		dst.Sources = make(map[string]string)
	}
	for key, source := range src.Sources {
		switch key {
		case KeyListen:
			dst.Listen = src.Listen
		case KeyLogLevel:
			dst.LogLevel = src.LogLevel
		case KeyLogFormat:
			dst.LogFormat = src.LogFormat
		case KeyLogFile:
			dst.LogFile = src.LogFile
		case KeyDBPath:
			dst.DBPath = src.DBPath
		case KeyPublicURL:
			dst.PublicURL = strings.TrimRight(src.PublicURL, "/")
		case KeyShareTTL:
			dst.ShareTTL = src.ShareTTL
		case KeyProxyTimeout:
			dst.ProxyTimeout = src.ProxyTimeout
		case KeyHistoryLimit:
			dst.HistoryLimit = src.HistoryLimit
		case KeyProxyAllow:
			dst.ProxyAllowHosts = src.ProxyAllowHosts
		case KeyProxyDeny:
			dst.ProxyDenyHosts = src.ProxyDenyHosts
		case KeyProxyRateLimit:
			dst.ProxyRateLimit = src.ProxyRateLimit
		case KeyProxyBurst:
			dst.ProxyBurst = src.ProxyBurst
		case KeyMetrics:
			dst.Metrics = src.Metrics
		default:
			continue
		}
		dst.Sources[key] = source
	}
}

// Load builds a Config from defaults, the config file and the environment.
// path names the file explicitly; when empty, REQLAB_CONFIG and then the
// working directory are consulted, and a missing file is not an error.
func Load(path string, lookup LookupFunc) (*Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	cfg := NewDefault()

	if path == "" {
		if v, ok := lookup(EnvConfig); ok {
			path = v
		}
	}
	if path == "" {
		if cwd, err := os.Getwd(); err == nil {
			path = FindLocal(cwd)
		}
	}

	if path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			var cfgErr *Error
			if errors.As(err, &cfgErr) {
				return nil, cfgErr
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		Merge(cfg, fileCfg)
	}

	if err := ApplyEnv(cfg, lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}
