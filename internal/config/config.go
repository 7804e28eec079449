package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config holds the settings of the reqlab server and CLI.
type Config struct {
	// Listen is the HTTP API listen address.
	Listen string `yaml:"listen" json:"listen"`

	LogLevel  string `yaml:"logLevel" json:"logLevel"`
	LogFormat string `yaml:"logFormat" json:"logFormat"`
	// LogFile additionally receives JSON logs when set.
	LogFile string `yaml:"logFile,omitempty" json:"logFile,omitempty"`

	// DBPath is the SQLite database file. Empty keeps everything in memory.
	DBPath string `yaml:"dbPath,omitempty" json:"dbPath,omitempty"`

	// PublicURL prefixes share links.
	PublicURL string `yaml:"publicUrl" json:"publicUrl"`

	ShareTTL     time.Duration `yaml:"shareTtl" json:"shareTtl"`
	ProxyTimeout time.Duration `yaml:"proxyTimeout" json:"proxyTimeout"`

	// ProxyAllowHosts and ProxyDenyHosts are host globs limiting what the
	// proxy endpoint may reach.
	ProxyAllowHosts []string `yaml:"proxyAllowHosts,omitempty" json:"proxyAllowHosts,omitempty"`
	ProxyDenyHosts  []string `yaml:"proxyDenyHosts,omitempty" json:"proxyDenyHosts,omitempty"`

	// ProxyRateLimit is the sustained proxy calls per second allowed per
	// client, with bursts up to ProxyBurst. Zero disables limiting.
	ProxyRateLimit float64 `yaml:"proxyRateLimit,omitempty" json:"proxyRateLimit,omitempty"`
	ProxyBurst     int     `yaml:"proxyBurst,omitempty" json:"proxyBurst,omitempty"`

	// Metrics exposes Prometheus metrics at /metrics.
	Metrics bool `yaml:"metrics,omitempty" json:"metrics,omitempty"`

	// HistoryLimit caps stored history entries per user.
	HistoryLimit int `yaml:"historyLimit" json:"historyLimit"`

	// Sources maps each key to the layer that set it.
	Sources map[string]string `yaml:"-" json:"-"`
}

// Layer names used in Sources.
const (
	SourceDefault = "default"
	SourceFile    = "file"
	SourceEnv     = "env"
	SourceFlag    = "flag"
)

// Keys accepted by Set, matching the YAML field names.
const (
	KeyListen         = "listen"
	KeyLogLevel       = "logLevel"
	KeyLogFormat      = "logFormat"
	KeyLogFile        = "logFile"
	KeyDBPath         = "dbPath"
	KeyPublicURL      = "publicUrl"
	KeyShareTTL       = "shareTtl"
	KeyProxyTimeout   = "proxyTimeout"
	KeyHistoryLimit   = "historyLimit"
	KeyProxyAllow     = "proxyAllowHosts"
	KeyProxyDeny      = "proxyDenyHosts"
	KeyProxyRateLimit = "proxyRateLimit"
	KeyProxyBurst     = "proxyBurst"
	KeyMetrics        = "metrics"
)

// Set parses value into the field named by key and records source.
func (c *Config) Set(key, value, source string) error {
	switch key {
	case KeyListen:
		c.Listen = value
	case KeyLogLevel:
		c.LogLevel = value
	case KeyLogFormat:
		c.LogFormat = value
	case KeyLogFile:
		c.LogFile = value
	case KeyDBPath:
		c.DBPath = value
	case KeyPublicURL:
		c.PublicURL = strings.TrimRight(value, "/")
	case KeyShareTTL, KeyProxyTimeout:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if key == KeyShareTTL {
			c.ShareTTL = d
		} else {
			c.ProxyTimeout = d
		}
	case KeyHistoryLimit, KeyProxyBurst:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if key == KeyHistoryLimit {
			c.HistoryLimit = n
		} else {
			c.ProxyBurst = n
		}
	case KeyProxyRateLimit:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.ProxyRateLimit = f
	case KeyMetrics:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.Metrics = b
	case KeyProxyAllow:
		c.ProxyAllowHosts = splitList(value)
	case KeyProxyDeny:
		c.ProxyDenyHosts = splitList(value)
	default:
		return fmt.Errorf("unknown config key %q", key)
	}

	if c.Sources == nil {
		c.Sources = make(map[string]string)
	}
	c.Sources[key] = source
	return nil
}

// Validate checks ranges and formats.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.PublicURL != "" {
		u, err := url.Parse(c.PublicURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("publicUrl %q must be an absolute URL", c.PublicURL)
		}
	}
	if c.ShareTTL <= 0 {
		return fmt.Errorf("shareTtl %s must be positive", c.ShareTTL)
	}
	if c.ProxyTimeout <= 0 {
		return fmt.Errorf("proxyTimeout %s must be positive", c.ProxyTimeout)
	}
	if c.HistoryLimit < 1 || c.HistoryLimit > 10000 {
		return fmt.Errorf("historyLimit %d is out of range (1-10000)", c.HistoryLimit)
	}
	if c.ProxyRateLimit < 0 {
		return fmt.Errorf("proxyRateLimit %g must not be negative", c.ProxyRateLimit)
	}
	if c.ProxyBurst < 0 {
		return fmt.Errorf("proxyBurst %d must not be negative", c.ProxyBurst)
	}
	return nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
