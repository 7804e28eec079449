package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reqlab.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewDefault(t *testing.T) {
	cfg := NewDefault()

	assert.Equal(t, DefaultListen, cfg.Listen)
	assert.Equal(t, 30*24*time.Hour, cfg.ShareTTL)
	assert.Equal(t, 50, cfg.HistoryLimit)
	assert.Empty(t, cfg.DBPath)
	assert.Equal(t, SourceDefault, cfg.Sources[KeyListen])
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, "listen: \":9000\"\nhistoryLimit: 10\nshareTtl: 1h\npublicUrl: https://reqlab.dev/\n")

	cfg, err := Load(path, env(map[string]string{
		EnvHistoryLimit: "20",
		EnvLogFormat:    "json",
		EnvLogLevel:     "",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, SourceFile, cfg.Sources[KeyListen])
	assert.Equal(t, time.Hour, cfg.ShareTTL)
	assert.Equal(t, "https://reqlab.dev", cfg.PublicURL)

	assert.Equal(t, 20, cfg.HistoryLimit)
	assert.Equal(t, SourceEnv, cfg.Sources[KeyHistoryLimit])
	assert.Equal(t, "json", cfg.LogFormat)

	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, SourceDefault, cfg.Sources[KeyLogLevel])

	require.NoError(t, cfg.Set(KeyListen, ":7000", SourceFlag))
	assert.Equal(t, ":7000", cfg.Listen)
	assert.Equal(t, SourceFlag, cfg.Sources[KeyListen])
}

func TestLoad_ConfigFromEnv(t *testing.T) {
	path := writeFile(t, "dbPath: /tmp/reqlab.db\n")

	cfg, err := Load("", env(map[string]string{EnvConfig: path}))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/reqlab.db", cfg.DBPath)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), env(nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_SyntaxErrorHasLine(t *testing.T) {
	path := writeFile(t, "listen: \":9000\"\nhistoryLimit: [1,\n")

	_, err := Load(path, env(nil))
	require.Error(t, err)

	var cfgErr *Error
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, path, cfgErr.Path)
	assert.Positive(t, cfgErr.Line)
	assert.Contains(t, err.Error(), "(line ")
}

func TestLoad_TypeErrorHasLine(t *testing.T) {
	path := writeFile(t, "listen: \":9000\"\nhistoryLimit: lots\n")

	_, err := Load(path, env(nil))
	var cfgErr *Error
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, 2, cfgErr.Line)
	assert.Contains(t, cfgErr.Message, "cannot unmarshal")
}

func TestApplyEnv_BadValue(t *testing.T) {
	cfg := NewDefault()
	err := ApplyEnv(cfg, env(map[string]string{EnvProxyTimeout: "soon"}))

	var cfgErr *Error
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, EnvProxyTimeout, cfgErr.Path)
}

func TestSet_UnknownKey(t *testing.T) {
	cfg := NewDefault()
	assert.Error(t, cfg.Set("color", "blue", SourceFlag))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty listen", func(c *Config) { c.Listen = "" }, "listen address is required"},
		{"relative public url", func(c *Config) { c.PublicURL = "reqlab.dev" }, "must be an absolute URL"},
		{"zero ttl", func(c *Config) { c.ShareTTL = 0 }, "shareTtl"},
		{"negative timeout", func(c *Config) { c.ProxyTimeout = -time.Second }, "proxyTimeout"},
		{"history too large", func(c *Config) { c.HistoryLimit = 20000 }, "historyLimit 20000 is out of range"},
		{"negative rate limit", func(c *Config) { c.ProxyRateLimit = -1 }, "proxyRateLimit"},
		{"negative burst", func(c *Config) { c.ProxyBurst = -1 }, "proxyBurst"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefault()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFindLocal(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, FindLocal(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "reqlab.yml"), []byte("{}"), 0o600))
	assert.Equal(t, filepath.Join(dir, "reqlab.yml"), FindLocal(dir))
}

func TestProxyHostLists(t *testing.T) {
	path := writeFile(t, "proxyDenyHosts:\n  - localhost\n  - \"*.internal\"\n")

	cfg, err := Load(path, env(map[string]string{EnvProxyAllow: "api.example.com, ,*.test"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost", "*.internal"}, cfg.ProxyDenyHosts)
	assert.Equal(t, []string{"api.example.com", "*.test"}, cfg.ProxyAllowHosts)
	assert.Equal(t, SourceEnv, cfg.Sources[KeyProxyAllow])
}

func TestProxyRateLimit(t *testing.T) {
	path := writeFile(t, "proxyRateLimit: 2.5\nproxyBurst: 5\n")

	cfg, err := Load(path, env(map[string]string{EnvProxyBurst: "10"}))
	require.NoError(t, err)
	assert.InDelta(t, 2.5, cfg.ProxyRateLimit, 0.0001)
	assert.Equal(t, 10, cfg.ProxyBurst)
	assert.Equal(t, SourceFile, cfg.Sources[KeyProxyRateLimit])
	assert.Equal(t, SourceEnv, cfg.Sources[KeyProxyBurst])

	assert.Error(t, cfg.Set(KeyProxyRateLimit, "fast", SourceFlag))
}

func TestMetricsToggle(t *testing.T) {
	path := writeFile(t, "metrics: true\n")

	cfg, err := Load(path, env(nil))
	require.NoError(t, err)
	assert.True(t, cfg.Metrics)
	assert.Equal(t, SourceFile, cfg.Sources[KeyMetrics])

	cfg, err = Load(path, env(map[string]string{EnvMetrics: "false"}))
	require.NoError(t, err)
	assert.False(t, cfg.Metrics)
	assert.Equal(t, SourceEnv, cfg.Sources[KeyMetrics])

	assert.Error(t, cfg.Set(KeyMetrics, "sometimes", SourceFlag))
}
