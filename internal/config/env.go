package config

import "os"

// Environment variable names.
const (
	EnvConfig         = "REQLAB_CONFIG"
	EnvListen         = "REQLAB_LISTEN"
	EnvLogLevel       = "REQLAB_LOG_LEVEL"
	EnvLogFormat      = "REQLAB_LOG_FORMAT"
	EnvLogFile        = "REQLAB_LOG_FILE"
	EnvDBPath         = "REQLAB_DB"
	EnvPublicURL      = "REQLAB_PUBLIC_URL"
	EnvShareTTL       = "REQLAB_SHARE_TTL"
	EnvProxyTimeout   = "REQLAB_PROXY_TIMEOUT"
	EnvHistoryLimit   = "REQLAB_HISTORY_LIMIT"
	EnvProxyAllow     = "REQLAB_PROXY_ALLOW_HOSTS"
	EnvProxyDeny      = "REQLAB_PROXY_DENY_HOSTS"
	EnvProxyRateLimit = "REQLAB_PROXY_RATE_LIMIT"
	EnvProxyBurst     = "REQLAB_PROXY_BURST"
	EnvMetrics        = "REQLAB_METRICS"
)

var envKeys = []struct{ env, key string }{
	{EnvListen, KeyListen},
	{EnvLogLevel, KeyLogLevel},
	{EnvLogFormat, KeyLogFormat},
	{EnvLogFile, KeyLogFile},
	{EnvDBPath, KeyDBPath},
	{EnvPublicURL, KeyPublicURL},
	{EnvShareTTL, KeyShareTTL},
	{EnvProxyTimeout, KeyProxyTimeout},
	{EnvHistoryLimit, KeyHistoryLimit},
	{EnvProxyAllow, KeyProxyAllow},
	{EnvProxyDeny, KeyProxyDeny},
	{EnvProxyRateLimit, KeyProxyRateLimit},
	{EnvProxyBurst, KeyProxyBurst},
	{EnvMetrics, KeyMetrics},
}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(string) (string, bool)

// ApplyEnv overlays REQLAB_* variables found by lookup (os.LookupEnv when
// nil). Only non-empty variables are applied.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, e := range envKeys {
		v, ok := lookup(e.env)
		if !ok || v == "" {
			continue
		}
		if err := cfg.Set(e.key, v, SourceEnv); err != nil {
			return &Error{Path: e.env, Message: err.Error()}
		}
	}
	return nil
}
