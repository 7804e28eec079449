package config

import "time"

// Defaults.
const (
	DefaultListen       = ":8080"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultPublicURL    = "http://localhost:8080"
	DefaultShareTTL     = 30 * 24 * time.Hour
	DefaultProxyTimeout = 30 * time.Second
	DefaultHistoryLimit = 50
)

// NewDefault returns a Config with every key at its default.
func NewDefault() *Config {
	cfg := &Config{
		Listen:       DefaultListen,
		LogLevel:     DefaultLogLevel,
		LogFormat:    DefaultLogFormat,
		PublicURL:    DefaultPublicURL,
		ShareTTL:     DefaultShareTTL,
		ProxyTimeout: DefaultProxyTimeout,
		HistoryLimit: DefaultHistoryLimit,
		Sources:      make(map[string]string),
	}

	for _, key := range []string{
		KeyListen, KeyLogLevel, KeyLogFormat, KeyPublicURL,
		KeyShareTTL, KeyProxyTimeout, KeyHistoryLimit,
	} {
		cfg.Sources[key] = SourceDefault
	}

	return cfg
}
