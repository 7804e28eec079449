package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/reqlab/reqlab/internal/config"
	"github.com/reqlab/reqlab/internal/storage"
	"github.com/reqlab/reqlab/pkg/api"
	"github.com/reqlab/reqlab/pkg/logging"
	"github.com/reqlab/reqlab/pkg/metrics"
	"github.com/reqlab/reqlab/pkg/proxy"
	"github.com/reqlab/reqlab/pkg/ratelimit"
	"github.com/reqlab/reqlab/pkg/share"
)

const shutdownTimeout = 5 * time.Second

var serveFlags struct {
	listen       string
	db           string
	publicURL    string
	logFile      string
	shareTTL     time.Duration
	proxyTimeout time.Duration
	historyLimit int
	rateLimit    float64
	burst        int
	metrics      bool
}

// flagKeys maps command line flags to the config keys they override.
var flagKeys = []struct{ flag, key string }{
	{"log-level", config.KeyLogLevel},
	{"log-format", config.KeyLogFormat},
	{"log-file", config.KeyLogFile},
	{"listen", config.KeyListen},
	{"db", config.KeyDBPath},
	{"public-url", config.KeyPublicURL},
	{"share-ttl", config.KeyShareTTL},
	{"proxy-timeout", config.KeyProxyTimeout},
	{"history-limit", config.KeyHistoryLimit},
	{"proxy-rate-limit", config.KeyProxyRateLimit},
	{"proxy-burst", config.KeyProxyBurst},
	{"metrics", config.KeyMetrics},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the reqlab HTTP API",
	Long: `Start the reqlab HTTP API. Saved requests, collections, history and shares
are kept in SQLite when --db is set and in memory otherwise.`,
	Example: `  reqlab serve
  reqlab serve --listen :9090 --db ~/.reqlab/reqlab.db
  REQLAB_PUBLIC_URL=https://reqlab.example.com reqlab serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	fs := serveCmd.Flags()
	fs.StringVar(&serveFlags.listen, "listen", config.DefaultListen, "Listen address")
	fs.StringVar(&serveFlags.db, "db", "", "SQLite database path (default: in memory)")
	fs.StringVar(&serveFlags.publicURL, "public-url", config.DefaultPublicURL, "Base URL of share links")
	fs.StringVar(&serveFlags.logFile, "log-file", "", "Also write JSON logs to this file")
	fs.DurationVar(&serveFlags.shareTTL, "share-ttl", config.DefaultShareTTL, "How long share links stay valid")
	fs.DurationVar(&serveFlags.proxyTimeout, "proxy-timeout", config.DefaultProxyTimeout, "Timeout of proxied requests")
	fs.IntVar(&serveFlags.historyLimit, "history-limit", config.DefaultHistoryLimit, "History entries kept per user")
	fs.Float64Var(&serveFlags.rateLimit, "proxy-rate-limit", 0, "Proxy calls per second per client (0 disables)")
	fs.IntVar(&serveFlags.burst, "proxy-burst", 0, "Proxy burst size per client (default: twice the rate)")
	fs.BoolVar(&serveFlags.metrics, "metrics", false, "Expose Prometheus metrics at /metrics")

	rootCmd.AddCommand(serveCmd)
}

// loadConfig layers the flags the user actually set over the file and
// environment configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath, os.LookupEnv)
	if err != nil {
		return nil, err
	}
	for _, fk := range flagKeys {
		f := cmd.Flags().Lookup(fk.flag)
		if f == nil || !f.Changed {
			continue
		}
		if err := cfg.Set(fk.key, f.Value.String(), config.SourceFlag); err != nil {
			return nil, fmt.Errorf("--%s: %w", fk.flag, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger logs to stderr, and additionally as JSON to LogFile when set.
// The returned func closes the log file.
func newLogger(cfg *config.Config, stderr io.Writer) (*slog.Logger, func() error, error) {
	handler := logging.NewHandler(logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: logging.ParseFormat(cfg.LogFormat),
		Output: stderr,
	})
	if cfg.LogFile == "" {
		return slog.New(handler), func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o750); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	fileHandler := logging.NewHandler(logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: logging.FormatJSON,
		Output: file,
	})
	return slog.New(logging.Tee(handler, fileHandler)), file.Close, nil
}

// openStore returns the SQLite store at DBPath, or a memory store.
func openStore(cfg *config.Config, log *slog.Logger) (storage.Store, error) {
	if cfg.DBPath == "" {
		log.Info("using in-memory store; data is lost on exit")
		return storage.NewMemoryStore(storage.WithHistoryLimit(cfg.HistoryLimit)), nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o750); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	store, err := storage.OpenSQLite(cfg.DBPath, storage.WithHistoryLimit(cfg.HistoryLimit))
	if err != nil {
		return nil, err
	}
	log.Info("using SQLite store", "path", cfg.DBPath)
	return store, nil
}

// newServer wires the API from cfg. The returned func releases the rate
// limiter, if one was created.
func newServer(cfg *config.Config, store storage.Store, log *slog.Logger) (*api.Server, func(), error) {
	filter, err := proxy.NewHostFilter(cfg.ProxyAllowHosts, cfg.ProxyDenyHosts)
	if err != nil {
		return nil, nil, err
	}
	shares := share.NewService(store, cfg.PublicURL,
		share.WithTTL(cfg.ShareTTL),
		share.WithLogger(log),
	)
	executor := proxy.NewExecutor(cfg.ProxyTimeout,
		proxy.WithHostFilter(filter),
		proxy.WithLogger(log),
	)
	opts := []api.Option{
		api.WithLogger(log),
		api.WithShareService(shares),
		api.WithProxy(executor),
		api.WithVersion(Version),
	}

	release := func() {}
	if cfg.ProxyRateLimit > 0 {
		limiter := ratelimit.NewLimiter(ratelimit.Config{
			Rate:  cfg.ProxyRateLimit,
			Burst: cfg.ProxyBurst,
		})
		opts = append(opts, api.WithRateLimiter(limiter))
		release = limiter.Stop
		log.Info("proxy rate limit enabled", "rate", cfg.ProxyRateLimit, "burst", limiter.Burst())
	}
	if cfg.Metrics {
		opts = append(opts, api.WithMetrics(metrics.NewRegistry()))
	}

	return api.New(store, opts...), release, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, closeLog, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("close store", "error", err)
		}
	}()

	srv, release, err := newServer(cfg, store, log)
	if err != nil {
		return err
	}
	defer release()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(cfg.Listen) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
