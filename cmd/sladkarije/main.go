package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/erazemk/sladkarije/internal/api"
	"github.com/erazemk/sladkarije/internal/auth"
	"github.com/erazemk/sladkarije/internal/config"
	"github.com/erazemk/sladkarije/internal/db"
	"github.com/erazemk/sladkarije/internal/idempotency"
	"github.com/erazemk/sladkarije/internal/ledger"
	"github.com/erazemk/sladkarije/internal/store"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// newLogHandler builds the level router over the given writers. If logPath
// is non-empty, every level is also appended to that file; the returned
// cleanup closes it.
func newLogHandler(stdout, stderr io.Writer, logPath string) (slog.Handler, func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	cleanup := func() {}

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdout = io.MultiWriter(stdout, f)
		stderr = io.MultiWriter(stderr, f)
	}

	return &levelRouter{
		stdout: slog.NewTextHandler(stdout, opts),
		stderr: slog.NewTextHandler(stderr, opts),
	}, cleanup, nil
}

const usage = `Usage: sladkarije [flags]

Flags override the matching SLADKARIJE_* environment variables.

Flags:
  -d, -db <path>          SQLite database path (SLADKARIJE_DB, default: sladkarije.db)
  -a, -addr <host:port>   listen address (SLADKARIJE_ADDR, default: :8080)
  -u, -user <name>        manager username on first run (SLADKARIJE_MANAGER_USER, default: admin)
  -l, -log <path>         log file path (SLADKARIJE_LOG, default: stdout/stderr only)
  -r, -redis <host:port>  Redis for idempotent stock requests (SLADKARIJE_REDIS_ADDR, default: off)
  -h, -help               show this help and exit
`

// parseFlags applies command-line flags on top of cfg.
func parseFlags(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("sladkarije", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DB, "db", cfg.DB, "")
	fs.StringVar(&cfg.DB, "d", cfg.DB, "")

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "")
	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "")

	fs.StringVar(&cfg.ManagerUser, "user", cfg.ManagerUser, "")
	fs.StringVar(&cfg.ManagerUser, "u", cfg.ManagerUser, "")

	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "")

	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "")
	fs.StringVar(&cfg.RedisAddr, "r", cfg.RedisAddr, "")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	return cfg.Validate()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := parseFlags(cfg, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprint(os.Stdout, usage)
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n\n%s", err, usage)
		os.Exit(1)
	}

	// INFO/WARN → stdout, ERROR → stderr, optionally also a log file.
	handler, closeLog, err := newLogHandler(os.Stdout, os.Stderr, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	slog.SetDefault(slog.New(handler))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	database, err := db.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Idempotent.
	if err := db.EnsureSchema(database); err != nil {
		return fmt.Errorf("ensuring database schema: %w", err)
	}
	slog.Info("database ready", "path", cfg.DB)

	users := store.NewUsers(database)
	items := store.NewItems(database)

	password, err := ensureManager(ctx, users, cfg.ManagerUser, bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if password != "" {
		printManagerCreated(cfg.ManagerUser, password)
	}

	secret := cfg.TokenSecret
	if secret == "" {
		// Auto-generated on first run and kept in the database.
		if secret, err = store.GetTokenSecret(ctx, database); err != nil {
			return fmt.Errorf("loading token secret: %w", err)
		}
	}
	tokens, err := auth.NewTokens(secret, auth.WithTTL(cfg.TokenTTL))
	if err != nil {
		return err
	}

	routerCfg := api.Config{
		Ledger:             ledger.New(items),
		Accounts:           auth.NewAccounts(users, tokens, bcrypt.DefaultCost),
		Guard:              auth.NewGuard(tokens),
		Items:              items,
		Users:              users,
		AllowManagerSignup: cfg.AllowManagerSignup,
		AuthRateLimit:      cfg.AuthRateLimit,
		TrustProxy:         cfg.TrustProxy,
	}

	if cfg.IdempotencyEnabled() {
		client, err := idempotency.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer client.Close()
		routerCfg.Idempotency = idempotency.New(client, cfg.IdempotencyTTL)
		slog.Info("idempotent stock requests enabled", "redis", cfg.RedisAddr)
	}
	if !cfg.AllowManagerSignup {
		slog.Info("public manager sign-up disabled")
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server started", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server stopped, closing database")
	return nil
}
