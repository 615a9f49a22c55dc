// Package main is the entry point for the propertyhub server.
//
// propertyhub serves a real-estate listing browser over a record store: an
// in-memory mock, JSONL files in the data directory, PostgreSQL or another
// propertyhub instance. Configuration is read from CLI flags, the environment
// (optionally from a .env file in the data directory) and
// server_config.json.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/maruel/propertyhub/internal/config"
	"github.com/maruel/propertyhub/internal/jsonldb"
	"github.com/maruel/propertyhub/internal/listing"
	"github.com/maruel/propertyhub/internal/pgstore"
	"github.com/maruel/propertyhub/internal/records"
	"github.com/maruel/propertyhub/internal/remote"
	"github.com/maruel/propertyhub/internal/seed"
	"github.com/maruel/propertyhub/internal/server"
	"github.com/maruel/propertyhub/internal/server/ratelimit"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "propertyhub: %v\n", err)
		os.Exit(1)
	}
}

// envPrefix prefixes the environment variables mirroring the flags, e.g.
// PROPERTYHUB_DATABASE_URL for -database-url.
const envPrefix = "PROPERTYHUB_"

func mainImpl() error {
	version := flag.Bool("version", false, "Print version and exit")
	httpAddr := flag.String("http", "localhost:8080", "Address to listen on (e.g., localhost:8080, :8080, 0.0.0.0:8080)")
	dataDir := flag.String("data-dir", "./data", "Data directory")
	storeKind := flag.String("store", "memory", "Record store: memory, jsonl, postgres or remote")
	databaseURL := flag.String("database-url", "", "PostgreSQL connection URL for -store postgres")
	remoteURL := flag.String("remote-url", "", "Base URL of the record service for -store remote")
	remoteProject := flag.String("remote-project", "propertyhub", "Project id presented to the record service")
	remoteKey := flag.String("remote-key", "", "Shared key signing record service tokens")
	serveRecords := flag.Bool("serve-records", false, "Expose the record store under /records/ for other instances")
	seedPath := flag.String("seed", "builtin", "Dataset written into an empty store: builtin, none or a YAML file path")
	latency := flag.Duration("latency", 0, "Artificial latency of the memory store (defaults to server_config.json)")
	gitHistory := flag.Bool("git", false, "Commit every jsonl store change to a git repository in the data directory")
	apiSecret := flag.String("api-secret", "", "Require HS256 bearer tokens signed with this secret on mutating API calls")
	printToken := flag.String("print-token", "", "Print an API token for this subject, valid 24h, and exit")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()
	if len(flag.Args()) > 0 {
		return fmt.Errorf("unknown arguments: %v", flag.Args())
	}
	if *version {
		printVersion()
		return nil
	}

	// The environment fills in flags that were not set explicitly. A .env file
	// in the data directory never overrides the real environment.
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if !set["data-dir"] {
		if v := os.Getenv(envPrefix + "DATA_DIR"); v != "" {
			*dataDir = v
		}
	}
	if err := godotenv.Load(filepath.Join(*dataDir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	var envErr error
	flag.VisitAll(func(f *flag.Flag) {
		if set[f.Name] || f.Name == "data-dir" || f.Name == "version" || f.Name == "print-token" {
			return
		}
		if v, ok := os.LookupEnv(envPrefix + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))); ok && v != "" {
			if err := f.Value.Set(v); err != nil && envErr == nil {
				envErr = fmt.Errorf("invalid %s%s: %w", envPrefix, f.Name, err)
			}
			set[f.Name] = true
		}
	})
	if envErr != nil {
		return envErr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	ll := &slog.LevelVar{}
	slog.SetDefault(newLogger(ll))
	switch *logLevel {
	case "debug":
		ll.Set(slog.LevelDebug)
	case "info":
	case "warn":
		ll.Set(slog.LevelWarn)
	case "error":
		ll.Set(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level: %q", *logLevel)
	}

	if err := os.MkdirAll(*dataDir, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	serverCfg, err := config.Load(*dataDir)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", config.FileName, err)
	}
	if *apiSecret != "" {
		serverCfg.JWTSecret = []byte(*apiSecret)
		serverCfg.RequireAuth = true
		if err := serverCfg.Validate(); err != nil {
			return fmt.Errorf("-api-secret: %w", err)
		}
	}
	if *printToken != "" {
		tok, err := server.NewToken(serverCfg.JWTSecret, *printToken, 24*time.Hour)
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	}
	if !set["latency"] {
		*latency = serverCfg.MockLatency()
	}

	store, closeStore, err := openStore(ctx, &storeOptions{
		kind:          *storeKind,
		dataDir:       *dataDir,
		databaseURL:   *databaseURL,
		remoteURL:     *remoteURL,
		remoteProject: *remoteProject,
		remoteKey:     []byte(*remoteKey),
		remoteEvery:   serverCfg.RemoteMinInterval(),
		latency:       *latency,
		history:       *gitHistory,
	})
	if err != nil {
		return err
	}
	defer closeStore()

	if err := populate(ctx, store, *seedPath); err != nil {
		return err
	}

	// Watch own executable for modifications (for development restarts)
	if err := watchExecutable(ctx, stop); err != nil {
		return fmt.Errorf("failed to watch executable: %w", err)
	}

	tiers := ratelimit.NewTiers(serverCfg.RateLimits)
	defer tiers.Close()
	buildVersion, _, _, _ := getBuildInfo()
	opts := &server.Options{
		Browser:   listing.NewBrowser(store),
		Config:    serverCfg,
		Tiers:     tiers,
		Version:   buildVersion,
		StoreName: *storeKind,
	}
	if *serveRecords {
		key := []byte(*remoteKey)
		if len(key) == 0 {
			key = serverCfg.JWTSecret
		}
		opts.Records = remote.NewHandler(store, *remoteProject, key)
	}

	// Normalize addr: ":8080" becomes "localhost:8080"
	addr := *httpAddr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.NewRouter(opts),
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "Starting server", "addr", addr, "store", *storeKind, "version", buildVersion, "auth", serverCfg.RequireAuth)
		serverErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		slog.InfoContext(ctx, "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		slog.InfoContext(ctx, "Server stopped")
	}
	return nil
}

type storeOptions struct {
	kind          string
	dataDir       string
	databaseURL   string
	remoteURL     string
	remoteProject string
	remoteKey     []byte
	remoteEvery   time.Duration
	latency       time.Duration
	history       bool
}

// openStore returns the selected record store and a function releasing it.
func openStore(ctx context.Context, o *storeOptions) (records.Store, func(), error) {
	defs := listing.Tables()
	switch o.kind {
	case "memory":
		slog.InfoContext(ctx, "Using in-memory store", "latency", o.latency)
		return records.NewMemory(defs, o.latency), func() {}, nil
	case "jsonl":
		dir := filepath.Join(o.dataDir, "db")
		s, err := jsonldb.Open(dir, defs, jsonldb.Options{History: o.history})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open jsonl store: %w", err)
		}
		go func() {
			if err := s.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.WarnContext(ctx, "Stopped watching jsonl store", "err", err)
			}
		}()
		slog.InfoContext(ctx, "Using jsonl store", "dir", dir, "git", o.history)
		return s, func() {}, nil
	case "postgres":
		if o.databaseURL == "" {
			return nil, nil, errors.New("-database-url is required with -store postgres")
		}
		s, err := pgstore.Open(ctx, o.databaseURL, defs)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		slog.InfoContext(ctx, "Using postgres store")
		return s, s.Close, nil
	case "remote":
		if o.remoteURL == "" {
			return nil, nil, errors.New("-remote-url is required with -store remote")
		}
		slog.InfoContext(ctx, "Using remote store", "url", o.remoteURL, "project", o.remoteProject)
		return remote.NewClient(o.remoteURL, o.remoteProject, o.remoteKey, o.remoteEvery), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", o.kind)
	}
}

// populate seeds an empty store with the dataset named by seedPath.
func populate(ctx context.Context, store records.Store, seedPath string) error {
	var ds *seed.Dataset
	var err error
	switch seedPath {
	case "none", "":
		return nil
	case "builtin":
		ds, err = seed.Default()
	default:
		ds, err = seed.Load(seedPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load seed dataset: %w", err)
	}
	if _, err := seed.Populate(ctx, store, ds); err != nil {
		return fmt.Errorf("failed to seed store: %w", err)
	}
	return nil
}

func newLogger(ll *slog.LevelVar) *slog.Logger {
	// Skip timestamps when running under systemd (it adds its own).
	underSystemd := os.Getenv("JOURNAL_STREAM") != ""
	return slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if underSystemd && a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			if a.Key == "ip" {
				if v := a.Value.String(); v == "127.0.0.1" || v == "::1" {
					return slog.Attr{}
				}
			}
			skip := false
			switch t := a.Value.Any().(type) {
			case string:
				skip = t == ""
			case bool:
				skip = !t
			case int64:
				skip = t == 0
			case float64:
				skip = t == 0
			case time.Duration:
				skip = t == 0
			case nil:
				skip = true
			}
			if skip {
				return slog.Attr{}
			}
			return a
		},
	}))
}

func printVersion() {
	version, goVersion, revision, dirty := getBuildInfo()
	fmt.Printf("propertyhub %s\n", version)
	fmt.Printf("  Go version: %s\n", goVersion)
	fmt.Printf("  Revision:   %s\n", revision)
	if dirty {
		fmt.Printf("  Modified:   true\n")
	}
}

func getBuildInfo() (version, goVersion, revision string, dirty bool) {
	version = "unknown"
	goVersion = "unknown"
	revision = "unknown"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	version = info.Main.Version
	if version == "" || version == "(devel)" {
		version = "dev"
	}
	goVersion = info.GoVersion
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	return
}

// watchExecutable calls stop when the current executable is rewritten, so a
// rebuilt binary can be restarted by a supervisor.
func watchExecutable(ctx context.Context, stop context.CancelFunc) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(exe); err != nil {
		_ = w.Close()
		return err
	}
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Chmod) {
					slog.InfoContext(ctx, "Executable modified, initiating shutdown")
					stop()
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.WarnContext(ctx, "Error watching executable", "err", err)
			}
		}
	}()
	return nil
}
