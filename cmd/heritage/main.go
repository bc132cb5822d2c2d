// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Command heritage runs the heritage archive API server.
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
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/heritage-archive/internal/auth"
	"github.com/olegiv/heritage-archive/internal/cache"
	"github.com/olegiv/heritage-archive/internal/config"
	"github.com/olegiv/heritage-archive/internal/content"
	"github.com/olegiv/heritage-archive/internal/handler"
	"github.com/olegiv/heritage-archive/internal/handler/api"
	"github.com/olegiv/heritage-archive/internal/imaging"
	"github.com/olegiv/heritage-archive/internal/logging"
	"github.com/olegiv/heritage-archive/internal/metrics"
	"github.com/olegiv/heritage-archive/internal/middleware"
	"github.com/olegiv/heritage-archive/internal/rpc"
	"github.com/olegiv/heritage-archive/internal/session"
	"github.com/olegiv/heritage-archive/internal/storage"
	"github.com/olegiv/heritage-archive/internal/store"
	"github.com/olegiv/heritage-archive/internal/transfer"
	"github.com/olegiv/heritage-archive/internal/version"
)

// Build-time variables injected via ldflags.
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

// uploadsURLPrefix is where locally stored uploads are served.
const uploadsURLPrefix = "/uploads"

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "heritage - bilingual heritage archive API server\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  HERITAGE_SESSION_SECRET     Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  HERITAGE_DATABASE_URL       sqlite:<path> or mysql://<dsn> (default: sqlite:./data/heritage.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  HERITAGE_SERVER_PORT        Server port, higher ports are tried when taken (default: 3000)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  HERITAGE_ENV                Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  HERITAGE_OAUTH_CLIENT_ID    OAuth client id; sign-in is disabled when unset\n")
		_, _ = fmt.Fprintf(os.Stderr, "  HERITAGE_ADMIN_EMAILS       Comma-separated emails that become admins on first sign-in\n")
		_, _ = fmt.Fprintf(os.Stderr, "  HERITAGE_STORAGE_BUCKET     S3-compatible bucket for uploads (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  HERITAGE_REDIS_URL          Redis URL for the shared read cache (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	info := version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}
	if *showVersion {
		_, _ = fmt.Println(info.String())
		os.Exit(0)
	}

	if err := run(info); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(info version.Info) error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.EffectiveLogFormat())
	slog.SetDefault(logger)
	logger.Info("starting heritage archive", "version", info.Short(), "env", cfg.Env)

	if err := ensureDataDir(cfg.DatabaseURL); err != nil {
		return err
	}

	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("error closing database connection", "error", err)
		}
	}()

	ctx := context.Background()
	logger.Info("running database migrations", "dialect", db.Dialect)
	if err := store.Migrate(ctx, db.DB, db.Dialect); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	sessionManager := session.New(db, cfg.IsDevelopment())

	backend := newCacheBackend(cfg, logger)
	defer func() { _ = backend.Close() }()
	readCache := cache.NewReadCache(backend, cfg.CacheTTLDuration(), logger)

	collector := metrics.NewCollector()
	collector.WatchCache(backend)
	registry := content.NewRegistry(db, logger)

	objects, uploadsDir, err := newObjectStore(ctx, cfg)
	if err != nil {
		return err
	}

	exporter := transfer.NewExporter(registry, db, logger)
	exporter.SetUploadDir(uploadsDir)

	procedures := rpc.NewRegistry()
	api.New(api.Deps{
		DB:                db,
		Content:           registry,
		Exporter:          exporter,
		Sessions:          sessionManager,
		Cache:             readCache,
		SubmissionLimiter: middleware.NewRateLimiter(cfg.SubmissionRate, cfg.SubmissionBurst),
		Logger:            logger,
		Version:           info.Short(),
	}).Register(procedures)
	logger.Info("procedures registered", "count", len(procedures.List()))

	var pinger handler.Pinger
	if rc, ok := backend.(*cache.RedisCache); ok {
		pinger = rc
	}
	healthHandler := handler.NewHealthHandler(db, pinger, uploadsDir, info.Short())
	uploadHandler := handler.NewUploadHandler(objects, imaging.NewProcessor(imaging.DefaultMaxDimension), cfg.UploadMaxBytes, collector, logger)
	exportHandler := handler.NewExportHandler(exporter, logger)

	var oauthHandler *handler.OAuthHandler
	if cfg.OAuthEnabled() {
		provider, err := auth.NewProvider(auth.ProviderConfig{
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			AuthURL:      cfg.OAuthAuthURL,
			TokenURL:     cfg.OAuthTokenURL,
			UserInfoURL:  cfg.OAuthUserInfoURL,
			RedirectURL:  cfg.OAuthRedirectURL,
			Scopes:       cfg.OAuthScopes,
			StateKey:     []byte(cfg.SessionSecret),
		})
		if err != nil {
			return fmt.Errorf("configuring oauth: %w", err)
		}
		accounts := auth.NewAccounts(db, cfg.IsAdminEmail)
		oauthHandler = handler.NewOAuthHandler(provider, accounts, sessionManager, cfg.OAuthProvider, logger)
	} else {
		logger.Warn("oauth is not configured; sign-in is disabled")
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Timeout(30*time.Second, "/api/export/", "/api/upload/"))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.CrossOrigin(middleware.CrossOriginConfig{
		AuthKey:        []byte(cfg.SessionSecret)[:config.MinSessionSecretLength],
		AllowedOrigins: cfg.AllowedOrigins,
	}))
	r.Use(middleware.RequestPath)
	r.Use(sessionManager.LoadAndSave)
	r.Use(middleware.LoadPrincipal(sessionManager, db, logger))

	mountRoutes(r, routes{
		health:     healthHandler,
		rpc:        rpc.NewServer(procedures, logger, rpc.WithObserver(collector)),
		oauth:      oauthHandler,
		upload:     uploadHandler,
		export:     exportHandler,
		objects:    objects,
		metrics:    collector,
		withMetric: cfg.MetricsEnabled,
	})

	ln, port, err := listenWithFallback(cfg.AddrForPort, cfg.ServerPort, cfg.PortFallbackAttempts)
	if err != nil {
		return err
	}
	if port != cfg.ServerPort {
		logger.Warn("configured port is busy, using fallback", "configured", cfg.ServerPort, "port", port)
	}

	srv := &http.Server{
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // Longer to allow for large uploads and slow connections
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// routes groups the handlers mounted by mountRoutes. oauth is nil when
// sign-in is not configured.
type routes struct {
	health     *handler.HealthHandler
	rpc        *rpc.Server
	oauth      *handler.OAuthHandler
	upload     *handler.UploadHandler
	export     *handler.ExportHandler
	objects    storage.ObjectStore
	metrics    *metrics.Collector
	withMetric bool
}

func mountRoutes(r chi.Router, h routes) {
	r.Get("/health", h.health.Health)
	r.Get("/health/live", h.health.Liveness)
	r.Get("/health/ready", h.health.Readiness)

	h.rpc.Mount(r)

	if h.oauth != nil {
		signInLimiter := middleware.NewRateLimiter(1, 10)
		r.Group(func(r chi.Router) {
			r.Use(signInLimiter.Middleware())
			r.Get("/api/oauth/login", h.oauth.Login)
			r.Get("/api/oauth/callback", h.oauth.Callback)
		})
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdminJSON)
		r.Post("/api/upload/{folder}", h.upload.Upload)
		r.Get("/api/export/download", h.export.Download)
	})

	if local, ok := h.objects.(*storage.LocalStore); ok {
		r.Handle(uploadsURLPrefix+"/*", http.StripPrefix(uploadsURLPrefix, local.Handler()))
	}

	if h.withMetric {
		r.Handle("/metrics", metrics.Handler(metrics.NewRegistry(h.metrics)))
	}
}

// newCacheBackend creates the configured cache, falling back to memory when
// Redis is unreachable.
func newCacheBackend(cfg *config.Config, logger *slog.Logger) cache.Cache {
	cacheCfg := cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      cfg.CacheTTLDuration(),
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	}
	backend, err := cache.New(cacheCfg)
	if err != nil {
		logger.Warn("redis unavailable, using memory cache", "error", err)
		cacheCfg.RedisURL = ""
		backend, _ = cache.New(cacheCfg)
	}
	logger.Info("read cache initialized", "backend", cache.Backend(backend))
	return backend
}

// newObjectStore returns the bucket store when one is configured and the
// local uploads directory otherwise. The returned directory is empty for
// bucket storage.
func newObjectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, string, error) {
	if cfg.UseObjectStorage() {
		ms, err := storage.NewMinioStore(storage.MinioConfig{
			Endpoint:  cfg.StorageEndpoint,
			Bucket:    cfg.StorageBucket,
			Region:    cfg.StorageRegion,
			AccessKey: cfg.StorageAccessKey,
			SecretKey: cfg.StorageSecretKey,
			UseSSL:    cfg.StorageUseSSL,
			PublicURL: cfg.StoragePublicURL,
		})
		if err != nil {
			return nil, "", fmt.Errorf("configuring object storage: %w", err)
		}
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := ms.EnsureBucket(ctx); err != nil {
			return nil, "", fmt.Errorf("preparing bucket %s: %w", cfg.StorageBucket, err)
		}
		slog.Info("uploads stored in bucket", "endpoint", cfg.StorageEndpoint, "bucket", cfg.StorageBucket)
		return ms, "", nil
	}

	ls, err := storage.NewLocalStore(cfg.UploadsDir, uploadsURLPrefix)
	if err != nil {
		return nil, "", fmt.Errorf("preparing uploads directory: %w", err)
	}
	slog.Info("uploads stored locally", "dir", ls.Dir())
	return ls, ls.Dir(), nil
}

// ensureDataDir creates the directory of a SQLite database file.
func ensureDataDir(databaseURL string) error {
	if strings.HasPrefix(databaseURL, "mysql://") {
		return nil
	}
	p := strings.TrimPrefix(strings.TrimPrefix(databaseURL, "sqlite://"), "sqlite:")
	if p == "" || strings.HasPrefix(p, ":memory:") || strings.HasPrefix(p, "file:") {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	return nil
}

// listenWithFallback binds the first free port among port and the next
// attempts ports.
func listenWithFallback(addrFor func(int) string, port, attempts int) (net.Listener, int, error) {
	var lastErr error
	for p := port; p <= port+attempts && p <= 65535; p++ {
		ln, err := net.Listen("tcp", addrFor(p))
		if err == nil {
			return ln, p, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, 0, fmt.Errorf("listening on %s: %w", addrFor(p), err)
		}
		lastErr = err
	}
	return nil, 0, fmt.Errorf("no available port in %d-%d: %w", port, port+attempts, lastErr)
}
