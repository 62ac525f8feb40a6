package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	emailPkg "memberadmin/internal/adapters/email"
	web "memberadmin/internal/adapters/http"
	"memberadmin/internal/adapters/http/middleware"
	"memberadmin/internal/adapters/http/perf"
	"memberadmin/internal/adapters/metrics"
	"memberadmin/internal/adapters/source"
	"memberadmin/internal/adapters/storage"
	memberStore "memberadmin/internal/adapters/storage/member"
	"memberadmin/internal/application/orchestrators"
	"memberadmin/internal/platform/config"
	"memberadmin/internal/platform/logging"
	"memberadmin/internal/platform/telemetry"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

const (
	sweepInterval   = 5 * time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logging.Setup(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:  cfg.OTELEnabled,
		Endpoint: cfg.OTELEndpoint,
		Version:  version,
	})
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	// Performance instrumentation: shared by request timing, the sqlite store and the member source
	collector := perf.NewCollector(perf.DefaultRingSize)

	newStore, closeStore, err := storeFactory(cfg, collector)
	if err != nil {
		log.Fatalf("failed to initialize store: %v", err)
	}
	defer closeStore()

	csrfKey, randomKey, err := cfg.CSRFKeyBytes()
	if err != nil {
		log.Fatalf("failed to load CSRF key: %v", err)
	}
	if randomKey {
		slog.Warn("config_event", "event", "csrf_key_random",
			"detail", "form tokens will not survive a restart; set MEMBERADMIN_CSRF_KEY")
	}

	appMetrics := metrics.New()
	workspaces := middleware.NewWorkspaceStore(newStore, cfg.SessionTTL)
	appMetrics.WatchWorkspaces(workspaces.Len)

	client := source.NewClient(source.Config{
		URL:        cfg.SourceURL,
		Timeout:    cfg.FetchTimeout,
		MaxRetries: cfg.FetchRetries,
		Collector:  collector,
	})
	// New workspaces share one fetched snapshot; concurrent misses make one upstream call
	cached := source.NewCache(client, cfg.FetchCache, 0)
	alerts := &orchestrators.FetchAlerter{
		Sender:    emailSender(cfg),
		From:      cfg.AlertFrom,
		To:        cfg.AlertTo,
		SourceURL: client.URL(),
		Limiter:   orchestrators.NewAlertLimiter(cfg.AlertEvery),
	}

	// Rate limiter: configurable requests per second per IP (OWASP A04)
	limiter := middleware.NewRateLimiter(cfg.RateLimit, time.Second)
	appMetrics.WatchRateLimitedClients(limiter.Len)

	mux := web.NewMux(web.Options{
		Production:     cfg.IsProduction(),
		Workspaces:     workspaces,
		Source:         cached,
		Metrics:        appMetrics,
		Alerts:         alerts,
		Collector:      collector,
		CSRFKey:        csrfKey,
		TrustedOrigins: cfg.TrustedOrigins,
		SlowRequest:    cfg.SlowRequest(),
		Limiter:        limiter,
		Banner:         cfg.Banner,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           otelhttp.NewHandler(mux, telemetry.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return workspaces.Run(gctx, sweepInterval)
	})
	g.Go(func() error {
		return limiter.Run(gctx)
	})
	g.Go(func() error {
		slog.Info("server_event", "event", "server_starting",
			"version", version, "addr", cfg.Addr, "env", cfg.Env, "store", cfg.Store, "source", client.URL())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		slog.Info("server_event", "event", "server_stopped")
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// storeFactory returns the record store constructor for new workspaces and a
// cleanup function for any shared resources it opened.
func storeFactory(cfg config.Config, collector *perf.Collector) (middleware.StoreFactory, func() error, error) {
	if cfg.Store == config.StoreMemory {
		newStore := func(string) memberStore.Store { return memberStore.NewMemoryStore() }
		return newStore, func() error { return nil }, nil
	}

	db, err := storage.OpenMemoryDB()
	if err != nil {
		return nil, nil, err
	}
	timedDB := storage.NewTimedDB(db, collector, storage.DefaultSlowQuery)
	newStore := func(workspaceID string) memberStore.Store {
		return memberStore.NewSQLiteStore(timedDB, workspaceID)
	}
	return newStore, timedDB.Close, nil
}

// emailSender picks Resend when an API key is configured, otherwise a sender that only logs.
func emailSender(cfg config.Config) emailPkg.Sender {
	if cfg.ResendKey != "" {
		slog.Info("config_event", "event", "alert_sender_configured", "sender", "resend", "recipients", len(cfg.AlertTo))
		return emailPkg.NewResendSender(cfg.ResendKey, cfg.AlertFrom)
	}
	if cfg.IsProduction() && len(cfg.AlertTo) > 0 {
		slog.Warn("config_event", "event", "alert_sender_disabled",
			"detail", "MEMBERADMIN_RESEND_KEY is not set; fetch failure alerts are not delivered")
	}
	return emailPkg.NewLogSender()
}
