package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cardforge/internal/bin/classifier"
	binstore "cardforge/internal/bin/store"
	"cardforge/internal/card/avs"
	cardhandler "cardforge/internal/card/handler"
	cardmetrics "cardforge/internal/card/metrics"
	cardservice "cardforge/internal/card/service"
	"cardforge/internal/card/synth"
	"cardforge/internal/card/tracer"
	"cardforge/internal/platform/config"
	"cardforge/internal/platform/database"
	"cardforge/internal/platform/health"
	"cardforge/internal/platform/logger"
	redisplatform "cardforge/internal/platform/redis"
	rlhandler "cardforge/internal/ratelimit/handler"
	rlmetrics "cardforge/internal/ratelimit/metrics"
	"cardforge/internal/ratelimit/service/admission"
	"cardforge/internal/ratelimit/store/violation"
	"cardforge/internal/ratelimit/store/window"
	"cardforge/internal/ratelimit/workers/cleanup"
	"cardforge/internal/seeder"
	httptransport "cardforge/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing cardforge",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"redis", cfg.RedisURL != "",
		"postgres", cfg.DatabaseURL != "",
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := redisplatform.New(redisplatform.DefaultConfig(cfg.RedisURL))
	if err != nil {
		log.Error("redis init failed", "error", err)
		os.Exit(1)
	}

	pool, err := database.New(database.DefaultConfig(cfg.DatabaseURL))
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}

	// BIN metadata: Postgres when configured, seeded memory otherwise.
	var binStore classifier.Store
	var blocklist classifier.Blocklist
	if pool != nil {
		binStore = binstore.NewPostgres(pool.DB())
		blocklist = binstore.NewPostgresBlocklist(pool.DB())
	} else {
		memBins := binstore.NewMemory()
		memBlocklist := binstore.NewMemoryBlocklist()
		if err := seeder.New(memBins, memBlocklist, log).SeedAll(ctx); err != nil {
			log.Error("seeding failed", "error", err)
			os.Exit(1)
		}
		binStore = memBins
		blocklist = memBlocklist
	}

	cls, err := classifier.New(binStore, blocklist, classifier.WithLogger(log))
	if err != nil {
		log.Error("classifier init failed", "error", err)
		os.Exit(1)
	}

	cards, err := cardservice.New(
		cls,
		synth.New(),
		avs.New(),
		cardservice.WithLogger(log),
		cardservice.WithMetrics(cardmetrics.New()),
		cardservice.WithTracer(tracer.NewNoop()),
	)
	if err != nil {
		log.Error("card service init failed", "error", err)
		os.Exit(1)
	}

	// Admission: shared Redis windows when configured, in-process otherwise.
	var windows admission.WindowStore
	var violations admission.ViolationStore
	memWindows := window.New()
	memViolations := violation.New()
	if redisClient != nil {
		windows = window.NewRedis(redisClient.Client)
		violations = violation.NewRedis(redisClient.Client)
	} else {
		windows = memWindows
		violations = memViolations
	}

	admissionMetrics := rlmetrics.New()
	adm, err := admission.New(
		windows,
		violations,
		admission.WithFallbackStores(memWindows, memViolations),
		admission.WithLogger(log),
		admission.WithMetrics(admissionMetrics),
	)
	if err != nil {
		log.Error("admission controller init failed", "error", err)
		os.Exit(1)
	}

	// The cleanup worker prunes the in-process stores; with Redis active
	// they only hold degraded-mode traffic but still need pruning.
	worker := cleanup.New(memWindows, memViolations,
		cleanup.WithLogger(log),
		cleanup.WithMetrics(admissionMetrics),
	)
	go func() {
		_ = worker.Start(ctx) // returns on shutdown
	}()

	if redisClient != nil {
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					redisClient.RecordPoolStats()
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	healthHandler := health.New(cfg.Environment)
	registerReadinessChecks(healthHandler, pool)

	router := httptransport.NewRouter(httptransport.Deps{
		Cards:          cardhandler.New(cards, cls, adm, cardhandler.WithLogger(log)),
		Quota:          rlhandler.New(adm, log),
		Health:         healthHandler,
		Logger:         log,
		JWTSigningKey:  cfg.JWTSigningKey,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("redis close failed", "error", err)
		}
	}
	if pool != nil {
		if err := pool.Close(); err != nil {
			log.Error("database close failed", "error", err)
		}
	}

	log.Info("server stopped")
}

// registerReadinessChecks gates readiness on hard dependencies only. The
// Redis quota store is deliberately absent: the admission controller
// degrades to its in-process fallback during an outage, so a Redis failure
// must not pull the instance out of rotation.
func registerReadinessChecks(h *health.Handler, pool *database.Pool) {
	if pool != nil {
		h.RegisterCheck("postgres", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(checkCtx)
		})
	}
}
