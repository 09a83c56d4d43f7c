package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/clinicbook/libs/auth"
	"github.com/md-rashed-zaman/clinicbook/libs/db"
	"github.com/md-rashed-zaman/clinicbook/libs/grpcx"
	"github.com/md-rashed-zaman/clinicbook/libs/httpx"
	"github.com/md-rashed-zaman/clinicbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/clinicbook/libs/otel"
	"github.com/md-rashed-zaman/clinicbook/libs/runtime"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/availability"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/booking"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/consumer"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/handlers"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/inbox"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/lifecycle"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/outbox"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/registry"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, gRPC health server and event workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrate, _ := cmd.Flags().GetBool("migrate")
			return runServer(cmd.Context(), migrate)
		},
	}
	cmd.Flags().Bool("migrate", false, "Apply pending migrations before serving (postgres store only)")
	return cmd
}

func runServer(ctx context.Context, migrate bool) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	logger := runtime.NewLogger(cfg.Service, cfg.LogLevel)

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.Service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() { _ = runtime.ShutdownWithin(5*time.Second, otelShutdown) }()
	}

	var (
		store  storage.Store
		checks []runtime.ReadyCheck
	)
	switch cfg.Store {
	case storeMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		store = storage.NewMemoryStore()
	default:
		pool, err := db.Open(ctx, cfg.DatabaseURL, db.Options{MaxConns: int32(cfg.DBMaxConns), MinConns: int32(cfg.DBMinConns)})
		if err != nil {
			logger.Error("db connection failed", "err", err)
			return err
		}
		defer pool.Close()

		if migrate {
			applied, err := runMigrations(ctx, pool)
			if err != nil {
				return err
			}
			logger.Info("migrations applied", "versions", applied)
		}

		outboxRepo := outbox.NewRepository()
		store = storage.NewPostgresStore(pool, outboxRepo)
		checks = append(checks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})

		publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
			Brokers:   cfg.KafkaBrokers,
			PollEvery: cfg.OutboxInterval,
			BatchSize: 50,
		})
		go publisher.Run(ctx)

		if len(cfg.KafkaBrokers) > 0 {
			checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers)})
		}
		defer startConsumer(ctx, cfg, logger, inbox.NewRepository(pool), store)()
	}

	clock := availability.NewClock(cfg.Location)
	reg := registry.New(store, clock, logger)
	lc := lifecycle.NewService(store, clock, logger)
	coordinator := booking.NewCoordinator(store, clock, logger)

	publicLimit, rdb := rateLimiter(cfg, logger)
	if rdb != nil {
		defer rdb.Close()
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb)})
	}

	mux := runtime.NewBaseMuxWithReady(checks...)
	handlers.Register(mux, handlers.Routes{
		Public:  handlers.NewPublicHandler(reg, coordinator, lc, clock, logger),
		Staff:   handlers.NewStaffHandler(lc, clock, logger),
		Doctors: handlers.NewDoctorHandler(reg, logger),
	}, verifier(cfg, logger), publicLimit)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithTimeout(15*time.Second),
		httpx.WithBodyLimit(1<<20),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "clinic")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	health := grpcx.NewHealthServer(logger, cfg.Service, readiness(checks))
	if err := health.Start(ctx, ":"+cfg.GRPCPort); err != nil {
		return err
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr, "store", cfg.Store, "timezone", cfg.Location.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	if err := runtime.ShutdownWithin(10*time.Second, srv.Shutdown); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
	return nil
}

// startConsumer runs the doctor-deletion consumer when Kafka is configured and
// returns a func that waits for it to exit.
func startConsumer(ctx context.Context, cfg settings, logger *slog.Logger, inboxRepo *inbox.Repository, store storage.Store) func() {
	if len(cfg.KafkaBrokers) == 0 || cfg.ConsumeTopic == "" {
		logger.Warn("event consumer disabled (no kafka brokers or topic configured)")
		return func() {}
	}
	reg := registry.New(store, availability.NewClock(cfg.Location), logger)
	c := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: cfg.KafkaBrokers,
		GroupID: cfg.KafkaGroupID,
		Topic:   cfg.ConsumeTopic,
	}, consumer.DoctorDeletionHandler(reg))

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(ctx)
	}()
	return func() { <-done }
}

// rateLimiter prefers the shared Redis limiter and falls back to the
// in-process one when REDIS_ADDR is unset.
func rateLimiter(cfg settings, logger *slog.Logger) (httpx.Middleware, *redis.Client) {
	if cfg.RedisAddr == "" {
		return httpx.NewRateLimiter(cfg.RatePerMinute, time.Minute).Middleware(), nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	limiter := httpx.NewRedisRateLimiter(rdb, cfg.RatePerMinute, time.Minute, cfg.Service+":ratelimit")
	return limiter.Middleware(logger, cfg.RateFailOpen), rdb
}

func verifier(cfg settings, logger *slog.Logger) auth.Verifier {
	var jwks *auth.JWKSClient
	if cfg.JWKSURL != "" {
		jwks = auth.NewJWKSClient(cfg.JWKSURL, 5*time.Minute)
	}
	v := auth.NewVerifier(cfg.JWTSecret, jwks)
	if v == nil {
		logger.Warn("staff and admin routes are unauthenticated (JWT_SECRET and JWKS_URL unset)")
	}
	return v
}

func readiness(checks []runtime.ReadyCheck) func(context.Context) error {
	return func(ctx context.Context) error {
		var errs []error
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				errs = append(errs, errors.New(c.Name+": "+err.Error()))
			}
		}
		return errors.Join(errs...)
	}
}
