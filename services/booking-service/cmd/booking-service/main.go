package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/belvedhair/booking/libs/auth"
	"github.com/belvedhair/booking/libs/config"
	"github.com/belvedhair/booking/libs/db"
	"github.com/belvedhair/booking/libs/grpcx"
	"github.com/belvedhair/booking/libs/httpx"
	"github.com/belvedhair/booking/libs/kafkax"
	otelx "github.com/belvedhair/booking/libs/otel"
	"github.com/belvedhair/booking/libs/runtime"
	"github.com/belvedhair/booking/services/booking-service/internal/booking"
	"github.com/belvedhair/booking/services/booking-service/internal/handlers"
	"github.com/belvedhair/booking/services/booking-service/internal/metrics"
	"github.com/belvedhair/booking/services/booking-service/internal/outbox"
	"github.com/belvedhair/booking/services/booking-service/internal/storage"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		os.Exit(healthcheck())
	}

	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(cfg.service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	m := metrics.New()
	var ready []runtime.ReadyCheck

	var store booking.Store
	if cfg.databaseURL == "" {
		logger.Warn("DATABASE_URL not set; using in-memory store")
		store = storage.NewMemoryStore()
	} else {
		pool, err := db.Open(ctx, cfg.databaseURL, db.Options{Trace: true})
		if err != nil {
			logger.Error("db connection failed", "err", err)
			panic(err)
		}
		defer pool.Close()

		if cfg.migrate {
			if err := storage.Migrate(ctx, pool); err != nil {
				logger.Error("migration failed", "err", err)
				panic(err)
			}
		}

		outboxRepo := outbox.NewRepository(pool)
		store = storage.NewRepository(pool, outboxRepo)
		ready = append(ready, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})

		publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
			Brokers:   cfg.kafkaBrokers,
			PollEvery: 2 * time.Second,
			BatchSize: 50,
			Observe:   m.ObservePublished,
		})
		go publisher.Run(ctx)
		if cfg.kafkaBrokers != "" {
			ready = append(ready, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.kafkaBrokers)})
		}
	}

	var limiter httpx.Limiter
	if cfg.redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.redisAddr,
			Password: cfg.redisPass,
			DB:       cfg.redisDB,
		})
		defer func() { _ = rdb.Close() }()
		limiter = httpx.NewRedisRateLimiter(rdb, cfg.ratePerMin, time.Minute, "belved:ratelimit:")
		ready = append(ready, runtime.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb)})
	} else {
		limiter = httpx.NewRateLimiter(cfg.ratePerMin, time.Minute)
	}

	creds, err := auth.NewCredentials(cfg.adminUser, cfg.adminPassword, cfg.adminHash)
	if err != nil {
		logger.Warn("admin routes disabled", "err", err)
	}

	svc := booking.NewService(store, logger, booking.Config{
		Params:  cfg.params,
		MinLead: cfg.minLead,
		Metrics: m,
	})

	srv := &http.Server{
		Addr: ":" + cfg.port,
		Handler: newRouter(routerDeps{
			public:  handlers.NewBookingHandler(svc, logger),
			admin:   handlers.NewAdminHandler(svc, logger),
			metrics: m,
			limiter: limiter,
			creds:   creds,
			cors:    cfg.corsOrigins,
			ready:   ready,
			logger:  logger,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lis, err := net.Listen("tcp", ":"+cfg.grpcPort)
	if err != nil {
		logger.Error("grpc listen failed", "err", err)
		panic(err)
	}
	grpcSrv := grpcx.NewServer(logger)
	grpcSrv.SetServing(cfg.service, true)
	go grpcSrv.Serve(ctx, lis)

	logger.Info("shop settings", "tz", cfg.params.Location.String(), "slot_duration", cfg.params.Duration.String())
	if err := runtime.ServeHTTP(ctx, srv, logger, 10*time.Second); err != nil {
		logger.Error("http server error", "err", err)
	}
}

// healthcheck probes the local gRPC health service; used as the container health command.
func healthcheck() int {
	port, err := config.Port("GRPC_PORT", "9090")
	if err != nil {
		return 1
	}
	if err := grpcx.CheckHealth(context.Background(), "127.0.0.1:"+port, "", 3*time.Second); err != nil {
		_, _ = os.Stderr.WriteString("unhealthy: " + err.Error() + "\n")
		return 1
	}
	return 0
}
