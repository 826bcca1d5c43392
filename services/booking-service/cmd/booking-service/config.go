package main

import (
	"time"

	"github.com/belvedhair/booking/libs/config"
	"github.com/belvedhair/booking/services/booking-service/internal/availability"
)

type appConfig struct {
	service  string
	port     string
	grpcPort string

	databaseURL string
	migrate     bool

	params  availability.Params
	minLead time.Duration

	adminUser     string
	adminPassword string
	adminHash     string

	corsOrigins  []string
	ratePerMin   int
	redisAddr    string
	redisPass    string
	redisDB      int
	kafkaBrokers string
}

func loadConfig() (appConfig, error) {
	var cfg appConfig
	var err error

	cfg.service = config.String("SERVICE_NAME", "booking-service")
	if cfg.port, err = config.Port("PORT", "8080"); err != nil {
		return cfg, err
	}
	if cfg.grpcPort, err = config.Port("GRPC_PORT", "9090"); err != nil {
		return cfg, err
	}

	cfg.databaseURL = config.String("DATABASE_URL", "")
	cfg.migrate = config.Bool("MIGRATE_ON_START", true)

	if cfg.params.Location, err = config.Location("SHOP_TZ", "Europe/Vienna"); err != nil {
		return cfg, err
	}
	if cfg.params.Duration, err = config.Minutes("SLOT_DURATION_MINUTES", 30); err != nil {
		return cfg, err
	}
	if cfg.params.Granularity, err = config.Minutes("SLOT_STEP_MINUTES", 15); err != nil {
		return cfg, err
	}
	lead, err := config.Int("BOOKING_MIN_LEAD_MINUTES", 1)
	if err != nil {
		return cfg, err
	}
	cfg.minLead = time.Duration(max(lead, 0)) * time.Minute

	cfg.adminUser = config.String("ADMIN_USER", "admin")
	cfg.adminPassword = config.String("ADMIN_PASSWORD", "")
	cfg.adminHash = config.String("ADMIN_PASSWORD_BCRYPT", "")

	cfg.corsOrigins = config.List("CORS_ALLOWED_ORIGINS")
	if cfg.ratePerMin, err = config.Int("RATE_LIMIT_PER_MINUTE", 5); err != nil {
		return cfg, err
	}
	cfg.redisAddr = config.String("REDIS_ADDR", "")
	cfg.redisPass = config.String("REDIS_PASSWORD", "")
	if cfg.redisDB, err = config.Int("REDIS_DB", 0); err != nil {
		return cfg, err
	}
	cfg.kafkaBrokers = config.String("KAFKA_BROKERS", "")
	return cfg, nil
}
