package main

import (
	"fmt"
	"time"

	"github.com/md-rashed-zaman/clinicbook/libs/config"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/availability"
)

const (
	storePostgres = "postgres"
	storeMemory   = "memory"
)

type settings struct {
	Service  string
	LogLevel string
	Port     string
	GRPCPort string
	Store    string
	Location *time.Location

	DatabaseURL string
	DBMaxConns  int
	DBMinConns  int

	KafkaBrokers []string
	KafkaGroupID string
	ConsumeTopic string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RatePerMinute  int
	RateFailOpen   bool
	CORSOrigins    []string
	JWTSecret      string
	JWKSURL        string
	OutboxInterval time.Duration
}

func loadSettings() (settings, error) {
	s := settings{
		Service:        config.String("SERVICE_NAME", "clinic-service"),
		LogLevel:       config.String("LOG_LEVEL", "info"),
		Store:          config.String("STORE", storePostgres),
		DatabaseURL:    config.String("DATABASE_URL", ""),
		DBMaxConns:     config.Int("DB_MAX_CONNS", 10),
		DBMinConns:     config.Int("DB_MIN_CONNS", 1),
		KafkaBrokers:   config.List("KAFKA_BROKERS", ""),
		KafkaGroupID:   config.String("KAFKA_GROUP_ID", "clinic-service"),
		ConsumeTopic:   config.String("KAFKA_CONSUME_TOPIC", "clinic.doctor.deletion.requested.v1"),
		RedisAddr:      config.String("REDIS_ADDR", ""),
		RedisPassword:  config.String("REDIS_PASSWORD", ""),
		RedisDB:        config.Int("REDIS_DB", 0),
		RatePerMinute:  config.Int("RATE_LIMIT_PER_MINUTE", 60),
		RateFailOpen:   config.Bool("RATE_LIMIT_FAIL_OPEN", true),
		CORSOrigins:    config.List("CORS_ALLOWED_ORIGINS", ""),
		JWTSecret:      config.String("JWT_SECRET", ""),
		JWKSURL:        config.String("JWKS_URL", ""),
		OutboxInterval: config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
	}

	var err error
	if s.Port, err = config.Port("PORT", "8080"); err != nil {
		return settings{}, err
	}
	if s.GRPCPort, err = config.Port("GRPC_PORT", "9090"); err != nil {
		return settings{}, err
	}
	if s.Location, err = availability.LoadLocation(config.String("CLINIC_TIMEZONE", "UTC")); err != nil {
		return settings{}, fmt.Errorf("CLINIC_TIMEZONE: %w", err)
	}

	switch s.Store {
	case storeMemory:
	case storePostgres:
		if s.DatabaseURL == "" {
			return settings{}, fmt.Errorf("DATABASE_URL is required when STORE=%s", storePostgres)
		}
	default:
		return settings{}, fmt.Errorf("STORE must be %s or %s (got %q)", storePostgres, storeMemory, s.Store)
	}
	return s, nil
}
