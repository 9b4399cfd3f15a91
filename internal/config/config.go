package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/couchcryptid/cp-performance/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Default allowances for requests that carry no tolerances of their own.
	SpeedToleranceKn float64
	FuelTolerancePct float64

	// ReportDBPath is the SQLite report archive file; empty disables archiving.
	ReportDBPath string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	defaults := domain.DefaultTolerances()
	speedTol, err := parseFloat("SPEED_TOLERANCE_KN", defaults.SpeedKn)
	if err != nil {
		return nil, err
	}
	fuelTol, err := parseFloat("FUEL_TOLERANCE_PCT", defaults.FuelPct)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "voyage-calculation-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "voyage-performance-reports"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "cp-performance"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
		SpeedToleranceKn:   speedTol,
		FuelTolerancePct:   fuelTol,
		ReportDBPath:       sharedcfg.EnvOrDefault("REPORT_DB_PATH", ""),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.SpeedToleranceKn <= 0 {
		return nil, errors.New("SPEED_TOLERANCE_KN must be greater than 0")
	}
	if cfg.FuelTolerancePct <= 0 || cfg.FuelTolerancePct >= 100 {
		return nil, errors.New("FUEL_TOLERANCE_PCT must be between 0 and 100")
	}

	return cfg, nil
}

// Tolerances returns the configured default allowances.
func (c *Config) Tolerances() domain.Tolerances {
	return domain.Tolerances{SpeedKn: c.SpeedToleranceKn, FuelPct: c.FuelTolerancePct}
}

func parseFloat(key string, def float64) (float64, error) {
	s := sharedcfg.EnvOrDefault(key, "")
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return v, nil
}
