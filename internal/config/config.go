package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/ehr/fhirstore/internal/platform/db"
	"github.com/ehr/fhirstore/internal/platform/middleware"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port            string        `mapstructure:"PORT" validate:"required,numeric"`
	Env             string        `mapstructure:"ENV" validate:"oneof=development test production"`
	LogLevel        string        `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	StoreDriver     string        `mapstructure:"STORE_DRIVER" validate:"oneof=postgres memory"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL" validate:"required_if=StoreDriver postgres"`
	DBMaxConns      int32         `mapstructure:"DB_MAX_CONNS" validate:"min=1"`
	DBMinConns      int32         `mapstructure:"DB_MIN_CONNS" validate:"min=0,ltefield=DBMaxConns"`
	DBSchema        string        `mapstructure:"DB_SCHEMA" validate:"pgident"`
	CORSOrigins     []string      `mapstructure:"CORS_ORIGINS"`
	MetricsEnabled  bool          `mapstructure:"METRICS_ENABLED"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT" validate:"gt=0"`
	BodyLimit       string        `mapstructure:"BODY_LIMIT" validate:"bytesize"`
	// RateLimitRPS of 0 turns rate limiting off.
	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS" validate:"min=0"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST" validate:"min=1"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL", "STORE_DRIVER", "DATABASE_URL",
	"DB_MAX_CONNS", "DB_MIN_CONNS", "DB_SCHEMA", "CORS_ORIGINS",
	"METRICS_ENABLED", "SHUTDOWN_TIMEOUT", "REQUEST_TIMEOUT", "BODY_LIMIT",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
}

// Load reads configuration from an optional .env file and the environment,
// the environment taking precedence, and validates it.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", DriverPostgres)
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("RATE_LIMIT_RPS", 0)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	for _, k := range keys {
		v.BindEnv(k)
	}

	// A missing .env file is not an error.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("pgident", func(fl validator.FieldLevel) bool {
		return db.ValidSchema(fl.Field().String())
	})
	v.RegisterValidation("bytesize", func(fl validator.FieldLevel) bool {
		_, err := middleware.ParseSize(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate reports the first invalid setting by its environment key.
func (c *Config) Validate() error {
	err := newValidator().Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fe := verrs[0]
	return fmt.Errorf("invalid %s: failed %q rule (value %v)", envKey(fe.StructField()), fe.Tag(), fe.Value())
}

func envKey(field string) string {
	switch field {
	case "Port":
		return "PORT"
	case "Env":
		return "ENV"
	case "LogLevel":
		return "LOG_LEVEL"
	case "StoreDriver":
		return "STORE_DRIVER"
	case "DatabaseURL":
		return "DATABASE_URL"
	case "DBMaxConns":
		return "DB_MAX_CONNS"
	case "DBMinConns":
		return "DB_MIN_CONNS"
	case "DBSchema":
		return "DB_SCHEMA"
	case "ShutdownTimeout":
		return "SHUTDOWN_TIMEOUT"
	case "RequestTimeout":
		return "REQUEST_TIMEOUT"
	case "BodyLimit":
		return "BODY_LIMIT"
	case "RateLimitRPS":
		return "RATE_LIMIT_RPS"
	case "RateLimitBurst":
		return "RATE_LIMIT_BURST"
	}
	return field
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) UsesPostgres() bool {
	return c.StoreDriver == DriverPostgres
}

// BodyLimitBytes is BODY_LIMIT in bytes. Validate has already checked it.
func (c *Config) BodyLimitBytes() int64 {
	n, _ := middleware.ParseSize(c.BodyLimit)
	return n
}

// Level parses LOG_LEVEL, falling back to info.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
