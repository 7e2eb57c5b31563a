package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Messages MessagesConfig
	Health   HealthConfig
	LogLevel string
}

type ServerConfig struct {
	Address string
}

type DatabaseConfig struct {
	PostgresURL string
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
	TokenTTL  time.Duration
}

type MessagesConfig struct {
	ContentMax int
}

type HealthConfig struct {
	Interval time.Duration
}

// LoadAll reads the configuration from the environment and reports every
// missing or invalid variable at once.
func LoadAll() (*Config, error) {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	postgresURL, err := requireEnv("POSTGRES_URL")
	collect(err)
	jwtSecret, err := requireEnv("JWT_SECRET")
	collect(err)
	contentMax, err := getEnvInt("CONTENT_MAX", 1000)
	collect(err)
	tokenTTL, err := getEnvInt("JWT_TTL_SECONDS", 86400)
	collect(err)
	healthInterval, err := getEnvInt("HEALTH_INTERVAL_SECONDS", 30)
	collect(err)
	redisCfg, err := loadRedisConfig()
	collect(err)

	cfg := &Config{
		Server: ServerConfig{
			Address: getEnv("SERVER_ADDRESS", ":8080"),
		},
		Database: DatabaseConfig{
			PostgresURL: postgresURL,
		},
		Auth: AuthConfig{
			JWTSecret: jwtSecret,
			Issuer:    getEnv("JWT_ISSUER", "direct-messaging"),
			TokenTTL:  time.Duration(tokenTTL) * time.Second,
		},
		Messages: MessagesConfig{
			ContentMax: contentMax,
		},
		Health: HealthConfig{
			Interval: time.Duration(healthInterval) * time.Second,
		},
		Redis:    redisCfg,
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	if len(errs) == 0 {
		errs = append(errs, validate(cfg)...)
	}
	if err := joinErrors(errs); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadAuth reads only what is needed to mint tokens.
func LoadAuth() (AuthConfig, error) {
	secret, err := requireEnv("JWT_SECRET")
	if err != nil {
		return AuthConfig{}, err
	}
	ttl, err := getEnvInt("JWT_TTL_SECONDS", 86400)
	if err != nil {
		return AuthConfig{}, err
	}
	return AuthConfig{
		JWTSecret: secret,
		Issuer:    getEnv("JWT_ISSUER", "direct-messaging"),
		TokenTTL:  time.Duration(ttl) * time.Second,
	}, nil
}

func loadRedisConfig() (RedisConfig, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return RedisConfig{Enabled: false}, nil
	}

	db, dbErr := getEnvInt("REDIS_DB", 0)
	ttl, ttlErr := getEnvInt("REDIS_TTL_SECONDS", 300)
	if err := joinErrors([]error{dbErr, ttlErr}); err != nil {
		return RedisConfig{}, err
	}

	return RedisConfig{
		Enabled:  true,
		Address:  addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
		TTL:      time.Duration(ttl) * time.Second,
	}, nil
}

func validate(cfg *Config) []error {
	var errs []error
	if cfg.Messages.ContentMax <= 0 {
		errs = append(errs, errors.New("CONTENT_MAX must be > 0"))
	}
	if cfg.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL_SECONDS must be > 0"))
	}
	if cfg.Health.Interval <= 0 {
		errs = append(errs, errors.New("HEALTH_INTERVAL_SECONDS must be > 0"))
	}
	if cfg.Redis.Enabled && cfg.Redis.TTL <= 0 {
		errs = append(errs, errors.New("REDIS_TTL_SECONDS must be > 0"))
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error: %q", cfg.LogLevel))
	}
	return errs
}

func requireEnv(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("missing required env var: %s", key)
	}
	return val, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("invalid int for env %s: %s", key, v)
	}
	return i, nil
}

func joinErrors(errs []error) error {
	return errors.Join(errs...)
}
