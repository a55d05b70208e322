// Package config provides configuration management for FoxOps
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the runtime configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Store     StoreConfig     `mapstructure:"store"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the postgres connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// AuthConfig holds authentication settings
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	AccessExpiry  time.Duration `mapstructure:"access_expiry"`
	RefreshExpiry time.Duration `mapstructure:"refresh_expiry"`
	Issuer        string        `mapstructure:"issuer"`
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins   string `mapstructure:"allowed_origins"`
	AllowCredentials bool   `mapstructure:"allow_credentials"`
}

// Origins returns the allowed origins as a slice
func (c CORSConfig) Origins() []string {
	return splitString(c.AllowedOrigins)
}

// RedisConfig holds redis settings. An empty Addr disables redis.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StoreConfig bounds every data store round trip
type StoreConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig toggles enforcement of per-key API limits
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var defaults = map[string]interface{}{
	"server.port":                "8090",
	"server.mode":                "debug",
	"server.read_timeout":        "30s",
	"server.write_timeout":       "30s",
	"server.shutdown_timeout":    "10s",
	"database.host":              "localhost",
	"database.port":              "5432",
	"database.user":              "foxops",
	"database.password":          "",
	"database.name":              "foxops",
	"database.sslmode":           "disable",
	"database.max_open_conns":    25,
	"database.max_idle_conns":    5,
	"database.conn_max_lifetime": "30m",
	"auth.jwt_secret":            "",
	"auth.access_expiry":         "24h",
	"auth.refresh_expiry":        "168h",
	"auth.issuer":                "foxops",
	"cors.allowed_origins":       "http://localhost:3000,http://127.0.0.1:3000",
	"cors.allow_credentials":     true,
	"redis.addr":                 "",
	"redis.password":             "",
	"redis.db":                   0,
	"store.timeout":              "5s",
	"ratelimit.enabled":          true,
	"log.level":                  "info",
	"log.format":                 "console",
}

var envBindings = map[string]string{
	"server.port":             "SERVER_PORT",
	"server.mode":             "SERVER_MODE",
	"server.shutdown_timeout": "SERVER_SHUTDOWN_TIMEOUT",
	"database.host":           "DB_HOST",
	"database.port":           "DB_PORT",
	"database.user":           "DB_USER",
	"database.password":       "DB_PASSWORD",
	"database.name":           "DB_NAME",
	"database.sslmode":        "DB_SSLMODE",
	"auth.jwt_secret":         "JWT_SECRET",
	"auth.access_expiry":      "JWT_ACCESS_EXPIRY",
	"auth.refresh_expiry":     "JWT_REFRESH_EXPIRY",
	"cors.allowed_origins":    "CORS_ALLOWED_ORIGINS",
	"redis.addr":              "REDIS_ADDR",
	"redis.password":          "REDIS_PASSWORD",
	"store.timeout":           "STORE_TIMEOUT",
	"ratelimit.enabled":       "RATELIMIT_ENABLED",
	"log.level":               "LOG_LEVEL",
	"log.format":              "LOG_FORMAT",
}

// Load reads config.yaml (./configs or .) and applies environment overrides
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Store.Timeout <= 0 {
		cfg.Store.Timeout = 5 * time.Second
	}

	return &cfg, nil
}

// splitString splits a comma-separated string into a slice
func splitString(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
