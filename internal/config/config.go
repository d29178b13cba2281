// Package config loads the server configuration once at startup.
//
// Values are layered: built-in defaults, then an optional TOML file named by
// CONFIG_FILE, then the environment (a .env file in the working directory is
// loaded into the environment first).
package config

import (
	"fmt"
	"math"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	_ "github.com/joho/godotenv/autoload"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Duration lets TOML files express timeouts as "5s" or "1m30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Config holds the application settings. Treat it as immutable after Load.
type Config struct {
	Port     int    `toml:"port"`
	BasePath string `toml:"base_path"`
	Storage  string `toml:"storage"`
	LogLevel string `toml:"log_level"`

	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	IdleTimeout     Duration `toml:"idle_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`

	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`

	// RateLimitRPS <= 0 disables rate limiting.
	RateLimitRPS   float64 `toml:"rate_limit_rps"`
	RateLimitBurst int     `toml:"rate_limit_burst"`

	MetricsEnabled bool `toml:"metrics_enabled"`

	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable it only behind a proxy that overwrites them.
	TrustProxyHeaders bool `toml:"trust_proxy_headers"`

	Database Database `toml:"database"`
}

// Database describes the PostgreSQL connection. URL, when set, wins over
// the individual fields.
type Database struct {
	URL      string `toml:"url"`
	Host     string `toml:"host"`
	Port     string `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Name     string `toml:"name"`
	Schema   string `toml:"schema"`
	SSLMode  string `toml:"sslmode"`

	MaxIdleConns    int      `toml:"max_idle_conns"`
	MaxOpenConns    int      `toml:"max_open_conns"`
	ConnMaxLifetime Duration `toml:"conn_max_lifetime"`
}

// DSN returns a postgres:// URL usable by both the pgx driver and the
// migration runner.
func (d Database) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.Username, d.Password),
		Host:   net.JoinHostPort(d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	if d.Schema != "" {
		q.Set("search_path", d.Schema)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Port:               8080,
		BasePath:           "/api/v1",
		Storage:            StoragePostgres,
		LogLevel:           "info",
		ReadTimeout:        Duration{10 * time.Second},
		WriteTimeout:       Duration{30 * time.Second},
		IdleTimeout:        Duration{time.Minute},
		ShutdownTimeout:    Duration{5 * time.Second},
		CORSAllowedOrigins: []string{"https://*", "http://*"},
		RateLimitRPS:       20,
		RateLimitBurst:     40,
		MetricsEnabled:     true,
		Database: Database{
			Host:            "localhost",
			Port:            "5432",
			SSLMode:         "disable",
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: Duration{time.Hour},
		},
	}
}

// Load builds the Config from defaults, CONFIG_FILE and the environment.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnvInt("PORT", cfg.Port)
	cfg.BasePath = getEnvString("API_BASE_PATH", cfg.BasePath)
	cfg.Storage = strings.ToLower(getEnvString("STORAGE", cfg.Storage))
	cfg.LogLevel = strings.ToLower(getEnvString("LOG_LEVEL", cfg.LogLevel))

	cfg.ReadTimeout.Duration = getEnvDuration("READ_TIMEOUT", cfg.ReadTimeout.Duration)
	cfg.WriteTimeout.Duration = getEnvDuration("WRITE_TIMEOUT", cfg.WriteTimeout.Duration)
	cfg.IdleTimeout.Duration = getEnvDuration("IDLE_TIMEOUT", cfg.IdleTimeout.Duration)
	cfg.ShutdownTimeout.Duration = getEnvDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout.Duration)

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = splitList(v)
	}

	cfg.RateLimitRPS = getEnvFloat("RATE_LIMIT_RPS", cfg.RateLimitRPS)
	cfg.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", cfg.RateLimitBurst)
	cfg.MetricsEnabled = getEnvBool("METRICS_ENABLED", cfg.MetricsEnabled)
	cfg.TrustProxyHeaders = getEnvBool("TRUST_PROXY_HEADERS", cfg.TrustProxyHeaders)

	db := &cfg.Database
	db.URL = getEnvString("DATABASE_URL", db.URL)
	db.Host = getEnvString("BLUEPRINT_DB_HOST", db.Host)
	db.Port = getEnvString("BLUEPRINT_DB_PORT", db.Port)
	db.Username = getEnvString("BLUEPRINT_DB_USERNAME", db.Username)
	db.Password = getEnvString("BLUEPRINT_DB_PASSWORD", db.Password)
	db.Name = getEnvString("BLUEPRINT_DB_DATABASE", db.Name)
	db.Schema = getEnvString("BLUEPRINT_DB_SCHEMA", db.Schema)
	db.SSLMode = getEnvString("DB_SSLMODE", db.SSLMode)
	db.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", db.MaxIdleConns)
	db.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", db.MaxOpenConns)
	db.ConnMaxLifetime.Duration = getEnvDuration("DB_CONN_MAX_LIFETIME", db.ConnMaxLifetime.Duration)
}

// Validate rejects settings that cannot be defaulted sensibly.
func (c *Config) Validate() error {
	var problems []string

	switch c.Storage {
	case StoragePostgres:
		if c.Database.URL == "" && c.Database.Name == "" {
			problems = append(problems, "DATABASE_URL or BLUEPRINT_DB_DATABASE is required for postgres storage")
		}
	case StorageMemory:
	default:
		problems = append(problems, fmt.Sprintf("unknown STORAGE %q (want %s or %s)", c.Storage, StoragePostgres, StorageMemory))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("unknown LOG_LEVEL %q", c.LogLevel))
	}

	if c.Port <= 0 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid PORT %d", c.Port))
	}

	if math.IsNaN(c.RateLimitRPS) || math.IsInf(c.RateLimitRPS, 0) {
		problems = append(problems, fmt.Sprintf("invalid RATE_LIMIT_RPS %v", c.RateLimitRPS))
	}
	if c.RateLimitBurst < 0 {
		problems = append(problems, fmt.Sprintf("invalid RATE_LIMIT_BURST %d", c.RateLimitBurst))
	}

	if c.BasePath != "" && !strings.HasPrefix(c.BasePath, "/") {
		problems = append(problems, fmt.Sprintf("API_BASE_PATH %q must start with /", c.BasePath))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
