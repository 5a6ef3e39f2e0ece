package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is assembled in three layers: built-in defaults, then the optional
// YAML file named by CONFIG_FILE, then environment variables (a .env file is
// loaded into the environment first).
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	CouchDB   CouchDBConfig   `yaml:"couchdb"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	Conflict  ConflictConfig  `yaml:"conflict"`
	Versions  VersionsConfig  `yaml:"versions"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	Host            string        `yaml:"host"`
	Env             string        `yaml:"env"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// Driver is one of postgres, mysql, sqlite or memory.
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type CouchDBConfig struct {
	URL    string `yaml:"url"`
	DBName string `yaml:"db_name"`
}

type RedisConfig struct {
	Addr        string        `yaml:"addr"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	PingTimeout time.Duration `yaml:"ping_timeout"`
}

type JWTConfig struct {
	Secret                 string        `yaml:"secret"`
	Expiration             time.Duration `yaml:"expiration"`
	RefreshTokenExpiration time.Duration `yaml:"refresh_token_expiration"`
}

type ConflictConfig struct {
	ConcurrentWindow       time.Duration `yaml:"concurrent_window"`
	ConcurrentGap          int64         `yaml:"concurrent_gap"`
	ActiveWindow           time.Duration `yaml:"active_window"`
	RequireExpectedVersion bool          `yaml:"require_expected_version"`
	LogPerNote             int           `yaml:"log_per_note"`
}

type VersionsConfig struct {
	// Retention caps ledger entries kept per note. Zero keeps everything.
	Retention int `yaml:"retention"`
}

type RateLimitConfig struct {
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	Enabled           bool `yaml:"enabled"`
}

type CORSConfig struct {
	AllowedOrigins string `yaml:"allowed_origins"`
	AllowedMethods string `yaml:"allowed_methods"`
	AllowedHeaders string `yaml:"allowed_headers"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			Host:            "0.0.0.0",
			Env:             "development",
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "shared-notes.db",
		},
		CouchDB: CouchDBConfig{
			DBName: "shared_notes_conflicts",
		},
		Redis: RedisConfig{
			PingTimeout: 5 * time.Second,
		},
		JWT: JWTConfig{
			Secret:                 "dev-secret-change-in-production",
			Expiration:             15 * time.Minute,
			RefreshTokenExpiration: 168 * time.Hour,
		},
		Conflict: ConflictConfig{
			ConcurrentWindow: 5 * time.Minute,
			ConcurrentGap:    1,
			ActiveWindow:     5 * time.Minute,
			LogPerNote:       50,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			Enabled:           true,
		},
		CORS: CORSConfig{
			AllowedOrigins: "*",
			AllowedMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
			AllowedHeaders: "Content-Type,Authorization,X-Request-ID",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func Load() (*Config, error) {
	godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile overlays the YAML document at path onto cfg. Unknown keys are an
// error so typos do not silently fall back to defaults.
func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var err error

	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.Host = getEnv("HOST", cfg.Server.Host)
	cfg.Server.Env = getEnv("ENV", cfg.Server.Env)
	if cfg.Server.ShutdownTimeout, err = getEnvAsDuration("SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout); err != nil {
		return err
	}

	cfg.Database.Driver = getEnv("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = getEnv("DB_DSN", cfg.Database.DSN)

	cfg.CouchDB.URL = getEnv("COUCHDB_URL", cfg.CouchDB.URL)
	cfg.CouchDB.DBName = getEnv("COUCHDB_DB", cfg.CouchDB.DBName)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Username = getEnv("REDIS_USER", cfg.Redis.Username)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)

	cfg.JWT.Secret = getEnv("JWT_SECRET", cfg.JWT.Secret)
	if cfg.JWT.Expiration, err = getEnvAsDuration("JWT_EXPIRATION", cfg.JWT.Expiration); err != nil {
		return err
	}
	if cfg.JWT.RefreshTokenExpiration, err = getEnvAsDuration("REFRESH_TOKEN_EXPIRATION", cfg.JWT.RefreshTokenExpiration); err != nil {
		return err
	}

	if cfg.Conflict.ConcurrentWindow, err = getEnvAsDuration("CONFLICT_CONCURRENT_WINDOW", cfg.Conflict.ConcurrentWindow); err != nil {
		return err
	}
	cfg.Conflict.ConcurrentGap = int64(getEnvAsInt("CONFLICT_CONCURRENT_GAP", int(cfg.Conflict.ConcurrentGap)))
	if cfg.Conflict.ActiveWindow, err = getEnvAsDuration("CONFLICT_ACTIVE_WINDOW", cfg.Conflict.ActiveWindow); err != nil {
		return err
	}
	cfg.Conflict.RequireExpectedVersion = getEnvAsBool("CONFLICT_REQUIRE_EXPECTED_VERSION", cfg.Conflict.RequireExpectedVersion)
	cfg.Conflict.LogPerNote = getEnvAsInt("CONFLICT_LOG_PER_NOTE", cfg.Conflict.LogPerNote)

	cfg.Versions.Retention = getEnvAsInt("VERSION_RETENTION", cfg.Versions.Retention)

	cfg.RateLimit.RequestsPerMinute = getEnvAsInt("RATE_LIMIT_REQUESTS_PER_MINUTE", cfg.RateLimit.RequestsPerMinute)
	cfg.RateLimit.Enabled = getEnvAsBool("RATE_LIMIT_ENABLED", cfg.RateLimit.Enabled)

	cfg.CORS.AllowedOrigins = getEnv("CORS_ALLOWED_ORIGINS", cfg.CORS.AllowedOrigins)
	cfg.CORS.AllowedMethods = getEnv("CORS_ALLOWED_METHODS", cfg.CORS.AllowedMethods)
	cfg.CORS.AllowedHeaders = getEnv("CORS_ALLOWED_HEADERS", cfg.CORS.AllowedHeaders)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	return nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite", "memory":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Database.Driver != "memory" && c.Database.DSN == "" {
		return errors.New("DB_DSN is required")
	}
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Conflict.ConcurrentGap < 1 {
		return errors.New("CONFLICT_CONCURRENT_GAP must be at least 1")
	}
	if c.Versions.Retention < 0 {
		return errors.New("VERSION_RETENTION must not be negative")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}
