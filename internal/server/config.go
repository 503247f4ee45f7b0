package server

import (
	"fmt"
	"os"
	"strings"
	"time"

	"campusdesk/internal/common/cache"
	"campusdesk/internal/common/db"
	"campusdesk/pkg/utils/logger"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8080"
	defaultBasePath        = "/api/v1"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second

	defaultTokenTTL       = 7 * 24 * time.Hour
	defaultLoginFailLimit = 5
	defaultLoginWindow    = 15 * time.Minute

	minJWTSecretLen = 32
)

// Config is the campusdesk server configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Auth       AuthConfig       `yaml:"auth"`
	LoginLimit LoginLimitConfig `yaml:"login_limit"`
	Cache      CacheConfig      `yaml:"cache"`
	Logger     logger.Config    `yaml:"logger"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"CAMPUSDESK_ADDR"`
	BasePath        string        `yaml:"base_path"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins" env:"CAMPUSDESK_CORS_ORIGINS" envSeparator:","`
}

// DatabaseConfig selects the store and its pool.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver" env:"CAMPUSDESK_DB_DRIVER"`
	DSN             string        `yaml:"dsn" env:"CAMPUSDESK_DB_DSN"`
	MaxOpen         int           `yaml:"max_open"`
	MaxIdle         int           `yaml:"max_idle"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	Migrate         *bool         `yaml:"migrate"`
}

// RedisConfig is optional; an empty addr runs without cache, limiter and revocation.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"CAMPUSDESK_REDIS_ADDR"`
	Password string `yaml:"password" env:"CAMPUSDESK_REDIS_PASSWORD"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// AuthConfig holds token and cookie settings.
type AuthConfig struct {
	JWTSecret    string        `yaml:"jwt_secret" env:"CAMPUSDESK_JWT_SECRET"`
	JWTIssuer    string        `yaml:"jwt_issuer"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
	BcryptCost   int           `yaml:"bcrypt_cost"`
	CookieSecure bool          `yaml:"cookie_secure"`
	CookieDomain string        `yaml:"cookie_domain"`
}

// LoginLimitConfig bounds failed logins per sid and per client IP.
type LoginLimitConfig struct {
	MaxFailures int           `yaml:"max_failures"`
	Window      time.Duration `yaml:"window"`
}

// CacheConfig holds cache-aside TTLs. Zero keeps the repository default.
type CacheConfig struct {
	UserTTL    time.Duration `yaml:"user_ttl"`
	ProblemTTL time.Duration `yaml:"problem_ttl"`
	EmptyTTL   time.Duration `yaml:"empty_ttl"`
}

// LoadConfig reads the YAML file at path, overlays CAMPUSDESK_* environment
// variables, applies defaults and validates the result. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file failed: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file failed: %w", err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment failed: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = defaultHTTPAddr
	}
	if c.Server.BasePath == "" {
		c.Server.BasePath = defaultBasePath
	}
	c.Server.BasePath = "/" + strings.Trim(c.Server.BasePath, "/")
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = defaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = defaultWriteTimeout
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = defaultIdleTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = defaultShutdownTimeout
	}

	if c.Database.Driver == "" {
		c.Database.Driver = string(db.DialectSQLite)
	}
	if c.Database.DSN == "" && c.Database.Driver == string(db.DialectSQLite) {
		c.Database.DSN = "campusdesk.db"
	}
	if c.Database.Migrate == nil {
		migrate := true
		c.Database.Migrate = &migrate
	}

	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = defaultTokenTTL
	}
	if c.LoginLimit.MaxFailures == 0 {
		c.LoginLimit.MaxFailures = defaultLoginFailLimit
	}
	if c.LoginLimit.Window == 0 {
		c.LoginLimit.Window = defaultLoginWindow
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "json"
	}
}

// Validate reports configuration that cannot start a server.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) == 0 {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if len(c.Auth.JWTSecret) < minJWTSecretLen {
		return fmt.Errorf("auth.jwt_secret must be at least %d bytes", minJWTSecretLen)
	}
	switch db.Dialect(c.Database.Driver) {
	case db.DialectMySQL, db.DialectPostgres, db.DialectSQLite:
	default:
		return fmt.Errorf("database.driver %q is not one of mysql, postgres, sqlite", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Auth.BcryptCost != 0 && (c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31) {
		return fmt.Errorf("auth.bcrypt_cost must be between 4 and 31")
	}
	return nil
}

// DBConfig converts the database section into pool settings.
func (c DatabaseConfig) DBConfig() *db.Config {
	return &db.Config{
		Driver:             db.Dialect(c.Driver),
		DSN:                c.DSN,
		MaxOpenConnections: c.MaxOpen,
		MaxIdleConnections: c.MaxIdle,
		ConnMaxLifetime:    c.ConnMaxLifetime,
	}
}

// RedisCacheConfig converts the redis section into client settings.
func (c RedisConfig) RedisCacheConfig() *cache.RedisConfig {
	cfg := cache.DefaultRedisConfig()
	cfg.Addr = c.Addr
	cfg.Password = c.Password
	cfg.DB = c.DB
	if c.PoolSize > 0 {
		cfg.PoolSize = c.PoolSize
	}
	return cfg
}
