package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
	// Lockdown refuses all mutating traffic (503) while read endpoints stay
	// up. Injected once at startup; never read from the environment per call.
	Lockdown       bool          `yaml:"lockdown"`
	AdminAPIKey    string        `yaml:"admin_api_key"`
	SessionSecret  string        `yaml:"session_secret"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"` // empty disables redis-backed rate limiting
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type RateLimitConfig struct {
	RedeemPerMinute int `yaml:"redeem_per_minute"`
}

type CacheConfig struct {
	TTL     time.Duration `yaml:"ttl"`
	MaxSize int           `yaml:"max_size"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Cache     CacheConfig     `yaml:"cache"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 10 * time.Second
	}
	if cfg.Server.SessionTTL <= 0 {
		cfg.Server.SessionTTL = 30 * time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.RateLimit.RedeemPerMinute <= 0 {
		cfg.RateLimit.RedeemPerMinute = 10
	}
	if cfg.Cache.TTL <= 0 {
		cfg.Cache.TTL = 30 * time.Second
	}
	if cfg.Cache.MaxSize <= 0 {
		cfg.Cache.MaxSize = 4096
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Server.AdminAPIKey == "" {
		return nil, errors.New("server.admin_api_key is required")
	}
	if cfg.Server.SessionSecret == "" {
		return nil, errors.New("server.session_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
