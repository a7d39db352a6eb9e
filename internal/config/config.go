// File: internal/config/config.go
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

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port      int    `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // default result-cache TTL
}

type AIConfig struct {
	OpenAIKey       string `yaml:"openai_key"`
	GeminiKey       string `yaml:"gemini_key"`
	GeminiURL       string `yaml:"gemini_url"`
	DefaultModel    string `yaml:"default_model"`
	ConcurrentLimit int    `yaml:"concurrent_limit"` // max concurrent AI calls
}

// ServiceConfig describes one downstream microservice endpoint.
type ServiceConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type ServicesConfig struct {
	AIManager    ServiceConfig `yaml:"ai_manager"`
	DocIntel     ServiceConfig `yaml:"document_intelligence"`
	Presentation ServiceConfig `yaml:"presentation"`
	Transcriber  ServiceConfig `yaml:"transcriber"`
}

type WorkerConfig struct {
	Count        int           `yaml:"count"`
	PollInterval time.Duration `yaml:"poll_interval"`
	JobDeadline  time.Duration `yaml:"job_deadline"` // wall clock bound per job
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AI       AIConfig       `yaml:"ai"`
	Services ServicesConfig `yaml:"services"`
	Worker   WorkerConfig   `yaml:"worker"`

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
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gpt-4o-mini"
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Worker.Count <= 0 {
		cfg.Worker.Count = 8
	}
	if cfg.Worker.PollInterval <= 0 {
		cfg.Worker.PollInterval = 500 * time.Millisecond
	}
	if cfg.Worker.JobDeadline <= 0 {
		cfg.Worker.JobDeadline = 15 * time.Minute
	}
	normalizeService(&cfg.Services.AIManager, 60*time.Second)
	normalizeService(&cfg.Services.DocIntel, 120*time.Second)
	normalizeService(&cfg.Services.Presentation, 120*time.Second)
	normalizeService(&cfg.Services.Transcriber, 10*time.Minute)

	// Minimal validation. Dev mode runs on in-memory stores, so the
	// external backends are only mandatory outside it.
	if cfg.Database.URL == "" && !dev {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" && !dev {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Server.JWTSecret == "" && !dev {
		return nil, errors.New("server.jwt_secret is required outside dev mode")
	}
	if cfg.Server.JWTSecret == "" {
		cfg.Server.JWTSecret = "dev-secret"
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeService(s *ServiceConfig, defTimeout time.Duration) {
	if s.Timeout <= 0 {
		s.Timeout = defTimeout
	}
}
