// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config loads application configuration. Values come from
// built-in defaults, then an optional YAML file, then SLIDESMITH_*
// environment variables (double underscore separates nesting, e.g.
// SLIDESMITH_DB__PASSWORD). The conventional provider key variables
// (OPENAI_API_KEY and friends) fill keys left empty.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SLIDESMITH_"

// defaultDBPassword is refused in production.
const defaultDBPassword = "changeme"

// Config holds all application configuration values.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	DB        DBConfig        `koanf:"db"`
	Valkey    ValkeyConfig    `koanf:"valkey"`
	AI        AIConfig        `koanf:"ai"`
	S3        S3Config        `koanf:"s3"`
	Fetch     FetchConfig     `koanf:"fetch"`
	Editor    EditorConfig    `koanf:"editor"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Log       LogConfig       `koanf:"log"`
}

// ServerConfig is the HTTP listener.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port string `koanf:"port"`
	Env  string `koanf:"env"` // "development", "production", "testing"

	// BaseURL is the public origin used in share links and QR codes.
	BaseURL string `koanf:"base_url"`

	// CORSOrigins may read the public carousel API. Empty allows any origin.
	CORSOrigins []string `koanf:"cors_origins"`

	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DBConfig is the PostgreSQL connection.
type DBConfig struct {
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Name     string `koanf:"name"`
	SSLMode  string `koanf:"sslmode"`
}

// ValkeyConfig is the Redis-compatible cache and session store.
type ValkeyConfig struct {
	Host     string        `koanf:"host"`
	Port     string        `koanf:"port"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	SlideTTL time.Duration `koanf:"slide_ttl"`
}

// ProviderConfig is one AI backend.
type ProviderConfig struct {
	APIKey     string `koanf:"api_key"`
	Model      string `koanf:"model"`
	ModelImage string `koanf:"model_image"`
	BaseURL    string `koanf:"base_url"`
}

// AIConfig selects and configures the AI backends.
type AIConfig struct {
	Provider string         `koanf:"provider"` // active backend for unqualified model ids
	OpenAI   ProviderConfig `koanf:"openai"`
	Gemini   ProviderConfig `koanf:"gemini"`
	Claude   ProviderConfig `koanf:"claude"`
	Mistral  ProviderConfig `koanf:"mistral"`
}

// Providers returns the backend configs keyed by provider name.
func (a AIConfig) Providers() map[string]ProviderConfig {
	return map[string]ProviderConfig{
		"openai":  a.OpenAI,
		"gemini":  a.Gemini,
		"claude":  a.Claude,
		"mistral": a.Mistral,
	}
}

// S3Config is the object store for generated images.
type S3Config struct {
	Endpoint  string `koanf:"endpoint"`
	Region    string `koanf:"region"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	Bucket    string `koanf:"bucket"`
	PublicURL string `koanf:"public_url"`
}

// FetchConfig tunes source ingestion for URL and video modes.
type FetchConfig struct {
	Timeout            time.Duration `koanf:"timeout"`
	MaxChars           int           `koanf:"max_chars"`
	TranscriptEndpoint string        `koanf:"transcript_endpoint"`
	TranscriptAPIKey   string        `koanf:"transcript_api_key"`
}

// EditorConfig tunes the auto-save coordinator.
type EditorConfig struct {
	Debounce    time.Duration `koanf:"debounce"`
	ResetAfter  time.Duration `koanf:"reset_after"`
	SaveTimeout time.Duration `koanf:"save_timeout"`
	IdleTimeout time.Duration `koanf:"idle_timeout"`
}

// RateLimitConfig bounds AI requests per client.
type RateLimitConfig struct {
	AIRequests int           `koanf:"ai_requests"`
	Window     time.Duration `koanf:"window"`
	Login      int           `koanf:"login"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // text or json; empty picks by environment
}

// Default returns the development configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			Env:             "development",
			BaseURL:         "http://localhost:8080",
			ShutdownTimeout: 15 * time.Second,
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "slidesmith",
			Password: defaultDBPassword,
			Name:     "slidesmith",
			SSLMode:  "disable",
		},
		Valkey: ValkeyConfig{
			Host:     "localhost",
			Port:     "6379",
			SlideTTL: 10 * time.Minute,
		},
		AI: AIConfig{Provider: "openai"},
		S3: S3Config{Region: "us-east-1"},
		Fetch: FetchConfig{
			Timeout:  15 * time.Second,
			MaxChars: 50_000,
		},
		Editor: EditorConfig{
			Debounce:    2000 * time.Millisecond,
			ResetAfter:  3000 * time.Millisecond,
			SaveTimeout: 15 * time.Second,
			IdleTimeout: 2 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			AIRequests: 20,
			Window:     time.Minute,
			Login:      10,
		},
		Log: LogConfig{Level: "info"},
	}
}

// providerKeyVars are read when the matching api_key is still empty after
// the file and SLIDESMITH_* overlays.
var providerKeyVars = map[string]string{
	"openai":  "OPENAI_API_KEY",
	"gemini":  "GEMINI_API_KEY",
	"claude":  "ANTHROPIC_API_KEY",
	"mistral": "MISTRAL_API_KEY",
}

// Load reads configuration from path (optional, may be empty or missing)
// and the environment, then validates it.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	cfg.applyProviderKeys()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps SLIDESMITH_DB__PASSWORD to db.password.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func (c *Config) applyProviderKeys() {
	targets := map[string]*ProviderConfig{
		"openai":  &c.AI.OpenAI,
		"gemini":  &c.AI.Gemini,
		"claude":  &c.AI.Claude,
		"mistral": &c.AI.Mistral,
	}
	for name, pc := range targets {
		if pc.APIKey == "" {
			pc.APIKey = os.Getenv(providerKeyVars[name])
		}
	}
}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	var errs []error

	switch c.Server.Env {
	case "development", "production", "testing":
	default:
		errs = append(errs, fmt.Errorf("server.env %q: must be development, production or testing", c.Server.Env))
	}
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if c.IsProduction() && c.DB.Password == defaultDBPassword {
		errs = append(errs, errors.New("db.password must be set in production"))
	}
	if _, ok := c.AI.Providers()[c.AI.Provider]; !ok {
		errs = append(errs, fmt.Errorf("ai.provider %q: must be openai, gemini, claude or mistral", c.AI.Provider))
	}
	if c.Editor.Debounce <= 0 || c.Editor.ResetAfter <= 0 {
		errs = append(errs, errors.New("editor.debounce and editor.reset_after must be positive"))
	}
	if c.Editor.IdleTimeout < 0 {
		errs = append(errs, errors.New("editor.idle_timeout must not be negative"))
	}
	if c.Fetch.MaxChars <= 0 {
		errs = append(errs, errors.New("fetch.max_chars must be positive"))
	}
	if c.RateLimit.AIRequests < 0 || c.RateLimit.Login < 0 {
		errs = append(errs, errors.New("rate limits must be non-negative"))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q: must be text or json", c.Log.Format))
	}

	return errors.Join(errs...)
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name, c.DB.SSLMode,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true in production.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// LogFormat returns the effective log format: json in production, text
// otherwise, unless set explicitly.
func (c *Config) LogFormat() string {
	if c.Log.Format != "" {
		return c.Log.Format
	}
	if c.IsProduction() {
		return "json"
	}
	return "text"
}
