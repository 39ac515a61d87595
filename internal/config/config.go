// Package config loads runtime settings from defaults, an optional YAML file and
// environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Supported AI providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Fetch     FetchConfig     `yaml:"fetch"`
	AI        AIConfig        `yaml:"ai"`
	Store     StoreConfig     `yaml:"store"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Enrich    EnrichConfig    `yaml:"enrich"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// FetchConfig configures page retrieval.
type FetchConfig struct {
	UserAgent     string   `yaml:"user_agent"`
	Timeout       Duration `yaml:"timeout"`
	MaxBodyBytes  int64    `yaml:"max_body_bytes"`
	RespectRobots bool     `yaml:"respect_robots"`
}

// AIConfig selects and configures the language model providers.
type AIConfig struct {
	Provider         string       `yaml:"provider"`
	FallbackProvider string       `yaml:"fallback_provider"`
	Disabled         bool         `yaml:"disabled"`
	Temperature      float64      `yaml:"temperature"`
	MaxTokens        int          `yaml:"max_tokens"`
	Timeout          Duration     `yaml:"timeout"`
	OpenAI           OpenAIConfig `yaml:"openai"`
	Gemini           GeminiConfig `yaml:"gemini"`
}

// OpenAIConfig configures an OpenAI-compatible chat completions endpoint.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// GeminiConfig configures the Gemini API.
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// StoreConfig configures profile persistence.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Silent  bool   `yaml:"silent"`
}

// RateLimitConfig limits scrape requests per client IP.
type RateLimitConfig struct {
	Requests int      `yaml:"requests"`
	Window   Duration `yaml:"window"`
	// Burst defaults to Requests when zero.
	Burst int `yaml:"burst"`
}

// Enabled reports whether rate limiting is active.
func (r RateLimitConfig) Enabled() bool {
	return r.Requests > 0 && !r.Window.IsZero()
}

// EnrichConfig tunes the merge engine.
type EnrichConfig struct {
	MatchImageNames bool `yaml:"match_image_names"`
}

// LoggingConfig selects log verbosity and format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ScrapeDeadline bounds a whole pipeline run: one fetch plus the two
// sequential model calls, with a little slack for extraction and merging.
func (c Config) ScrapeDeadline() time.Duration {
	return c.Fetch.Timeout.Duration + 2*c.AI.Timeout.Duration + 5*time.Second
}

// Default returns a Config populated with defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port: "2000",
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://127.0.0.1:3000",
			},
		},
		Fetch: FetchConfig{
			UserAgent:    "BrandProfilerBot/1.0 (+https://brandprofiler.app/bot)",
			Timeout:      DurationFrom(15 * time.Second),
			MaxBodyBytes: 5 * 1024 * 1024,
		},
		AI: AIConfig{
			Provider:    ProviderOpenAI,
			Temperature: 0.2,
			MaxTokens:   2048,
			Timeout:     DurationFrom(45 * time.Second),
			OpenAI: OpenAIConfig{
				BaseURL: "https://api.openai.com/v1",
			},
		},
		Store: StoreConfig{
			Enabled: true,
			Path:    "data/brand-profiles.db",
			Silent:  true,
		},
		RateLimit: RateLimitConfig{
			Requests: 30,
			Window:   DurationFrom(time.Minute),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when path is
// empty) and environment overrides. A .env file in the working directory is
// loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warn("load .env")
	}

	cfg := Default()
	if strings.TrimSpace(path) != "" {
		fh, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer fh.Close()
		if err := decodeYAML(fh, &cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromReader decodes YAML from r on top of the defaults. Environment
// variables are not consulted.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := decodeYAML(r, &cfg); err != nil {
		return nil, err
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeYAML(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	var errs []error
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			parsed, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = parsed
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			parsed, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = parsed
		}
	}
	duration := func(key string, dst *Duration) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			if err := dst.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
			}
		}
	}

	str("PORT", &c.Server.Port)
	if v, ok := lookup("ALLOWED_ORIGINS"); ok && strings.TrimSpace(v) != "" {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}

	str("SCRAPER_USER_AGENT", &c.Fetch.UserAgent)
	duration("FETCH_TIMEOUT", &c.Fetch.Timeout)
	if v, ok := lookup("FETCH_MAX_BODY_BYTES"); ok && strings.TrimSpace(v) != "" {
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("FETCH_MAX_BODY_BYTES: %w", err))
		} else {
			c.Fetch.MaxBodyBytes = parsed
		}
	}
	boolean("RESPECT_ROBOTS", &c.Fetch.RespectRobots)

	str("AI_PROVIDER", &c.AI.Provider)
	str("AI_FALLBACK_PROVIDER", &c.AI.FallbackProvider)
	str("OPENAI_API_KEY", &c.AI.OpenAI.APIKey)
	str("OPENAI_BASE_URL", &c.AI.OpenAI.BaseURL)
	str("OPENAI_MODEL", &c.AI.OpenAI.Model)
	str("GEMINI_API_KEY", &c.AI.Gemini.APIKey)
	str("GEMINI_MODEL", &c.AI.Gemini.Model)
	if v, ok := lookup("AI_TEMPERATURE"); ok && strings.TrimSpace(v) != "" {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("AI_TEMPERATURE: %w", err))
		} else {
			c.AI.Temperature = parsed
		}
	}
	integer("AI_MAX_TOKENS", &c.AI.MaxTokens)
	duration("AI_TIMEOUT", &c.AI.Timeout)
	boolean("DISABLE_AI", &c.AI.Disabled)

	str("BRAND_DB_PATH", &c.Store.Path)
	if v, ok := lookup("DISABLE_STORE"); ok && strings.TrimSpace(v) != "" {
		disabled, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("DISABLE_STORE: %w", err))
		} else {
			c.Store.Enabled = !disabled
		}
	}

	integer("RATE_LIMIT_REQUESTS", &c.RateLimit.Requests)
	duration("RATE_LIMIT_WINDOW", &c.RateLimit.Window)
	integer("RATE_LIMIT_BURST", &c.RateLimit.Burst)
	boolean("MATCH_IMAGE_NAMES", &c.Enrich.MatchImageNames)

	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)

	return errors.Join(errs...)
}

// Validate rejects settings the rest of the service cannot run with.
func (c Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server.port must be set")
	}
	if c.Fetch.UserAgent == "" {
		return errors.New("fetch.user_agent must be set")
	}
	if c.Fetch.Timeout.Duration <= 0 {
		return fmt.Errorf("fetch.timeout must be > 0 (got %s)", c.Fetch.Timeout.Duration)
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return fmt.Errorf("fetch.max_body_bytes must be > 0 (got %d)", c.Fetch.MaxBodyBytes)
	}
	if err := validateProvider("ai.provider", c.AI.Provider); err != nil {
		return err
	}
	if c.AI.FallbackProvider != "" {
		if err := validateProvider("ai.fallback_provider", c.AI.FallbackProvider); err != nil {
			return err
		}
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("ai.temperature must be within [0,2] (got %v)", c.AI.Temperature)
	}
	if c.AI.MaxTokens < 0 {
		return fmt.Errorf("ai.max_tokens must be >= 0 (got %d)", c.AI.MaxTokens)
	}
	if c.AI.Timeout.Duration <= 0 {
		return fmt.Errorf("ai.timeout must be > 0 (got %s)", c.AI.Timeout.Duration)
	}
	if c.Store.Enabled && c.Store.Path == "" {
		return errors.New("store.path must be set when the store is enabled")
	}
	if c.RateLimit.Requests < 0 {
		return fmt.Errorf("rate_limit.requests must be >= 0 (got %d)", c.RateLimit.Requests)
	}
	if c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit.burst must be >= 0 (got %d)", c.RateLimit.Burst)
	}
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json (got %q)", c.Logging.Format)
	}
	return nil
}

func validateProvider(field, value string) error {
	switch value {
	case ProviderOpenAI, ProviderGemini, ProviderNone:
		return nil
	default:
		return fmt.Errorf("%s must be one of openai, gemini, none (got %q)", field, value)
	}
}

func (c *Config) normalise() {
	c.Server.Port = strings.TrimSpace(c.Server.Port)
	origins := make([]string, 0, len(c.Server.AllowedOrigins))
	seen := make(map[string]struct{}, len(c.Server.AllowedOrigins))
	for _, origin := range c.Server.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if _, ok := seen[origin]; ok {
			continue
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}
	c.Server.AllowedOrigins = origins

	c.Fetch.UserAgent = strings.TrimSpace(c.Fetch.UserAgent)
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	c.AI.FallbackProvider = strings.ToLower(strings.TrimSpace(c.AI.FallbackProvider))
	c.Store.Path = strings.TrimSpace(c.Store.Path)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
}

// ConfigureLogger applies the logging section to the standard logrus logger.
func (l LoggingConfig) ConfigureLogger() {
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if l.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
