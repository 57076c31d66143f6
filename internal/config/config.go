package config

import (
	"embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/khushisara1/news-digest/internal/classify"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

const appName = "newsdigest"

// Env var names for secrets. Values set in the config file take precedence.
const (
	EnvNewsAPIKey   = "NEWSAPI_KEY"
	EnvGeminiKey    = "GEMINI_API_KEY"
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvRedisURL     = "REDIS_URL"
)

const (
	MinLimit = 5
	MaxLimit = 50
)

// Regions maps supported region codes to display names.
var Regions = map[string]string{
	"us": "United States",
	"gb": "United Kingdom",
	"ca": "Canada",
	"au": "Australia",
	"in": "India",
	"ie": "Ireland",
	"nz": "New Zealand",
	"sg": "Singapore",
	"za": "South Africa",
	"de": "Germany",
	"fr": "France",
}

// RegionCodes returns the supported region codes in display order.
func RegionCodes() []string {
	return []string{"us", "gb", "ca", "au", "in", "ie", "nz", "sg", "za", "de", "fr"}
}

type Preferences struct {
	Topics    []string `yaml:"topics" json:"topics"`
	Region    string   `yaml:"region" json:"region"`
	Frequency string   `yaml:"frequency" json:"frequency"` // "daily" or "weekly"
	Keywords  string   `yaml:"keywords" json:"keywords"`
	Limit     int      `yaml:"limit" json:"limit"`
	Sort      string   `yaml:"sort" json:"sort"` // "latest" or "relevance"
}

// Window returns how far back keyword searches reach for the chosen frequency.
func (p Preferences) Window() time.Duration {
	if strings.EqualFold(p.Frequency, "weekly") {
		return 7 * 24 * time.Hour
	}
	return 24 * time.Hour
}

type NewsConfig struct {
	Provider      string             `yaml:"provider"` // "newsapi" or "rss"
	APIKey        string             `yaml:"api_key,omitempty"`
	BaseURL       string             `yaml:"base_url"`
	Language      string             `yaml:"language"`
	PageSize      int                `yaml:"page_size"`
	QPS           float64            `yaml:"qps"`
	FullText      bool               `yaml:"full_text"`
	SourceWeights map[string]float64 `yaml:"source_weights,omitempty"`
}

type AIConfig struct {
	Provider  string  `yaml:"provider"` // "gemini", "openai" or "claude"
	APIKey    string  `yaml:"api_key,omitempty"`
	Model     string  `yaml:"model"`
	BaseURL   string  `yaml:"base_url,omitempty"`
	QPS       float64 `yaml:"qps"`
	BatchSize int     `yaml:"batch_size"`
}

type CacheConfig struct {
	Backend  string `yaml:"backend"` // "bolt", "redis" or "memory"
	TTL      string `yaml:"ttl"`
	RedisURL string `yaml:"redis_url,omitempty"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type Config struct {
	Preferences Preferences  `yaml:"preferences"`
	News        NewsConfig   `yaml:"news"`
	AI          AIConfig     `yaml:"ai"`
	Cache       CacheConfig  `yaml:"cache"`
	Log         LogConfig    `yaml:"log"`
	Server      ServerConfig `yaml:"server"`
}

// NewsAPIKey returns the resolved news API key (config or env var).
func (c *Config) NewsAPIKey() string {
	if c.News.APIKey != "" {
		return c.News.APIKey
	}
	return os.Getenv(EnvNewsAPIKey)
}

// AIKey returns the resolved generative API key for the configured provider.
func (c *Config) AIKey() string {
	if c.AI.APIKey != "" {
		return c.AI.APIKey
	}
	switch c.AI.Provider {
	case "openai":
		return os.Getenv(EnvOpenAIKey)
	case "claude":
		return os.Getenv(EnvAnthropicKey)
	default:
		return os.Getenv(EnvGeminiKey)
	}
}

// AIEnabled returns true if a generative API key is available.
func (c *Config) AIEnabled() bool {
	return c.AIKey() != ""
}

// RedisURL returns the redis address for the redis cache backend.
func (c *Config) RedisURL() string {
	if c.Cache.RedisURL != "" {
		return c.Cache.RedisURL
	}
	return os.Getenv(EnvRedisURL)
}

func (c *Config) CacheTTL() time.Duration {
	d, err := ParseDuration(c.Cache.TTL)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// GetBatchSize returns the summarization batch size, defaulting to 20.
func (c *Config) GetBatchSize() int {
	if c.AI.BatchSize <= 0 {
		return 20
	}
	return c.AI.BatchSize
}

// TopicPageSize caps each per-topic headline request.
func (c *Config) TopicPageSize() int {
	if c.News.PageSize <= 0 {
		return 20
	}
	return c.News.PageSize
}

// ParseDuration accepts Go durations plus an "Nd" day suffix.
func ParseDuration(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// DataPath is the SQLite database holding saved items and digests.
func DataPath() string {
	return filepath.Join(xdg.DataHome, appName, "digests.db")
}

// CachePath is the bbolt file backing the fetch/summary cache.
func CachePath() string {
	return filepath.Join(xdg.CacheHome, appName, "cache.bolt")
}

func LogPath() string {
	return filepath.Join(xdg.StateHome, appName, appName+".log")
}

// LoadEnv loads a .env file into the process environment. A missing file is not an error.
func LoadEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads the config at path layered over the embedded defaults.
// An empty path means DefaultConfigPath.
func Load(path string) (*Config, error) {
	cfg, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Non-fatal: the embedded defaults are still usable.
			_ = writeDefaults(path)
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Unmarshal over the defaults so omitted keys keep their default values.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	normalize(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes cfg to path as YAML, creating parent directories.
func Save(path string, cfg *Config) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func normalize(cfg *Config) {
	p := &cfg.Preferences
	p.Region = strings.ToLower(strings.TrimSpace(p.Region))
	p.Frequency = strings.ToLower(strings.TrimSpace(p.Frequency))
	p.Sort = strings.ToLower(strings.TrimSpace(p.Sort))
	p.Keywords = strings.TrimSpace(p.Keywords)
	for i, t := range p.Topics {
		if topic, err := classify.ResolveAlias(t); err == nil {
			p.Topics[i] = string(topic)
		}
	}
	cfg.News.Provider = strings.ToLower(strings.TrimSpace(cfg.News.Provider))
	cfg.AI.Provider = strings.ToLower(strings.TrimSpace(cfg.AI.Provider))
	cfg.Cache.Backend = strings.ToLower(strings.TrimSpace(cfg.Cache.Backend))
}

// ValidatePreferences checks the user-facing digest options.
func ValidatePreferences(p Preferences) error {
	for _, t := range p.Topics {
		if _, err := classify.ResolveAlias(t); err != nil {
			return fmt.Errorf("preferences: %w", err)
		}
	}
	if _, ok := Regions[p.Region]; !ok {
		return fmt.Errorf("preferences: unknown region %q", p.Region)
	}
	switch p.Frequency {
	case "daily", "weekly":
	default:
		return fmt.Errorf("preferences: frequency must be daily or weekly, got %q", p.Frequency)
	}
	if p.Limit < MinLimit || p.Limit > MaxLimit {
		return fmt.Errorf("preferences: limit must be between %d and %d, got %d", MinLimit, MaxLimit, p.Limit)
	}
	switch p.Sort {
	case "", "latest", "relevance":
	default:
		return fmt.Errorf("preferences: sort must be latest or relevance, got %q", p.Sort)
	}
	return nil
}

// Validate checks a loaded config for unknown providers and malformed values.
func Validate(cfg *Config) error {
	if err := ValidatePreferences(cfg.Preferences); err != nil {
		return err
	}

	switch cfg.News.Provider {
	case "newsapi", "rss":
	default:
		return fmt.Errorf("news: unknown provider %q (valid: newsapi, rss)", cfg.News.Provider)
	}
	if err := validateURL("news.base_url", cfg.News.BaseURL); err != nil {
		return err
	}

	switch cfg.AI.Provider {
	case "gemini", "openai", "claude":
	default:
		return fmt.Errorf("ai: unknown provider %q (valid: gemini, openai, claude)", cfg.AI.Provider)
	}
	if err := validateURL("ai.base_url", cfg.AI.BaseURL); err != nil {
		return err
	}

	switch cfg.Cache.Backend {
	case "bolt", "redis", "memory":
	default:
		return fmt.Errorf("cache: unknown backend %q (valid: bolt, redis, memory)", cfg.Cache.Backend)
	}
	if cfg.Cache.TTL != "" {
		if _, err := ParseDuration(cfg.Cache.TTL); err != nil {
			return fmt.Errorf("cache: invalid ttl %q: %w", cfg.Cache.TTL, err)
		}
	}
	return nil
}

func validateURL(field, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: invalid url: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s: url scheme must be http or https, got %q", field, u.Scheme)
	}
	return nil
}
