package common

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Named thresholds. Both are overridable through config.
const (
	// DefaultMinContentLength is the shortest extraction accepted as a full article.
	DefaultMinContentLength = 300
	// DefaultMinEnhancedLength is the shortest generated output accepted as an enhancement.
	DefaultMinEnhancedLength = 50
	// DefaultMaxPages bounds the number of listing pages a single crawl fetches.
	DefaultMaxPages = 50
	// DefaultReferenceLimit is the number of search results consulted per article.
	DefaultReferenceLimit = 2
)

// Config represents the application configuration
type Config struct {
	Environment string            `toml:"environment"` // "development" or "production"
	Server      ServerConfig      `toml:"server"`
	Storage     StorageConfig     `toml:"storage"`
	Logging     LoggingConfig     `toml:"logging"`
	Crawler     CrawlerConfig     `toml:"crawler"`
	Search      SearchConfig      `toml:"search"`
	Gemini      GeminiConfig      `toml:"gemini"`
	Claude      ClaudeConfig      `toml:"claude"`
	LLM         LLMConfig         `toml:"llm"`
	Enhancement EnhancementConfig `toml:"enhancement"`
	Scheduler   SchedulerConfig   `toml:"scheduler"`
	WebSocket   WebSocketConfig   `toml:"websocket"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"min=1,max=65535"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=debug info warn error"` // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`                                      // "stdout", "file"
	TimeFormat string   `toml:"time_format"`                                 // Time format for logs (default: "15:04:05")
}

// CrawlerConfig controls listing discovery, page fetching and content extraction
type CrawlerConfig struct {
	SeedURL            string   `toml:"seed_url" validate:"required,url"` // First listing page
	IncludePattern     string   `toml:"include_pattern"`                  // Substring an article link must contain
	ExcludePatterns    []string `toml:"exclude_patterns"`                 // Substrings that disqualify a link (pagination, fragments)
	NextSelector       string   `toml:"next_selector" validate:"required"`
	MaxPages           int      `toml:"max_pages" validate:"min=1"`   // Upper bound on listing page fetches
	SelectLast         int      `toml:"select_last" validate:"min=1"` // Trailing slice of discovered links processed per run
	UserAgent          string   `toml:"user_agent" validate:"required"`
	RequestTimeout     string   `toml:"request_timeout"` // Duration string (default: "30s")
	RequestDelay       string   `toml:"request_delay"`   // Minimum delay between requests to the same host (default: "500ms")
	MaxRetries         int      `toml:"max_retries" validate:"min=1"`
	MinContentLength   int      `toml:"min_content_length" validate:"min=0"`   // Acquisition gate
	MinParagraphLength int      `toml:"min_paragraph_length" validate:"min=0"` // Paragraph fallback threshold
}

// SearchConfig contains the reference search backend settings
type SearchConfig struct {
	Provider string `toml:"provider" validate:"oneof=serper gemini"` // "serper" (default) or "gemini"
	APIKey   string `toml:"api_key"`                                 // Serper API key
	Endpoint string `toml:"endpoint" validate:"omitempty,url"`
	Limit    int    `toml:"limit" validate:"min=1,max=10"`
	Timeout  string `toml:"timeout"`
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey    string `toml:"api_key"`    // Google Gemini API key
	Model     string `toml:"model"`      // Model for generation and grounded search
	Timeout   string `toml:"timeout"`    // Operation timeout as duration string (default: "2m")
	RateLimit string `toml:"rate_limit"` // Minimum time between requests (default: "4s" for 15 RPM)
	BaseURL   string `toml:"base_url"`   // Optional API endpoint override (proxies, tests)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey    string `toml:"api_key"`
	Model     string `toml:"model"`
	MaxTokens int    `toml:"max_tokens" validate:"min=1"`
	Timeout   string `toml:"timeout"`
}

// LLMProvider represents the generation provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
	// LLMProviderOffline renders the enhancement template locally without an API
	LLMProviderOffline LLMProvider = "offline"
)

// LLMConfig contains provider-independent generation settings
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider" validate:"oneof=gemini claude offline"`
	Temperature     float32     `toml:"temperature" validate:"gte=0,lte=2"`
}

// EnhancementConfig controls the enhancement orchestrator
type EnhancementConfig struct {
	Concurrency           int  `toml:"concurrency" validate:"min=1,max=16"` // Bulk worker count (1 = sequential)
	ContinueOnSearchError bool `toml:"continue_on_search_error"`            // Proceed with zero references when search fails
	MinEnhancedLength     int  `toml:"min_enhanced_length" validate:"min=0"`
}

// SchedulerConfig controls the periodic pipeline run
type SchedulerConfig struct {
	Enabled       bool   `toml:"enabled"`
	Schedule      string `toml:"schedule"`        // Cron schedule format (5 fields)
	ScrapeOnEmpty bool   `toml:"scrape_on_empty"` // Run acquisition at startup when no articles are stored
}

// WebSocketConfig contains configuration for the status stream
type WebSocketConfig struct {
	Enabled         bool   `toml:"enabled"`
	PingInterval    string `toml:"ping_interval"`    // Keepalive interval (default: "30s")
	BroadcastLimit  string `toml:"broadcast_limit"`  // Minimum time between broadcasts of the same event type
	AllowAllOrigins bool   `toml:"allow_all_origins"` // Skip origin checks (development only)
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Crawler: CrawlerConfig{
			SeedURL:            "https://beyondchats.com/blogs/",
			IncludePattern:     "/blogs/",
			ExcludePatterns:    []string{"/page/", "#", "/tag/", "/category/"},
			NextSelector:       "a.next",
			MaxPages:           DefaultMaxPages,
			SelectLast:         5,
			UserAgent:          "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			RequestTimeout:     "30s",
			RequestDelay:       "500ms",
			MaxRetries:         3,
			MinContentLength:   DefaultMinContentLength,
			MinParagraphLength: 40,
		},
		Search: SearchConfig{
			Provider: "serper",
			Endpoint: "https://google.serper.dev/search",
			Limit:    DefaultReferenceLimit,
			Timeout:  "20s",
		},
		Gemini: GeminiConfig{
			Model:     "gemini-3-flash-preview",
			Timeout:   "2m",
			RateLimit: "4s",
		},
		Claude: ClaudeConfig{
			Model:     "claude-haiku-4-5",
			MaxTokens: 4096,
			Timeout:   "2m",
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
			Temperature:     0.4,
		},
		Enhancement: EnhancementConfig{
			Concurrency:           1,
			ContinueOnSearchError: true,
			MinEnhancedLength:     DefaultMinEnhancedLength,
		},
		Scheduler: SchedulerConfig{
			Enabled:       false,
			Schedule:      "0 */6 * * *",
			ScrapeOnEmpty: true,
		},
		WebSocket: WebSocketConfig{
			Enabled:        true,
			PingInterval:   "30s",
			BroadcastLimit: "250ms",
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env
// Later files override earlier files. CLI flags are applied afterwards by ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal merges into existing values
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SCRIBE_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("SCRIBE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("SCRIBE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("SCRIBE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("SCRIBE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("SCRIBE_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Crawler configuration
	if seed := os.Getenv("SCRIBE_SEED_URL"); seed != "" {
		config.Crawler.SeedURL = seed
	}
	if minLen := os.Getenv("SCRIBE_MIN_CONTENT_LENGTH"); minLen != "" {
		if n, err := strconv.Atoi(minLen); err == nil {
			config.Crawler.MinContentLength = n
		}
	}

	// Search configuration
	if provider := os.Getenv("SCRIBE_SEARCH_PROVIDER"); provider != "" {
		config.Search.Provider = provider
	}
	if key := firstEnv("SCRIBE_SEARCH_API_KEY", "SERPER_API_KEY"); key != "" {
		config.Search.APIKey = key
	}

	// LLM configuration
	if provider := os.Getenv("SCRIBE_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
	if temp := os.Getenv("SCRIBE_LLM_TEMPERATURE"); temp != "" {
		if t, err := strconv.ParseFloat(temp, 32); err == nil {
			config.LLM.Temperature = float32(t)
		}
	}
	if key := firstEnv("SCRIBE_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if key := firstEnv("SCRIBE_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}

	// Enhancement configuration
	if cont := os.Getenv("SCRIBE_CONTINUE_ON_SEARCH_ERROR"); cont != "" {
		if b, err := strconv.ParseBool(cont); err == nil {
			config.Enhancement.ContinueOnSearchError = b
		}
	}
	if minLen := os.Getenv("SCRIBE_MIN_ENHANCED_LENGTH"); minLen != "" {
		if n, err := strconv.Atoi(minLen); err == nil {
			config.Enhancement.MinEnhancedLength = n
		}
	}
	if concurrency := os.Getenv("SCRIBE_ENHANCE_CONCURRENCY"); concurrency != "" {
		if n, err := strconv.Atoi(concurrency); err == nil {
			config.Enhancement.Concurrency = n
		}
	}
}

// firstEnv returns the first non-empty environment variable among names
func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string, logLevel string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
	if logLevel != "" {
		config.Logging.Level = logLevel
	}
}

// Validate checks struct constraints and cross-field rules
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed '%s'", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Scheduler.Enabled {
		if err := ValidateSchedule(c.Scheduler.Schedule); err != nil {
			return fmt.Errorf("invalid scheduler.schedule: %w", err)
		}
	}

	return nil
}

// ValidateSchedule validates a cron schedule expression and ensures minimum 5-minute interval
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	parts := strings.Fields(schedule)
	if len(parts) < 5 {
		return fmt.Errorf("invalid cron format: expected 5 fields")
	}

	minuteField := parts[0]
	if minuteField == "*" {
		return fmt.Errorf("schedule must have minimum 5-minute interval (every minute is not allowed)")
	}

	if strings.HasPrefix(minuteField, "*/") {
		interval, err := strconv.Atoi(strings.TrimPrefix(minuteField, "*/"))
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}

	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ParseDuration parses a duration string, returning fallback when empty or invalid
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
