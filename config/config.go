package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	Environment string `toml:"environment"`

	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
	Database DatabaseConfig `toml:"database"`

	// Market data
	Quotes QuotesConfig `toml:"quotes"`
	Alpaca AlpacaConfig `toml:"alpaca"`

	// AI narrative generation
	Narrative NarrativeConfig `toml:"narrative"`

	Auth AuthConfig `toml:"auth"`
	HTTP HTTPConfig `toml:"http"`
	App  AppConfig  `toml:"app"`
}

// ServerConfig holds the listen address
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `toml:"level"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL         string `toml:"url"`
	AutoMigrate bool   `toml:"auto_migrate"`
}

// QuotesConfig holds quote provider configuration
type QuotesConfig struct {
	BaseURL         string `toml:"base_url"`
	RateLimit       int    `toml:"rate_limit"` // requests per second
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	CacheTTLSeconds int    `toml:"cache_ttl_seconds"`
	HistoryDays     int    `toml:"history_days"`
	HistorySource   string `toml:"history_source"` // yahoo or alpaca
}

// AlpacaConfig holds Alpaca market data configuration
type AlpacaConfig struct {
	APIKey    string `toml:"api_key"`
	APISecret string `toml:"api_secret"`
	DataURL   string `toml:"data_url"`
	Feed      string `toml:"feed"`
}

// NarrativeConfig selects and configures the LLM used for stock analysis
type NarrativeConfig struct {
	Provider       string        `toml:"provider"` // openai, gemini, bedrock or none
	TimeoutSeconds int           `toml:"timeout_seconds"`
	OpenAI         OpenAIConfig  `toml:"openai"`
	Gemini         GeminiConfig  `toml:"gemini"`
	Bedrock        BedrockConfig `toml:"bedrock"`
}

// OpenAIConfig holds configuration for any OpenAI-compatible chat endpoint.
// The default endpoint is Groq.
type OpenAIConfig struct {
	APIKey      string  `toml:"api_key"`
	BaseURL     string  `toml:"base_url"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
}

// GeminiConfig holds Google Gemini configuration
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// BedrockConfig holds AWS Bedrock configuration
type BedrockConfig struct {
	Region           string `toml:"region"`
	ModelID          string `toml:"model_id"`
	MaxTokens        int    `toml:"max_tokens"`
	AnthropicVersion string `toml:"anthropic_version"`
}

// AuthConfig holds bearer token verification settings
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
	Issuer    string `toml:"issuer"`
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	CORSAllowedOrigins    string `toml:"cors_allowed_origins"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// AppConfig holds orchestration limits
type AppConfig struct {
	AnalysisConcurrency  int `toml:"analysis_concurrency"`
	WatchlistConcurrency int `toml:"watchlist_concurrency"`
}

const (
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
	ProviderBedrock = "bedrock"
	ProviderNone    = "none"

	HistorySourceYahoo  = "yahoo"
	HistorySourceAlpaca = "alpaca"
)

// NewDefaultConfig returns the built-in defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Log: LogConfig{
			Level: "info",
		},
		Database: DatabaseConfig{
			AutoMigrate: true,
		},
		Quotes: QuotesConfig{
			BaseURL:         "https://query1.finance.yahoo.com",
			RateLimit:       5,
			TimeoutSeconds:  10,
			CacheTTLSeconds: 60,
			HistoryDays:     180,
			HistorySource:   HistorySourceYahoo,
		},
		Alpaca: AlpacaConfig{
			DataURL: "https://data.alpaca.markets",
			Feed:    "iex",
		},
		Narrative: NarrativeConfig{
			Provider:       ProviderOpenAI,
			TimeoutSeconds: 60,
			OpenAI: OpenAIConfig{
				BaseURL:     "https://api.groq.com/openai/v1",
				Model:       "llama-3.3-70b-versatile",
				MaxTokens:   1000,
				Temperature: 0.7,
			},
			Gemini: GeminiConfig{
				Model: "gemini-2.0-flash",
			},
			Bedrock: BedrockConfig{
				Region:           "us-east-1",
				ModelID:          "anthropic.claude-3-5-sonnet-20241022-v2:0",
				MaxTokens:        1000,
				AnthropicVersion: "bedrock-2023-05-31",
			},
		},
		HTTP: HTTPConfig{
			CORSAllowedOrigins:    "*",
			RequestTimeoutSeconds: 60,
		},
		App: AppConfig{
			AnalysisConcurrency:  3,
			WatchlistConcurrency: 5,
		},
	}
}

// Load builds configuration from defaults, then each TOML file in order
// (missing files are skipped), then environment variables.
func Load(paths ...string) (*Config, error) {
	cfg := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Environment = getEnvString("STOCKUP_ENV", cfg.Environment)

	cfg.Server.Host = getEnvString("HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvInt("PORT", cfg.Server.Port)
	cfg.Log.Level = getEnvString("LOG_LEVEL", cfg.Log.Level)

	cfg.Database.URL = getEnvString("DATABASE_URL", cfg.Database.URL)
	cfg.Database.AutoMigrate = getEnvBool("DATABASE_AUTO_MIGRATE", cfg.Database.AutoMigrate)

	cfg.Quotes.BaseURL = getEnvString("QUOTES_BASE_URL", cfg.Quotes.BaseURL)
	cfg.Quotes.RateLimit = getEnvInt("QUOTES_RATE_LIMIT", cfg.Quotes.RateLimit)
	cfg.Quotes.TimeoutSeconds = getEnvInt("QUOTES_TIMEOUT_SECONDS", cfg.Quotes.TimeoutSeconds)
	cfg.Quotes.CacheTTLSeconds = getEnvInt("QUOTES_CACHE_TTL_SECONDS", cfg.Quotes.CacheTTLSeconds)
	cfg.Quotes.HistoryDays = getEnvInt("QUOTES_HISTORY_DAYS", cfg.Quotes.HistoryDays)
	cfg.Quotes.HistorySource = strings.ToLower(getEnvString("QUOTES_HISTORY_SOURCE", cfg.Quotes.HistorySource))

	cfg.Alpaca.APIKey = getEnvString("ALPACA_API_KEY", cfg.Alpaca.APIKey)
	cfg.Alpaca.APISecret = getEnvString("ALPACA_API_SECRET", cfg.Alpaca.APISecret)
	cfg.Alpaca.DataURL = getEnvString("ALPACA_DATA_URL", cfg.Alpaca.DataURL)
	cfg.Alpaca.Feed = getEnvString("ALPACA_FEED", cfg.Alpaca.Feed)

	n := &cfg.Narrative
	n.Provider = strings.ToLower(getEnvString("NARRATIVE_PROVIDER", n.Provider))
	n.TimeoutSeconds = getEnvInt("NARRATIVE_TIMEOUT_SECONDS", n.TimeoutSeconds)

	// GROQ_API_KEY is accepted for the default endpoint
	n.OpenAI.APIKey = getEnvString("GROQ_API_KEY", n.OpenAI.APIKey)
	n.OpenAI.APIKey = getEnvString("OPENAI_API_KEY", n.OpenAI.APIKey)
	n.OpenAI.BaseURL = getEnvString("OPENAI_BASE_URL", n.OpenAI.BaseURL)
	n.OpenAI.Model = getEnvString("OPENAI_MODEL", n.OpenAI.Model)
	n.OpenAI.MaxTokens = getEnvInt("OPENAI_MAX_TOKENS", n.OpenAI.MaxTokens)
	n.OpenAI.Temperature = getEnvFloatRange("OPENAI_TEMPERATURE", n.OpenAI.Temperature, 0, 2)

	n.Gemini.APIKey = getEnvString("GEMINI_API_KEY", n.Gemini.APIKey)
	n.Gemini.Model = getEnvString("GEMINI_MODEL", n.Gemini.Model)

	n.Bedrock.Region = getEnvString("AWS_REGION", n.Bedrock.Region)
	n.Bedrock.ModelID = getEnvString("BEDROCK_MODEL_ID", n.Bedrock.ModelID)
	n.Bedrock.MaxTokens = getEnvInt("BEDROCK_MAX_TOKENS", n.Bedrock.MaxTokens)
	n.Bedrock.AnthropicVersion = getEnvString("BEDROCK_ANTHROPIC_VERSION", n.Bedrock.AnthropicVersion)

	cfg.Auth.JWTSecret = getEnvString("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.Issuer = getEnvString("JWT_ISSUER", cfg.Auth.Issuer)

	cfg.HTTP.CORSAllowedOrigins = getEnvString("CORS_ALLOWED_ORIGINS", cfg.HTTP.CORSAllowedOrigins)
	cfg.HTTP.RequestTimeoutSeconds = getEnvInt("HTTP_REQUEST_TIMEOUT_SECONDS", cfg.HTTP.RequestTimeoutSeconds)

	cfg.App.AnalysisConcurrency = getEnvInt("ANALYSIS_CONCURRENCY_LIMIT", cfg.App.AnalysisConcurrency)
	cfg.App.WatchlistConcurrency = getEnvInt("WATCHLIST_CONCURRENCY_LIMIT", cfg.App.WatchlistConcurrency)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", c.Log.Level)
	}

	switch c.Narrative.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderBedrock, ProviderNone:
	default:
		return fmt.Errorf("NARRATIVE_PROVIDER must be one of openai, gemini, bedrock, none, got %q", c.Narrative.Provider)
	}

	switch c.Quotes.HistorySource {
	case HistorySourceYahoo, HistorySourceAlpaca:
	default:
		return fmt.Errorf("QUOTES_HISTORY_SOURCE must be yahoo or alpaca, got %q", c.Quotes.HistorySource)
	}
	if c.Quotes.HistorySource == HistorySourceAlpaca && !c.HasAlpaca() {
		return fmt.Errorf("QUOTES_HISTORY_SOURCE=alpaca requires ALPACA_API_KEY and ALPACA_API_SECRET")
	}

	if c.Narrative.OpenAI.Temperature < 0 || c.Narrative.OpenAI.Temperature > 2 {
		return fmt.Errorf("OPENAI_TEMPERATURE must be between 0 and 2, got %.2f", c.Narrative.OpenAI.Temperature)
	}

	// Validate positive integers
	if c.Quotes.RateLimit <= 0 {
		return fmt.Errorf("QUOTES_RATE_LIMIT must be positive, got %d", c.Quotes.RateLimit)
	}
	if c.Quotes.TimeoutSeconds <= 0 {
		return fmt.Errorf("QUOTES_TIMEOUT_SECONDS must be positive, got %d", c.Quotes.TimeoutSeconds)
	}
	if c.Quotes.HistoryDays <= 0 {
		return fmt.Errorf("QUOTES_HISTORY_DAYS must be positive, got %d", c.Quotes.HistoryDays)
	}
	if c.App.AnalysisConcurrency <= 0 {
		return fmt.Errorf("ANALYSIS_CONCURRENCY_LIMIT must be positive, got %d", c.App.AnalysisConcurrency)
	}
	if c.App.WatchlistConcurrency <= 0 {
		return fmt.Errorf("WATCHLIST_CONCURRENCY_LIMIT must be positive, got %d", c.App.WatchlistConcurrency)
	}

	return nil
}

// IsProduction returns true when running in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// HasDatabase returns true if database configuration is available
func (c *Config) HasDatabase() bool {
	return c.Database.URL != ""
}

// HasAlpaca returns true if Alpaca configuration is available
func (c *Config) HasAlpaca() bool {
	return c.Alpaca.APIKey != "" && c.Alpaca.APISecret != ""
}

// HasNarrative returns true if the selected narrative provider can be built.
// Bedrock resolves credentials from the AWS default chain.
func (c *Config) HasNarrative() bool {
	switch c.Narrative.Provider {
	case ProviderOpenAI:
		return c.Narrative.OpenAI.APIKey != ""
	case ProviderGemini:
		return c.Narrative.Gemini.APIKey != ""
	case ProviderBedrock:
		return c.Narrative.Bedrock.Region != ""
	default:
		return false
	}
}

// HasAuth returns true if bearer tokens can be verified
func (c *Config) HasAuth() bool {
	return c.Auth.JWTSecret != ""
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloatRange(key string, defaultValue, minVal, maxVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil && parsed >= minVal && parsed <= maxVal {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.Environment = "test"
	cfg.Database.AutoMigrate = false
	cfg.Narrative.Provider = ProviderNone
	cfg.Auth.JWTSecret = "test-secret"
	return cfg
}
