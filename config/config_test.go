package config

import (
	"os"
	"path/filepath"
	"testing"
)

// saveEnv saves current environment variables for restoration
func saveEnv(t *testing.T, keys []string) map[string]string {
	t.Helper()
	saved := make(map[string]string)
	for _, key := range keys {
		saved[key] = os.Getenv(key)
	}
	return saved
}

// restoreEnv restores previously saved environment variables
func restoreEnv(t *testing.T, saved map[string]string) {
	t.Helper()
	for key, val := range saved {
		if val == "" {
			os.Unsetenv(key)
		} else {
			os.Setenv(key, val)
		}
	}
}

// clearEnv clears environment variables
func clearEnv(t *testing.T, keys []string) {
	t.Helper()
	for _, key := range keys {
		os.Unsetenv(key)
	}
}

var allEnvKeys = []string{
	"STOCKUP_ENV",
	"HOST",
	"PORT",
	"LOG_LEVEL",
	"DATABASE_URL",
	"DATABASE_AUTO_MIGRATE",
	"QUOTES_BASE_URL",
	"QUOTES_RATE_LIMIT",
	"QUOTES_TIMEOUT_SECONDS",
	"QUOTES_CACHE_TTL_SECONDS",
	"QUOTES_HISTORY_DAYS",
	"QUOTES_HISTORY_SOURCE",
	"ALPACA_API_KEY",
	"ALPACA_API_SECRET",
	"ALPACA_DATA_URL",
	"ALPACA_FEED",
	"NARRATIVE_PROVIDER",
	"NARRATIVE_TIMEOUT_SECONDS",
	"GROQ_API_KEY",
	"OPENAI_API_KEY",
	"OPENAI_BASE_URL",
	"OPENAI_MODEL",
	"OPENAI_MAX_TOKENS",
	"OPENAI_TEMPERATURE",
	"GEMINI_API_KEY",
	"GEMINI_MODEL",
	"AWS_REGION",
	"BEDROCK_MODEL_ID",
	"BEDROCK_MAX_TOKENS",
	"BEDROCK_ANTHROPIC_VERSION",
	"JWT_SECRET",
	"JWT_ISSUER",
	"CORS_ALLOWED_ORIGINS",
	"HTTP_REQUEST_TIMEOUT_SECONDS",
	"ANALYSIS_CONCURRENCY_LIMIT",
	"WATCHLIST_CONCURRENCY_LIMIT",
}

func withCleanEnv(t *testing.T) {
	t.Helper()
	saved := saveEnv(t, allEnvKeys)
	t.Cleanup(func() { restoreEnv(t, saved) })
	clearEnv(t, allEnvKeys)
}

func TestLoad_Defaults(t *testing.T) {
	withCleanEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with defaults failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected Port=8080, got %d", cfg.Server.Port)
	}
	if cfg.Narrative.Provider != ProviderOpenAI {
		t.Errorf("expected Provider=openai, got %s", cfg.Narrative.Provider)
	}
	if cfg.Narrative.OpenAI.BaseURL != "https://api.groq.com/openai/v1" {
		t.Errorf("expected Groq base URL, got %s", cfg.Narrative.OpenAI.BaseURL)
	}
	if cfg.Narrative.OpenAI.Model != "llama-3.3-70b-versatile" {
		t.Errorf("expected llama-3.3-70b-versatile, got %s", cfg.Narrative.OpenAI.Model)
	}
	if cfg.Narrative.OpenAI.MaxTokens != 1000 {
		t.Errorf("expected MaxTokens=1000, got %d", cfg.Narrative.OpenAI.MaxTokens)
	}
	if cfg.Narrative.OpenAI.Temperature != 0.7 {
		t.Errorf("expected Temperature=0.7, got %f", cfg.Narrative.OpenAI.Temperature)
	}
	if cfg.Narrative.Bedrock.AnthropicVersion != "bedrock-2023-05-31" {
		t.Errorf("expected AnthropicVersion='bedrock-2023-05-31', got %s", cfg.Narrative.Bedrock.AnthropicVersion)
	}
	if cfg.Quotes.HistoryDays != 180 {
		t.Errorf("expected HistoryDays=180, got %d", cfg.Quotes.HistoryDays)
	}
	if cfg.Quotes.HistorySource != HistorySourceYahoo {
		t.Errorf("expected HistorySource=yahoo, got %s", cfg.Quotes.HistorySource)
	}
	if cfg.App.AnalysisConcurrency != 3 {
		t.Errorf("expected AnalysisConcurrency=3, got %d", cfg.App.AnalysisConcurrency)
	}
	if cfg.HTTP.CORSAllowedOrigins != "*" {
		t.Errorf("expected CORSAllowedOrigins='*', got %s", cfg.HTTP.CORSAllowedOrigins)
	}
	if !cfg.Database.AutoMigrate {
		t.Error("expected AutoMigrate=true by default")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	withCleanEnv(t)

	os.Setenv("DATABASE_URL", "postgres://localhost/test")
	os.Setenv("PORT", "9090")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("NARRATIVE_PROVIDER", "Gemini")
	os.Setenv("GEMINI_API_KEY", "gemini-key")
	os.Setenv("AWS_REGION", "us-west-2")
	os.Setenv("BEDROCK_MAX_TOKENS", "2048")
	os.Setenv("ALPACA_API_KEY", "test-key")
	os.Setenv("ALPACA_API_SECRET", "test-secret")
	os.Setenv("QUOTES_HISTORY_SOURCE", "alpaca")
	os.Setenv("OPENAI_TEMPERATURE", "0.2")
	os.Setenv("JWT_SECRET", "s3cret")
	os.Setenv("ANALYSIS_CONCURRENCY_LIMIT", "5")
	os.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with custom values failed: %v", err)
	}

	if cfg.Database.URL != "postgres://localhost/test" {
		t.Errorf("expected Database.URL='postgres://localhost/test', got %s", cfg.Database.URL)
	}
	if cfg.Server.Addr() != "0.0.0.0:9090" {
		t.Errorf("expected Addr=0.0.0.0:9090, got %s", cfg.Server.Addr())
	}
	if cfg.Narrative.Provider != ProviderGemini {
		t.Errorf("expected Provider=gemini, got %s", cfg.Narrative.Provider)
	}
	if !cfg.HasNarrative() {
		t.Error("expected HasNarrative() with gemini key set")
	}
	if cfg.Narrative.Bedrock.Region != "us-west-2" {
		t.Errorf("expected Bedrock.Region='us-west-2', got %s", cfg.Narrative.Bedrock.Region)
	}
	if cfg.Narrative.Bedrock.MaxTokens != 2048 {
		t.Errorf("expected Bedrock.MaxTokens=2048, got %d", cfg.Narrative.Bedrock.MaxTokens)
	}
	if cfg.Quotes.HistorySource != HistorySourceAlpaca {
		t.Errorf("expected HistorySource=alpaca, got %s", cfg.Quotes.HistorySource)
	}
	if cfg.Narrative.OpenAI.Temperature != 0.2 {
		t.Errorf("expected Temperature=0.2, got %f", cfg.Narrative.OpenAI.Temperature)
	}
	if !cfg.HasAuth() {
		t.Error("expected HasAuth() with JWT_SECRET set")
	}
	if cfg.App.AnalysisConcurrency != 5 {
		t.Errorf("expected AnalysisConcurrency=5, got %d", cfg.App.AnalysisConcurrency)
	}
	if cfg.HTTP.CORSAllowedOrigins != "http://localhost:3000" {
		t.Errorf("expected CORSAllowedOrigins='http://localhost:3000', got %s", cfg.HTTP.CORSAllowedOrigins)
	}
}

func TestLoad_OpenAIKeyPrecedence(t *testing.T) {
	withCleanEnv(t)

	os.Setenv("GROQ_API_KEY", "groq-key")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Narrative.OpenAI.APIKey != "groq-key" {
		t.Errorf("expected groq-key, got %s", cfg.Narrative.OpenAI.APIKey)
	}

	os.Setenv("OPENAI_API_KEY", "openai-key")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Narrative.OpenAI.APIKey != "openai-key" {
		t.Errorf("expected OPENAI_API_KEY to win, got %s", cfg.Narrative.OpenAI.APIKey)
	}
}

func TestLoad_TOMLFile(t *testing.T) {
	withCleanEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "stockup.toml")
	content := `
environment = "production"

[server]
port = 7070

[quotes]
history_days = 365
cache_ttl_seconds = 120

[narrative]
provider = "bedrock"

[narrative.bedrock]
region = "eu-west-1"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if !cfg.IsProduction() {
		t.Error("expected production environment from file")
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("expected Port=7070, got %d", cfg.Server.Port)
	}
	if cfg.Quotes.HistoryDays != 365 {
		t.Errorf("expected HistoryDays=365, got %d", cfg.Quotes.HistoryDays)
	}
	if cfg.Quotes.CacheTTLSeconds != 120 {
		t.Errorf("expected CacheTTLSeconds=120, got %d", cfg.Quotes.CacheTTLSeconds)
	}
	if cfg.Narrative.Bedrock.Region != "eu-west-1" {
		t.Errorf("expected Region=eu-west-1, got %s", cfg.Narrative.Bedrock.Region)
	}
	// Unset keys keep defaults
	if cfg.Narrative.Bedrock.ModelID == "" {
		t.Error("expected default Bedrock model ID to survive file merge")
	}

	// Environment overrides file
	os.Setenv("PORT", "6060")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Server.Port != 6060 {
		t.Errorf("expected env PORT to override file, got %d", cfg.Server.Port)
	}
}

func TestLoad_MissingFileSkipped(t *testing.T) {
	withCleanEnv(t)

	cfg, err := Load("", filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load() with missing file failed: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port, got %d", cfg.Server.Port)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	withCleanEnv(t)

	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[server\nport = "), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected parse error for malformed TOML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, true},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"warning log level", func(c *Config) { c.Log.Level = "WARNING" }, false},
		{"unknown provider", func(c *Config) { c.Narrative.Provider = "claude" }, true},
		{"unknown history source", func(c *Config) { c.Quotes.HistorySource = "iex" }, true},
		{"alpaca without keys", func(c *Config) { c.Quotes.HistorySource = HistorySourceAlpaca }, true},
		{"temperature too high", func(c *Config) { c.Narrative.OpenAI.Temperature = 3 }, true},
		{"zero rate limit", func(c *Config) { c.Quotes.RateLimit = 0 }, true},
		{"zero history days", func(c *Config) { c.Quotes.HistoryDays = 0 }, true},
		{"zero analysis concurrency", func(c *Config) { c.App.AnalysisConcurrency = 0 }, true},
		{"zero watchlist concurrency", func(c *Config) { c.App.WatchlistConcurrency = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidate_InvalidEnvUsesDefault(t *testing.T) {
	tests := []struct {
		name   string
		envKey string
		envVal string
	}{
		{"negative port", "PORT", "-5"},
		{"zero concurrency", "ANALYSIS_CONCURRENCY_LIMIT", "0"},
		{"invalid number", "BEDROCK_MAX_TOKENS", "not-a-number"},
		{"temperature out of range", "OPENAI_TEMPERATURE", "5"},
		{"bad bool", "DATABASE_AUTO_MIGRATE", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withCleanEnv(t)
			os.Setenv(tt.envKey, tt.envVal)

			if _, err := Load(); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestHasDatabase(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{URL: ""},
	}
	if cfg.HasDatabase() {
		t.Error("expected HasDatabase() to return false for empty URL")
	}

	cfg.Database.URL = "postgres://localhost/test"
	if !cfg.HasDatabase() {
		t.Error("expected HasDatabase() to return true for non-empty URL")
	}
}

func TestHasAlpaca(t *testing.T) {
	cfg := &Config{
		Alpaca: AlpacaConfig{APIKey: "", APISecret: ""},
	}
	if cfg.HasAlpaca() {
		t.Error("expected HasAlpaca() to return false for empty config")
	}

	cfg.Alpaca.APIKey = "key"
	if cfg.HasAlpaca() {
		t.Error("expected HasAlpaca() to return false without secret")
	}

	cfg.Alpaca.APISecret = "secret"
	if !cfg.HasAlpaca() {
		t.Error("expected HasAlpaca() to return true for complete config")
	}
}

func TestHasNarrative(t *testing.T) {
	cfg := NewDefaultConfig()

	cfg.Narrative.Provider = ProviderOpenAI
	if cfg.HasNarrative() {
		t.Error("expected HasNarrative() false without OpenAI key")
	}
	cfg.Narrative.OpenAI.APIKey = "key"
	if !cfg.HasNarrative() {
		t.Error("expected HasNarrative() true with OpenAI key")
	}

	cfg.Narrative.Provider = ProviderBedrock
	if !cfg.HasNarrative() {
		t.Error("expected HasNarrative() true for bedrock with region")
	}

	cfg.Narrative.Provider = ProviderNone
	if cfg.HasNarrative() {
		t.Error("expected HasNarrative() false for none")
	}
}

func TestGetEnvString(t *testing.T) {
	key := "TEST_GET_ENV_STRING"
	defer os.Unsetenv(key)

	os.Unsetenv(key)
	if got := getEnvString(key, "default"); got != "default" {
		t.Errorf("expected 'default', got %s", got)
	}

	os.Setenv(key, "custom")
	if got := getEnvString(key, "default"); got != "custom" {
		t.Errorf("expected 'custom', got %s", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_GET_ENV_INT"
	defer os.Unsetenv(key)

	os.Unsetenv(key)
	if got := getEnvInt(key, 42); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}

	os.Setenv(key, "100")
	if got := getEnvInt(key, 42); got != 100 {
		t.Errorf("expected 100, got %d", got)
	}

	os.Setenv(key, "invalid")
	if got := getEnvInt(key, 42); got != 42 {
		t.Errorf("expected 42 for invalid value, got %d", got)
	}

	os.Setenv(key, "-5")
	if got := getEnvInt(key, 42); got != 42 {
		t.Errorf("expected 42 for negative value, got %d", got)
	}
}

func TestGetEnvFloatRange(t *testing.T) {
	key := "TEST_GET_ENV_FLOAT_RANGE"
	defer os.Unsetenv(key)

	os.Unsetenv(key)
	if got := getEnvFloatRange(key, 0.5, 0, 1); got != 0.5 {
		t.Errorf("expected 0.5, got %f", got)
	}

	os.Setenv(key, "0.75")
	if got := getEnvFloatRange(key, 0.5, 0, 1); got != 0.75 {
		t.Errorf("expected 0.75, got %f", got)
	}

	os.Setenv(key, "1.5")
	if got := getEnvFloatRange(key, 0.5, 0, 1); got != 0.5 {
		t.Errorf("expected 0.5 for out-of-range value, got %f", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_GET_ENV_BOOL"
	defer os.Unsetenv(key)

	os.Unsetenv(key)
	if got := getEnvBool(key, true); !got {
		t.Error("expected default true")
	}

	os.Setenv(key, "false")
	if got := getEnvBool(key, true); got {
		t.Error("expected false")
	}

	os.Setenv(key, "garbage")
	if got := getEnvBool(key, true); !got {
		t.Error("expected default for invalid value")
	}
}

func TestNewTestConfig(t *testing.T) {
	cfg := NewTestConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("NewTestConfig() should validate: %v", err)
	}
	if cfg.HasDatabase() {
		t.Error("test config should not have a database")
	}
	if cfg.HasNarrative() {
		t.Error("test config should not have a narrative provider")
	}
	if !cfg.HasAuth() {
		t.Error("test config should have a JWT secret")
	}
}
