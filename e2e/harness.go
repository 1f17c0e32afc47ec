// Package e2e provides end-to-end testing infrastructure for stockup.
//
// The harness wires the real Yahoo and OpenAI-compatible clients against a
// local mock upstream, so requests travel the same path as in production:
// router, app, cache decorator, provider client, HTTP.
package e2e

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"stockup/config"
	"stockup/e2e/mocks"
	"stockup/internal/api"
	"stockup/internal/app"
	"stockup/narrative"
	"stockup/repository"
	"stockup/services"

	"github.com/golang-jwt/jwt/v5"
)

// TestHarness provides the infrastructure for running E2E tests.
type TestHarness struct {
	t          *testing.T
	ctx        context.Context
	cancel     context.CancelFunc
	mockServer *mocks.MockServer
	repo       *repository.Repository
	app        *app.App
	router     http.Handler
	config     *config.Config
}

// NewTestHarness creates a new test harness with all dependencies initialized.
func NewTestHarness(t *testing.T) *TestHarness {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)

	return &TestHarness{
		t:      t,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Setup starts the mock upstream and builds the application. The database is
// used only when E2E_DATABASE_URL is set; without it the watchlist is disabled.
func (h *TestHarness) Setup() error {
	// Fresh breakers so one scenario's injected failures cannot trip the next
	services.SetGlobalRegistry(services.NewCircuitBreakerRegistry(services.DefaultCircuitBreakerConfig))

	h.mockServer = mocks.NewMockServer()
	h.config = h.createTestConfig()

	var cache services.QuoteCache
	var store app.HoldingsStore
	if dbURL := os.Getenv("E2E_DATABASE_URL"); dbURL != "" {
		repo, err := repository.NewRepository(h.ctx, dbURL)
		if err != nil {
			return fmt.Errorf("failed to connect to test database: %w", err)
		}
		if err := repo.EnsureSchema(h.ctx); err != nil {
			repo.Close()
			return fmt.Errorf("failed to apply schema: %w", err)
		}
		h.repo = repo
		h.cleanupTestData()
		cache = repo
		store = repo
	}

	yahoo := services.NewYahooService(
		services.WithYahooBaseURL(h.config.Quotes.BaseURL),
		services.WithYahooRateLimit(h.config.Quotes.RateLimit),
		services.WithYahooRetry(services.NoRetry),
	)
	market := services.NewCachedQuoteProvider(yahoo, yahoo, cache,
		time.Duration(h.config.Quotes.CacheTTLSeconds)*time.Second)

	llm, err := services.NewOpenAIService(h.config)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	narrator := narrative.NewNarrator(llm, 10*time.Second)

	h.app = app.New(h.config, market, narrator, store)
	h.router = api.NewRouter(api.NewHandler(h.app, h.config), h.config)

	return nil
}

// Teardown cleans up all test resources.
func (h *TestHarness) Teardown() {
	if h.cancel != nil {
		h.cancel()
	}

	if h.repo != nil {
		h.cleanupTestData()
	}

	// Shutdown closes the repository
	if h.app != nil {
		h.app.Shutdown()
	}

	if h.mockServer != nil {
		h.mockServer.Close()
	}
}

// Context returns the test context.
func (h *TestHarness) Context() context.Context {
	return h.ctx
}

// MockServer returns the mock server for configuring responses.
func (h *TestHarness) MockServer() *mocks.MockServer {
	return h.mockServer
}

// Repository returns the test database repository, nil without a database.
func (h *TestHarness) Repository() *repository.Repository {
	return h.repo
}

// App returns the application instance.
func (h *TestHarness) App() *app.App {
	return h.app
}

// Router returns the HTTP router for making requests.
func (h *TestHarness) Router() http.Handler {
	return h.router
}

// Config returns the test configuration.
func (h *TestHarness) Config() *config.Config {
	return h.config
}

// DoRequest performs an HTTP request and returns the response.
func (h *TestHarness) DoRequest(method, path, body string) *httptest.ResponseRecorder {
	return h.do(h.newRequest(method, path, body))
}

// DoHTMXRequest performs an HTMX request and returns the response.
func (h *TestHarness) DoHTMXRequest(method, path, body string) *httptest.ResponseRecorder {
	req := h.newRequest(method, path, body)
	req.Header.Set("HX-Request", "true")
	return h.do(req)
}

// DoAuthRequest performs a request carrying a bearer token for owner.
func (h *TestHarness) DoAuthRequest(owner, method, path, body string) *httptest.ResponseRecorder {
	req := h.newRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+h.Token(owner))
	return h.do(req)
}

// Token signs a short-lived bearer token whose subject is owner.
func (h *TestHarness) Token(owner string) string {
	h.t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   owner,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(h.config.Auth.JWTSecret))
	if err != nil {
		h.t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

// ResetDatabase clears all test data from the database.
func (h *TestHarness) ResetDatabase() {
	h.cleanupTestData()
}

func (h *TestHarness) newRequest(method, path, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func (h *TestHarness) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *TestHarness) createTestConfig() *config.Config {
	mockURL := h.mockServer.URL()

	cfg := config.NewTestConfig()
	cfg.Quotes.BaseURL = mockURL
	cfg.Quotes.RateLimit = 100
	cfg.Quotes.CacheTTLSeconds = 60

	cfg.Narrative.Provider = config.ProviderOpenAI
	cfg.Narrative.OpenAI.APIKey = "e2e-key"
	cfg.Narrative.OpenAI.BaseURL = mockURL + "/openai/v1/"
	cfg.Narrative.OpenAI.Model = "mock-model"
	cfg.Narrative.OpenAI.MaxTokens = 500

	return cfg
}

func (h *TestHarness) cleanupTestData() {
	queries := []string{
		"DELETE FROM holdings",
		"DELETE FROM market_data_cache",
	}

	for _, q := range queries {
		if _, err := h.repo.Pool().Exec(context.Background(), q); err != nil {
			h.t.Logf("cleanup query failed: %s: %v", q, err)
		}
	}
}

// SkipIfNoDatabase skips the test if the database is not available.
func SkipIfNoDatabase(t *testing.T) {
	t.Helper()

	dbURL := os.Getenv("E2E_DATABASE_URL")
	if dbURL == "" {
		t.Skip("E2E_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	repo, err := repository.NewRepository(ctx, dbURL)
	if err != nil {
		t.Skipf("E2E database not available: %v", err)
	}
	repo.Close()
}
