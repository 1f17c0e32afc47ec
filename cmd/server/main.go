package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockup/config"
	"stockup/internal/api"
	"stockup/internal/app"
	"stockup/narrative"
	"stockup/observability"
	"stockup/repository"
	"stockup/services"

	"github.com/joho/godotenv"
)

const cacheCleanInterval = 15 * time.Minute

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		observability.Debug("no .env file found, using environment variables")
	}

	configPath := os.Getenv("STOCKUP_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		observability.Fatal("invalid configuration", "error", err)
	}

	observability.InitLoggerWithLevel(cfg.IsProduction(), observability.ParseLevel(cfg.Log.Level))
	observability.InitMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Holdings store and quote cache
	var repo *repository.Repository
	var cache services.QuoteCache
	if cfg.HasDatabase() {
		repo, err = repository.NewRepository(ctx, cfg.Database.URL)
		if err != nil {
			observability.Warn("failed to connect to database, watchlist disabled", "error", err)
			repo = nil
		} else {
			if cfg.Database.AutoMigrate {
				if err := repo.EnsureSchema(ctx); err != nil {
					observability.Fatal("failed to apply schema", "error", err)
				}
			}
			cache = repo
			go cleanCache(ctx, repo)
		}
	} else {
		observability.Warn("DATABASE_URL not set, watchlist and quote cache disabled")
	}

	market, historySource := newMarketData(cfg, cache)
	narrator := newNarrator(ctx, cfg)

	var store app.HoldingsStore
	if repo != nil {
		store = repo
	}
	var appNarrator app.Narrator
	narratorName := "disabled"
	if narrator != nil {
		appNarrator = narrator
		narratorName = narrator.Provider()
	}

	application := app.New(cfg, market, appNarrator, store)
	defer application.Shutdown()

	if !cfg.HasAuth() {
		observability.Warn("JWT_SECRET not set, watchlist endpoints will reject all requests")
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(api.NewHandler(application, cfg), cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	printBanner(cfg, narratorName, historySource)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			observability.Error("server failed", "error", err)
		}
	case <-ctx.Done():
	}

	printShutdownBanner()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		observability.Error("graceful shutdown failed", "error", err)
	}
}

// newMarketData builds the Yahoo quote provider, optionally backed by Alpaca
// for history, behind the database cache.
func newMarketData(cfg *config.Config, cache services.QuoteCache) (services.MarketDataProvider, string) {
	yahoo := services.NewYahooService(
		services.WithYahooBaseURL(cfg.Quotes.BaseURL),
		services.WithYahooRateLimit(cfg.Quotes.RateLimit),
		services.WithYahooTimeout(time.Duration(cfg.Quotes.TimeoutSeconds)*time.Second),
	)

	var history services.HistoryProvider = yahoo
	source := config.HistorySourceYahoo
	if cfg.Quotes.HistorySource == config.HistorySourceAlpaca && cfg.HasAlpaca() {
		history = services.NewAlpacaService(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL, cfg.Alpaca.Feed)
		source = config.HistorySourceAlpaca
	}

	ttl := time.Duration(cfg.Quotes.CacheTTLSeconds) * time.Second
	return services.NewCachedQuoteProvider(yahoo, history, cache, ttl), source
}

// newNarrator builds the configured LLM client. It returns nil when the
// provider is disabled or cannot be initialized; insights are then unavailable.
func newNarrator(ctx context.Context, cfg *config.Config) *narrative.Narrator {
	if !cfg.HasNarrative() {
		observability.Warn("no narrative provider configured, AI insights disabled",
			"provider", cfg.Narrative.Provider)
		return nil
	}

	var (
		llm services.LLMClient
		err error
	)
	switch cfg.Narrative.Provider {
	case config.ProviderOpenAI:
		llm, err = services.NewOpenAIService(cfg)
	case config.ProviderGemini:
		llm, err = services.NewGeminiService(ctx, cfg.Narrative.Gemini.APIKey,
			services.WithGeminiModel(cfg.Narrative.Gemini.Model))
	case config.ProviderBedrock:
		llm, err = services.NewBedrockService(ctx, cfg.Narrative.Bedrock)
	}
	if err != nil {
		observability.WithProvider(cfg.Narrative.Provider).Warn("failed to initialize narrative provider, AI insights disabled", "error", err)
		return nil
	}

	return narrative.NewNarrator(llm, time.Duration(cfg.Narrative.TimeoutSeconds)*time.Second)
}

// cleanCache periodically removes expired quote cache rows until ctx is done
func cleanCache(ctx context.Context, repo *repository.Repository) {
	ticker := time.NewTicker(cacheCleanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.CleanExpiredCache(ctx)
			if err != nil {
				observability.Warn("failed to clean expired cache", "error", err)
				continue
			}
			if n > 0 {
				observability.Debug("cleaned expired cache entries", "count", n)
			}
		}
	}
}
