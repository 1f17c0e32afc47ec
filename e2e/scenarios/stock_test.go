//go:build e2e
// +build e2e

package scenarios

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"stockup/e2e"
	"stockup/e2e/mocks"
	"stockup/models"
	"stockup/scoring"
)

func setup(t *testing.T) *e2e.TestHarness {
	t.Helper()

	harness := e2e.NewTestHarness(t)
	if err := harness.Setup(); err != nil {
		t.Fatalf("failed to setup test harness: %v", err)
	}
	t.Cleanup(harness.Teardown)
	return harness
}

func TestStockLookup(t *testing.T) {
	harness := setup(t)

	t.Run("scores a known symbol end to end", func(t *testing.T) {
		resp := harness.DoRequest(http.MethodGet, "/api/stocks/aapl", "")
		if resp.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
		}

		var view models.StockView
		if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if view.Quote.Name() != "Apple Inc." {
			t.Errorf("expected display name from longName, got %q", view.Quote.Name())
		}
		if len(view.History) != 60 {
			t.Errorf("expected 60 history points, got %d", len(view.History))
		}
		total := view.Score.Breakdown.Total
		if total < 0 || total > scoring.MaxTotal {
			t.Errorf("total %d out of range", total)
		}
		if view.Score.Label != scoring.Label(total) {
			t.Errorf("label %q does not match total %d", view.Score.Label, total)
		}
		if view.Trend == nil {
			t.Error("expected a trend grade with 60 days of history")
		}
	})

	t.Run("unknown symbol is 404", func(t *testing.T) {
		resp := harness.DoRequest(http.MethodGet, "/api/stocks/NOPE", "")
		if resp.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", resp.Code)
		}
	})

	t.Run("missing history still scores", func(t *testing.T) {
		harness.MockServer().SetQuote(mocks.Quote{
			Symbol:             "NEWCO",
			ShortName:          "New Co",
			RegularMarketPrice: mocks.Float64(12),
		})

		resp := harness.DoRequest(http.MethodGet, "/api/stocks/NEWCO", "")
		if resp.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", resp.Code)
		}

		var view models.StockView
		if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(view.History) != 0 || view.Trend != nil {
			t.Errorf("expected empty history and no trend, got %d points", len(view.History))
		}
	})

	t.Run("htmx search renders a card", func(t *testing.T) {
		resp := harness.DoHTMXRequest(http.MethodGet, "/search?symbol=AAPL", "")
		body := resp.Body.String()
		if !strings.Contains(body, "Apple Inc.") || !strings.Contains(body, "/api/stocks/AAPL/chart.png") {
			t.Errorf("unexpected card: %s", body)
		}
	})

	t.Run("chart renders a png", func(t *testing.T) {
		resp := harness.DoRequest(http.MethodGet, "/api/stocks/AAPL/chart.png?width=400&height=200", "")
		if resp.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
		}
		if ct := resp.Header().Get("Content-Type"); ct != "image/png" {
			t.Errorf("expected image/png, got %s", ct)
		}
		if !bytes.HasPrefix(resp.Body.Bytes(), []byte("\x89PNG")) {
			t.Error("expected PNG signature")
		}
	})
}

func TestStockLookup_UpstreamFailure(t *testing.T) {
	harness := setup(t)
	harness.MockServer().SetQuoteStatus(http.StatusServiceUnavailable)

	resp := harness.DoRequest(http.MethodGet, "/api/stocks/MSFT", "")
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", resp.Code)
	}

	var errResp struct {
		Error     string `json:"error"`
		Retryable bool   `json:"retryable"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if !errResp.Retryable {
		t.Error("expected upstream failure to be retryable")
	}
}

func TestInsight(t *testing.T) {
	harness := setup(t)

	t.Run("parses pros and cons from the model", func(t *testing.T) {
		resp := harness.DoRequest(http.MethodGet, "/api/insights/AAPL", "")
		if resp.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
		}

		var insight models.Insight
		if err := json.NewDecoder(resp.Body).Decode(&insight); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(insight.Pros) != 2 || len(insight.Cons) != 1 {
			t.Errorf("expected 2 pros and 1 con, got %v / %v", insight.Pros, insight.Cons)
		}
		if insight.Provider != "openai" {
			t.Errorf("expected provider openai, got %s", insight.Provider)
		}

		var prompt string
		for _, r := range harness.MockServer().Requests() {
			if strings.HasSuffix(r.Path, "/chat/completions") {
				prompt = r.Body
			}
		}
		if !strings.Contains(prompt, "AAPL") {
			t.Error("expected the prompt to mention the symbol")
		}
	})

	t.Run("empty reply falls back", func(t *testing.T) {
		harness.MockServer().SetChatReply("")

		resp := harness.DoRequest(http.MethodGet, "/api/insights/AAPL", "")
		if resp.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", resp.Code)
		}
		var insight models.Insight
		if err := json.NewDecoder(resp.Body).Decode(&insight); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(insight.Pros) != 0 || insight.Analysis == "" {
			t.Errorf("expected fallback text with no points, got %+v", insight)
		}
	})

	t.Run("model failure is 503", func(t *testing.T) {
		harness.MockServer().SetChatStatus(http.StatusBadRequest)

		resp := harness.DoRequest(http.MethodGet, "/api/insights/AAPL", "")
		if resp.Code != http.StatusServiceUnavailable {
			t.Errorf("expected status 503, got %d", resp.Code)
		}
	})
}
