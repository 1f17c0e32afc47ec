// Package mocks provides an HTTP mock of the upstream quote and LLM APIs used in E2E tests.
package mocks

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// MockServer serves Yahoo-style quote and chart endpoints plus an
// OpenAI-compatible chat completion endpoint.
type MockServer struct {
	mu     sync.RWMutex
	server *httptest.Server

	// Response configurations
	quotes    map[string]Quote
	histories map[string][]Bar
	chatReply string

	// Error injection: status codes returned instead of a body
	quoteStatus int
	chatStatus  int

	// Request tracking for assertions
	requestLog []RequestLog
}

// RequestLog records incoming requests for test assertions.
type RequestLog struct {
	Method string
	Path   string
	Query  string
	Body   string
}

// NewMockServer creates a new mock server with default responses.
func NewMockServer() *MockServer {
	m := &MockServer{
		quotes:     make(map[string]Quote),
		histories:  make(map[string][]Bar),
		requestLog: make([]RequestLog, 0),
	}
	m.setDefaults()
	m.server = httptest.NewServer(m)
	return m
}

// URL returns the mock server's base URL.
func (m *MockServer) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockServer) Close() {
	m.server.Close()
}

// ServeHTTP routes requests to the matching mock endpoint.
func (m *MockServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(io.LimitReader(r.Body, 64<<10))

	m.mu.Lock()
	m.requestLog = append(m.requestLog, RequestLog{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Body:   string(body),
	})
	m.mu.Unlock()

	switch {
	case r.URL.Path == "/v7/finance/quote":
		m.handleQuote(w, r)
	case strings.HasPrefix(r.URL.Path, "/v8/finance/chart/"):
		m.handleChart(w, r)
	case strings.HasSuffix(r.URL.Path, "/chat/completions"):
		m.handleChat(w, body)
	default:
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}
}

func (m *MockServer) handleQuote(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.quoteStatus != 0 {
		http.Error(w, "upstream unavailable", m.quoteStatus)
		return
	}

	var resp quoteResponse
	resp.QuoteResponse.Result = []Quote{}
	for _, sym := range strings.Split(r.URL.Query().Get("symbols"), ",") {
		if q, ok := m.quotes[strings.ToUpper(sym)]; ok {
			resp.QuoteResponse.Result = append(resp.QuoteResponse.Result, q)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (m *MockServer) handleChart(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sym := strings.ToUpper(strings.TrimPrefix(r.URL.Path, "/v8/finance/chart/"))
	bars, ok := m.histories[sym]
	if !ok {
		var resp chartResponse
		resp.Chart.Error = &yahooError{Code: "Not Found", Description: "No data found, symbol may be delisted"}
		writeJSON(w, http.StatusNotFound, resp)
		return
	}

	result := chartResult{Timestamp: make([]int64, 0, len(bars))}
	closes := make([]*float64, 0, len(bars))
	for _, b := range bars {
		result.Timestamp = append(result.Timestamp, b.Timestamp)
		closes = append(closes, b.Close)
	}
	result.Indicators.Quote = []chartQuote{{Close: closes}}

	var resp chartResponse
	resp.Chart.Result = []chartResult{result}
	writeJSON(w, http.StatusOK, resp)
}

func (m *MockServer) handleChat(w http.ResponseWriter, body []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.chatStatus != 0 {
		writeJSON(w, m.chatStatus, map[string]any{"error": map[string]string{"message": "model overloaded"}})
		return
	}

	var req chatRequest
	_ = json.Unmarshal(body, &req)

	writeJSON(w, http.StatusOK, chatCompletion{
		ID:      "chatcmpl-mock",
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []chatChoice{{
			Index:        0,
			Message:      chatMessage{Role: "assistant", Content: m.chatReply},
			FinishReason: "stop",
		}},
	})
}

// SetQuote configures the quote returned for a symbol.
func (m *MockServer) SetQuote(q Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[strings.ToUpper(q.Symbol)] = q
}

// SetHistory configures the daily closes returned for a symbol.
func (m *MockServer) SetHistory(symbol string, bars []Bar) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histories[strings.ToUpper(symbol)] = bars
}

// SetChatReply configures the completion text.
func (m *MockServer) SetChatReply(reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chatReply = reply
}

// SetQuoteStatus makes the quote endpoint fail with status; 0 restores it.
func (m *MockServer) SetQuoteStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quoteStatus = status
}

// SetChatStatus makes the chat endpoint fail with status; 0 restores it.
func (m *MockServer) SetChatStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chatStatus = status
}

// Requests returns a copy of the request log.
func (m *MockServer) Requests() []RequestLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RequestLog, len(m.requestLog))
	copy(out, m.requestLog)
	return out
}

// CountRequests returns how many requests hit paths with the given prefix.
func (m *MockServer) CountRequests(pathPrefix string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.requestLog {
		if strings.HasPrefix(r.Path, pathPrefix) {
			n++
		}
	}
	return n
}

// Reset restores the default responses and clears the request log.
func (m *MockServer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes = make(map[string]Quote)
	m.histories = make(map[string][]Bar)
	m.quoteStatus = 0
	m.chatStatus = 0
	m.requestLog = m.requestLog[:0]
	m.setDefaultsLocked()
}

func (m *MockServer) setDefaults() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setDefaultsLocked()
}

func (m *MockServer) setDefaultsLocked() {
	m.quotes["AAPL"] = Quote{
		Symbol:                     "AAPL",
		LongName:                   "Apple Inc.",
		RegularMarketPrice:         Float64(200),
		RegularMarketChangePercent: Float64(1.5),
		TrailingPE:                 Float64(28),
		ForwardPE:                  Float64(24),
		BookValue:                  Float64(4.5),
		MarketCap:                  Float64(3.1e12),
		EPSTrailingTwelveMonths:    Float64(6.5),
		EPSCurrentYear:             Float64(7.2),
		DividendRate:               Float64(1.0),
		DividendYield:              Float64(0.5),
		FiftyTwoWeekLow:            Float64(160),
		FiftyTwoWeekHigh:           Float64(210),
	}
	m.histories["AAPL"] = RisingBars(60, 150, 1)
	m.chatReply = "PROS:\n- Dominant ecosystem\n- Strong cash generation\nCONS:\n- Premium valuation"
}

// RisingBars builds n daily closes ending today, starting at start and
// increasing by step per day.
func RisingBars(n int, start, step float64) []Bar {
	day := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -n)
	bars := make([]Bar, n)
	for i := range bars {
		bars[i] = Bar{
			Timestamp: day.AddDate(0, 0, i).Unix(),
			Close:     Float64(start + float64(i)*step),
		}
	}
	return bars
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
