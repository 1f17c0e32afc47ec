package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"stockup/charts"
	"stockup/config"
	"stockup/internal/app"
	"stockup/observability"
	"stockup/services"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const maxChartDimension = 2000

// maxHoldingBodyBytes caps add-holding request bodies, JSON or form.
const maxHoldingBodyBytes = 64 << 10

// Handler handles HTTP API requests
type Handler struct {
	app *app.App
	cfg *config.Config
}

// NewHandler creates a new Handler
func NewHandler(application *app.App, cfg *config.Config) *Handler {
	return &Handler{app: application, cfg: cfg}
}

// HandleIndex serves the dashboard page
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.htmlResponse(w, IndexPage(), r)
}

// HandleHealth returns the health status of the application
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status": "ok",
		"services": map[string]string{
			"database":  "unknown",
			"narrative": "disabled",
		},
	}
	svc := status["services"].(map[string]string)

	if h.app.HasStore() {
		if err := h.app.StoreHealth(r.Context()); err == nil {
			svc["database"] = "connected"
		} else {
			svc["database"] = "disconnected"
			status["status"] = "degraded"
		}
	} else {
		svc["database"] = "not_configured"
	}

	if h.app.HasNarrative() {
		svc["narrative"] = h.cfg.Narrative.Provider
	}

	// Add circuit breaker status
	cbStatus := services.GetGlobalRegistry().Status()
	status["circuit_breakers"] = cbStatus

	// Check if any breakers are open (degraded state)
	for _, cb := range cbStatus {
		if cb.State == "open" {
			status["status"] = "degraded"
			break
		}
	}

	h.jsonResponse(w, status)
}

// HandleGetStock returns quote, history, score and trend for a symbol
func (h *Handler) HandleGetStock(w http.ResponseWriter, r *http.Request) {
	view, err := h.app.GetStock(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		h.writeError(w, r, err, http.StatusBadGateway)
		return
	}

	if isHTMXRequest(r) {
		h.htmlResponse(w, StockCard(view), r)
		return
	}

	h.jsonResponse(w, view)
}

// HandleSearch renders the stock card for the search form's symbol parameter
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	view, err := h.app.GetStock(r.Context(), r.URL.Query().Get("symbol"))
	if err != nil {
		h.htmlError(w, userMessage(err), r)
		return
	}
	h.htmlResponse(w, StockCard(view), r)
}

// HandleGetScore returns only the score report for a symbol
func (h *Handler) HandleGetScore(w http.ResponseWriter, r *http.Request) {
	view, err := h.app.GetStock(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		h.writeError(w, r, err, http.StatusBadGateway)
		return
	}

	h.jsonResponse(w, map[string]interface{}{
		"symbol": view.Quote.Symbol,
		"score":  view.Score,
	})
}

// HandleGetChart renders the price history as a PNG
func (h *Handler) HandleGetChart(w http.ResponseWriter, r *http.Request) {
	width := parseDimension(r, "width", charts.DefaultWidth)
	height := parseDimension(r, "height", charts.DefaultHeight)

	png, err := h.app.GetChart(r.Context(), chi.URLParam(r, "symbol"), width, height)
	if err != nil {
		h.jsonErrorFor(w, err, http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Write(png)
}

// HandleGetInsight returns an AI-generated analysis for a symbol
func (h *Handler) HandleGetInsight(w http.ResponseWriter, r *http.Request) {
	insight, err := h.app.GetInsight(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		h.writeError(w, r, err, http.StatusBadGateway)
		return
	}

	if isHTMXRequest(r) {
		h.htmlResponse(w, InsightCard(insight), r)
		return
	}

	h.jsonResponse(w, insight)
}

// HandleGetWatchlist returns the caller's valued holdings
func (h *Handler) HandleGetWatchlist(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())

	wl, err := h.app.ListWatchlist(r.Context(), owner)
	if err != nil {
		h.writeError(w, r, err, http.StatusInternalServerError)
		return
	}

	if isHTMXRequest(r) {
		h.htmlResponse(w, WatchlistTable(wl), r)
		return
	}

	h.jsonResponse(w, wl)
}

// HandleAddHolding adds a holding from a JSON body or a form post
func (h *Handler) HandleAddHolding(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())

	in, err := decodeHoldingInput(w, r)
	if err != nil {
		if isHTMXRequest(r) {
			h.htmlError(w, err.Error(), r)
			return
		}
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	holding, err := h.app.AddHolding(r.Context(), owner, in)
	if err != nil {
		h.writeError(w, r, err, http.StatusInternalServerError)
		return
	}

	if isHTMXRequest(r) {
		h.renderWatchlist(w, r, owner)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(holding)
}

// HandleDeleteHolding removes one of the caller's holdings
func (h *Handler) HandleDeleteHolding(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())

	if err := h.app.DeleteHolding(r.Context(), owner, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err, http.StatusInternalServerError)
		return
	}

	if isHTMXRequest(r) {
		h.renderWatchlist(w, r, owner)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) renderWatchlist(w http.ResponseWriter, r *http.Request, owner string) {
	wl, err := h.app.ListWatchlist(r.Context(), owner)
	if err != nil {
		h.htmlError(w, userMessage(err), r)
		return
	}
	h.htmlResponse(w, WatchlistTable(wl), r)
}

func decodeHoldingInput(w http.ResponseWriter, r *http.Request) (app.HoldingInput, error) {
	var in app.HoldingInput
	r.Body = http.MaxBytesReader(w, r.Body, maxHoldingBodyBytes)

	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			return in, errors.New("invalid JSON request")
		}
		return in, nil
	}

	if err := r.ParseForm(); err != nil {
		return in, errors.New("failed to parse form")
	}
	in.Symbol = r.FormValue("symbol")
	in.PurchaseDate = r.FormValue("purchase_date")

	var err error
	if in.Quantity, err = decimal.NewFromString(r.FormValue("quantity")); err != nil {
		return in, errors.New("quantity must be a number")
	}
	if in.PurchasePrice, err = decimal.NewFromString(r.FormValue("purchase_price")); err != nil {
		return in, errors.New("purchase price must be a number")
	}
	return in, nil
}

// Helper functions

// isHTMXRequest checks if the request is from HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// templComponent matches the templ.Component interface
type templComponent interface {
	Render(ctx context.Context, w io.Writer) error
}

// htmlResponse renders a templ component as HTML
func (h *Handler) htmlResponse(w http.ResponseWriter, component templComponent, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(r.Context(), w); err != nil {
		observability.WithContext(r.Context()).Error("failed to render component", "error", err)
	}
}

// htmlError renders an error state as HTML
func (h *Handler) htmlError(w http.ResponseWriter, message string, r *http.Request) {
	h.htmlResponse(w, ErrorState(message), r)
}

// statusFor maps an application error to an HTTP status.
// fallback is used for failures the caller cannot fix.
func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, app.ErrInvalidSymbol), errors.Is(err, app.ErrInvalidHolding):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrSymbolNotFound), errors.Is(err, app.ErrHoldingNotFound), errors.Is(err, charts.ErrNotEnoughData):
		return http.StatusNotFound
	case errors.Is(err, app.ErrBusy):
		return http.StatusTooManyRequests
	case errors.Is(err, app.ErrNarrativeUnavailable), errors.Is(err, app.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	}
	return fallback
}

// userMessage is the text shown for an error. Client errors are echoed;
// upstream failures get a generic message so provider details stay in the logs.
func userMessage(err error) string {
	switch {
	case errors.Is(err, app.ErrSymbolNotFound):
		return "Symbol not found"
	case errors.Is(err, app.ErrInvalidSymbol):
		return "Invalid symbol"
	case errors.Is(err, app.ErrInvalidHolding), errors.Is(err, app.ErrBusy):
		return err.Error()
	case errors.Is(err, app.ErrHoldingNotFound):
		return "Holding not found"
	case errors.Is(err, app.ErrNarrativeUnavailable):
		return "AI analysis is unavailable right now"
	case errors.Is(err, app.ErrStoreUnavailable):
		return "Watchlist storage is unavailable"
	}
	return "Upstream service unavailable, please retry"
}

// writeError renders err as an HTMX fragment or a JSON error
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, fallback int) {
	if isHTMXRequest(r) {
		h.logError(r, err)
		h.htmlError(w, userMessage(err), r)
		return
	}
	h.jsonErrorFor(w, err, fallback)
}

func (h *Handler) jsonErrorFor(w http.ResponseWriter, err error, fallback int) {
	status := statusFor(err, fallback)
	if status >= 500 {
		observability.WithError(err).Warn("request failed", "status", status)
	}
	writeJSONError(w, userMessage(err), status, app.IsExternalFailure(err))
}

func (h *Handler) logError(r *http.Request, err error) {
	if app.IsExternalFailure(err) {
		observability.WithContext(r.Context()).Warn("request failed", "error", err)
	}
}

func parseDimension(r *http.Request, key string, defaultValue int) int {
	if s := r.URL.Query().Get(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 && v <= maxChartDimension {
			return v
		}
	}
	return defaultValue
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	writeJSONError(w, message, status, false)
}

// ErrorResponse is the body of every JSON error
type ErrorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

func writeJSONError(w http.ResponseWriter, message string, status int, retryable bool) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, Retryable: retryable})
}
