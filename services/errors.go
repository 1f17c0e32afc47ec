package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sony/gobreaker/v2"
)

var (
	// ErrSymbolNotFound means the provider has no data for the ticker at all.
	// A quote that exists but lacks fields is not an error.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrInvalidSymbol means the ticker failed validation before any call was made.
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrEmptyResponse means the provider answered without usable content.
	ErrEmptyResponse = errors.New("empty response")
)

// ProviderError describes a failed call to an external data or model provider.
type ProviderError struct {
	Provider   string
	Op         string
	Symbol     string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Provider, e.Op)
	if e.Symbol != "" {
		msg += " " + e.Symbol
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	return msg + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err means the symbol does not exist upstream.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSymbolNotFound)
}

// IsRetryable reports whether repeating the call could succeed.
// Missing symbols, client errors, cancellation and an open breaker are final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if IsNotFound(err) || errors.Is(err, ErrInvalidSymbol) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}

	var perr *ProviderError
	if errors.As(err, &perr) && perr.StatusCode != 0 {
		return perr.StatusCode == http.StatusTooManyRequests || perr.StatusCode >= 500
	}
	return true
}

// categorizeAPIError buckets an error for the external API error metric
func categorizeAPIError(err error) string {
	if err == nil {
		return "none"
	}
	if IsNotFound(err) {
		return "not_found"
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "circuit_open"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}

	var perr *ProviderError
	if errors.As(err, &perr) && perr.StatusCode != 0 {
		switch {
		case perr.StatusCode == http.StatusTooManyRequests:
			return "rate_limit"
		case perr.StatusCode == http.StatusUnauthorized || perr.StatusCode == http.StatusForbidden:
			return "auth_error"
		case perr.StatusCode >= 500:
			return "server_error"
		}
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case containsAny(errStr, "timeout", "deadline"):
		return "timeout"
	case containsAny(errStr, "rate limit", "429"):
		return "rate_limit"
	case containsAny(errStr, "unauthorized", "401"):
		return "auth_error"
	case containsAny(errStr, "connection", "network"):
		return "connection_error"
	default:
		return "unknown"
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
