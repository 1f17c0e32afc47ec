package services

import (
	"fmt"
	"regexp"
	"strings"
)

// symbolPattern admits exchange suffixes (BRK.B), indices (^GSPC), futures (CL=F)
// and currency pairs (EURUSD=X).
var symbolPattern = regexp.MustCompile(`^[A-Z0-9.^=-]{1,12}$`)

// NormalizeSymbol trims whitespace and uppercases a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ValidateSymbol normalizes symbol and rejects anything that cannot be a ticker.
func ValidateSymbol(symbol string) (string, error) {
	normalized := NormalizeSymbol(symbol)
	if normalized == "" {
		return "", fmt.Errorf("%w: symbol is required", ErrInvalidSymbol)
	}
	if !symbolPattern.MatchString(normalized) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return normalized, nil
}
