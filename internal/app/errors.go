package app

import (
	"errors"

	"stockup/services"
)

var (
	// ErrInvalidSymbol and ErrSymbolNotFound are the provider sentinels, re-exported
	// so callers only need this package for errors.Is checks.
	ErrInvalidSymbol  = services.ErrInvalidSymbol
	ErrSymbolNotFound = services.ErrSymbolNotFound

	ErrInvalidHolding       = errors.New("invalid holding")
	ErrHoldingNotFound      = errors.New("holding not found")
	ErrNarrativeUnavailable = errors.New("narrative provider unavailable")
	ErrStoreUnavailable     = errors.New("holdings store unavailable")
	ErrBusy                 = errors.New("analysis queue full, too many concurrent requests - try again later")
)
