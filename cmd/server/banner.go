package main

import (
	"fmt"
	"os"
	"strings"

	"stockup/config"
	"stockup/observability"

	"github.com/ternarybob/banner"
)

// Set at build time with -ldflags "-X main.version=... -X main.commit=..."
var (
	version = "dev"
	commit  = "unknown"
)

// printBanner writes the startup banner to stderr and logs the same facts
func printBanner(cfg *config.Config, narrator, history string) {
	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	hr := lineColor + strings.Repeat("═", 60) + banner.ColorReset

	database := "not configured"
	if cfg.HasDatabase() {
		database = "postgres"
	}

	fmt.Fprintf(os.Stderr, "\n%s\n\n", hr)
	fmt.Fprintf(os.Stderr, "%s  STOCKUP  Stock Scoring & Watchlist Dashboard%s\n\n", textColor, banner.ColorReset)
	fmt.Fprintf(os.Stderr, "%s\n\n", hr)

	for _, kv := range [][2]string{
		{"Version", version},
		{"Commit", commit},
		{"Environment", cfg.Environment},
		{"Listen", cfg.Server.Addr()},
		{"Database", database},
		{"History", history},
		{"Narrative", narrator},
	} {
		fmt.Fprintf(os.Stderr, "%s  %-14s %s%s\n", textColor, kv[0], kv[1], banner.ColorReset)
	}
	fmt.Fprintf(os.Stderr, "\n%s\n\n", hr)

	observability.Info("application started",
		"version", version,
		"commit", commit,
		"environment", cfg.Environment,
		"addr", cfg.Server.Addr(),
		"database", database,
		"history_source", history,
		"narrative", narrator,
	)
}

func printShutdownBanner() {
	hr := banner.ColorCyan + strings.Repeat("═", 36) + banner.ColorReset
	fmt.Fprintf(os.Stderr, "\n%s\n%s  STOCKUP  SHUTTING DOWN%s\n%s\n\n", hr, banner.ColorBold+banner.ColorWhite, banner.ColorReset, hr)
	observability.Info("application shutting down")
}
