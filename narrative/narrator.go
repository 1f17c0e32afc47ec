package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stockup/models"
	"stockup/observability"
	"stockup/services"
)

// Analysis is a parsed model response.
type Analysis struct {
	Text     string   `json:"text"`
	Pros     []string `json:"pros"`
	Cons     []string `json:"cons"`
	Provider string   `json:"provider"`
}

// Narrator asks an LLM for a pros and cons analysis of a quote.
type Narrator struct {
	llm     services.LLMClient
	timeout time.Duration
}

// NewNarrator creates a Narrator. A zero timeout leaves the caller's deadline in charge.
func NewNarrator(llm services.LLMClient, timeout time.Duration) *Narrator {
	return &Narrator{llm: llm, timeout: timeout}
}

// Provider names the backing model provider
func (n *Narrator) Provider() string {
	return n.llm.Name()
}

// Analyze renders the quote into a prompt, calls the model and parses the reply.
// An empty reply becomes FallbackText with no points rather than an error.
func (n *Narrator) Analyze(ctx context.Context, quote *models.QuoteSnapshot) (*Analysis, error) {
	if quote == nil {
		return nil, fmt.Errorf("quote is required")
	}
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	provider := n.llm.Name()
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()

	prompt := BuildPrompt(BuildStockContext(quote))
	text, err := n.llm.InvokeWithPrompt(ctx, SystemPrompt, prompt)
	if err != nil && !errors.Is(err, services.ErrEmptyResponse) {
		timer.ObserveNarrative(provider, "error")
		observability.WithSymbol(quote.Symbol).Warn("narrative request failed",
			"provider", provider, "error", err)
		return nil, fmt.Errorf("failed to generate analysis for %s: %w", quote.Symbol, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		timer.ObserveNarrative(provider, "empty")
		return &Analysis{Text: FallbackText, Pros: []string{}, Cons: []string{}, Provider: provider}, nil
	}

	timer.ObserveNarrative(provider, "success")
	pros, cons := ParseProsCons(text)
	return &Analysis{Text: text, Pros: pros, Cons: cons, Provider: provider}, nil
}
