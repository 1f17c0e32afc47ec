package api

import (
	"context"
	"fmt"
	"io"
	"strings"

	"stockup/models"

	"github.com/a-h/templ"
)

const pageHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>StockUp</title>
<script src="https://unpkg.com/htmx.org@2.0.4"></script>
<script src="https://cdn.tailwindcss.com"></script>
</head>
<body class="bg-gray-50 text-gray-900">
`

// IndexPage is the dashboard shell with the ticker search form
func IndexPage() templ.Component {
	return component(func(ctx context.Context, b *strings.Builder) error {
		b.WriteString(pageHead)
		b.WriteString(`<main class="max-w-4xl mx-auto p-6">
<h1 class="text-3xl font-bold mb-6">StockUp</h1>
<form hx-get="/search" hx-target="#stock" hx-indicator="#loading" class="flex gap-2 mb-6">
<input name="symbol" placeholder="Ticker, e.g. AAPL" class="border rounded px-3 py-2 flex-1" required>
<button type="submit" class="bg-blue-600 text-white rounded px-4 py-2">Search</button>
</form>
<div id="loading" class="htmx-indicator text-gray-500">Loading...</div>
<section id="stock"></section>
<section id="insight" class="mt-6"></section>
</main>
</body>
</html>
`)
		return nil
	})
}

// StockCard renders a quote with its score breakdown and trend grade
func StockCard(view *models.StockView) templ.Component {
	return component(func(ctx context.Context, b *strings.Builder) error {
		q := view.Quote
		sym := templ.EscapeString(q.Symbol)
		score := view.Score
		bd := score.Breakdown

		fmt.Fprintf(b, `<div class="bg-white rounded shadow p-4" id="stock-%s">`, sym)
		fmt.Fprintf(b, `<h2 class="text-2xl font-semibold">%s <span class="text-gray-500">(%s)</span></h2>`,
			templ.EscapeString(q.Name()), sym)
		fmt.Fprintf(b, `<p class="text-xl">%s %s</p>`, money(q.RegularMarketPrice), change(q.RegularMarketChangePercent))
		fmt.Fprintf(b, `<p class="text-4xl font-bold %s">%d/100</p>`, score.Color.CSSClass(), bd.Total)
		fmt.Fprintf(b, `<p class="%s">%s</p>`, score.Color.CSSClass(), templ.EscapeString(score.Label))

		b.WriteString(`<table class="mt-4 w-full text-sm"><tbody>`)
		for _, row := range []struct {
			name  string
			value int
			max   int
		}{
			{"Valuation", bd.Valuation, 20},
			{"Growth", bd.Growth, 25},
			{"Financial Health", bd.Health, 20},
			{"Profitability", bd.Profitability, 20},
			{"Momentum", bd.Momentum, 15},
		} {
			fmt.Fprintf(b, `<tr><td>%s</td><td class="text-right">%d/%d</td></tr>`, row.name, row.value, row.max)
		}
		b.WriteString(`</tbody></table>`)

		if t := view.Trend; t != nil {
			fmt.Fprintf(b, `<p class="mt-4">Trend grade: <strong>%s</strong></p>`, templ.EscapeString(string(t.Grade)))
			if err := templ.Join(
				itemList("Positives", "text-green-700", t.Pros),
				itemList("Concerns", "text-red-700", t.Cons),
			).Render(ctx, b); err != nil {
				return err
			}
		}

		if len(view.History) > 1 {
			fmt.Fprintf(b, `<img class="mt-4 w-full" alt="%s price history" src="/api/stocks/%s/chart.png">`, sym, sym)
		}

		fmt.Fprintf(b, `<button class="mt-4 bg-indigo-600 text-white rounded px-4 py-2" hx-get="/api/insights/%s" hx-target="#insight" hx-indicator="#loading">AI insight</button>`, sym)
		b.WriteString(`</div>`)
		return nil
	})
}

// InsightCard renders an AI analysis as pros and cons
func InsightCard(insight *models.Insight) templ.Component {
	return component(func(ctx context.Context, b *strings.Builder) error {
		fmt.Fprintf(b, `<div class="bg-white rounded shadow p-4"><h3 class="text-xl font-semibold">%s analysis</h3>`,
			templ.EscapeString(insight.Symbol))
		if len(insight.Pros) == 0 && len(insight.Cons) == 0 {
			fmt.Fprintf(b, `<p class="whitespace-pre-line">%s</p>`, templ.EscapeString(insight.Analysis))
		} else if err := templ.Join(
			itemList("Pros", "text-green-700", insight.Pros),
			itemList("Cons", "text-red-700", insight.Cons),
		).Render(ctx, b); err != nil {
			return err
		}
		fmt.Fprintf(b, `<p class="text-xs text-gray-400 mt-2">Generated by %s</p></div>`, templ.EscapeString(insight.Provider))
		return nil
	})
}

// WatchlistTable renders valued holdings with their totals
func WatchlistTable(wl *models.Watchlist) templ.Component {
	return component(func(ctx context.Context, b *strings.Builder) error {
		b.WriteString(`<div id="watchlist">`)
		if len(wl.Holdings) == 0 {
			b.WriteString(`<p class="text-gray-500">No holdings yet.</p></div>`)
			return nil
		}

		b.WriteString(`<table class="w-full text-sm"><thead><tr><th>Symbol</th><th>Quantity</th><th>Bought</th><th>Current</th><th>Value</th><th>Gain</th><th></th></tr></thead><tbody>`)
		for _, v := range wl.Holdings {
			stale := ""
			if v.PriceStale {
				stale = ` <span title="price unavailable" class="text-yellow-600">*</span>`
			}
			fmt.Fprintf(b, `<tr><td>%s</td><td class="text-right">%s</td><td class="text-right">$%s</td><td class="text-right">$%s%s</td><td class="text-right">$%s</td><td class="text-right %s">$%s (%s%%)</td>`,
				templ.EscapeString(v.Symbol), v.Quantity.String(), v.PurchasePrice.StringFixed(2),
				v.CurrentPrice.StringFixed(2), stale, v.CurrentValue.StringFixed(2),
				gainClass(v.Gain.Sign()), v.Gain.StringFixed(2), v.GainPercent.StringFixed(2))
			fmt.Fprintf(b, `<td><button hx-delete="/api/watchlist/%s" hx-target="#watchlist" hx-swap="outerHTML" class="text-red-600">Remove</button></td></tr>`, v.ID)
		}
		b.WriteString(`</tbody></table>`)

		s := wl.Summary
		fmt.Fprintf(b, `<p class="mt-4">Total value $%s, invested $%s, gain <span class="%s">$%s (%s%%)</span></p></div>`,
			s.TotalValue.StringFixed(2), s.TotalInvested.StringFixed(2),
			gainClass(s.TotalGain.Sign()), s.TotalGain.StringFixed(2), s.TotalGainPercent.StringFixed(2))
		return nil
	})
}

// ErrorState renders an inline error message
func ErrorState(message string) templ.Component {
	return component(func(ctx context.Context, b *strings.Builder) error {
		fmt.Fprintf(b, `<div class="bg-red-50 text-red-700 rounded p-4" role="alert">%s</div>`, templ.EscapeString(message))
		return nil
	})
}

// itemList renders a titled bullet list, or nothing when items is empty
func itemList(title, class string, items []string) templ.Component {
	return component(func(ctx context.Context, b *strings.Builder) error {
		if len(items) == 0 {
			return nil
		}
		fmt.Fprintf(b, `<h4 class="font-semibold mt-3 %s">%s</h4><ul class="list-disc ml-6">`, class, templ.EscapeString(title))
		for _, item := range items {
			fmt.Fprintf(b, `<li>%s</li>`, templ.EscapeString(item))
		}
		b.WriteString(`</ul>`)
		return nil
	})
}

// component buffers a rendering so a failed render writes nothing.
// Like generated templates it renders nothing once ctx is done.
func component(build func(ctx context.Context, b *strings.Builder) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		var b strings.Builder
		if err := build(ctx, &b); err != nil {
			return err
		}
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func money(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("$%.2f", *v)
}

func change(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf(`<span class="%s">%+.2f%%</span>`, gainClass(sign(*v)), *v)
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func gainClass(sign int) string {
	switch {
	case sign > 0:
		return "text-green-600"
	case sign < 0:
		return "text-red-600"
	}
	return "text-gray-600"
}
