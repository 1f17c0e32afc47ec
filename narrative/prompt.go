// Package narrative turns a quote into an LLM-written pros and cons analysis.
package narrative

import (
	"fmt"
	"strconv"
	"strings"

	"stockup/models"
)

// SystemPrompt is the role instruction sent with every analysis request.
const SystemPrompt = "You are a professional stock analyst providing balanced investment analysis. " +
	"Always structure your response with clear PROS and CONS sections."

// FallbackText replaces an empty model response.
const FallbackText = "Analysis unavailable"

const notAvailable = "N/A"

const promptTemplate = `Analyze this stock and provide a detailed pros and cons list for potential investors. Be specific and use the provided metrics.

%s

Format your response as:
PROS:
- [Pro 1]
- [Pro 2]
- [Pro 3]
...

CONS:
- [Con 1]
- [Con 2]
- [Con 3]
...

Keep it concise but insightful (5-7 points each).`

// BuildStockContext renders the metrics block the model is asked to reason about.
// Absent fields render as N/A.
func BuildStockContext(quote *models.QuoteSnapshot) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Stock: %s (%s)\n", quote.Name(), quote.Symbol)
	fmt.Fprintf(&sb, "Current Price: %s\n", dollars(quote.RegularMarketPrice, plain))
	fmt.Fprintf(&sb, "Market Cap: %s\n", billions(quote.MarketCap))
	fmt.Fprintf(&sb, "P/E Ratio: %s\n", format(quote.TrailingPE, fixed2))
	fmt.Fprintf(&sb, "52-Week Range: %s - %s\n",
		dollars(quote.FiftyTwoWeekLow, plain), dollars(quote.FiftyTwoWeekHigh, plain))
	fmt.Fprintf(&sb, "EPS: %s\n", dollars(quote.EPSTrailingTwelveMonths, plain))
	fmt.Fprintf(&sb, "Dividend Yield: %s\n", percent(quote.DividendYield))
	fmt.Fprintf(&sb, "Price Change Today: %s\n", percent(quote.RegularMarketChangePercent))

	return sb.String()
}

// BuildPrompt wraps a stock context in the analysis instructions.
func BuildPrompt(stockContext string) string {
	return fmt.Sprintf(promptTemplate, strings.TrimSpace(stockContext))
}

func plain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fixed2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func format(v *float64, f func(float64) string) string {
	if v == nil {
		return notAvailable
	}
	return f(*v)
}

func dollars(v *float64, f func(float64) string) string {
	if v == nil {
		return notAvailable
	}
	return "$" + f(*v)
}

func billions(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return "$" + fixed2(*v/1e9) + "B"
}

func percent(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return fixed2(*v) + "%"
}
