package mocks

// Quote is the subset of a Yahoo v7 quote result the mock serves.
type Quote struct {
	Symbol                     string   `json:"symbol"`
	LongName                   string   `json:"longName,omitempty"`
	ShortName                  string   `json:"shortName,omitempty"`
	RegularMarketPrice         *float64 `json:"regularMarketPrice,omitempty"`
	RegularMarketChangePercent *float64 `json:"regularMarketChangePercent,omitempty"`
	TrailingPE                 *float64 `json:"trailingPE,omitempty"`
	ForwardPE                  *float64 `json:"forwardPE,omitempty"`
	BookValue                  *float64 `json:"bookValue,omitempty"`
	MarketCap                  *float64 `json:"marketCap,omitempty"`
	EPSTrailingTwelveMonths    *float64 `json:"epsTrailingTwelveMonths,omitempty"`
	EPSCurrentYear             *float64 `json:"epsCurrentYear,omitempty"`
	DividendRate               *float64 `json:"dividendRate,omitempty"`
	DividendYield              *float64 `json:"dividendYield,omitempty"`
	FiftyTwoWeekLow            *float64 `json:"fiftyTwoWeekLow,omitempty"`
	FiftyTwoWeekHigh           *float64 `json:"fiftyTwoWeekHigh,omitempty"`
}

// Bar is one daily close served by the chart endpoint.
type Bar struct {
	Timestamp int64
	Close     *float64
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []Quote      `json:"result"`
		Error  *yahooError `json:"error"`
	} `json:"quoteResponse"`
}

type chartQuote struct {
	Close []*float64 `json:"close"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []chartQuote `json:"quote"`
	} `json:"indicators"`
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *yahooError   `json:"error"`
	} `json:"chart"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatCompletion struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}
