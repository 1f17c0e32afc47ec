package models

// ScoreBreakdown is the five-category composite grade for a stock.
type ScoreBreakdown struct {
	Valuation     int `json:"valuation"`
	Growth        int `json:"growth"`
	Health        int `json:"health"`
	Profitability int `json:"profitability"`
	Momentum      int `json:"momentum"`
	Total         int `json:"total"`
}

// ScoreColor is the display tier for a total score.
type ScoreColor string

const (
	ScoreColorGreen  ScoreColor = "green"
	ScoreColorBlue   ScoreColor = "blue"
	ScoreColorYellow ScoreColor = "yellow"
	ScoreColorOrange ScoreColor = "orange"
	ScoreColorRed    ScoreColor = "red"
)

// CSSClass returns the text class used by the dashboard for this tier.
func (c ScoreColor) CSSClass() string {
	switch c {
	case ScoreColorGreen:
		return "text-green-600"
	case ScoreColorBlue:
		return "text-blue-600"
	case ScoreColorYellow:
		return "text-yellow-600"
	case ScoreColorOrange:
		return "text-orange-600"
	default:
		return "text-red-600"
	}
}

// ScoreReport bundles a breakdown with its presentation mappings.
type ScoreReport struct {
	Breakdown ScoreBreakdown `json:"breakdown"`
	Label     string         `json:"label"`
	Color     ScoreColor     `json:"color"`
}

// TrendGrade is the letter grade produced by the moving-average heuristic.
type TrendGrade string

const (
	TrendGradeA TrendGrade = "A"
	TrendGradeB TrendGrade = "B"
	TrendGradeC TrendGrade = "C"
	TrendGradeD TrendGrade = "D"
)

// TrendReport is the result of grading a price history by trend.
type TrendReport struct {
	Grade    TrendGrade `json:"grade"`
	Score    int        `json:"score"`
	Pros     []string   `json:"pros"`
	Cons     []string   `json:"cons"`
	Last     float64    `json:"last"`
	Change30 *float64   `json:"change_30,omitempty"`
	MA20     *float64   `json:"ma_20,omitempty"`
	MA50     *float64   `json:"ma_50,omitempty"`
}
