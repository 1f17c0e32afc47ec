package scoring

import "stockup/models"

// Rating tiers, checked from the top down against a total score.
const (
	EliteThreshold   = 80
	SolidThreshold   = 60
	AverageThreshold = 40
	WeakThreshold    = 20
)

const (
	LabelElite    = "Elite Choice: Strong Buy"
	LabelSolid    = "Solid Choice: Buy with Confidence"
	LabelAverage  = "Average Choice: Research Further"
	LabelWeak     = "Not Recommended"
	LabelVeryPoor = "Very Poor Choice: Avoid"
)

type tier struct {
	min   int
	label string
	color models.ScoreColor
}

var tiers = []tier{
	{EliteThreshold, LabelElite, models.ScoreColorGreen},
	{SolidThreshold, LabelSolid, models.ScoreColorBlue},
	{AverageThreshold, LabelAverage, models.ScoreColorYellow},
	{WeakThreshold, LabelWeak, models.ScoreColorOrange},
}

func tierFor(total int) (string, models.ScoreColor) {
	for _, t := range tiers {
		if total >= t.min {
			return t.label, t.color
		}
	}
	return LabelVeryPoor, models.ScoreColorRed
}

// Label maps a total score to its qualitative recommendation.
func Label(total int) string {
	label, _ := tierFor(total)
	return label
}

// Color maps a total score to its display tier.
func Color(total int) models.ScoreColor {
	_, color := tierFor(total)
	return color
}

// Report computes the score breakdown and attaches its label and color.
func Report(quote models.QuoteSnapshot, history []models.PricePoint) models.ScoreReport {
	breakdown := ComputeScore(quote, history)
	label, color := tierFor(breakdown.Total)
	return models.ScoreReport{
		Breakdown: breakdown,
		Label:     label,
		Color:     color,
	}
}
