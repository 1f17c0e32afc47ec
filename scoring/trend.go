package scoring

import (
	"fmt"

	"stockup/models"
)

// Trend grading is a separate moving-average heuristic. It is reported next to
// the composite score and is deliberately not folded into it.

const (
	trendChangeLookback = 31
	trendShortMA        = 20
	trendLongMA         = 50

	trendStrongChange   = 10.0
	trendPositiveChange = 3.0

	trendNearHigh = 0.8
	trendNearLow  = 0.2
)

const (
	trendGradeA = 6
	trendGradeB = 4
	trendGradeC = 2
)

// TrendGrade grades a price history by 30-day change, 20/50-day moving averages
// and position in the 52-week range. It returns false when history is empty.
func TrendGrade(quote models.QuoteSnapshot, history []models.PricePoint) (models.TrendReport, bool) {
	if len(history) == 0 {
		return models.TrendReport{}, false
	}

	closes := models.Closes(history)
	n := len(closes)
	last := closes[n-1]

	r := models.TrendReport{
		Last: last,
		Pros: []string{},
		Cons: []string{},
	}

	if n >= trendChangeLookback {
		base := closes[n-trendChangeLookback]
		if base != 0 {
			change := (last - base) / base * 100
			r.Change30 = &change
			switch {
			case change > trendStrongChange:
				r.Score += 3
				r.Pros = append(r.Pros, fmt.Sprintf("Strong 30-day momentum (+%.1f%%)", change))
			case change > trendPositiveChange:
				r.Score += 2
				r.Pros = append(r.Pros, fmt.Sprintf("Positive 30-day momentum (+%.1f%%)", change))
			case change > 0:
				r.Score++
				r.Pros = append(r.Pros, fmt.Sprintf("Slight positive 30-day momentum (+%.1f%%)", change))
			default:
				r.Cons = append(r.Cons, fmt.Sprintf("Negative 30-day momentum (%.1f%%)", change))
			}
		}
	}

	if n >= trendShortMA {
		ma := mean(closes[n-trendShortMA:])
		r.MA20 = &ma
		if last > ma {
			r.Score++
			r.Pros = append(r.Pros, "Price above 20-day MA")
		} else {
			r.Cons = append(r.Cons, "Price below 20-day MA")
		}
	}

	if n >= trendLongMA {
		ma := mean(closes[n-trendLongMA:])
		r.MA50 = &ma
		if last > ma {
			r.Score += 2
			r.Pros = append(r.Pros, "Price above 50-day MA")
		} else {
			r.Cons = append(r.Cons, "Price below 50-day MA")
		}
	}

	low, okLow := finite(quote.FiftyTwoWeekLow)
	high, okHigh := finite(quote.FiftyTwoWeekHigh)
	if okLow && okHigh && high > low {
		pos := (last - low) / (high - low)
		if pos > trendNearHigh {
			r.Score++
			r.Pros = append(r.Pros, "Trading near 52-week high")
		} else if pos < trendNearLow {
			r.Cons = append(r.Cons, "Trading near 52-week low")
		}
	}

	r.Grade = gradeFor(r.Score)
	return r, true
}

func gradeFor(score int) models.TrendGrade {
	switch {
	case score >= trendGradeA:
		return models.TrendGradeA
	case score >= trendGradeB:
		return models.TrendGradeB
	case score >= trendGradeC:
		return models.TrendGradeC
	default:
		return models.TrendGradeD
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
