// Package charts renders price history images.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"stockup/models"
)

// ErrNotEnoughData is returned when fewer than two closes are available.
var ErrNotEnoughData = errors.New("not enough price history to chart")

const (
	DefaultWidth  = 900
	DefaultHeight = 400

	movingAveragePeriod = 20
)

// RenderPriceChart renders closes as a PNG line chart, with a 20-day moving
// average overlaid when the history is long enough.
func RenderPriceChart(symbol string, history []models.PricePoint, width, height int) ([]byte, error) {
	if len(history) < 2 {
		return nil, fmt.Errorf("%w: got %d points", ErrNotEnoughData, len(history))
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	xValues := make([]time.Time, len(history))
	yValues := make([]float64, len(history))
	for i, p := range history {
		xValues[i] = p.Date
		yValues[i] = p.Close
	}

	closeSeries := chart.TimeSeries{
		Name: "Close",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
			StrokeWidth: 2,
		},
		XValues: xValues,
		YValues: yValues,
	}

	series := []chart.Series{closeSeries}
	if len(history) >= movingAveragePeriod {
		series = append(series, chart.SMASeries{
			Name: "20-day MA",
			Style: chart.Style{
				StrokeColor:     drawing.ColorFromHex("f59e0b"), // amber-500
				StrokeWidth:     1.5,
				StrokeDashArray: []float64{5.0, 3.0},
			},
			InnerSeries: closeSeries,
			Period:      movingAveragePeriod,
		})
	}

	graph := chart.Chart{
		Title:  symbol,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 02")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("$%.2f", f)
				}
				return ""
			},
		},
		Series: series,
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
