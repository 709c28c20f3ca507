package render

import (
	"math"

	"github.com/jwulff/glucotrack/internal/bloodsugar"
	"github.com/jwulff/glucotrack/internal/domain"
	"github.com/jwulff/glucotrack/internal/session"
)

// intAbs returns the absolute value of an integer.
func intAbs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Series is one line on the trend chart. Values are plotted at x = index.
type Series struct {
	Name   string
	Color  domain.RGB
	Values []int
}

// ChartConfig configures the chart rendering.
type ChartConfig struct {
	X          int
	Y          int
	Width      int
	Height     int
	Padding    int  // Padding in mg/dL above/below data range
	TargetBand bool // Shade the 70-180 mg/dL target range
	Markers    bool // Draw a range-colored dot on each entry
}

// NewChartConfig creates a chart config with sensible defaults.
func NewChartConfig(x, y, width, height int) ChartConfig {
	return ChartConfig{
		X:          x,
		Y:          y,
		Width:      width,
		Height:     height,
		Padding:    15,
		TargetBand: true,
		Markers:    true,
	}
}

// ApplyDefaults applies default values to zero fields.
func (c *ChartConfig) ApplyDefaults() {
	if c.Padding == 0 {
		c.Padding = 15
	}
}

// TrendSeries splits log entries into the fasting and postprandial lines.
func TrendSeries(entries []session.Entry) []Series {
	fasting := make([]int, len(entries))
	postprandial := make([]int, len(entries))
	for i, e := range entries {
		fasting[i] = e.Fasting
		postprandial[i] = e.Postprandial
	}
	return []Series{
		{Name: "Fasting", Color: ColorFasting, Values: fasting},
		{Name: "Postprandial", Color: ColorPostprandial, Values: postprandial},
	}
}

// RenderTrendChart renders fasting and postprandial glucose across log entries.
// An empty log draws nothing.
func RenderTrendChart(frame *domain.Frame, entries []session.Entry, cfg ChartConfig) {
	RenderChart(frame, TrendSeries(entries), cfg)
}

// RenderChart renders line series sharing one glucose axis.
func RenderChart(frame *domain.Frame, series []Series, cfg ChartConfig) {
	cfg.ApplyDefaults()

	count := 0
	var all []int
	for _, s := range series {
		if len(s.Values) > count {
			count = len(s.Values)
		}
		all = append(all, s.Values...)
	}
	if count == 0 {
		return
	}

	minGlucose, maxGlucose := calculateDataRange(all, cfg.Padding)

	// Target band and axes first so lines appear on top
	if cfg.TargetBand && bloodsugar.ThresholdHigh >= minGlucose && bloodsugar.ThresholdLow <= maxGlucose {
		// glucoseToY clamps an edge that falls outside the axis
		top := glucoseToY(bloodsugar.ThresholdHigh, minGlucose, maxGlucose, cfg)
		bottom := glucoseToY(bloodsugar.ThresholdLow, minGlucose, maxGlucose, cfg)
		frame.FillRect(cfg.X, top, cfg.Width, bottom-top+1, ColorChartTarget)
	}
	frame.DrawLine(cfg.X, cfg.Y+cfg.Height-1, cfg.X+cfg.Width-1, cfg.Y+cfg.Height-1, ColorChartAxis)

	for _, s := range series {
		var prevX, prevY int
		hasPrev := false

		for i, value := range s.Values {
			px := indexToX(i, count, cfg)
			py := glucoseToY(value, minGlucose, maxGlucose, cfg)

			if hasPrev {
				drawChartLine(frame, prevX, prevY, px, py, s.Color, cfg)
			} else {
				drawChartLine(frame, px, py, px, py, s.Color, cfg)
			}

			prevX = px
			prevY = py
			hasPrev = true
		}
	}

	if cfg.Markers {
		for _, s := range series {
			for i, value := range s.Values {
				px := indexToX(i, count, cfg)
				py := glucoseToY(value, minGlucose, maxGlucose, cfg)
				drawMarker(frame, px, py, GetGlucoseColor(value), cfg)
			}
		}
	}
}

// ChartRange returns the glucose axis bounds RenderChart would use for values.
func ChartRange(values []int, padding int) (int, int) {
	return calculateDataRange(values, padding)
}

// calculateDataRange computes the min/max glucose with padding.
func calculateDataRange(values []int, padding int) (int, int) {
	if len(values) == 0 {
		return bloodsugar.ThresholdLow, bloodsugar.ThresholdHigh
	}

	dataMin := clampReading(values[0])
	dataMax := dataMin
	for _, v := range values[1:] {
		v = clampReading(v)
		if v < dataMin {
			dataMin = v
		}
		if v > dataMax {
			dataMax = v
		}
	}

	// Ensure minimum range of 30 mg/dL
	const minRange = 30
	rawRange := dataMax - dataMin
	extraPadding := 0
	if rawRange < minRange {
		extraPadding = (minRange - rawRange) / 2
	}

	minGlucose := dataMin - padding - extraPadding
	maxGlucose := dataMax + padding + extraPadding

	// Readings are non-negative
	if minGlucose < 0 {
		maxGlucose -= minGlucose
		minGlucose = 0
	}

	return minGlucose, maxGlucose
}

// clampReading keeps a value inside the accepted input range so the axis
// arithmetic cannot overflow.
func clampReading(v int) int {
	return min(max(v, 0), bloodsugar.MaxReading)
}

// indexToX converts an entry index to X pixel position. A single entry is centered.
func indexToX(i, count int, cfg ChartConfig) int {
	if count <= 1 {
		return cfg.X + (cfg.Width-1)/2
	}
	return cfg.X + int(math.Round(float64(i)/float64(count-1)*float64(cfg.Width-1)))
}

// glucoseToY converts a glucose value to Y pixel position.
func glucoseToY(glucose, minGlucose, maxGlucose int, cfg ChartConfig) int {
	glucoseRange := maxGlucose - minGlucose
	if glucoseRange == 0 {
		return cfg.Y + cfg.Height/2
	}

	// Clamp glucose to range
	if glucose < minGlucose {
		glucose = minGlucose
	}
	if glucose > maxGlucose {
		glucose = maxGlucose
	}

	// Higher glucose = lower Y (top of chart)
	normalizedGlucose := float64(glucose-minGlucose) / float64(glucoseRange)
	return cfg.Y + cfg.Height - 1 - int(math.Round(normalizedGlucose*float64(cfg.Height-1)))
}

// drawMarker draws a plus-shaped dot clipped to the chart area.
func drawMarker(frame *domain.Frame, x, y int, color domain.RGB, cfg ChartConfig) {
	for _, d := range [][2]int{{0, 0}, {-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		setChartPixel(frame, x+d[0], y+d[1], color, cfg)
	}
}

func setChartPixel(frame *domain.Frame, x, y int, color domain.RGB, cfg ChartConfig) {
	if x >= cfg.X && x < cfg.X+cfg.Width && y >= cfg.Y && y < cfg.Y+cfg.Height {
		frame.SetPixel(x, y, color)
	}
}

// drawChartLine draws a line between two points clipped to the chart area.
func drawChartLine(frame *domain.Frame, x0, y0, x1, y1 int, color domain.RGB, cfg ChartConfig) {
	dx := intAbs(x1 - x0)
	dy := -intAbs(y1 - y0)
	sx := 1
	if x0 >= x1 {
		sx = -1
	}
	sy := 1
	if y0 >= y1 {
		sy = -1
	}
	err := dx + dy

	currentX, currentY := x0, y0

	for {
		setChartPixel(frame, currentX, currentY, color, cfg)

		if currentX == x1 && currentY == y1 {
			break
		}

		e2 := 2 * err
		if e2 >= dy {
			err += dy
			currentX += sx
		}
		if e2 <= dx {
			err += dx
			currentY += sy
		}
	}
}
