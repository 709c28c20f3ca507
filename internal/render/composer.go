package render

import (
	"strconv"

	"github.com/jwulff/glucotrack/internal/domain"
	"github.com/jwulff/glucotrack/internal/session"
)

// Layout constants for the trend frame.
const (
	TitleY        = 1
	ChartTop      = 8  // Below the title row
	AxisLabelRows = 7  // Entry numbers under the chart
	LegendSwatch  = 3  // Legend swatch size in pixels
	DefaultWidth  = domain.Pixoo64Size
	DefaultHeight = domain.Pixoo64Size
)

// ComposeTrendFrame renders the "glucose levels over time" chart for a log:
// a title with legend, the mg/dL range on the left, and entry numbers along
// the bottom. An empty log yields a frame with only the title.
func ComposeTrendFrame(entries []session.Entry, width, height int) *domain.Frame {
	frame := domain.NewFrameWithColor(width, height, ColorBg)

	DrawTinyText(frame, "GLUCOSE", 1, TitleY, ColorTitle)
	drawLegend(frame, width)

	if len(entries) == 0 {
		return frame
	}

	values := make([]int, 0, 2*len(entries))
	for _, e := range entries {
		values = append(values, e.Fasting, e.Postprandial)
	}

	cfg := NewChartConfig(0, ChartTop, 0, height-ChartTop-AxisLabelRows)
	minGlucose, maxGlucose := ChartRange(values, cfg.Padding)

	// Y axis labels
	maxLabel := strconv.Itoa(maxGlucose)
	minLabel := strconv.Itoa(minGlucose)
	labelWidth := MeasureTinyText(maxLabel)
	if w := MeasureTinyText(minLabel); w > labelWidth {
		labelWidth = w
	}
	cfg.X = labelWidth + 2
	cfg.Width = width - cfg.X - 1

	DrawTinyText(frame, maxLabel, cfg.X-2-MeasureTinyText(maxLabel), cfg.Y, ColorGray)
	DrawTinyText(frame, minLabel, cfg.X-2-MeasureTinyText(minLabel), cfg.Y+cfg.Height-TinyCharHeight, ColorGray)

	RenderTrendChart(frame, entries, cfg)

	// X axis: first and last entry number (1-based)
	labelY := cfg.Y + cfg.Height + 1
	DrawTinyText(frame, "1", indexToX(0, len(entries), cfg)-1, labelY, ColorGray)
	if len(entries) > 1 {
		last := strconv.Itoa(len(entries))
		lastX := indexToX(len(entries)-1, len(entries), cfg) - MeasureTinyText(last) + 1
		DrawTinyText(frame, last, lastX, labelY, ColorGray)
	}

	return frame
}

// drawLegend draws F/P swatches right-aligned on the title row.
func drawLegend(frame *domain.Frame, width int) {
	x := width - 1 - (LegendSwatch+1+TinyCharWidth)*2 - 2
	for _, item := range []struct {
		label string
		color domain.RGB
	}{
		{"F", ColorFasting},
		{"P", ColorPostprandial},
	} {
		frame.FillRect(x, TitleY+1, LegendSwatch, LegendSwatch, item.color)
		x += LegendSwatch + 1
		DrawTinyText(frame, item.label, x, TitleY, ColorTitle)
		x += TinyCharWidth + 2
	}
}
