package render

import (
	"github.com/jwulff/glucotrack/internal/bloodsugar"
	"github.com/jwulff/glucotrack/internal/domain"
)

var (
	ColorBlack = domain.NewRGB(0, 0, 0)
	ColorBg    = ColorBlack

	// Text
	ColorWhite = domain.NewRGB(255, 255, 255)
	ColorGray  = domain.NewRGB(128, 128, 128)
	ColorTitle = domain.NewRGB(180, 180, 180)

	// Marker colors by glucose range
	ColorGlucoseUrgentLow  = domain.NewRGB(255, 0, 0)     // below 55
	ColorGlucoseLow        = domain.NewRGB(255, 100, 100) // 55-69
	ColorGlucoseNormal     = domain.NewRGB(0, 255, 0)     // 70-180
	ColorGlucoseHigh       = domain.NewRGB(255, 255, 0)   // 181-250
	ColorGlucoseUrgentHigh = domain.NewRGB(255, 165, 0)   // above 250

	// One line per reading type
	ColorFasting      = domain.NewRGB(31, 119, 180)
	ColorPostprandial = domain.NewRGB(255, 127, 14)

	ColorChartAxis   = domain.NewRGB(90, 90, 90)
	ColorChartTarget = DimColor(ColorGlucoseNormal, 0.16) // 70-180 band
)

// GetGlucoseColor returns the marker color for a glucose value.
func GetGlucoseColor(mgdl int) domain.RGB {
	switch bloodsugar.ClassifyRange(mgdl) {
	case bloodsugar.RangeUrgentLow:
		return ColorGlucoseUrgentLow
	case bloodsugar.RangeLow:
		return ColorGlucoseLow
	case bloodsugar.RangeNormal:
		return ColorGlucoseNormal
	case bloodsugar.RangeHigh:
		return ColorGlucoseHigh
	default:
		return ColorGlucoseUrgentHigh
	}
}

// DimColor scales a color's brightness by factor, clamped to 0-1.
func DimColor(c domain.RGB, factor float64) domain.RGB {
	switch {
	case factor <= 0:
		return ColorBlack
	case factor >= 1:
		return c
	}
	return domain.NewRGB(
		uint8(float64(c.R)*factor),
		uint8(float64(c.G)*factor),
		uint8(float64(c.B)*factor),
	)
}
