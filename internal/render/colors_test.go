package render

import (
	"testing"

	"github.com/jwulff/glucotrack/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestGetGlucoseColor(t *testing.T) {
	tests := []struct {
		mgdl int
		want domain.RGB
	}{
		{0, ColorGlucoseUrgentLow},
		{54, ColorGlucoseUrgentLow},
		{55, ColorGlucoseLow},
		{69, ColorGlucoseLow},
		{70, ColorGlucoseNormal},
		{120, ColorGlucoseNormal},
		{180, ColorGlucoseNormal},
		{181, ColorGlucoseHigh},
		{250, ColorGlucoseHigh},
		{251, ColorGlucoseUrgentHigh},
		{600, ColorGlucoseUrgentHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GetGlucoseColor(tt.mgdl), "GetGlucoseColor(%d)", tt.mgdl)
	}
}

func TestSeriesColorsAreDistinct(t *testing.T) {
	assert.False(t, ColorFasting.Equals(ColorPostprandial))
	assert.False(t, ColorFasting.Equals(ColorBg))
	assert.False(t, ColorPostprandial.Equals(ColorBg))
}

func TestChartTargetIsDimGreen(t *testing.T) {
	assert.Equal(t, domain.NewRGB(0, 40, 0), ColorChartTarget)
}

func TestDimColor(t *testing.T) {
	c := domain.NewRGB(200, 100, 50)

	assert.Equal(t, c, DimColor(c, 1.0))
	assert.Equal(t, c, DimColor(c, 1.5))
	assert.Equal(t, domain.NewRGB(100, 50, 25), DimColor(c, 0.5))
	assert.Equal(t, ColorBlack, DimColor(c, 0))
	assert.Equal(t, ColorBlack, DimColor(c, -0.5))
}
