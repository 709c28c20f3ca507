package bloodsugar

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateHbA1c(t *testing.T) {
	tests := []struct {
		avg      float64
		expected float64
	}{
		{0, 46.7 / 28.7},
		{105, (105 + 46.7) / 28.7},
		{154, (154 + 46.7) / 28.7},
		{-46.7, 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.expected, EstimateHbA1c(tt.avg), 1e-12, "EstimateHbA1c(%v)", tt.avg)
	}
}

func TestEstimateHbA1cFullPrecision(t *testing.T) {
	// 151.7 / 28.7 is not representable in two decimals
	got := EstimateHbA1c(105)
	assert.NotEqual(t, 5.29, got)
	assert.InDelta(t, 5.2857, got, 0.0001)
}

func TestEstimateHbA1cMonotonic(t *testing.T) {
	prev := EstimateHbA1c(-100)
	for x := -99.5; x < 600; x += 0.5 {
		cur := EstimateHbA1c(x)
		assert.Greater(t, cur, prev, "not increasing at %v", x)
		prev = cur
	}
}

func TestEstimateHbA1cDeterministic(t *testing.T) {
	for _, x := range []float64{0, 1, 99.5, 250, 1e6} {
		assert.Equal(t, EstimateHbA1c(x), EstimateHbA1c(x))
	}
}

func TestAverageGlucose(t *testing.T) {
	assert.Equal(t, 105.0, AverageGlucose(90, 120))
	assert.Equal(t, 0.0, AverageGlucose(0, 0))
	assert.Equal(t, 100.5, AverageGlucose(100, 101))
}

func TestAverageGlucoseLargeValuesDoNotWrap(t *testing.T) {
	avg := AverageGlucose(math.MaxInt, 1)

	assert.Greater(t, avg, 0.0)
	assert.InDelta(t, float64(math.MaxInt)/2, avg, 1)
	assert.Greater(t, EstimateHbA1c(avg), EstimateHbA1c(AverageGlucose(MaxReading, MaxReading)))
}

func TestFormatHbA1c(t *testing.T) {
	assert.Equal(t, "5.29%", FormatHbA1c(EstimateHbA1c(105)))
	assert.Equal(t, "1.63%", FormatHbA1c(EstimateHbA1c(0)))
	assert.Equal(t, "7.00%", FormatHbA1c(7))
}
