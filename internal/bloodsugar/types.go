// Package bloodsugar holds the glucose arithmetic: range classification,
// HbA1c estimation and the fasting/postprandial advisory rules.
package bloodsugar

// RangeStatus represents the glucose range classification of a single value.
type RangeStatus string

const (
	RangeUrgentLow RangeStatus = "urgentLow"
	RangeLow       RangeStatus = "low"
	RangeNormal    RangeStatus = "normal"
	RangeHigh      RangeStatus = "high"
	RangeVeryHigh  RangeStatus = "veryHigh"
)

// Glucose thresholds in mg/dL.
const (
	ThresholdUrgentLow = 55
	ThresholdLow       = 70
	ThresholdHigh      = 180
	ThresholdVeryHigh  = 250
)

// MaxReading is the largest glucose value accepted as input. It is far above
// anything a meter reports and keeps sums and chart bounds well inside int.
const MaxReading = 99999

// ClassifyRange determines the range status for a glucose value.
func ClassifyRange(mgdl int) RangeStatus {
	if mgdl < ThresholdUrgentLow {
		return RangeUrgentLow
	}
	if mgdl < ThresholdLow {
		return RangeLow
	}
	if mgdl <= ThresholdHigh {
		return RangeNormal
	}
	if mgdl <= ThresholdVeryHigh {
		return RangeHigh
	}
	return RangeVeryHigh
}

// MgdlToMmol converts mg/dL to mmol/L, rounded to one decimal.
func MgdlToMmol(mgdl int) float64 {
	return float64(int(float64(mgdl)/18.0182*10+0.5)) / 10.0
}
