package bloodsugar

import "fmt"

// Coefficients of the ADAG regression, eAG = 28.7 * A1c - 46.7, solved for A1c.
const (
	hba1cOffset = 46.7
	hba1cSlope  = 28.7
)

// EstimateHbA1c maps an average glucose value in mg/dL to an estimated HbA1c
// percentage. The result is not rounded; use FormatHbA1c for display.
func EstimateHbA1c(avgGlucose float64) float64 {
	return (avgGlucose + hba1cOffset) / hba1cSlope
}

// AverageGlucose returns the mean of a fasting and a postprandial reading.
func AverageGlucose(fasting, postprandial int) float64 {
	return (float64(fasting) + float64(postprandial)) / 2
}

// FormatHbA1c renders an HbA1c percentage with two decimals, e.g. "5.29%".
func FormatHbA1c(hba1c float64) string {
	return fmt.Sprintf("%.2f%%", hba1c)
}
