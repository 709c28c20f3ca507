package bloodsugar

// Advice is the category picked by the fasting/postprandial rules.
type Advice string

const (
	AdviceLow         Advice = "low"
	AdviceNormal      Advice = "normal"
	AdvicePrediabetes Advice = "prediabetes"
	AdviceHigh        Advice = "high"
)

// Advisory thresholds in mg/dL.
const (
	FastingLow              = 70
	FastingNormalMax        = 99
	FastingPrediabetesMin   = 100
	FastingPrediabetesMax   = 125
	PostprandialNormalMax   = 140 // exclusive
	PostprandialDiabetesMin = 200 // exclusive upper bound of prediabetes
)

var adviceMessages = map[Advice]string{
	AdviceLow:         "Your fasting glucose is low. Consider consulting a doctor.",
	AdviceNormal:      "Your glucose levels are normal. Maintain a healthy lifestyle!",
	AdvicePrediabetes: "Your glucose levels indicate prediabetes. Consider lifestyle changes.",
	AdviceHigh:        "Your glucose levels are high. Consult a healthcare provider.",
}

// Message returns the advisory text for the category.
func (a Advice) Message() string {
	if msg, ok := adviceMessages[a]; ok {
		return msg
	}
	return adviceMessages[AdviceHigh]
}

// Classify applies the advisory rules top to bottom and returns the first
// match. A low fasting value wins over any postprandial value.
//
// Combinations such as fasting=130, postprandial=50 match none of the first
// three rules and fall through to AdviceHigh.
func Classify(fasting, postprandial int) Advice {
	switch {
	case fasting < FastingLow:
		return AdviceLow
	case fasting <= FastingNormalMax && postprandial < PostprandialNormalMax:
		return AdviceNormal
	case (fasting >= FastingPrediabetesMin && fasting <= FastingPrediabetesMax) ||
		(postprandial >= PostprandialNormalMax && postprandial < PostprandialDiabetesMin):
		return AdvicePrediabetes
	default:
		return AdviceHigh
	}
}

// HealthAdvice returns the advisory message for a reading pair.
func HealthAdvice(fasting, postprandial int) string {
	return Classify(fasting, postprandial).Message()
}
