package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jwulff/glucotrack/internal/bloodsugar"
)

// ErrInvalidReading is returned for readings that are negative, above
// bloodsugar.MaxReading or not whole numbers.
var ErrInvalidReading = errors.New("invalid glucose reading")

// Reading is one pair of manually entered glucose values in mg/dL.
type Reading struct {
	Fasting      int `json:"fasting"`
	Postprandial int `json:"postprandial"`
}

// Validate enforces the input constraint the calculation assumes.
func (r Reading) Validate() error {
	if r.Fasting < 0 {
		return fmt.Errorf("%w: fasting glucose must be >= 0, got %d", ErrInvalidReading, r.Fasting)
	}
	if r.Postprandial < 0 {
		return fmt.Errorf("%w: postprandial glucose must be >= 0, got %d", ErrInvalidReading, r.Postprandial)
	}
	if r.Fasting > bloodsugar.MaxReading {
		return fmt.Errorf("%w: fasting glucose must be <= %d, got %d", ErrInvalidReading, bloodsugar.MaxReading, r.Fasting)
	}
	if r.Postprandial > bloodsugar.MaxReading {
		return fmt.Errorf("%w: postprandial glucose must be <= %d, got %d", ErrInvalidReading, bloodsugar.MaxReading, r.Postprandial)
	}
	return nil
}

// ParseReading parses raw form values. Empty fields count as 0, matching an
// untouched number input.
func ParseReading(fasting, postprandial string) (Reading, error) {
	f, err := parseGlucose("fasting", fasting)
	if err != nil {
		return Reading{}, err
	}
	p, err := parseGlucose("postprandial", postprandial)
	if err != nil {
		return Reading{}, err
	}
	r := Reading{Fasting: f, Postprandial: p}
	return r, r.Validate()
}

func parseGlucose(field, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s glucose %q is not a whole number", ErrInvalidReading, field, raw)
	}
	return v, nil
}

// Result is what a calculation request shows to the user.
type Result struct {
	Entry     Entry             `json:"entry"`
	Average   float64           `json:"average"`
	Advice    bloodsugar.Advice `json:"advice"`
	Message   string            `json:"message"`
	Formatted string            `json:"formatted"`
}

// Calculate runs one calculation request: estimate, advise, and append one
// entry to the log. The log passed in is the log returned; a nil log is
// treated as a fresh session.
func Calculate(log *Log, r Reading, now time.Time) (Result, *Log) {
	if log == nil {
		log = NewLog()
	}

	avg := bloodsugar.AverageGlucose(r.Fasting, r.Postprandial)
	hba1c := bloodsugar.EstimateHbA1c(avg)
	advice := bloodsugar.Classify(r.Fasting, r.Postprandial)

	entry := Entry{
		Fasting:      r.Fasting,
		Postprandial: r.Postprandial,
		HbA1c:        hba1c,
		RecordedAt:   now,
	}
	log.Append(entry)

	return Result{
		Entry:     entry,
		Average:   avg,
		Advice:    advice,
		Message:   advice.Message(),
		Formatted: bloodsugar.FormatHbA1c(hba1c),
	}, log
}
