package domain

import (
	"errors"
	"fmt"
	"math"
)

// Severity stage bounds (clinical DR grading).
const (
	MinSeverity = 0
	MaxSeverity = 4
)

// DiagnosticResult outcome of one fundus image analysis.
type DiagnosticResult struct {
	Condition   string   `json:"condition"`
	Severity    int      `json:"severity"`   // 0..4
	Confidence  float64  `json:"confidence"` // percentage, one decimal
	Regions     []string `json:"regions"`
	Description string   `json:"description,omitempty"`
	RawScore    *float64 `json:"raw_score,omitempty"`
}

// ScanRecord a stored screening report row.
type ScanRecord struct {
	ID          string   `json:"id"` // NTR-YYYY-NNN
	Patient     string   `json:"patient"`
	Date        string   `json:"date"` // yyyy-mm-dd
	Condition   string   `json:"condition"`
	Severity    int      `json:"severity"`
	Confidence  float64  `json:"confidence"`
	Regions     []string `json:"regions"`
	Description string   `json:"description,omitempty"`
}

var (
	ErrSeverityOutOfRange   = errors.New("severity out of range")
	ErrConfidenceOutOfRange = errors.New("confidence out of range")
)

// ValidSeverity reports whether s is a severity stage.
func ValidSeverity(s int) bool {
	return s >= MinSeverity && s <= MaxSeverity
}

// NormalizeSeverity accepts a JSON number only if it is an integral stage in [0,4].
func NormalizeSeverity(v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, fmt.Errorf("%w: %v is not an integral stage", ErrSeverityOutOfRange, v)
	}
	s := int(v)
	if !ValidSeverity(s) {
		return 0, fmt.Errorf("%w: %d", ErrSeverityOutOfRange, s)
	}
	return s, nil
}

// NormalizeConfidence checks the [0,100] range and rounds to one decimal.
func NormalizeConfidence(v float64) (float64, error) {
	if math.IsNaN(v) || v < 0 || v > 100 {
		return 0, fmt.Errorf("%w: %v", ErrConfidenceOutOfRange, v)
	}
	return math.Round(v*10) / 10, nil
}

// FormatConfidence renders a confidence percentage, e.g. "84.1%".
func FormatConfidence(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
