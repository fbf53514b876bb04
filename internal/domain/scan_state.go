package domain

import (
	"fmt"
	"time"
)

// ScanPhase scan flow state.
type ScanPhase int

const (
	ScanIdle ScanPhase = iota
	ScanScanning
	ScanSucceeded
	ScanFailed
)

func (p ScanPhase) String() string {
	switch p {
	case ScanIdle:
		return "idle"
	case ScanScanning:
		return "scanning"
	case ScanSucceeded:
		return "succeeded"
	case ScanFailed:
		return "failed"
	default:
		return fmt.Sprintf("ScanPhase(%d)", int(p))
	}
}

// MarshalText keeps the phase readable in persisted state and API payloads.
func (p ScanPhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *ScanPhase) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle", "":
		*p = ScanIdle
	case "scanning":
		*p = ScanScanning
	case "succeeded":
		*p = ScanSucceeded
	case "failed":
		*p = ScanFailed
	default:
		return fmt.Errorf("unknown scan phase %q", string(b))
	}
	return nil
}

// ScanState one session's scan flow. ErrorKey is set only in ScanFailed;
// Result is cleared by Begin and Fail but survives Sample.
type ScanState struct {
	Phase     ScanPhase         `json:"phase"`
	ScanID    string            `json:"scan_id,omitempty"`
	FileName  string            `json:"file_name,omitempty"`
	Preview   string            `json:"preview,omitempty"` // data: URL of the uploaded image
	Result    *DiagnosticResult `json:"result,omitempty"`
	ErrorKey  string            `json:"error_key,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// InvalidTransitionError a transition not allowed from the current phase.
type InvalidTransitionError struct {
	From   ScanPhase
	Action string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("scan: cannot %s while %s", e.Action, e.From)
}

// Begin starts a submission: clears result and error, records the preview.
func (s ScanState) Begin(scanID, fileName, preview string, now time.Time) (ScanState, error) {
	switch s.Phase {
	case ScanIdle, ScanSucceeded, ScanFailed:
		return ScanState{
			Phase:     ScanScanning,
			ScanID:    scanID,
			FileName:  fileName,
			Preview:   preview,
			UpdatedAt: now,
		}, nil
	case ScanScanning:
		return s, &InvalidTransitionError{From: s.Phase, Action: "begin"}
	default:
		return s, &InvalidTransitionError{From: s.Phase, Action: "begin"}
	}
}

// Succeed stores the result of the in-flight submission.
func (s ScanState) Succeed(result DiagnosticResult, now time.Time) (ScanState, error) {
	switch s.Phase {
	case ScanScanning:
		s.Phase = ScanSucceeded
		s.Result = &result
		s.ErrorKey = ""
		s.UpdatedAt = now
		return s, nil
	case ScanIdle, ScanSucceeded, ScanFailed:
		return s, &InvalidTransitionError{From: s.Phase, Action: "succeed"}
	default:
		return s, &InvalidTransitionError{From: s.Phase, Action: "succeed"}
	}
}

// Fail ends the in-flight submission with a user-facing error key.
func (s ScanState) Fail(errorKey string, now time.Time) (ScanState, error) {
	switch s.Phase {
	case ScanScanning:
		s.Phase = ScanFailed
		s.Result = nil
		s.ErrorKey = errorKey
		s.UpdatedAt = now
		return s, nil
	case ScanIdle, ScanSucceeded, ScanFailed:
		return s, &InvalidTransitionError{From: s.Phase, Action: "fail"}
	default:
		return s, &InvalidTransitionError{From: s.Phase, Action: "fail"}
	}
}

// Sample records the disabled sample action. The preview of an earlier
// upload stays visible, as does any earlier result.
func (s ScanState) Sample(errorKey string, now time.Time) (ScanState, error) {
	switch s.Phase {
	case ScanIdle, ScanSucceeded, ScanFailed:
		s.Phase = ScanFailed
		s.ErrorKey = errorKey
		s.UpdatedAt = now
		return s, nil
	case ScanScanning:
		return s, &InvalidTransitionError{From: s.Phase, Action: "run sample"}
	default:
		return s, &InvalidTransitionError{From: s.Phase, Action: "run sample"}
	}
}
