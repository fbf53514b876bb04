package events

import (
	"context"
	"errors"
	"time"

	"github.com/MitaksharaYadav/NetraAI/internal/domain"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeScanCompleted = "scan.completed"
	TypeScanFailed    = "scan.failed"
)

// ScanEvent emitted once per finished scan (success or failure).
type ScanEvent struct {
	ID        string                   `json:"id"`
	Type      string                   `json:"type"`
	SessionID string                   `json:"session_id"`
	ScanID    string                   `json:"scan_id"`
	FileName  string                   `json:"file_name,omitempty"`
	Result    *domain.DiagnosticResult `json:"result,omitempty"`
	ErrorKey  string                   `json:"error_key,omitempty"`
	Timestamp int64                    `json:"timestamp"`
}

// NewScanCompleted builds a scan.completed event.
func NewScanCompleted(sessionID, scanID, fileName string, result *domain.DiagnosticResult, at time.Time) ScanEvent {
	return ScanEvent{
		ID:        uuid.New().String(),
		Type:      TypeScanCompleted,
		SessionID: sessionID,
		ScanID:    scanID,
		FileName:  fileName,
		Result:    result,
		Timestamp: at.Unix(),
	}
}

// NewScanFailed builds a scan.failed event.
func NewScanFailed(sessionID, scanID, fileName, errorKey string, at time.Time) ScanEvent {
	return ScanEvent{
		ID:        uuid.New().String(),
		Type:      TypeScanFailed,
		SessionID: sessionID,
		ScanID:    scanID,
		FileName:  fileName,
		ErrorKey:  errorKey,
		Timestamp: at.Unix(),
	}
}

// Publisher delivers scan events to downstream consumers.
// Publishing is best effort: callers log errors and carry on.
type Publisher interface {
	Publish(ctx context.Context, ev ScanEvent) error
	Close() error
}

// History read access to recently published events, newest first.
type History interface {
	Recent(ctx context.Context, count int64) ([]ScanEvent, error)
}

// NopPublisher drops everything.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ScanEvent) error { return nil }
func (NopPublisher) Close() error                             { return nil }

// MultiPublisher fans out to every publisher and joins their errors.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, ev ScanEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiPublisher) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
