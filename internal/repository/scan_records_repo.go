package repository

import (
	"context"

	"github.com/MitaksharaYadav/NetraAI/internal/domain"
)

// ScanRecordsRepository read-only access to screening report records.
// Filtering is not done here; the service applies one shared predicate to
// whatever the backend returns.
type ScanRecordsRepository interface {
	// ListScanRecords all records in their canonical display order.
	ListScanRecords(ctx context.Context) ([]domain.ScanRecord, error)

	// GetScanRecord returns (nil, nil) when the id does not exist.
	GetScanRecord(ctx context.Context, id string) (*domain.ScanRecord, error)
}
