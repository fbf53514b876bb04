package repository

import (
	"context"
	"strings"

	"github.com/MitaksharaYadav/NetraAI/internal/domain"
)

// MemoryScanRecordsRepo fixed in-memory record set; used when the DB is disabled
// or unreachable. Records are copied on the way in and out.
type MemoryScanRecordsRepo struct {
	records []domain.ScanRecord
}

// NewMemoryScanRecordsRepo seeds with records, or the sample set when none are given.
func NewMemoryScanRecordsRepo(records ...domain.ScanRecord) *MemoryScanRecordsRepo {
	if len(records) == 0 {
		records = domain.SampleScanRecords()
	}
	return &MemoryScanRecordsRepo{records: cloneRecords(records)}
}

var _ ScanRecordsRepository = (*MemoryScanRecordsRepo)(nil)

func (r *MemoryScanRecordsRepo) ListScanRecords(_ context.Context) ([]domain.ScanRecord, error) {
	return cloneRecords(r.records), nil
}

func (r *MemoryScanRecordsRepo) GetScanRecord(_ context.Context, id string) (*domain.ScanRecord, error) {
	id = strings.TrimSpace(id)
	for _, rec := range r.records {
		if rec.ID == id {
			out := cloneRecord(rec)
			return &out, nil
		}
	}
	return nil, nil
}

func cloneRecords(in []domain.ScanRecord) []domain.ScanRecord {
	out := make([]domain.ScanRecord, len(in))
	for i, r := range in {
		out[i] = cloneRecord(r)
	}
	return out
}

func cloneRecord(r domain.ScanRecord) domain.ScanRecord {
	regions := make([]string, len(r.Regions))
	copy(regions, r.Regions)
	r.Regions = regions
	return r
}
