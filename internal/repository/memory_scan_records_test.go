package repository

import (
	"context"
	"testing"

	"github.com/MitaksharaYadav/NetraAI/internal/domain"
	"github.com/MitaksharaYadav/NetraAI/internal/repository/migrations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryScanRecords_SampleOrder(t *testing.T) {
	repo := NewMemoryScanRecordsRepo()

	records, err := repo.ListScanRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 4)

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"NTR-2026-001", "NTR-2026-002", "NTR-2026-003", "NTR-2026-004"}, ids)
}

func TestMemoryScanRecords_ReturnsCopies(t *testing.T) {
	repo := NewMemoryScanRecordsRepo()
	ctx := context.Background()

	records, _ := repo.ListScanRecords(ctx)
	records[0].Patient = "changed"
	records[0].Regions[0] = "changed"

	again, _ := repo.ListScanRecords(ctx)
	assert.Equal(t, "Ramesh K.", again[0].Patient)
	assert.Equal(t, "Macula", again[0].Regions[0])

	rec, err := repo.GetScanRecord(ctx, "NTR-2026-001")
	require.NoError(t, err)
	rec.Regions[1] = "changed"
	rec2, _ := repo.GetScanRecord(ctx, "NTR-2026-001")
	assert.Equal(t, "Optic Disc", rec2.Regions[1])
}

func TestMemoryScanRecords_GetMissing(t *testing.T) {
	repo := NewMemoryScanRecordsRepo(domain.ScanRecord{ID: "A", Regions: nil})

	rec, err := repo.GetScanRecord(context.Background(), "B")
	assert.NoError(t, err)
	assert.Nil(t, rec)

	rec, err = repo.GetScanRecord(context.Background(), "A")
	require.NoError(t, err)
	assert.NotNil(t, rec.Regions)
}

func TestMigrations_SeedMatchesSampleRecords(t *testing.T) {
	all, err := migrations.All()
	require.NoError(t, err)
	require.NotEmpty(t, all)
	assert.Equal(t, "001_scan_records.sql", all[0].Name)

	for _, r := range domain.SampleScanRecords() {
		assert.Contains(t, all[0].SQL, "'"+r.ID+"'")
	}
}
