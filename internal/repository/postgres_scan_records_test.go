package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scanRecordCols = []string{"scan_id", "patient", "scan_date", "condition", "severity", "confidence", "regions", "description"}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresScanRecordsRepo) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresScanRecordsRepo(db)
}

func TestPostgresListScanRecords_Success(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	rows := sqlmock.NewRows(scanRecordCols).
		AddRow("NTR-2026-001", "Ramesh K.", "2026-02-10", "Proliferative DR", 4, 91.2, []byte(`{Macula,"Optic Disc",Vessels}`), "Critical stage.").
		AddRow("NTR-2026-002", "Sita D.", "2026-02-09", "No Diabetic Retinopathy", 0, 98.5, []byte(`{}`), "")

	mock.ExpectQuery(`SELECT(.|\n)*FROM scan_records(.|\n)*ORDER BY seq`).WillReturnRows(rows)

	records, err := repo.ListScanRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "NTR-2026-001", records[0].ID)
	assert.Equal(t, 4, records[0].Severity)
	assert.InDelta(t, 91.2, records[0].Confidence, 0.001)
	assert.Equal(t, []string{"Macula", "Optic Disc", "Vessels"}, records[0].Regions)

	assert.Equal(t, 0, records[1].Severity)
	assert.NotNil(t, records[1].Regions)
	assert.Empty(t, records[1].Regions)
	assert.Equal(t, "", records[1].Description)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListScanRecords_Empty(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WillReturnRows(sqlmock.NewRows(scanRecordCols))

	records, err := repo.ListScanRecords(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Len(t, records, 0)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListScanRecords_QueryError(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("connection reset"))

	records, err := repo.ListScanRecords(context.Background())
	assert.Error(t, err)
	assert.Nil(t, records)
	assert.Contains(t, err.Error(), "failed to list scan records")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetScanRecord_Found(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	rows := sqlmock.NewRows(scanRecordCols).
		AddRow("NTR-2026-003", "Arjun P.", "2026-02-08", "Mild DR", 1, 84.1, []byte(`{"Retinal Vessels"}`), "Early stage.")

	mock.ExpectQuery(`WHERE scan_id = \$1`).
		WithArgs("NTR-2026-003").
		WillReturnRows(rows)

	rec, err := repo.GetScanRecord(context.Background(), " NTR-2026-003 ")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Arjun P.", rec.Patient)
	assert.Equal(t, []string{"Retinal Vessels"}, rec.Regions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetScanRecord_NotFound(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`WHERE scan_id = \$1`).
		WithArgs("NTR-9999").
		WillReturnRows(sqlmock.NewRows(scanRecordCols))

	rec, err := repo.GetScanRecord(context.Background(), "NTR-9999")
	assert.NoError(t, err)
	assert.Nil(t, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetScanRecord_BlankID(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	rec, err := repo.GetScanRecord(context.Background(), "  ")
	assert.NoError(t, err)
	assert.Nil(t, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}
