package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/MitaksharaYadav/NetraAI/internal/domain"

	"github.com/lib/pq"
)

// PostgresScanRecordsRepo scan_records table (see migrations/001_scan_records.sql).
type PostgresScanRecordsRepo struct {
	db *sql.DB
}

func NewPostgresScanRecordsRepo(db *sql.DB) *PostgresScanRecordsRepo {
	return &PostgresScanRecordsRepo{db: db}
}

var _ ScanRecordsRepository = (*PostgresScanRecordsRepo)(nil)

const scanRecordColumns = `
	scan_id,
	patient,
	to_char(scan_date, 'YYYY-MM-DD') AS scan_date,
	condition,
	severity,
	confidence::float8 AS confidence,
	regions,
	COALESCE(description, '') AS description`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecordRow(row rowScanner) (domain.ScanRecord, error) {
	var rec domain.ScanRecord
	var regions pq.StringArray
	if err := row.Scan(
		&rec.ID,
		&rec.Patient,
		&rec.Date,
		&rec.Condition,
		&rec.Severity,
		&rec.Confidence,
		&regions,
		&rec.Description,
	); err != nil {
		return domain.ScanRecord{}, err
	}
	rec.Regions = []string(regions)
	if rec.Regions == nil {
		rec.Regions = []string{}
	}
	return rec, nil
}

func (r *PostgresScanRecordsRepo) ListScanRecords(ctx context.Context) ([]domain.ScanRecord, error) {
	query := `SELECT` + scanRecordColumns + `
		FROM scan_records
		ORDER BY seq ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan records: %w", err)
	}
	defer rows.Close()

	out := []domain.ScanRecord{}
	for rows.Next() {
		rec, err := scanRecordRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scan record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scan records: %w", err)
	}
	return out, nil
}

func (r *PostgresScanRecordsRepo) GetScanRecord(ctx context.Context, id string) (*domain.ScanRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}

	query := `SELECT` + scanRecordColumns + `
		FROM scan_records
		WHERE scan_id = $1`

	rec, err := scanRecordRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get scan record: %w", err)
	}
	return &rec, nil
}
