package service

import (
	"context"
	"fmt"

	"github.com/MitaksharaYadav/NetraAI/internal/domain"
	"github.com/MitaksharaYadav/NetraAI/internal/repository"

	"go.uber.org/zap"
)

// ReportService read side of the Reports page.
type ReportService interface {
	// ListReports records matching filter, repository order preserved.
	ListReports(ctx context.Context, filter domain.ReportFilter) ([]domain.ScanRecord, error)

	// GetReport returns (nil, nil) for unknown ids.
	GetReport(ctx context.Context, id string) (*domain.ScanRecord, error)

	// ReportsPage everything the Reports page renders in one call.
	ReportsPage(ctx context.Context, req ReportsPageRequest) (*ReportsPageResponse, error)
}

// ReportsPageRequest query of GET /reports.
type ReportsPageRequest struct {
	Filter   domain.ReportFilter
	DetailID string // optional; opens the detail view
}

// ReportsPageResponse filtered rows, selector options, view mode.
type ReportsPageResponse struct {
	Records    []domain.ScanRecord
	Conditions []string // from the unfiltered set
	Filter     domain.ReportFilter
	View       domain.ReportView
	Total      int // unfiltered count
}

type reportService struct {
	repo   repository.ScanRecordsRepository
	logger *zap.Logger
}

// NewReportService creates the report service.
func NewReportService(repo repository.ScanRecordsRepository, logger *zap.Logger) ReportService {
	return &reportService{repo: repo, logger: logger}
}

func (s *reportService) ListReports(ctx context.Context, filter domain.ReportFilter) ([]domain.ScanRecord, error) {
	all, err := s.repo.ListScanRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return domain.FilterRecords(all, filter), nil
}

func (s *reportService) GetReport(ctx context.Context, id string) (*domain.ScanRecord, error) {
	rec, err := s.repo.GetScanRecord(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return rec, nil
}

func (s *reportService) ReportsPage(ctx context.Context, req ReportsPageRequest) (*ReportsPageResponse, error) {
	all, err := s.repo.ListScanRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	resp := &ReportsPageResponse{
		Records:    domain.FilterRecords(all, req.Filter),
		Conditions: domain.DistinctConditions(all),
		Filter:     req.Filter,
		View:       domain.ReportView{Mode: domain.ReportList},
		Total:      len(all),
	}

	if req.DetailID != "" {
		for i := range all {
			if all[i].ID == req.DetailID {
				resp.View = resp.View.Select(&all[i])
				break
			}
		}
		if !resp.View.IsDetail() {
			s.logger.Debug("Unknown report id requested", zap.String("scan_id", req.DetailID))
		}
	}
	return resp, nil
}
