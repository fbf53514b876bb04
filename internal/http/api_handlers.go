package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/MitaksharaYadav/NetraAI/internal/domain"
	"github.com/MitaksharaYadav/NetraAI/internal/events"
	"github.com/MitaksharaYadav/NetraAI/internal/i18n"
	"github.com/MitaksharaYadav/NetraAI/internal/service"

	"go.uber.org/zap"
)

// APIHandler JSON mirror of the dashboard pages under /api/v1.
type APIHandler struct {
	bundle         *i18n.Bundle
	scans          service.ScanService
	reports        service.ReportService
	history        events.History // nil when no event stream is available
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewAPIHandler(
	bundle *i18n.Bundle,
	scans service.ScanService,
	reports service.ReportService,
	history events.History,
	maxUploadBytes int64,
	logger *zap.Logger,
) *APIHandler {
	return &APIHandler{
		bundle:         bundle,
		scans:          scans,
		reports:        reports,
		history:        history,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

func (h *APIHandler) localizer(r *http.Request) i18n.Localizer {
	lang, _ := i18n.ResolveLanguage(r)
	return i18n.NewLocalizer(h.bundle, lang)
}

// ScanStateDTO scan state as exposed by the API. Error is localized.
type ScanStateDTO struct {
	Phase          domain.ScanPhase         `json:"phase"`
	ScanID         string                   `json:"scan_id,omitempty"`
	FileName       string                   `json:"file_name,omitempty"`
	HasPreview     bool                     `json:"has_preview"`
	Result         *domain.DiagnosticResult `json:"result,omitempty"`
	SeverityLabel  string                   `json:"severity_label,omitempty"`
	SeverityBadge  string                   `json:"severity_variant,omitempty"`
	ConfidenceText string                   `json:"confidence_text,omitempty"`
	Error          string                   `json:"error,omitempty"`
	UpdatedAt      string                   `json:"updated_at,omitempty"`
}

func toScanStateDTO(st domain.ScanState, l i18n.Localizer) ScanStateDTO {
	dto := ScanStateDTO{
		Phase:      st.Phase,
		ScanID:     st.ScanID,
		FileName:   st.FileName,
		HasPreview: st.Preview != "",
		Result:     st.Result,
	}
	if st.Result != nil {
		dto.SeverityLabel = l.T(domain.SeverityLabel(st.Result.Severity))
		dto.SeverityBadge = domain.SeverityVariant(st.Result.Severity)
		dto.ConfidenceText = domain.FormatConfidence(st.Result.Confidence)
	}
	if st.Phase == domain.ScanFailed && st.ErrorKey != "" {
		dto.Error = l.T(st.ErrorKey)
	}
	if !st.UpdatedAt.IsZero() {
		dto.UpdatedAt = st.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	return dto
}

// ReportDTO a record plus its localized report badge.
type ReportDTO struct {
	domain.ScanRecord
	BadgeVariant string `json:"badge_variant"`
	BadgeLabel   string `json:"badge_label"`
}

func toReportDTO(rec domain.ScanRecord, l i18n.Localizer) ReportDTO {
	b := domain.ReportBadge(rec.Severity)
	label := l.T(b.LabelKey)
	if b.DetailKey != "" {
		label += " (" + l.T(b.DetailKey) + ")"
	}
	return ReportDTO{ScanRecord: rec, BadgeVariant: b.Variant, BadgeLabel: label}
}

// ReportListDTO GET /api/v1/reports result.
type ReportListDTO struct {
	Items      []ReportDTO `json:"items"`
	Matched    int         `json:"matched"`
	Total      int         `json:"total"` // before filtering
	Conditions []string    `json:"conditions"`
	Severity   string      `json:"severity"`
	Condition  string      `json:"condition"`
}

// ListReports GET /api/v1/reports?severity=&condition=
func (h *APIHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	l := h.localizer(r)
	page, err := h.reports.ReportsPage(r.Context(), service.ReportsPageRequest{Filter: reportFilterFromRequest(r)})
	if err != nil {
		h.logger.Error("Failed to list reports", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list reports"))
		return
	}

	items := make([]ReportDTO, 0, len(page.Records))
	for _, rec := range page.Records {
		items = append(items, toReportDTO(rec, l))
	}
	writeJSON(w, http.StatusOK, Ok(ReportListDTO{
		Items:      items,
		Matched:    len(items),
		Total:      page.Total,
		Conditions: page.Conditions,
		Severity:   string(page.Filter.Severity),
		Condition:  page.Filter.Condition,
	}))
}

// GetReport GET /api/v1/reports/{id}
func (h *APIHandler) GetReport(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := h.reports.GetReport(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get report", zap.String("scan_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to get report"))
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusNotFound, Fail("report not found"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(toReportDTO(*rec, h.localizer(r))))
}

// GetScan GET /api/v1/scan
func (h *APIHandler) GetScan(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(w, r)
	st, err := h.scans.State(r.Context(), sid)
	if err != nil {
		h.logger.Error("Failed to load scan state", zap.String("session_id", sid), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to load scan state"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(toScanStateDTO(st, h.localizer(r))))
}

// SubmitScan POST /api/v1/scan (multipart field "file"); waits for the result.
func (h *APIHandler) SubmitScan(w http.ResponseWriter, r *http.Request) {
	l := h.localizer(r)
	sid := sessionID(w, r)

	upload, err := readUpload(w, r, h.maxUploadBytes)
	if err != nil {
		status, key := uploadErrorStatus(err)
		writeJSON(w, status, Fail(l.T(key)))
		return
	}

	st, err := h.scans.Submit(r.Context(), sid, upload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrScanInFlight):
			writeJSON(w, http.StatusConflict, Fail(l.T(service.ErrorKeyScanInFlight)))
		case errors.Is(err, service.ErrEmptyUpload):
			writeJSON(w, http.StatusBadRequest, Fail(l.T("noFileSelected")))
		default:
			h.logger.Error("Failed to submit scan", zap.String("session_id", sid), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, Fail(l.T(service.ErrorKeyScan)))
		}
		return
	}

	if st.Phase == domain.ScanFailed {
		writeJSON(w, http.StatusBadGateway, Fail(l.T(st.ErrorKey)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(toScanStateDTO(st, l)))
}

// SampleScan POST /api/v1/scan/sample
func (h *APIHandler) SampleScan(w http.ResponseWriter, r *http.Request) {
	l := h.localizer(r)
	sid := sessionID(w, r)

	st, err := h.scans.Sample(r.Context(), sid)
	if err != nil {
		if errors.Is(err, service.ErrScanInFlight) {
			writeJSON(w, http.StatusConflict, Fail(l.T(service.ErrorKeyScanInFlight)))
			return
		}
		h.logger.Error("Sample action failed", zap.String("session_id", sid), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(l.T(service.ErrorKeyScan)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(toScanStateDTO(st, l)))
}

const (
	defaultEventLimit = 20
	maxEventLimit     = 100
	// eventScanWindow newest stream entries searched for the caller's session.
	eventScanWindow = 500
)

// ScanEventListDTO GET /api/v1/scan/events result.
type ScanEventListDTO struct {
	Items []events.ScanEvent `json:"items"`
}

// ScanEvents GET /api/v1/scan/events?limit= the caller's recent scan outcomes, newest first.
func (h *APIHandler) ScanEvents(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusServiceUnavailable, Fail("scan event history unavailable"))
		return
	}

	limit := defaultEventLimit
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, Fail("invalid limit"))
			return
		}
		limit = min(n, maxEventLimit)
	}

	sid := sessionID(w, r)
	recent, err := h.history.Recent(r.Context(), eventScanWindow)
	if err != nil {
		h.logger.Error("Failed to read scan events", zap.String("session_id", sid), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to read scan events"))
		return
	}

	items := make([]events.ScanEvent, 0, limit)
	for _, ev := range recent {
		if ev.SessionID != sid {
			continue
		}
		items = append(items, ev)
		if len(items) == limit {
			break
		}
	}
	writeJSON(w, http.StatusOK, Ok(ScanEventListDTO{Items: items}))
}

// CatalogDTO GET /api/v1/i18n/{lang} result; messages merged over English.
type CatalogDTO struct {
	Locale   string            `json:"locale"`
	Name     string            `json:"name"`
	Messages map[string]string `json:"messages"`
}

// GetCatalog GET /api/v1/i18n/{lang}
func (h *APIHandler) GetCatalog(w http.ResponseWriter, r *http.Request, code string) {
	lang, ok := i18n.ParseLanguage(strings.TrimSpace(code))
	if !ok {
		writeJSON(w, http.StatusNotFound, Fail("unsupported language"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(CatalogDTO{
		Locale:   string(lang),
		Name:     h.bundle.LanguageName(lang),
		Messages: h.bundle.Messages(lang),
	}))
}
