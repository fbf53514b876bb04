package httpapi

import (
	"errors"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/MitaksharaYadav/NetraAI/internal/domain"
	"github.com/MitaksharaYadav/NetraAI/internal/i18n"
	"github.com/MitaksharaYadav/NetraAI/internal/service"

	"go.uber.org/zap"
)

// scanRefreshSeconds auto-refresh interval of the scan page while scanning.
const scanRefreshSeconds = 2

// PageHandler server-rendered dashboard pages.
type PageHandler struct {
	renderer       *Renderer
	bundle         *i18n.Bundle
	scans          service.ScanService
	reports        service.ReportService
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewPageHandler(
	renderer *Renderer,
	bundle *i18n.Bundle,
	scans service.ScanService,
	reports service.ReportService,
	maxUploadBytes int64,
	logger *zap.Logger,
) *PageHandler {
	return &PageHandler{
		renderer:       renderer,
		bundle:         bundle,
		scans:          scans,
		reports:        reports,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// localizer resolves the request language and persists an explicit switch.
func (h *PageHandler) localizer(w http.ResponseWriter, r *http.Request) i18n.Localizer {
	lang, persist := i18n.ResolveLanguage(r)
	if persist {
		i18n.SetLanguageCookie(w, lang)
	}
	return i18n.NewLocalizer(h.bundle, lang)
}

type dashboardView struct {
	Stats []StatCard
}

// Dashboard GET /
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	l := h.localizer(w, r)
	h.renderer.Render(w, http.StatusOK, pageDashboard, newPageData(r, l, dashboardView{Stats: dashboardStats}))
}

type scanView struct {
	Scanning bool
	Preview  template.URL
	Result   *domain.DiagnosticResult
	Error    string
}

func (h *PageHandler) renderScan(w http.ResponseWriter, r *http.Request, l i18n.Localizer, status int, st domain.ScanState, notice string) {
	view := scanView{
		Scanning: st.Phase == domain.ScanScanning,
		Result:   st.Result,
	}
	// Only data URLs this service built from image bytes are trusted as src.
	if strings.HasPrefix(st.Preview, "data:image/") {
		view.Preview = template.URL(st.Preview)
	}
	switch {
	case notice != "":
		view.Error = l.T(notice)
	case st.Phase == domain.ScanFailed && st.ErrorKey != "":
		view.Error = l.T(st.ErrorKey)
	}

	data := newPageData(r, l, view)
	if view.Scanning {
		data.Refresh = scanRefreshSeconds
	}
	h.renderer.Render(w, status, pageScan, data)
}

// ScanPage GET /scan
func (h *PageHandler) ScanPage(w http.ResponseWriter, r *http.Request) {
	l := h.localizer(w, r)
	sid := sessionID(w, r)

	st, err := h.scans.State(r.Context(), sid)
	if err != nil {
		h.logger.Error("Failed to load scan state", zap.String("session_id", sid), zap.Error(err))
		st = domain.ScanState{Phase: domain.ScanIdle}
	}
	h.renderScan(w, r, l, http.StatusOK, st, "")
}

// ScanSubmit POST /scan (multipart field "file")
func (h *PageHandler) ScanSubmit(w http.ResponseWriter, r *http.Request) {
	l := h.localizer(w, r)
	sid := sessionID(w, r)
	ctx := r.Context()

	upload, err := readUpload(w, r, h.maxUploadBytes)
	if err != nil {
		h.logger.Info("Rejected scan upload", zap.String("session_id", sid), zap.Error(err))
		st, _ := h.scans.State(ctx, sid)
		status, notice := uploadErrorStatus(err)
		h.renderScan(w, r, l, status, st, notice)
		return
	}

	if _, err := h.scans.Start(ctx, sid, upload); err != nil {
		st, _ := h.scans.State(ctx, sid)
		switch {
		case errors.Is(err, service.ErrScanInFlight):
			h.renderScan(w, r, l, http.StatusConflict, st, service.ErrorKeyScanInFlight)
		case errors.Is(err, service.ErrEmptyUpload):
			h.renderScan(w, r, l, http.StatusBadRequest, st, "noFileSelected")
		default:
			h.logger.Error("Failed to start scan", zap.String("session_id", sid), zap.Error(err))
			h.renderScan(w, r, l, http.StatusInternalServerError, st, service.ErrorKeyScan)
		}
		return
	}
	redirectSeeOther(w, r, "/scan")
}

// ScanSample POST /scan/sample
func (h *PageHandler) ScanSample(w http.ResponseWriter, r *http.Request) {
	l := h.localizer(w, r)
	sid := sessionID(w, r)

	st, err := h.scans.Sample(r.Context(), sid)
	if err != nil {
		if errors.Is(err, service.ErrScanInFlight) {
			h.renderScan(w, r, l, http.StatusConflict, st, service.ErrorKeyScanInFlight)
			return
		}
		h.logger.Error("Sample action failed", zap.String("session_id", sid), zap.Error(err))
		h.renderScan(w, r, l, http.StatusInternalServerError, st, service.ErrorKeyScan)
		return
	}
	redirectSeeOther(w, r, "/scan")
}

type selectOption struct {
	Value    string
	Label    string
	Selected bool
}

type reportRow struct {
	Record    domain.ScanRecord
	DetailURL string
}

type reportsView struct {
	Rows             []reportRow
	SeverityOptions  []selectOption
	ConditionOptions []selectOption
	ConditionAll     bool
	Selected         *domain.ScanRecord
	CloseURL         string
	ExportURL        string
	Filtered         bool
}

// severityOptionLabel selector text for a bucket.
func severityOptionLabel(l i18n.Localizer, b domain.SeverityBucket) string {
	switch b {
	case domain.BucketHealthy:
		return l.T("healthy") + " (0)"
	case domain.BucketMild:
		return l.T("mild") + "/" + l.T("moderate") + " (1-2)"
	case domain.BucketAdvanced:
		return l.T("severe") + "/" + l.T("proliferative") + " (3-4)"
	default:
		return l.T("allStages")
	}
}

// filterQuery query string of the active filter, detail excluded.
func filterQuery(f domain.ReportFilter) url.Values {
	q := url.Values{}
	if f.Severity != "" && f.Severity != domain.BucketAll {
		q.Set("severity", string(f.Severity))
	}
	if f.Condition != "" && f.Condition != domain.ConditionAll {
		q.Set("condition", f.Condition)
	}
	return q
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func reportFilterFromRequest(r *http.Request) domain.ReportFilter {
	q := r.URL.Query()
	return domain.NewReportFilter(q.Get("severity"), q.Get("condition"))
}

// Reports GET /reports?severity=&condition=&detail=
func (h *PageHandler) Reports(w http.ResponseWriter, r *http.Request) {
	l := h.localizer(w, r)
	filter := reportFilterFromRequest(r)

	page, err := h.reports.ReportsPage(r.Context(), service.ReportsPageRequest{
		Filter:   filter,
		DetailID: strings.TrimSpace(r.URL.Query().Get("detail")),
	})
	if err != nil {
		h.logger.Error("Failed to load reports", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	base := filterQuery(page.Filter)
	view := reportsView{
		Rows:         make([]reportRow, 0, len(page.Records)),
		ConditionAll: page.Filter.Condition == domain.ConditionAll,
		CloseURL:     withQuery("/reports", base),
		ExportURL:    withQuery("/reports/export.xlsx", base),
		Filtered:     !page.Filter.IsZero(),
	}
	for _, rec := range page.Records {
		q := filterQuery(page.Filter)
		q.Set("detail", rec.ID)
		view.Rows = append(view.Rows, reportRow{Record: rec, DetailURL: withQuery("/reports", q)})
	}
	for _, b := range domain.SeverityBuckets {
		view.SeverityOptions = append(view.SeverityOptions, selectOption{
			Value:    string(b),
			Label:    severityOptionLabel(l, b),
			Selected: page.Filter.Severity == b,
		})
	}
	for _, c := range page.Conditions {
		view.ConditionOptions = append(view.ConditionOptions, selectOption{
			Value:    c,
			Label:    c,
			Selected: page.Filter.Condition == c,
		})
	}
	if page.View.IsDetail() {
		view.Selected = page.View.Selected
	}

	h.renderer.Render(w, http.StatusOK, pageReports, newPageData(r, l, view))
}

// ReportsExport GET /reports/export.xlsx?severity=&condition=
func (h *PageHandler) ReportsExport(w http.ResponseWriter, r *http.Request) {
	l := h.localizer(w, r)

	records, err := h.reports.ListReports(r.Context(), reportFilterFromRequest(r))
	if err != nil {
		h.logger.Error("Failed to load reports for export", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	data, err := GenerateReportExport(records, l)
	if err != nil {
		h.logger.Error("Failed to generate report export", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="netra-reports.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

var errNoFile = errors.New("no file in upload")

// readUpload reads the multipart "file" field under the body limit.
func readUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (service.Upload, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		return service.Upload{}, err
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return service.Upload{}, errNoFile
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return service.Upload{}, err
	}
	return service.Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// uploadErrorStatus maps readUpload errors to status and message key.
func uploadErrorStatus(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, "uploadTooLarge"
	}
	return http.StatusBadRequest, "noFileSelected"
}
