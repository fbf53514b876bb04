package httpapi

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Router wraps http.ServeMux; handlers check methods themselves.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// statusRecorder captures the status code for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Panic while serving request",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Any("panic", p),
			)
			http.Error(rec, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		r.logger.Debug("HTTP request",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	}()

	r.mux.ServeHTTP(rec, req)
}

// only rejects other methods with 405.
func only(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			w.Header().Set("Allow", method)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}

// RegisterPageRoutes HTML dashboard pages.
func (r *Router) RegisterPageRoutes(p *PageHandler) {
	dashboard := only(http.MethodGet, p.Dashboard)
	r.Handle("/", func(w http.ResponseWriter, req *http.Request) {
		// "/" is the catch-all pattern.
		if req.URL.Path != "/" {
			http.NotFound(w, req)
			return
		}
		dashboard(w, req)
	})

	r.Handle("/scan", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			p.ScanPage(w, req)
		case http.MethodPost:
			p.ScanSubmit(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	r.Handle("/scan/sample", only(http.MethodPost, p.ScanSample))

	r.Handle("/reports", only(http.MethodGet, p.Reports))
	r.Handle("/reports/export.xlsx", only(http.MethodGet, p.ReportsExport))
}

// RegisterAPIRoutes JSON API under /api/v1.
func (r *Router) RegisterAPIRoutes(a *APIHandler) {
	r.Handle("/api/v1/reports", only(http.MethodGet, a.ListReports))
	r.Handle("/api/v1/reports/", only(http.MethodGet, func(w http.ResponseWriter, req *http.Request) {
		id := pathID(req.URL.Path, "/api/v1/reports/")
		if id == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		a.GetReport(w, req, id)
	}))

	r.Handle("/api/v1/scan", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			a.GetScan(w, req)
		case http.MethodPost:
			a.SubmitScan(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	r.Handle("/api/v1/scan/sample", only(http.MethodPost, a.SampleScan))
	r.Handle("/api/v1/scan/events", only(http.MethodGet, a.ScanEvents))

	r.Handle("/api/v1/i18n/", only(http.MethodGet, func(w http.ResponseWriter, req *http.Request) {
		code := pathID(req.URL.Path, "/api/v1/i18n/")
		if code == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		a.GetCatalog(w, req, code)
	}))
}

// HealthInfo backends chosen at startup, reported by /healthz.
type HealthInfo struct {
	Reports string `json:"reports"` // postgres | memory
	State   string `json:"state"`   // redis | memory
	Events  string `json:"events"`
}

// RegisterHealthRoutes GET /healthz
func (r *Router) RegisterHealthRoutes(info HealthInfo) {
	r.Handle("/healthz", only(http.MethodGet, func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]any{
			"status":   "ok",
			"backends": info,
		}))
	}))
}
