package httpapi

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/MitaksharaYadav/NetraAI/internal/domain"
	"github.com/MitaksharaYadav/NetraAI/internal/i18n"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page template names.
const (
	pageDashboard = "dashboard.html"
	pageScan      = "scan.html"
	pageReports   = "reports.html"
)

var templateFuncs = template.FuncMap{
	"confidence":      domain.FormatConfidence,
	"severityLabel":   domain.SeverityLabel,
	"severityVariant": domain.SeverityVariant,
	"severityPercent": domain.SeverityPercent,
	"reportBadge":     domain.ReportBadge,
	"join":            strings.Join,
	"withSeverity":    withSeverity,
}

// severityCtx argument of the "badge" sub-template.
type severityCtx struct {
	L        i18n.Localizer
	Severity int
}

func withSeverity(l i18n.Localizer, severity int) severityCtx {
	return severityCtx{L: l, Severity: severity}
}

// Renderer layout + one template set per page.
type Renderer struct {
	pages  map[string]*template.Template
	logger *zap.Logger
}

func NewRenderer(logger *zap.Logger) (*Renderer, error) {
	r := &Renderer{pages: map[string]*template.Template{}, logger: logger}
	for _, page := range []string{pageDashboard, pageScan, pageReports} {
		t, err := template.New(page).Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		r.pages[page] = t
	}
	return r, nil
}

// LanguageLink an entry of the header language selector.
type LanguageLink struct {
	Code   i18n.Language
	Name   string
	Active bool
	URL    string
}

// NavItem a header navigation link.
type NavItem struct {
	Key    string
	Path   string
	Active bool
}

// PageData common view model; Page carries the page-specific part.
type PageData struct {
	L         i18n.Localizer
	Lang      i18n.Language
	Nav       []NavItem
	Languages []LanguageLink
	Shell     ShellInfo
	Refresh   int // seconds; 0 disables auto-refresh
	Page      any
}

var navItems = []NavItem{
	{Key: "dashboard", Path: "/"},
	{Key: "netraScan", Path: "/scan"},
	{Key: "reports", Path: "/reports"},
}

func newPageData(r *http.Request, l i18n.Localizer, page any) PageData {
	nav := make([]NavItem, len(navItems))
	for i, item := range navItems {
		item.Active = r.URL.Path == item.Path
		nav[i] = item
	}

	opts := l.Options()
	langs := make([]LanguageLink, 0, len(opts))
	for _, o := range opts {
		q := r.URL.Query()
		q.Set(i18n.LangParam, string(o.Code))
		langs = append(langs, LanguageLink{
			Code:   o.Code,
			Name:   o.Name,
			Active: o.Active,
			URL:    r.URL.Path + "?" + q.Encode(),
		})
	}

	return PageData{
		L:         l,
		Lang:      l.Language(),
		Nav:       nav,
		Languages: langs,
		Shell:     defaultShell,
		Page:      page,
	}
}

// Render executes the page into a buffer first so template errors never
// produce half-written pages.
func (rd *Renderer) Render(w http.ResponseWriter, status int, page string, data PageData) {
	t, ok := rd.pages[page]
	if !ok {
		rd.logger.Error("Unknown page template", zap.String("page", page))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		rd.logger.Error("Failed to render page", zap.String("page", page), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
