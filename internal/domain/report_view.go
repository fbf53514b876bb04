package domain

// ReportViewMode list or detail.
type ReportViewMode int

const (
	ReportList ReportViewMode = iota
	ReportDetail
)

// ReportView at most one record is selected, and only in ReportDetail.
type ReportView struct {
	Mode     ReportViewMode
	Selected *ScanRecord
}

// Select opens the detail view for r. A nil record keeps the list view.
func (v ReportView) Select(r *ScanRecord) ReportView {
	if r == nil {
		return ReportView{Mode: ReportList}
	}
	rec := *r
	return ReportView{Mode: ReportDetail, Selected: &rec}
}

// Close returns to the list view.
func (v ReportView) Close() ReportView {
	return ReportView{Mode: ReportList}
}

func (v ReportView) IsDetail() bool {
	return v.Mode == ReportDetail && v.Selected != nil
}
