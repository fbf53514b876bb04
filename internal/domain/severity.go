package domain

// Badge variants shared by both severity policies.
const (
	VariantSecondary   = "secondary"
	VariantDefault     = "default"
	VariantDestructive = "destructive"
	VariantOutline     = "outline"
	VariantOrange      = "orange"
)

// Translation keys for severity labels.
const (
	LabelHealthy       = "healthy"
	LabelMild          = "mild"
	LabelModerate      = "moderate"
	LabelSevere        = "severe"
	LabelProliferative = "proliferative"
	LabelStage3        = "stage3"
)

// SeverityLabel three-level policy used on scan results:
// <=1 healthy, 2 moderate, >=3 severe.
func SeverityLabel(severity int) string {
	if severity <= 1 {
		return LabelHealthy
	}
	if severity == 2 {
		return LabelModerate
	}
	return LabelSevere
}

// SeverityVariant badge style matching SeverityLabel.
func SeverityVariant(severity int) string {
	if severity <= 1 {
		return VariantSecondary
	}
	if severity == 2 {
		return VariantDefault
	}
	return VariantDestructive
}

// SeverityPercent position of the needle on the 0..4 severity bar.
func SeverityPercent(severity int) float64 {
	return float64(severity) / float64(MaxSeverity) * 100
}

// Badge report-table severity badge.
type Badge struct {
	Variant   string
	LabelKey  string
	DetailKey string // optional qualifier shown in parentheses
}

// ReportBadge five-level policy used in the report table. Differs from
// SeverityLabel at 1 and 2.
func ReportBadge(severity int) Badge {
	switch severity {
	case 0:
		return Badge{Variant: VariantSecondary, LabelKey: LabelHealthy}
	case 1:
		return Badge{Variant: VariantOutline, LabelKey: LabelMild}
	case 2:
		return Badge{Variant: VariantOrange, LabelKey: LabelModerate}
	case 4:
		return Badge{Variant: VariantDestructive, LabelKey: LabelSevere, DetailKey: LabelProliferative}
	default:
		return Badge{Variant: VariantDestructive, LabelKey: LabelSevere, DetailKey: LabelStage3}
	}
}
