package domain

import "strings"

// SeverityBucket report severity selector.
type SeverityBucket string

const (
	BucketAll      SeverityBucket = "all"
	BucketHealthy  SeverityBucket = "0" // severity == 0
	BucketMild     SeverityBucket = "1" // severity 1..2
	BucketAdvanced SeverityBucket = "3" // severity 3..4
)

// ConditionAll matches every condition.
const ConditionAll = "all"

// SeverityBuckets selector options in display order.
var SeverityBuckets = []SeverityBucket{BucketAll, BucketHealthy, BucketMild, BucketAdvanced}

// ParseSeverityBucket maps unknown or empty values to BucketAll.
func ParseSeverityBucket(v string) SeverityBucket {
	switch b := SeverityBucket(strings.TrimSpace(v)); b {
	case BucketHealthy, BucketMild, BucketAdvanced:
		return b
	default:
		return BucketAll
	}
}

// Matches reports whether severity falls inside the bucket.
func (b SeverityBucket) Matches(severity int) bool {
	switch b {
	case BucketHealthy:
		return severity == 0
	case BucketMild:
		return severity >= 1 && severity <= 2
	case BucketAdvanced:
		return severity >= 3
	default:
		return true
	}
}

// ReportFilter both selectors; a record must satisfy both.
type ReportFilter struct {
	Severity  SeverityBucket
	Condition string
}

// NewReportFilter normalizes raw selector values.
func NewReportFilter(severity, condition string) ReportFilter {
	condition = strings.TrimSpace(condition)
	if condition == "" {
		condition = ConditionAll
	}
	return ReportFilter{Severity: ParseSeverityBucket(severity), Condition: condition}
}

func (f ReportFilter) MatchesSeverity(r ScanRecord) bool {
	return f.Severity.Matches(r.Severity)
}

func (f ReportFilter) MatchesCondition(r ScanRecord) bool {
	return f.Condition == "" || f.Condition == ConditionAll || r.Condition == f.Condition
}

func (f ReportFilter) Matches(r ScanRecord) bool {
	return f.MatchesSeverity(r) && f.MatchesCondition(r)
}

// IsZero reports whether the filter matches everything.
func (f ReportFilter) IsZero() bool {
	return (f.Severity == "" || f.Severity == BucketAll) && (f.Condition == "" || f.Condition == ConditionAll)
}

// FilterRecords keeps matching records in their original order.
func FilterRecords(records []ScanRecord, f ReportFilter) []ScanRecord {
	out := make([]ScanRecord, 0, len(records))
	for _, r := range records {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// DistinctConditions conditions in first-appearance order.
func DistinctConditions(records []ScanRecord) []string {
	seen := make(map[string]struct{}, len(records))
	out := make([]string, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.Condition]; ok {
			continue
		}
		seen[r.Condition] = struct{}{}
		out = append(out, r.Condition)
	}
	return out
}
