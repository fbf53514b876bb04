package domain

// SampleScanRecords the fixed screening report set shipped with the dashboard.
// Returns a fresh copy each call.
func SampleScanRecords() []ScanRecord {
	return []ScanRecord{
		{
			ID:          "NTR-2026-001",
			Patient:     "Ramesh K.",
			Date:        "2026-02-10",
			Condition:   "Proliferative DR",
			Severity:    4,
			Confidence:  91.2,
			Regions:     []string{"Macula", "Optic Disc", "Vessels"},
			Description: "Critical stage. New abnormal blood vessel growth detected.",
		},
		{
			ID:          "NTR-2026-002",
			Patient:     "Sita D.",
			Date:        "2026-02-09",
			Condition:   "No Diabetic Retinopathy",
			Severity:    0,
			Confidence:  98.5,
			Regions:     []string{},
			Description: "Normal retina. No clinical signs detected.",
		},
		{
			ID:          "NTR-2026-003",
			Patient:     "Arjun P.",
			Date:        "2026-02-08",
			Condition:   "Mild DR",
			Severity:    1,
			Confidence:  84.1,
			Regions:     []string{"Retinal Vessels"},
			Description: "Early stage. Small microaneurysms detected.",
		},
		{
			ID:          "NTR-2026-004",
			Patient:     "Lakshmi N.",
			Date:        "2026-02-07",
			Condition:   "Severe DR",
			Severity:    3,
			Confidence:  88.5,
			Regions:     []string{"Optic Disc", "Macula"},
			Description: "Advanced stage. Extensive hemorrhages detected.",
		},
	}
}
