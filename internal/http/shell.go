package httpapi

// StatCard a labelled headline number; Key is a message key.
type StatCard struct {
	Key   string
	Value string
}

// StateDeployment one bar of the deployment-by-state chart.
type StateDeployment struct {
	Label string
	Pct   int
}

// ABDMCard the linked primary health centre.
type ABDMCard struct {
	Facility string
	Tehsil   string
	ABHA     string
}

// ShellInfo static sidebar content.
type ShellInfo struct {
	KappaScore string
	Impact     []StatCard
	ABDM       ABDMCard
	Deployment []StateDeployment
}

var defaultShell = ShellInfo{
	KappaScore: "0.8985",
	Impact: []StatCard{
		{Key: "totalScreenings", Value: "48,291"},
		{Key: "gramPanchayats", Value: "412"},
		{Key: "earlyIntervention", Value: "12.4%"},
	},
	ABDM: ABDMCard{
		Facility: "PHC Dahmi Kalan",
		Tehsil:   "Tehsil: Sanganer, Jaipur",
		ABHA:     "ABHA Verified: 12-4432-8890-11",
	},
	Deployment: []StateDeployment{
		{Label: "Rajasthan (Home)", Pct: 89},
		{Label: "Uttar Pradesh", Pct: 74},
		{Label: "Madhya Pradesh", Pct: 58},
		{Label: "Haryana", Pct: 42},
	},
}

// dashboardStats the three cards under the dashboard hero.
var dashboardStats = []StatCard{
	{Key: "totalScans", Value: "48,291"},
	{Key: "patientsScreened", Value: "31,045"},
	{Key: "detectionRate", Value: "94.7%"},
}
