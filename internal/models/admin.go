package models

type ReportWindowRequest struct {
	From string `query:"from" validate:"required,dateonly"`
	To   string `query:"to" validate:"required,dateonly"`
}

// CohortStats is one row of the admin retention funnel: all clients whose
// first appointment fell in Month, and how they behaved afterwards.
type CohortStats struct {
	Month            string  `json:"month"`
	NewClients       int     `json:"new_clients"`
	ReturningClients int     `json:"returning_clients"`
	RetentionRate    float64 `json:"retention_rate"`
	TotalSessions    int     `json:"total_sessions"`
	AvgSessions      float64 `json:"avg_sessions"`
}

type RetentionReport struct {
	From         string        `json:"from"`
	To           string        `json:"to"`
	TotalClients int           `json:"total_clients"`
	Cohorts      []CohortStats `json:"cohorts"`
}

type RevenueReport struct {
	From           string  `json:"from"`
	To             string  `json:"to"`
	PackagesSold   int     `json:"packages_sold"`
	TotalRevenue   float64 `json:"total_revenue"`
	SessionsUsed   int     `json:"sessions_used"`
	SessionsUnused int     `json:"sessions_unused"`
}

type ReportExport struct {
	Key string `json:"key"`
	URL string `json:"url"`
}
