package models

import "time"

// WeeklyUsage counts new analyses for one user in one week.
type WeeklyUsage struct {
	UserID        string    `json:"user_id" db:"user_id"`
	WeekStart     string    `json:"week_start" db:"week_start"`
	AnalysisCount int       `json:"analysis_count" db:"analysis_count"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// UsageSummary is the quota view returned to clients.
type UsageSummary struct {
	Count     int    `json:"count"`
	Limit     int    `json:"limit"`
	WeekStart string `json:"week_start"`
	ResetsOn  string `json:"resets_on"`
}
