package model

import "github.com/google/uuid"

// DashboardAnalytics aggregates the figures the official dashboard renders.
type DashboardAnalytics struct {
	StatusBreakdown    map[string]int       `json:"statusBreakdown"`
	CategoryBreakdown  map[string]int       `json:"categoryBreakdown"`
	AvgResolutionHours float64              `json:"avgResolutionHours"`
	WorkerProductivity []WorkerProductivity `json:"workerProductivity"`
}

type WorkerProductivity struct {
	WorkerID      uuid.UUID `json:"workerId"`
	WorkerName    string    `json:"workerName"`
	AssignedCount int       `json:"assignedCount"`
	ResolvedCount int       `json:"resolvedCount"`
}

// HeatmapPoint is one geo-located ticket for the incident density map.
type HeatmapPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Category  string  `json:"category"`
	Status    string  `json:"status"`
	Weight    int     `json:"weight"`
}

// TrendPoint is one day's created/resolved counts for the trends chart.
type TrendPoint struct {
	Date     string `json:"date"`
	Created  int    `json:"created"`
	Resolved int    `json:"resolved"`
}
