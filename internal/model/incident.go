package model

import (
	"time"

	"github.com/google/uuid"
)

type IncidentStatus string

const (
	StatusOpen       IncidentStatus = "open"
	StatusPending    IncidentStatus = "pending"
	StatusInProgress IncidentStatus = "in_progress"
	StatusResolved   IncidentStatus = "resolved"
	StatusVerified   IncidentStatus = "verified"
	StatusRejected   IncidentStatus = "rejected"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

type Incident struct {
	ID            uuid.UUID      `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Category      string         `json:"category"`
	Status        IncidentStatus `json:"status"`
	Priority      *Priority      `json:"priority,omitempty"`
	Location      string         `json:"location"`
	Latitude      *float64       `json:"latitude,omitempty"`
	Longitude     *float64       `json:"longitude,omitempty"`
	Images        []string       `json:"images,omitempty"`
	ReportedBy    string         `json:"reportedBy"`
	ReporterID    *uuid.UUID     `json:"reporterId,omitempty"`
	ReporterEmail *string        `json:"-"`
	ReporterPhone *string        `json:"-"`
	TicketID      *uuid.UUID     `json:"ticketId,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

type CreateIncidentRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Category    string   `json:"category" binding:"required"`
	Location    string   `json:"location"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Images      []string `json:"images"`
}

type UpdateIncidentRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Status      *string  `json:"status"`
	Priority    *string  `json:"priority"`
	Location    *string  `json:"location"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

type IncidentStats struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Resolved   int `json:"resolved"`
}
