package dtos

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// ImportJob tracks one asynchronous spreadsheet import.
type ImportJob struct {
	ID          uuid.UUID  `json:"id"`
	Status      string     `json:"status"` // pending, processing, completed, failed
	Progress    int        `json:"progress"`
	Total       int        `json:"total"`
	Processed   int        `json:"processed"`
	Success     int        `json:"success"`
	Failed      int        `json:"failed"`
	Errors      []JobError `json:"errors,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// JobError records a single row that could not be imported.
type JobError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}
