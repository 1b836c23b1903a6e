package utils

import (
	"sync"
	"time"

	"matjar-backend/dtos"

	"github.com/google/uuid"
)

// JobStore manages import jobs in memory
type JobStore struct {
	jobs map[uuid.UUID]*dtos.ImportJob
	mu   sync.RWMutex
}

// Global job store instance
var Store = &JobStore{
	jobs: make(map[uuid.UUID]*dtos.ImportJob),
}

// CleanupOldJobs removes completed/failed jobs older than 1 hour.
func (js *JobStore) CleanupOldJobs() {
	js.mu.Lock()
	defer js.mu.Unlock()

	cutoff := time.Now().Add(-1 * time.Hour)
	for id, job := range js.jobs {
		if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(js.jobs, id)
		} else if job.StartedAt.Before(cutoff) && (job.Status == dtos.JobStatusCompleted || job.Status == dtos.JobStatusFailed) {
			delete(js.jobs, id)
		}
	}
}

// CreateJob creates a new import job
func (js *JobStore) CreateJob(totalRows int) *dtos.ImportJob {
	// Clean up old jobs on each new creation
	js.CleanupOldJobs()

	js.mu.Lock()
	defer js.mu.Unlock()

	job := &dtos.ImportJob{
		ID:        uuid.New(),
		Status:    dtos.JobStatusPending,
		Progress:  0,
		Total:     totalRows,
		Processed: 0,
		Success:   0,
		Failed:    0,
		Errors:    []dtos.JobError{},
		StartedAt: time.Now(),
	}

	js.jobs[job.ID] = job
	return job
}

// GetJob retrieves a snapshot of a job by ID. A copy is returned so callers
// can read it while the worker goroutine keeps mutating the stored job.
func (js *JobStore) GetJob(id uuid.UUID) (dtos.ImportJob, bool) {
	js.mu.RLock()
	defer js.mu.RUnlock()

	job, exists := js.jobs[id]
	if !exists {
		return dtos.ImportJob{}, false
	}
	snapshot := *job
	snapshot.Errors = append([]dtos.JobError(nil), job.Errors...)
	return snapshot, exists
}

// UpdateJob updates job status and progress
func (js *JobStore) UpdateJob(id uuid.UUID, updates func(*dtos.ImportJob)) {
	js.mu.Lock()
	defer js.mu.Unlock()

	if job, exists := js.jobs[id]; exists {
		updates(job)
	}
}

// CompleteJob marks a job as completed
func (js *JobStore) CompleteJob(id uuid.UUID, status string) {
	js.mu.Lock()
	defer js.mu.Unlock()

	if job, exists := js.jobs[id]; exists {
		job.Status = status
		job.Progress = 100
		now := time.Now()
		job.CompletedAt = &now
	}
}

// AddSuccess increments the imported-row counter
func (js *JobStore) AddSuccess(id uuid.UUID) {
	js.mu.Lock()
	defer js.mu.Unlock()

	if job, exists := js.jobs[id]; exists {
		job.Success++
	}
}

// AddFailure records a failed row with its error
func (js *JobStore) AddFailure(id uuid.UUID, row int, message string) {
	js.mu.Lock()
	defer js.mu.Unlock()

	if job, exists := js.jobs[id]; exists {
		job.Failed++
		job.Errors = append(job.Errors, dtos.JobError{Row: row, Message: message})
	}
}

// SetProcessing marks job as processing
func (js *JobStore) SetProcessing(id uuid.UUID) {
	js.mu.Lock()
	defer js.mu.Unlock()

	if job, exists := js.jobs[id]; exists {
		job.Status = dtos.JobStatusProcessing
	}
}
