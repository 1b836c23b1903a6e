package utils

import (
	"testing"
	"time"

	"matjar-backend/dtos"

	"github.com/google/uuid"
)

func newTestStore() *JobStore {
	return &JobStore{
		jobs: make(map[uuid.UUID]*dtos.ImportJob),
	}
}

func TestCreateJob(t *testing.T) {
	store := newTestStore()
	job := store.CreateJob(10)

	if job == nil {
		t.Fatal("expected job, got nil")
	}
	if job.Status != dtos.JobStatusPending {
		t.Errorf("expected status %q, got %q", dtos.JobStatusPending, job.Status)
	}
	if job.Progress != 0 {
		t.Errorf("expected progress 0, got %d", job.Progress)
	}
	if job.Total != 10 {
		t.Errorf("expected total 10, got %d", job.Total)
	}
	if job.Processed != 0 {
		t.Errorf("expected processed 0, got %d", job.Processed)
	}
	if job.Success != 0 {
		t.Errorf("expected success 0, got %d", job.Success)
	}
	if job.Failed != 0 {
		t.Errorf("expected failed 0, got %d", job.Failed)
	}
	if job.ID == uuid.Nil {
		t.Error("expected non-nil job ID")
	}
}

func TestGetJobExists(t *testing.T) {
	store := newTestStore()
	job := store.CreateJob(5)

	found, ok := store.GetJob(job.ID)
	if !ok {
		t.Fatal("expected to find job")
	}
	if found.ID != job.ID {
		t.Errorf("expected job ID %s, got %s", job.ID, found.ID)
	}
}

func TestGetJobNotFound(t *testing.T) {
	store := newTestStore()

	_, ok := store.GetJob(uuid.New())
	if ok {
		t.Fatal("expected job not found")
	}
}

func TestUpdateJob(t *testing.T) {
	store := newTestStore()
	job := store.CreateJob(10)

	store.UpdateJob(job.ID, func(j *dtos.ImportJob) {
		j.Processed = 5
		j.Progress = 50
	})

	updated, ok := store.GetJob(job.ID)
	if !ok {
		t.Fatal("expected to find job")
	}
	if updated.Processed != 5 {
		t.Errorf("expected processed 5, got %d", updated.Processed)
	}
	if updated.Progress != 50 {
		t.Errorf("expected progress 50, got %d", updated.Progress)
	}
}

func TestCompleteJob(t *testing.T) {
	store := newTestStore()
	job := store.CreateJob(10)

	store.CompleteJob(job.ID, dtos.JobStatusCompleted)

	completed, ok := store.GetJob(job.ID)
	if !ok {
		t.Fatal("expected to find job")
	}
	if completed.Status != dtos.JobStatusCompleted {
		t.Errorf("expected status %q, got %q", dtos.JobStatusCompleted, completed.Status)
	}
	if completed.Progress != 100 {
		t.Errorf("expected progress 100, got %d", completed.Progress)
	}
	if completed.CompletedAt == nil {
		t.Fatal("expected CompletedAt to be set")
	}
}

func TestAddSuccess(t *testing.T) {
	store := newTestStore()
	job := store.CreateJob(5)

	store.AddSuccess(job.ID)
	store.AddSuccess(job.ID)

	found, _ := store.GetJob(job.ID)
	if found.Success != 2 {
		t.Errorf("expected success 2, got %d", found.Success)
	}
}

func TestAddFailureRecordsRowError(t *testing.T) {
	store := newTestStore()
	job := store.CreateJob(5)

	store.AddFailure(job.ID, 3, "missing product name")
	store.AddFailure(job.ID, 7, "invalid price")

	found, _ := store.GetJob(job.ID)
	if found.Failed != 2 {
		t.Errorf("expected failed 2, got %d", found.Failed)
	}
	if len(found.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(found.Errors))
	}
	if found.Errors[0].Row != 3 || found.Errors[0].Message != "missing product name" {
		t.Errorf("unexpected first error: %+v", found.Errors[0])
	}
	if found.Errors[1].Row != 7 || found.Errors[1].Message != "invalid price" {
		t.Errorf("unexpected second error: %+v", found.Errors[1])
	}
}

func TestSetProcessing(t *testing.T) {
	store := newTestStore()
	job := store.CreateJob(5)

	store.SetProcessing(job.ID)

	found, _ := store.GetJob(job.ID)
	if found.Status != dtos.JobStatusProcessing {
		t.Errorf("expected status %q, got %q", dtos.JobStatusProcessing, found.Status)
	}
}

func TestCleanupOldJobs(t *testing.T) {
	store := newTestStore()
	job := store.CreateJob(5)

	// Manually set CompletedAt to 2 hours ago so it qualifies for cleanup
	twoHoursAgo := time.Now().Add(-2 * time.Hour)
	store.UpdateJob(job.ID, func(j *dtos.ImportJob) {
		j.Status = dtos.JobStatusCompleted
		j.CompletedAt = &twoHoursAgo
	})

	store.CleanupOldJobs()

	_, ok := store.GetJob(job.ID)
	if ok {
		t.Fatal("expected old completed job to be cleaned up")
	}
}

func TestCleanupKeepsRecentJobs(t *testing.T) {
	store := newTestStore()
	job := store.CreateJob(5)

	// Complete the job just now - should NOT be cleaned up
	store.CompleteJob(job.ID, dtos.JobStatusCompleted)

	store.CleanupOldJobs()

	_, ok := store.GetJob(job.ID)
	if !ok {
		t.Fatal("expected recent completed job to be kept")
	}
}

func TestGetJobReturnsSnapshot(t *testing.T) {
	store := newTestStore()
	job := store.CreateJob(5)

	store.AddFailure(job.ID, 2, "missing barcode")
	snapshot, ok := store.GetJob(job.ID)
	if !ok {
		t.Fatal("expected to find job")
	}

	// Later worker writes must not show up in an already-taken snapshot
	store.AddFailure(job.ID, 3, "invalid quantity")
	store.AddSuccess(job.ID)

	if snapshot.Failed != 1 {
		t.Errorf("expected snapshot failed 1, got %d", snapshot.Failed)
	}
	if len(snapshot.Errors) != 1 {
		t.Errorf("expected snapshot to keep 1 error, got %d", len(snapshot.Errors))
	}

	current, _ := store.GetJob(job.ID)
	if current.Failed != 2 || len(current.Errors) != 2 || current.Success != 1 {
		t.Errorf("expected live job to carry both failures, got %+v", current)
	}
}
