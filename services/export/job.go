package export

import (
	"image"
	"time"

	"github.com/google/uuid"

	"cinecard/services/review"
)

// JobStatus is the lifecycle state of an export.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Tier names the path that produced (or failed to produce) the image.
type Tier string

const (
	TierRemote Tier = "remote"
	TierLocal  Tier = "local"
)

// Job records one export invocation.
type Job struct {
	ID           uuid.UUID
	Snapshot     review.Snapshot
	PosterPixels image.Image
	PosterSource Source
	Status       JobStatus
	Tier         Tier
	Filename     string
	Width        int
	Height       int
	Err          error
	StartedAt    time.Time
	FinishedAt   time.Time
}

func newJob(snap review.Snapshot, now time.Time) *Job {
	return &Job{
		ID:        uuid.New(),
		Snapshot:  snap,
		Status:    JobPending,
		Filename:  Filename(snap.Subject.Title),
		StartedAt: now,
	}
}

func (j *Job) finish(tier Tier, err error, now time.Time) {
	j.Tier = tier
	j.Err = err
	j.FinishedAt = now
	if err != nil {
		j.Status = JobFailed
		return
	}
	j.Status = JobSucceeded
}

// Duration is the wall time of a finished job.
func (j *Job) Duration() time.Duration {
	if j.FinishedAt.IsZero() {
		return 0
	}
	return j.FinishedAt.Sub(j.StartedAt)
}
