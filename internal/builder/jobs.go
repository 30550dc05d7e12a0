package builder

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

type Job struct {
	ID         string     `json:"id"`
	Service    string     `json:"service"`
	Image      string     `json:"image"`
	Platform   string     `json:"platform"`
	Status     JobStatus  `json:"status"`
	Log        string     `json:"log,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Jobs tracks builds in memory for the lifetime of the process.
type Jobs struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewJobs() *Jobs {
	return &Jobs{jobs: make(map[string]*Job)}
}

func (j *Jobs) Enqueue(service, image, platform string) Job {
	job := &Job{
		ID:        uuid.NewString(),
		Service:   service,
		Image:     image,
		Platform:  platform,
		Status:    JobQueued,
		CreatedAt: time.Now().UTC(),
	}

	j.mu.Lock()
	j.jobs[job.ID] = job
	j.mu.Unlock()

	return *job
}

func (j *Jobs) Get(id string) (Job, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	job, ok := j.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// MarkRunning stamps StartedAt the first time only.
func (j *Jobs) MarkRunning(id string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if job, ok := j.jobs[id]; ok {
		now := time.Now().UTC()
		job.Status = JobRunning
		if job.StartedAt == nil {
			job.StartedAt = &now
		}
	}
}

func (j *Jobs) Finish(id string, res Result) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if job, ok := j.jobs[id]; ok {
		now := time.Now().UTC()
		job.Status = JobFailed
		if res.Success {
			job.Status = JobSucceeded
		}
		job.Log = res.Log
		job.FinishedAt = &now
	}
}
