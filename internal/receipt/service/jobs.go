package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultJobTTL is how long finished scan jobs stay pollable.
const DefaultJobTTL = 15 * time.Minute

// JobStatus is the processing state of a scan job.
type JobStatus string

const (
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// ScanJob is an asynchronous receipt analysis.
type ScanJob struct {
	JobID       string     `json:"jobId"`
	Status      JobStatus  `json:"status"`
	Result      *Analysis  `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// JobStore keeps scan jobs in memory and drops them after a TTL.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*ScanJob
	ttl  time.Duration
}

// NewJobStore creates an empty store. Call Run to expire old jobs.
func NewJobStore(ttl time.Duration) *JobStore {
	if ttl <= 0 {
		ttl = DefaultJobTTL
	}
	return &JobStore{
		jobs: make(map[string]*ScanJob),
		ttl:  ttl,
	}
}

// NewJobID returns a random job id.
func NewJobID() string {
	return uuid.NewString()
}

// Store saves job under its id.
func (s *JobStore) Store(job *ScanJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.JobID] = job
}

// Get returns a copy of the job, or nil.
func (s *JobStore) Get(jobID string) *ScanJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil
	}
	cp := *job
	return &cp
}

// Update applies fn to the job if it still exists.
func (s *JobStore) Update(jobID string, fn func(*ScanJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[jobID]; ok {
		fn(job)
	}
}

// Len is the number of jobs held.
func (s *JobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// Run expires jobs every ttl/2 until ctx is cancelled.
func (s *JobStore) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Expire()
		}
	}
}

// Expire removes jobs created before now-ttl and returns how many were dropped.
func (s *JobStore) Expire() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-s.ttl)
	n := 0
	for id, job := range s.jobs {
		if job.CreatedAt.Before(cutoff) {
			delete(s.jobs, id)
			n++
		}
	}
	return n
}
