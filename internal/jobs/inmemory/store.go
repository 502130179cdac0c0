package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/brankas/brankas/internal/jobs"
)

// Store is an in-memory JobStore. It is safe for concurrent use and hands
// out copies, so callers never share a job with the queue.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobs.ReceiptScanJob
}

func NewStore() *Store {
	return &Store{jobs: make(map[string]*jobs.ReceiptScanJob)}
}

func (s *Store) SaveJob(ctx context.Context, job *jobs.ReceiptScanJob) error {
	if job.JobID == "" {
		return fmt.Errorf("job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	jobCopy := *job
	s.jobs[job.JobID] = &jobCopy
	return nil
}

func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.ReceiptScanJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("job %s: %w", jobID, jobs.ErrNotFound)
	}
	jobCopy := *job
	return &jobCopy, nil
}

// ListJobs returns matching jobs oldest first.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.ReceiptScanJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*jobs.ReceiptScanJob
	for _, job := range s.jobs {
		if filter.ReceiptID != "" && job.ReceiptID != filter.ReceiptID {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		jobCopy := *job
		result = append(result, &jobCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].JobID < result[j].JobID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*jobs.ReceiptScanJob{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (s *Store) UpdateJobStatus(ctx context.Context, jobID string, status jobs.JobStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return fmt.Errorf("job %s: %w", jobID, jobs.ErrNotFound)
	}
	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}
	return nil
}

var _ jobs.JobStore = (*Store)(nil)
