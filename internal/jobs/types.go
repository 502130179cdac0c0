package jobs

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a JobStore for an unknown job id.
var ErrNotFound = errors.New("jobs: not found")

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeScanReceipt reads an uploaded receipt with the scanner.
	JobTypeScanReceipt JobType = "scan_receipt"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed and will not be retried.
	JobStatusFailed JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is being retried.
	JobStatusRetrying JobStatus = "retrying"
)

// ReceiptScanJob asks a worker to scan one stored receipt.
type ReceiptScanJob struct {
	JobID         string    `json:"job_id"`
	ReceiptID     string    `json:"receipt_id"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Status        JobStatus `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error holds the last failure, kept while the job is retrying.
	Error      string `json:"error,omitempty"`
	RetryCount int    `json:"retry_count"`
	MaxRetries int    `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *ReceiptScanJob) GetID() string        { return j.JobID }
func (j *ReceiptScanJob) GetType() JobType     { return JobTypeScanReceipt }
func (j *ReceiptScanJob) GetStatus() JobStatus { return j.Status }

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	PublishReceiptScan(ctx context.Context, job *ReceiptScanJob) error
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs; handler is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes a job. A returned error marks the job for retry.
type JobHandler func(ctx context.Context, job Job) error

// JobStore keeps job state so clients can poll for results.
type JobStore interface {
	SaveJob(ctx context.Context, job *ReceiptScanJob) error
	GetJob(ctx context.Context, jobID string) (*ReceiptScanJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*ReceiptScanJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	ReceiptID string
	Status    JobStatus
	Limit     int
	Offset    int
}
