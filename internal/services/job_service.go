package services

import (
	"github.com/casabook/casabook-api/internal/jobs"
)

// JobService exposes background worker status for operational endpoints
type JobService struct {
	worker *jobs.Worker
}

// NewJobService creates a new job service
func NewJobService(worker *jobs.Worker) *JobService {
	return &JobService{worker: worker}
}

// Stats returns current worker pool statistics
func (s *JobService) Stats() jobs.WorkerStats {
	return s.worker.GetStats()
}
