package job

import (
	"context"
	"fmt"

	"qsrankings/internal/logger"
	rds "qsrankings/internal/platform/redis"
)

type JobService struct {
	redis *rds.Service
	log   *logger.Logger
}

func NewJobService(redis *rds.Service) *JobService {
	return &JobService{redis: redis, log: logger.New("JobService")}
}

// load returns the stored job. A job that was never stored is not an error.
func (s *JobService) load(ctx context.Context, jobID string) (Job, bool, error) {
	var job Job
	if err := s.redis.CacheGet(ctx, key(jobID), &job); err != nil {
		if rds.IsMiss(err) {
			return Job{}, false, nil
		}
		return Job{}, false, fmt.Errorf("load job %s: %w", jobID, err)
	}
	return job, true, nil
}

func (s *JobService) store(ctx context.Context, jobID string, update func(*Job)) error {
	job, _, err := s.load(ctx, jobID)
	if err != nil {
		return err
	}
	job.JobID = jobID
	job.Type = TypeRankings
	update(&job)
	if err := s.redis.CacheSet(ctx, key(jobID), job, ttl(job.Status)); err != nil {
		return err
	}
	// Publish an update event for listeners
	_ = s.redis.Client().Publish(ctx, key(jobID), "updated").Err()
	s.log.LogDebugf("job %s is %s", jobID, job.Status)
	return nil
}

func (s *JobService) InitPending(ctx context.Context, jobID, url string) error {
	return s.store(ctx, jobID, func(j *Job) {
		j.Status = StatusPending
		j.URL = url
	})
}

func (s *JobService) SetProcessing(ctx context.Context, jobID string, retryCount int) error {
	return s.store(ctx, jobID, func(j *Job) {
		j.Status = StatusProcessing
		j.RetryCount = retryCount
	})
}

// Complete records the terminal state. errMsg is only kept for failed jobs.
func (s *JobService) Complete(ctx context.Context, jobID string, status Status, items int, errMsg string) error {
	return s.store(ctx, jobID, func(j *Job) {
		j.Status = status
		j.Items = items
		if status == StatusFailed {
			j.Error = errMsg
		}
	})
}

func key(id string) string { return "job:" + id }
func ttl(s Status) int {
	if s == StatusCompleted || s == StatusFailed {
		return 3600
	}
	return 600
}
