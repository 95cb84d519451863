package research

import (
	"context"
	"errors"
	"time"

	"github.com/suPer8Hu/tone-platform/internal/common"
	"github.com/suPer8Hu/tone-platform/internal/tone"
	"go.uber.org/zap"
)

// Publisher hands a job id to the queue.
type Publisher interface {
	PublishJob(ctx context.Context, jobID string) error
}

// Jobs runs research asynchronously: Submit records and enqueues a job,
// the worker calls Run.
type Jobs struct {
	repo *JobRepo
	svc  *Service
	pub  Publisher
	log  *zap.Logger
}

func NewJobs(repo *JobRepo, svc *Service, pub Publisher, log *zap.Logger) *Jobs {
	if log == nil {
		log = zap.NewNop()
	}
	return &Jobs{repo: repo, svc: svc, pub: pub, log: log}
}

func (j *Jobs) Submit(ctx context.Context, q tone.Query) (*Job, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if j.pub == nil {
		return nil, tone.NotConfigured(errors.New("job queue not configured"))
	}
	job := &Job{
		ID:       common.NewULID(),
		CacheKey: q.Key(),
		Song:     q.Song,
		Artist:   q.Artist,
		Part:     q.Part,
		Status:   JobQueued,
	}
	if err := j.repo.Create(ctx, job); err != nil {
		return nil, tone.Store("Failed to create research job", err)
	}
	if err := j.pub.PublishJob(ctx, job.ID); err != nil {
		_ = j.repo.MarkFailed(ctx, job.ID, "enqueue failed: "+err.Error())
		return nil, tone.Store("Failed to queue research job", err)
	}
	return job, nil
}

func (j *Jobs) Get(ctx context.Context, id string) (*Job, error) {
	return j.repo.Get(ctx, id)
}

// Run executes one job. The returned error means the job failed; it has
// already been recorded on the job row. A job interrupted by ctx goes back
// to queued so a redelivery can pick it up.
func (j *Jobs) Run(ctx context.Context, id string) error {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := j.repo.MarkRunning(ctx, id); err != nil {
		j.log.Warn("mark job running", zap.String("job_id", id), zap.Error(err))
	}

	job, err := j.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	out, err := j.svc.Research(ctx, job.Query())
	if err != nil && ctx.Err() != nil {
		if qErr := j.repo.MarkQueued(context.WithoutCancel(ctx), id); qErr != nil {
			j.log.Error("requeue job", zap.String("job_id", id), zap.Error(qErr))
		}
		j.log.Info("research job interrupted", zap.String("job_id", id), zap.Error(err))
		return err
	}
	if err != nil {
		if markErr := j.repo.MarkFailed(ctx, id, tone.Message(err, err.Error())); markErr != nil {
			j.log.Error("mark job failed", zap.String("job_id", id), zap.Error(markErr))
		}
		j.log.Warn("research job failed",
			zap.String("job_id", id),
			zap.Duration("total", time.Since(start)),
			zap.Error(err),
		)
		return err
	}

	if err := j.repo.MarkSucceeded(ctx, id, out); err != nil {
		return err
	}
	if total := time.Since(start); total > 2*time.Second {
		j.log.Info("research job slow",
			zap.String("job_id", id),
			zap.Bool("cached", out.Cached),
			zap.Duration("total", total),
		)
	}
	return nil
}
