package research

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrJobNotFound = errors.New("research job not found")

type JobRepo struct {
	db *gorm.DB
}

func NewJobRepo(db *gorm.DB) *JobRepo {
	return &JobRepo{db: db}
}

func (r *JobRepo) Create(ctx context.Context, job *Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *JobRepo) Get(ctx context.Context, id string) (*Job, error) {
	var j Job
	err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// MarkRunning moves a queued job, or a failed one coming back from the retry
// queue, to running.
func (r *JobRepo) MarkRunning(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND status IN ?", id, []JobStatus{JobQueued, JobFailed}).
		Update("status", JobRunning).Error
}

// MarkQueued puts an interrupted job back to queued.
func (r *JobRepo) MarkQueued(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND status = ?", id, JobRunning).
		Update("status", JobQueued).Error
}

func (r *JobRepo) MarkSucceeded(ctx context.Context, id string, out *Outcome) error {
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status": JobSucceeded,
			"mode":   out.Mode,
			"cached": out.Cached,
			"error":  nil,
		}).Error
}

func (r *JobRepo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status": JobFailed,
			"error":  errMsg,
		}).Error
}
