package research

import (
	"time"

	"github.com/suPer8Hu/tone-platform/internal/tone"
)

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job is an asynchronous research request, run by the worker to warm the
// cache.
type Job struct {
	ID string `gorm:"primaryKey;size:26" json:"job_id"` // ULID length

	CacheKey string    `gorm:"type:varchar(255);index;not null" json:"cache_key"`
	Song     string    `gorm:"type:varchar(255);not null" json:"song"`
	Artist   string    `gorm:"type:varchar(255)" json:"artist,omitempty"`
	Part     tone.Part `gorm:"type:varchar(8);not null" json:"part"`

	Status JobStatus `gorm:"type:varchar(16);index;not null" json:"status"`

	// Filled when succeeded
	Mode   tone.Mode `gorm:"type:varchar(16)" json:"mode,omitempty"`
	Cached bool      `json:"cached"`

	// Filled when failed
	Error *string `gorm:"type:text" json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Job) TableName() string { return "research_jobs" }

func (j *Job) Query() tone.Query {
	return tone.Query{Song: j.Song, Artist: j.Artist, Part: j.Part}
}
