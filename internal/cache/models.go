package cache

import (
	"time"

	"github.com/suPer8Hu/tone-platform/internal/tone"
)

// Entry is one cached research result. The column is cache_key because key
// is reserved in MySQL; the JSON name stays "key".
type Entry struct {
	ID         uint64              `gorm:"primaryKey;autoIncrement" json:"-"`
	CacheKey   string              `gorm:"column:cache_key;type:varchar(255);uniqueIndex;not null" json:"key"`
	Payload    tone.ResearchResult `gorm:"type:mediumtext;serializer:json;not null" json:"payload"`
	Confidence float64             `gorm:"not null;default:0" json:"confidence"`
	Citations  []tone.Citation     `gorm:"type:text;serializer:json" json:"citations"`
	Mode       tone.Mode           `gorm:"type:varchar(16);not null" json:"mode"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `gorm:"index" json:"updated_at"`
}

func (Entry) TableName() string { return "research_cache" }

// Fresh reports whether the payload was written less than ttl before now.
func (e *Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.UpdatedAt) < ttl
}
