package cache

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrMiss = errors.New("cache miss")

// Store is the research cache. Get returns ErrMiss when the key is absent;
// freshness is the caller's decision.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Upsert(ctx context.Context, e *Entry) error
	List(ctx context.Context, limit int) ([]Entry, error)
	Ping(ctx context.Context) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, key string) (*Entry, error) {
	var e Entry
	err := s.db.WithContext(ctx).Where("cache_key = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache: get %q: %w", key, err)
	}
	return &e, nil
}

// Upsert inserts e or replaces the payload of the row with the same key.
// created_at keeps its first value; updated_at takes e's.
func (s *GormStore) Upsert(ctx context.Context, e *Entry) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "confidence", "citations", "mode", "updated_at"}),
	}).Create(e).Error
	if err != nil {
		return fmt.Errorf("cache: upsert %q: %w", e.CacheKey, err)
	}
	return nil
}

// List returns the most recently written entries first.
func (s *GormStore) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []Entry
	if err := s.db.WithContext(ctx).
		Order("updated_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("cache: list: %w", err)
	}
	return out, nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
