package rules

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Parse decodes a YAML override on top of the defaults. Keys missing from the
// document keep their default value; lists that are present replace the
// default list.
func Parse(data []byte) (*Rules, error) {
	r := Defaults()
	if err := yaml.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if err := r.compile(); err != nil {
		return nil, err
	}
	return r, nil
}

// LoadFile reads path, or returns the defaults when path is empty.
func LoadFile(path string) (*Rules, error) {
	if path == "" {
		return Defaults(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return Parse(data)
}

// Set publishes the active rule tables to concurrent readers.
type Set struct {
	cur atomic.Pointer[Rules]
}

func NewSet(r *Rules) *Set {
	if r == nil {
		r = Defaults()
	}
	s := &Set{}
	s.cur.Store(r)
	return s
}

func (s *Set) Current() *Rules { return s.cur.Load() }

func (s *Set) Store(r *Rules) { s.cur.Store(r) }

// Watch reloads path into set whenever the file changes, until ctx is done.
// A file that fails to parse is logged and the previous tables stay active.
func Watch(ctx context.Context, path string, set *Set, logger *zap.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// watch the directory: editors often replace the file instead of writing it
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return err
	}
	target := filepath.Clean(path)

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
					continue
				}
				r, err := LoadFile(path)
				if err != nil {
					logger.Warn("rules reload failed, keeping previous tables", zap.String("path", path), zap.Error(err))
					continue
				}
				set.Store(r)
				logger.Info("rules reloaded", zap.String("path", path))
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("rules watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
