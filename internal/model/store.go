package model

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// StoreConfig holds configuration for the model store.
type StoreConfig struct {
	Path   string
	Logger zerolog.Logger
}

// Store holds the current bundle. Readers always see a complete bundle;
// reloads swap the pointer.
type Store struct {
	path    string
	logger  zerolog.Logger
	current atomic.Pointer[Bundle]
}

// NewStore creates an empty store for the artifact at cfg.Path.
func NewStore(cfg StoreConfig) *Store {
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	return &Store{
		path:   cfg.Path,
		logger: cfg.Logger.With().Str("component", "model").Logger(),
	}
}

// Path returns the artifact path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the artifact and makes it current. On failure the previous
// bundle, if any, stays in place.
func (s *Store) Load() error {
	b, err := Load(s.path)
	if err != nil {
		return err
	}
	s.Set(b)

	s.logger.Info().
		Str("path", s.path).
		Str("size", humanize.Bytes(uint64(b.Size))).
		Int("version", b.Version).
		Int("features", len(b.Preprocessors.FeatureNames())).
		Msg("model loaded")
	return nil
}

// Set replaces the current bundle.
func (s *Store) Set(b *Bundle) {
	s.current.Store(b)
}

// Current returns the loaded bundle or ErrModelUnavailable.
func (s *Store) Current() (*Bundle, error) {
	b := s.current.Load()
	if b == nil {
		return nil, ErrModelUnavailable
	}
	return b, nil
}

// Ready reports whether a bundle is loaded.
func (s *Store) Ready() bool {
	return s.current.Load() != nil
}

// Watch reloads the artifact whenever it is written or replaced, until ctx
// is cancelled. The parent directory is watched so atomic renames are seen.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(s.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := s.Load(); err != nil {
				s.logger.Warn().Err(err).Str("path", s.path).Msg("model reload failed, keeping previous bundle")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn().Err(err).Msg("model watcher error")
		}
	}
}
