package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// EventSource delivers config events until ctx is done.
type EventSource interface {
	Run(ctx context.Context, out chan<- Event) error
}

// StaticSource emits a single config event built at startup.
type StaticSource struct {
	params map[string]any
}

func NewStaticSource(params map[string]any) *StaticSource {
	return &StaticSource{params: params}
}

func (s *StaticSource) Run(ctx context.Context, out chan<- Event) error {
	select {
	case <-ctx.Done():
		return nil
	case out <- NewConfigEvent(s.params):
	}
	<-ctx.Done()
	return nil
}

const fileReloadDebounce = 250 * time.Millisecond

// FileSource reads config events from a YAML file and emits a new event each
// time the file changes on disk.
//
//	rate: 1
//	prefix: node1
type FileSource struct {
	path     string
	hostname string
	logger   *zap.SugaredLogger
}

func NewFileSource(path, hostname string, logger *zap.SugaredLogger) *FileSource {
	return &FileSource{path: path, hostname: hostname, logger: logger}
}

func (s *FileSource) Run(ctx context.Context, out chan<- Event) error {
	ev, err := s.read()
	if err != nil {
		return err
	}
	if _, err := ParseSourceConfig(ev, s.hostname); err != nil {
		return fmt.Errorf("source config %s: %w", s.path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Editors replace files on save, so watch the directory.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(s.path), err)
	}

	if !s.emit(ctx, out, ev) {
		return nil
	}

	var (
		debounce *time.Timer
		reloadC  <-chan time.Time
	)
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case fsEv, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(fsEv.Name) != target {
				continue
			}
			if !fsEv.Has(fsnotify.Write) && !fsEv.Has(fsnotify.Create) && !fsEv.Has(fsnotify.Rename) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(fileReloadDebounce)
			} else {
				debounce.Reset(fileReloadDebounce)
			}
			reloadC = debounce.C
		case <-reloadC:
			reloadC = nil
			next, readErr := s.read()
			if readErr != nil {
				s.logger.Warnw("source config reload failed, keeping current configuration", "path", s.path, "error", readErr)
				continue
			}
			if _, parseErr := ParseSourceConfig(next, s.hostname); parseErr != nil {
				s.logger.Warnw("source config invalid, keeping current configuration", "path", s.path, "error", parseErr)
				continue
			}
			s.logger.Infow("source config changed", "path", s.path)
			if !s.emit(ctx, out, next) {
				return nil
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warnw("source config watcher error", "path", s.path, "error", werr)
		}
	}
}

func (s *FileSource) read() (Event, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return Event{}, fmt.Errorf("read source config: %w", err)
	}
	params := map[string]any{}
	if err := yaml.Unmarshal(raw, &params); err != nil {
		return Event{}, fmt.Errorf("parse source config %s: %w", s.path, err)
	}
	return NewConfigEvent(params), nil
}

func (s *FileSource) emit(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- ev:
		return true
	}
}

// NewEventSource picks the file source when a path is configured and falls
// back to the environment otherwise.
func NewEventSource(cfg Config, logger *zap.SugaredLogger) EventSource {
	if cfg.SourceConfigPath != "" {
		return NewFileSource(cfg.SourceConfigPath, cfg.Hostname, logger)
	}
	return NewStaticSource(cfg.StaticParams())
}
