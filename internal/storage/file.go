package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/SmitUplenchwar2687/macrokit/internal/event"
)

// watchDebounce groups the burst of events a single save produces.
const watchDebounce = 100 * time.Millisecond

// FileStore keeps each recording as <dir>/<name>.json.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

// NewFileStore opens dir, creating it if needed. An empty dir means
// DefaultDir.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage dir: %w", err)
	}
	return &FileStore{dir: dir, logger: logger.With("component", "storage", "backend", BackendFile)}, nil
}

// Dir returns the directory the store writes to.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the file a recording name maps to.
func (s *FileStore) Path(name string) (string, error) {
	name, err := CleanName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

// Save writes the log to a temporary file and renames it into place, so a
// reader never sees a half-written recording.
func (s *FileStore) Save(_ context.Context, name string, log event.Log) error {
	p, err := s.Path(name)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := event.Encode(&buf, log); err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".save-*")
	if err != nil {
		return fmt.Errorf("saving %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("saving %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("saving %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("saving %s: %w", name, err)
	}
	s.logger.Info("recording saved", "name", filepath.Base(p), "events", len(log))
	return nil
}

func (s *FileStore) Load(_ context.Context, name string) (event.Log, error) {
	p, err := s.Path(name)
	if err != nil {
		return nil, &LoadError{Name: name, Err: err}
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Name: filepath.Base(p), Err: ErrNotFound}
	}
	if err != nil {
		return nil, &LoadError{Name: filepath.Base(p), Err: err}
	}
	defer f.Close()

	log, err := event.Decode(f)
	if err != nil {
		return nil, &LoadError{Name: filepath.Base(p), Err: err}
	}
	return log, nil
}

func (s *FileStore) List(_ context.Context) ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.dir, err)
	}
	var out []Info
	for _, e := range entries {
		if e.IsDir() || !isRecording(e.Name()) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Info{Name: e.Name(), Size: fi.Size(), Modified: fi.ModTime()})
	}
	sortInfos(out)
	return out, nil
}

func (s *FileStore) Delete(_ context.Context, name string) error {
	p, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", filepath.Base(p), ErrNotFound)
		}
		return fmt.Errorf("deleting %s: %w", filepath.Base(p), err)
	}
	s.logger.Info("recording deleted", "name", filepath.Base(p))
	return nil
}

func (s *FileStore) Close() error { return nil }

// Watch calls fn whenever recordings in the directory are created, changed,
// renamed or removed, until ctx is done. Bursts are coalesced into one call.
func (s *FileStore) Watch(ctx context.Context, fn func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(s.dir); err != nil {
		w.Close()
		return fmt.Errorf("watching %s: %w", s.dir, err)
	}

	go func() {
		defer w.Close()
		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !isRecording(filepath.Base(ev.Name)) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(watchDebounce)
				} else {
					timer.Reset(watchDebounce)
				}
				fire = timer.C
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Warn("storage watcher error", "error", err)
			case <-fire:
				fire = nil
				fn()
			}
		}
	}()
	return nil
}

func isRecording(name string) bool {
	return strings.HasSuffix(name, ".json") && !strings.HasPrefix(name, ".")
}
