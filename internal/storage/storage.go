// Package storage persists recordings. A recording is a named event.Log
// kept as the JSON array produced by event.Encode.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/SmitUplenchwar2687/macrokit/internal/event"
)

const (
	// DefaultName is used when a recording is saved without a name.
	DefaultName = "record.json"
	// DefaultDir is where the file backend keeps recordings.
	DefaultDir = "data"

	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

var (
	// ErrLoad is matched by every LoadError.
	ErrLoad = errors.New("cannot load recording")
	// ErrNotFound means no recording has the requested name.
	ErrNotFound = errors.New("recording not found")
	// ErrInvalidName rejects names that would escape the store.
	ErrInvalidName = errors.New("invalid recording name")
)

// LoadError reports a recording that is missing, unreadable or not a valid
// event log. Nothing is replayed when Load fails.
type LoadError struct {
	Name string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Name, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// Info describes a stored recording.
type Info struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Store keeps named recordings. Implementations are safe for concurrent use.
type Store interface {
	Save(ctx context.Context, name string, log event.Log) error
	// Load returns a *LoadError on any failure.
	Load(ctx context.Context, name string) (event.Log, error)
	// List returns recordings sorted by name.
	List(ctx context.Context) ([]Info, error)
	// Delete returns ErrNotFound when nothing was removed.
	Delete(ctx context.Context, name string) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend string
	Dir     string
	Redis   RedisConfig
}

// RedisConfig configures RedisStore.
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	Cluster      bool
	ClusterNodes []string
	PoolSize     int
	MaxRetries   int
	DialTimeout  time.Duration
}

// New opens the backend named by cfg.Backend.
func New(cfg Config, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileStore(cfg.Dir, logger)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		return NewRedisStore(&cfg.Redis, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q (want file, memory or redis)", cfg.Backend)
	}
}

// CleanName validates a recording name and gives it the .json suffix. An
// empty name becomes DefaultName.
func CleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultName, nil
	}
	if strings.ContainsAny(name, `/\:`) || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if path.Ext(name) != ".json" {
		name += ".json"
	}
	return name, nil
}

func sortInfos(infos []Info) {
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
}
