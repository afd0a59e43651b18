// Package storage exposes the recording stores.
package storage

import (
	"log/slog"

	internalstorage "github.com/SmitUplenchwar2687/macrokit/internal/storage"
)

// Store keeps named recordings.
type Store = internalstorage.Store

// Info describes a stored recording.
type Info = internalstorage.Info

// Config selects and configures a backend.
type Config = internalstorage.Config

// RedisConfig configures RedisStore.
type RedisConfig = internalstorage.RedisConfig

// LoadError is returned by every failed Load.
type LoadError = internalstorage.LoadError

type (
	FileStore   = internalstorage.FileStore
	MemoryStore = internalstorage.MemoryStore
	RedisStore  = internalstorage.RedisStore
)

const (
	DefaultName   = internalstorage.DefaultName
	DefaultDir    = internalstorage.DefaultDir
	BackendFile   = internalstorage.BackendFile
	BackendMemory = internalstorage.BackendMemory
	BackendRedis  = internalstorage.BackendRedis
)

var (
	ErrLoad        = internalstorage.ErrLoad
	ErrNotFound    = internalstorage.ErrNotFound
	ErrInvalidName = internalstorage.ErrInvalidName
)

// New opens the backend cfg names.
func New(cfg Config, logger *slog.Logger) (Store, error) {
	return internalstorage.New(cfg, logger)
}

// NewFileStore opens a directory store.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	return internalstorage.NewFileStore(dir, logger)
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore() *MemoryStore {
	return internalstorage.NewMemoryStore()
}

// NewRedisStore connects to Redis.
func NewRedisStore(cfg *RedisConfig, logger *slog.Logger) (*RedisStore, error) {
	return internalstorage.NewRedisStore(cfg, logger)
}

// CleanName validates a recording name and adds the .json extension.
func CleanName(name string) (string, error) {
	return internalstorage.CleanName(name)
}
