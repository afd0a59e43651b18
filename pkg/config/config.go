package config

import internalconfig "github.com/SmitUplenchwar2687/macrokit/internal/config"

// Config is the top-level configuration for macrokit.
type Config = internalconfig.Config

// Options are the user preferences read when a session starts.
type Options = internalconfig.Options

// StorageConfig selects where recordings live.
type StorageConfig = internalconfig.StorageConfig

// StorageRedisConfig configures the Redis storage backend.
type StorageRedisConfig = internalconfig.StorageRedisConfig

// ServerConfig holds settings for the local control server.
type ServerConfig = internalconfig.ServerConfig

// LogConfig selects the log handler.
type LogConfig = internalconfig.LogConfig

// DefaultStopKey stops both capture and replay unless configured otherwise.
const DefaultStopKey = internalconfig.DefaultStopKey

// Default returns a Config with sensible defaults.
func Default() Config {
	return internalconfig.Default()
}

// LoadFile reads a JSON or YAML config file and merges it with defaults.
func LoadFile(path string) (Config, error) {
	return internalconfig.LoadFile(path)
}

// Save writes cfg to path.
func Save(path string, cfg Config) error {
	return internalconfig.Save(path, cfg)
}

// WriteExample writes an example config file to the given path.
func WriteExample(path string) error {
	return internalconfig.WriteExample(path)
}
