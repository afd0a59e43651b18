package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/SmitUplenchwar2687/macrokit/internal/storage"
)

// DefaultStopKey stops both capture and replay unless configured otherwise.
const DefaultStopKey = "f8"

// Config is the top-level configuration for macrokit.
type Config struct {
	Options Options       `json:"options" yaml:"options"`
	Storage StorageConfig `json:"storage" yaml:"storage"`
	Server  ServerConfig  `json:"server" yaml:"server"`
	Log     LogConfig     `json:"log" yaml:"log"`
}

// Options are the user preferences read when a session starts.
type Options struct {
	// Language indexes Languages.
	Language           int    `json:"language" yaml:"language"`
	MinimizeWhenRecord bool   `json:"minimize_when_record" yaml:"minimize_when_record"`
	MinimizeWhenPlay   bool   `json:"minimize_when_play" yaml:"minimize_when_play"`
	StopRecordingKey   string `json:"stop_recording_key" yaml:"stop_recording_key"`
	StopPlayingKey     string `json:"stop_playing_key" yaml:"stop_playing_key"`
}

// StorageConfig selects where recordings live.
type StorageConfig struct {
	Backend string             `json:"backend" yaml:"backend"`
	Dir     string             `json:"dir" yaml:"dir"`
	Redis   StorageRedisConfig `json:"redis" yaml:"redis"`
}

// StorageRedisConfig configures the Redis storage backend.
type StorageRedisConfig struct {
	Host         string        `json:"host" yaml:"host"`
	Port         int           `json:"port" yaml:"port"`
	Password     string        `json:"password" yaml:"password"`
	DB           int           `json:"db" yaml:"db"`
	Cluster      bool          `json:"cluster" yaml:"cluster"`
	ClusterNodes []string      `json:"cluster_nodes" yaml:"cluster_nodes"`
	PoolSize     int           `json:"pool_size" yaml:"pool_size"`
	MaxRetries   int           `json:"max_retries" yaml:"max_retries"`
	DialTimeout  time.Duration `json:"dial_timeout" yaml:"dial_timeout"`
}

// ServerConfig holds settings for the local control server.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// LogConfig selects the log handler.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Options: Options{
			Language:         0,
			StopRecordingKey: DefaultStopKey,
			StopPlayingKey:   DefaultStopKey,
		},
		Storage: StorageConfig{
			Backend: storage.BackendFile,
			Dir:     storage.DefaultDir,
			Redis: StorageRedisConfig{
				Host:        "localhost",
				Port:        6379,
				PoolSize:    10,
				MaxRetries:  3,
				DialTimeout: 5 * time.Second,
			},
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks that the config is valid.
func (c Config) Validate() error {
	if c.Options.Language < 0 || c.Options.Language >= len(Languages) {
		return fmt.Errorf("language must be between 0 and %d, got %d", len(Languages)-1, c.Options.Language)
	}
	if strings.TrimSpace(c.Options.StopRecordingKey) == "" {
		return fmt.Errorf("stop_recording_key is required")
	}
	if strings.TrimSpace(c.Options.StopPlayingKey) == "" {
		return fmt.Errorf("stop_playing_key is required")
	}

	switch c.Storage.Backend {
	case storage.BackendFile, storage.BackendMemory:
	case storage.BackendRedis:
		r := c.Storage.Redis
		if r.Cluster {
			if len(r.ClusterNodes) == 0 {
				return fmt.Errorf("storage.redis.cluster_nodes is required when cluster=true")
			}
		} else {
			if r.Host == "" {
				return fmt.Errorf("storage.redis.host is required for redis backend")
			}
			if r.Port <= 0 {
				return fmt.Errorf("storage.redis.port must be positive, got %d", r.Port)
			}
		}
		if r.DialTimeout < 0 {
			return fmt.Errorf("storage.redis.dial_timeout must be non-negative, got %s", r.DialTimeout)
		}
	default:
		return fmt.Errorf("unknown storage backend %q, must be one of: file, memory, redis", c.Storage.Backend)
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q, must be text or json", c.Log.Format)
	}
	return nil
}

// StoreConfig converts the storage section into the form storage.New takes.
func (c StorageConfig) StoreConfig() storage.Config {
	return storage.Config{
		Backend: c.Backend,
		Dir:     c.Dir,
		Redis: storage.RedisConfig{
			Host:         c.Redis.Host,
			Port:         c.Redis.Port,
			Password:     c.Redis.Password,
			DB:           c.Redis.DB,
			Cluster:      c.Redis.Cluster,
			ClusterNodes: append([]string(nil), c.Redis.ClusterNodes...),
			PoolSize:     c.Redis.PoolSize,
			MaxRetries:   c.Redis.MaxRetries,
			DialTimeout:  c.Redis.DialTimeout,
		},
	}
}

// LoadFile reads a JSON or YAML config file and merges it with defaults.
// Files ending in .yaml or .yml are YAML; everything else is JSON.
// Fields not specified in the file retain their default values.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	var raw rawConfig
	if isYAML(path) {
		err = yaml.Unmarshal(data, &raw)
	} else {
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	if err := raw.apply(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg to path, as YAML or JSON depending on the extension.
func Save(path string, cfg Config) error {
	format := FormatJSON
	if isYAML(path) {
		format = FormatYAML
	}
	data, err := Marshal(cfg, format)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// Encodings understood by Marshal.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Marshal encodes cfg the way Save writes it.
func Marshal(cfg Config, format string) ([]byte, error) {
	raw := toRaw(cfg)
	switch format {
	case FormatYAML:
		data, err := yaml.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("encoding config: %w", err)
		}
		return data, nil
	case FormatJSON, "":
		data, err := json.MarshalIndent(raw, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding config: %w", err)
		}
		return append(data, '\n'), nil
	}
	return nil, fmt.Errorf("unknown config format %q", format)
}

// WriteExample writes the default config to the given path.
func WriteExample(path string) error {
	return Save(path, Default())
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// rawConfig is the file representation: string durations, and option
// fields that may appear either under "options" or at the top level,
// where older config.json files kept them.
type rawConfig struct {
	rawOptions `yaml:",inline"`

	Options *rawOptions `json:"options,omitempty" yaml:"options,omitempty"`
	Storage *struct {
		Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
		Dir     string `json:"dir,omitempty" yaml:"dir,omitempty"`
		Redis   *struct {
			Host         string   `json:"host,omitempty" yaml:"host,omitempty"`
			Port         int      `json:"port,omitempty" yaml:"port,omitempty"`
			Password     string   `json:"password,omitempty" yaml:"password,omitempty"`
			DB           int      `json:"db,omitempty" yaml:"db,omitempty"`
			Cluster      flexBool `json:"cluster,omitempty" yaml:"cluster,omitempty"`
			ClusterNodes []string `json:"cluster_nodes,omitempty" yaml:"cluster_nodes,omitempty"`
			PoolSize     int      `json:"pool_size,omitempty" yaml:"pool_size,omitempty"`
			MaxRetries   int      `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
			DialTimeout  string   `json:"dial_timeout,omitempty" yaml:"dial_timeout,omitempty"`
		} `json:"redis,omitempty" yaml:"redis,omitempty"`
	} `json:"storage,omitempty" yaml:"storage,omitempty"`
	Server *struct {
		Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
	} `json:"server,omitempty" yaml:"server,omitempty"`
	Log *struct {
		Level  string `json:"level,omitempty" yaml:"level,omitempty"`
		Format string `json:"format,omitempty" yaml:"format,omitempty"`
	} `json:"log,omitempty" yaml:"log,omitempty"`
}

type rawOptions struct {
	Language           *int     `json:"language,omitempty" yaml:"language,omitempty"`
	MinimizeWhenRecord flexBool `json:"minimize_when_record,omitempty" yaml:"minimize_when_record,omitempty"`
	MinimizeWhenPlay   flexBool `json:"minimize_when_play,omitempty" yaml:"minimize_when_play,omitempty"`
	StopRecordingKey   string   `json:"stop_recording_key,omitempty" yaml:"stop_recording_key,omitempty"`
	StopPlayingKey     string   `json:"stop_playing_key,omitempty" yaml:"stop_playing_key,omitempty"`
}

func (o *rawOptions) apply(dst *Options) {
	if o == nil {
		return
	}
	if o.Language != nil {
		dst.Language = *o.Language
	}
	if o.MinimizeWhenRecord.set {
		dst.MinimizeWhenRecord = o.MinimizeWhenRecord.value
	}
	if o.MinimizeWhenPlay.set {
		dst.MinimizeWhenPlay = o.MinimizeWhenPlay.value
	}
	if o.StopRecordingKey != "" {
		dst.StopRecordingKey = o.StopRecordingKey
	}
	if o.StopPlayingKey != "" {
		dst.StopPlayingKey = o.StopPlayingKey
	}
}

func (raw *rawConfig) apply(cfg *Config) error {
	raw.rawOptions.apply(&cfg.Options)
	raw.Options.apply(&cfg.Options)

	if s := raw.Storage; s != nil {
		if s.Backend != "" {
			cfg.Storage.Backend = s.Backend
		}
		if s.Dir != "" {
			cfg.Storage.Dir = s.Dir
		}
		if r := s.Redis; r != nil {
			if r.Host != "" {
				cfg.Storage.Redis.Host = r.Host
			}
			if r.Port > 0 {
				cfg.Storage.Redis.Port = r.Port
			}
			if r.Password != "" {
				cfg.Storage.Redis.Password = r.Password
			}
			if r.DB > 0 {
				cfg.Storage.Redis.DB = r.DB
			}
			if r.Cluster.set {
				cfg.Storage.Redis.Cluster = r.Cluster.value
			}
			if len(r.ClusterNodes) > 0 {
				cfg.Storage.Redis.ClusterNodes = r.ClusterNodes
			}
			if r.PoolSize > 0 {
				cfg.Storage.Redis.PoolSize = r.PoolSize
			}
			if r.MaxRetries > 0 {
				cfg.Storage.Redis.MaxRetries = r.MaxRetries
			}
			if r.DialTimeout != "" {
				d, err := time.ParseDuration(r.DialTimeout)
				if err != nil {
					return fmt.Errorf("parsing storage.redis.dial_timeout: %w", err)
				}
				cfg.Storage.Redis.DialTimeout = d
			}
		}
	}
	if raw.Server != nil && raw.Server.Addr != "" {
		cfg.Server.Addr = raw.Server.Addr
	}
	if raw.Log != nil {
		if raw.Log.Level != "" {
			cfg.Log.Level = raw.Log.Level
		}
		if raw.Log.Format != "" {
			cfg.Log.Format = raw.Log.Format
		}
	}
	return nil
}

// fileConfig is what Save writes.
type fileConfig struct {
	Options Options `json:"options" yaml:"options"`
	Storage struct {
		Backend string `json:"backend" yaml:"backend"`
		Dir     string `json:"dir" yaml:"dir"`
		Redis   struct {
			Host         string   `json:"host" yaml:"host"`
			Port         int      `json:"port" yaml:"port"`
			Password     string   `json:"password,omitempty" yaml:"password,omitempty"`
			DB           int      `json:"db" yaml:"db"`
			Cluster      bool     `json:"cluster" yaml:"cluster"`
			ClusterNodes []string `json:"cluster_nodes,omitempty" yaml:"cluster_nodes,omitempty"`
			PoolSize     int      `json:"pool_size" yaml:"pool_size"`
			MaxRetries   int      `json:"max_retries" yaml:"max_retries"`
			DialTimeout  string   `json:"dial_timeout" yaml:"dial_timeout"`
		} `json:"redis" yaml:"redis"`
	} `json:"storage" yaml:"storage"`
	Server ServerConfig `json:"server" yaml:"server"`
	Log    LogConfig    `json:"log" yaml:"log"`
}

func toRaw(cfg Config) fileConfig {
	var out fileConfig
	out.Options = cfg.Options
	out.Storage.Backend = cfg.Storage.Backend
	out.Storage.Dir = cfg.Storage.Dir
	r := cfg.Storage.Redis
	out.Storage.Redis.Host = r.Host
	out.Storage.Redis.Port = r.Port
	out.Storage.Redis.Password = r.Password
	out.Storage.Redis.DB = r.DB
	out.Storage.Redis.Cluster = r.Cluster
	out.Storage.Redis.ClusterNodes = r.ClusterNodes
	out.Storage.Redis.PoolSize = r.PoolSize
	out.Storage.Redis.MaxRetries = r.MaxRetries
	out.Storage.Redis.DialTimeout = r.DialTimeout.String()
	out.Server = cfg.Server
	out.Log = cfg.Log
	return out
}

// flexBool accepts true/false as well as the 0/1 integers older option
// files used.
type flexBool struct {
	set   bool
	value bool
}

func (b *flexBool) UnmarshalJSON(data []byte) error {
	return b.parse(strings.Trim(string(data), `"`))
}

func (b *flexBool) UnmarshalYAML(node *yaml.Node) error {
	return b.parse(node.Value)
}

func (b *flexBool) parse(s string) error {
	if s == "" || s == "null" || s == "~" {
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		n, nerr := strconv.Atoi(s)
		if nerr != nil {
			return fmt.Errorf("invalid boolean %q", s)
		}
		v = n != 0
	}
	b.set, b.value = true, v
	return nil
}
