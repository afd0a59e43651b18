package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SmitUplenchwar2687/macrokit/internal/storage"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Options.StopRecordingKey != "f8" || cfg.Options.StopPlayingKey != "f8" {
		t.Errorf("default stop keys = %q/%q, want f8", cfg.Options.StopRecordingKey, cfg.Options.StopPlayingKey)
	}
	if cfg.Options.MinimizeWhenRecord || cfg.Options.MinimizeWhenPlay {
		t.Error("minimize flags should default to off")
	}
	if cfg.Storage.Backend != storage.BackendFile || cfg.Storage.Dir != "data" {
		t.Errorf("default storage = %s in %q, want file in data", cfg.Storage.Backend, cfg.Storage.Dir)
	}
	if cfg.Server.Addr != "127.0.0.1:8080" {
		t.Errorf("default addr = %q, want loopback", cfg.Server.Addr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative language", func(c *Config) { c.Options.Language = -1 }},
		{"unknown language", func(c *Config) { c.Options.Language = 2 }},
		{"empty recording key", func(c *Config) { c.Options.StopRecordingKey = " " }},
		{"empty playing key", func(c *Config) { c.Options.StopPlayingKey = "" }},
		{"bad backend", func(c *Config) { c.Storage.Backend = "crdt" }},
		{"redis without host", func(c *Config) {
			c.Storage.Backend = storage.BackendRedis
			c.Storage.Redis.Host = ""
		}},
		{"redis bad port", func(c *Config) {
			c.Storage.Backend = storage.BackendRedis
			c.Storage.Redis.Port = 0
		}},
		{"redis cluster without nodes", func(c *Config) {
			c.Storage.Backend = storage.BackendRedis
			c.Storage.Redis.Cluster = true
		}},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadFile_Full(t *testing.T) {
	path := writeFile(t, "config.json", `{
  "options": {
    "language": 1,
    "minimize_when_record": true,
    "minimize_when_play": 1,
    "stop_recording_key": "esc",
    "stop_playing_key": "q"
  },
  "storage": {
    "backend": "redis",
    "redis": {
      "host": "127.0.0.1",
      "port": 6380,
      "password": "secret",
      "db": 2,
      "pool_size": 25,
      "max_retries": 5,
      "dial_timeout": "4s"
    }
  },
  "server": { "addr": ":9090" },
  "log": { "level": "debug", "format": "json" }
}`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := Options{Language: 1, MinimizeWhenRecord: true, MinimizeWhenPlay: true, StopRecordingKey: "esc", StopPlayingKey: "q"}
	if cfg.Options != want {
		t.Errorf("options = %+v, want %+v", cfg.Options, want)
	}
	if cfg.Storage.Backend != storage.BackendRedis {
		t.Errorf("storage backend = %q, want redis", cfg.Storage.Backend)
	}
	r := cfg.Storage.Redis
	if r.Host != "127.0.0.1" || r.Port != 6380 || r.Password != "secret" || r.DB != 2 {
		t.Errorf("redis = %+v", r)
	}
	if r.PoolSize != 25 || r.MaxRetries != 5 || r.DialTimeout != 4*time.Second {
		t.Errorf("redis tuning = %+v", r)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr = %q, want :9090", cfg.Server.Addr)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoadFile_Partial(t *testing.T) {
	path := writeFile(t, "config.json", `{ "options": { "stop_playing_key": "esc" } }`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Options.StopPlayingKey != "esc" {
		t.Errorf("stop_playing_key = %q, want esc", cfg.Options.StopPlayingKey)
	}

	def := Default()
	if cfg.Options.StopRecordingKey != def.Options.StopRecordingKey {
		t.Errorf("stop_recording_key should stay default, got %q", cfg.Options.StopRecordingKey)
	}
	if cfg.Storage.Backend != def.Storage.Backend || cfg.Storage.Redis.DialTimeout != def.Storage.Redis.DialTimeout {
		t.Errorf("storage should stay default, got %+v", cfg.Storage)
	}
}

func TestLoadFile_LegacyFlatOptions(t *testing.T) {
	path := writeFile(t, "config.json", `{
  "language": 1,
  "minimize_when_play": 0,
  "minimize_when_record": 1,
  "stop_recording_key": "º",
  "stop_playing_key": "º"
}`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := Options{Language: 1, MinimizeWhenRecord: true, StopRecordingKey: "º", StopPlayingKey: "º"}
	if cfg.Options != want {
		t.Errorf("options = %+v, want %+v", cfg.Options, want)
	}
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
options:
  stop_recording_key: esc
  minimize_when_play: true
storage:
  backend: memory
  redis:
    dial_timeout: 250ms
log:
  format: json
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Options.StopRecordingKey != "esc" || !cfg.Options.MinimizeWhenPlay {
		t.Errorf("options = %+v", cfg.Options)
	}
	if cfg.Options.StopPlayingKey != DefaultStopKey {
		t.Errorf("stop_playing_key should stay default, got %q", cfg.Options.StopPlayingKey)
	}
	if cfg.Storage.Backend != storage.BackendMemory {
		t.Errorf("backend = %q, want memory", cfg.Storage.Backend)
	}
	if cfg.Storage.Redis.DialTimeout != 250*time.Millisecond {
		t.Errorf("dial_timeout = %v, want 250ms", cfg.Storage.Redis.DialTimeout)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("log format = %q, want json", cfg.Log.Format)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name, file, content string
	}{
		{"bad json", "config.json", "{bad json}"},
		{"bad yaml", "config.yml", "options: [unterminated"},
		{"bad duration", "config.json", `{ "storage": { "redis": { "dial_timeout": "soon" } } }`},
		{"bad bool", "config.json", `{ "minimize_when_play": "maybe" }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFile(writeFile(t, tt.file, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := LoadFile("/nonexistent/config.json"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Options.Language = 1
	cfg.Options.MinimizeWhenRecord = true
	cfg.Options.StopPlayingKey = "esc"
	cfg.Storage.Dir = "recordings"
	cfg.Storage.Redis.DialTimeout = 1500 * time.Millisecond

	for _, name := range []string{"config.json", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			if err := Save(path, cfg); err != nil {
				t.Fatal(err)
			}
			got, err := LoadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if got.Options != cfg.Options {
				t.Errorf("options = %+v, want %+v", got.Options, cfg.Options)
			}
			if got.Storage.Dir != "recordings" || got.Storage.Redis.DialTimeout != 1500*time.Millisecond {
				t.Errorf("storage = %+v", got.Storage)
			}
		})
	}
}

func TestWriteExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.json")
	if err := WriteExample(path); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("example config should be valid, got %v", err)
	}
}

func TestStoreConfig(t *testing.T) {
	cfg := Default()
	cfg.Storage.Redis.ClusterNodes = []string{"a:1", "b:2"}
	sc := cfg.Storage.StoreConfig()
	if sc.Backend != storage.BackendFile || sc.Dir != "data" || sc.Redis.Port != 6379 {
		t.Errorf("StoreConfig() = %+v", sc)
	}
	sc.Redis.ClusterNodes[0] = "changed"
	if cfg.Storage.Redis.ClusterNodes[0] != "a:1" {
		t.Error("StoreConfig should copy cluster nodes")
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		lang int
		id   MessageID
		want string
	}{
		{0, MsgStopRecording, "Stop recording by pressing f8 Key"},
		{1, MsgStopRecording, "Presiona f8 para detener la captura de eventos"},
		{0, MsgStopPlaying, "Stop playing by pressing f8 Key"},
		{1, MsgStopPlaying, "Presiona f8 para detener la reproducción"},
		{7, MsgStopPlaying, "Stop playing by pressing f8 Key"},
	}
	for _, tt := range tests {
		if got := Message(tt.lang, tt.id, "f8"); got != tt.want {
			t.Errorf("Message(%d, %d) = %q, want %q", tt.lang, tt.id, got, tt.want)
		}
	}
	if got := (Options{Language: 1}).Message(MsgLoadFailed, "a.json"); got != "No se pudo cargar la grabación a.json" {
		t.Errorf("Options.Message = %q", got)
	}
}
