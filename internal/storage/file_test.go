package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SmitUplenchwar2687/macrokit/internal/event"
)

func TestCleanName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", DefaultName, false},
		{"  ", DefaultName, false},
		{"login", "login.json", false},
		{"login.json", "login.json", false},
		{"v1.2", "v1.2.json", false},
		{"../etc/passwd", "", true},
		{`dir\file`, "", true},
		{"C:macro", "", true},
		{".hidden", "", true},
		{"..", "", true},
	}
	for _, tt := range tests {
		got, err := CleanName(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidName) {
				t.Errorf("CleanName(%q) error = %v, want ErrInvalidName", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("CleanName(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestFileStore_WritesJSONArray(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(context.Background(), "demo", sampleLog()); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "demo.json"))
	if err != nil {
		t.Fatal(err)
	}
	log, err := event.Unmarshal(data)
	if err != nil {
		t.Fatalf("saved file is not a valid log: %v", err)
	}
	if len(log) != 4 {
		t.Errorf("file holds %d events, want 4", len(log))
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, ".save-*"))
	if len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}
}

func TestFileStore_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewFileStore(dir, nil)

	cases := map[string]string{
		"truncated.json": `[{"action": "moved", "x": 1`,
		"schema.json":    `[{"action": "teleport", "duration": 0}]`,
		"object.json":    `{"action": "moved"}`,
	}
	for name, body := range cases {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := s.Load(context.Background(), name)
		if !errors.Is(err, ErrLoad) {
			t.Errorf("Load(%s) error = %v, want ErrLoad", name, err)
		}
		if errors.Is(err, ErrNotFound) {
			t.Errorf("Load(%s) should not report not found", name)
		}
	}
}

func TestFileStore_ListIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewFileStore(dir, nil)
	s.Save(context.Background(), "one", sampleLog())
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644)
	os.Mkdir(filepath.Join(dir, "sub.json"), 0o755)

	infos, err := s.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 || infos[0].Name != "one.json" {
		t.Errorf("List() = %+v, want only one.json", infos)
	}
}

func TestFileStore_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	if _, err := NewFileStore(dir, nil); err != nil {
		t.Fatal(err)
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		t.Errorf("storage dir not created: %v", err)
	}
}

func TestFileStore_Watch(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewFileStore(dir, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 10)
	if err := s.Watch(ctx, func() { changed <- struct{}{} }); err != nil {
		t.Fatal(err)
	}

	if err := s.Save(ctx, "watched", sampleLog()); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("no change notification after Save")
	}

	if err := s.Delete(ctx, "watched"); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("no change notification after Delete")
	}
}

func TestNew_Backends(t *testing.T) {
	s, err := New(Config{Backend: BackendFile, Dir: t.TempDir()}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Errorf("file backend = %T", s)
	}

	s, err = New(Config{Backend: BackendMemory}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("memory backend = %T", s)
	}

	if _, err := New(Config{Backend: "sqlite"}, nil); err == nil {
		t.Error("unknown backend should fail")
	}
	if _, err := New(Config{Backend: BackendRedis}, nil); err == nil {
		t.Error("redis backend without host should fail")
	}
}
