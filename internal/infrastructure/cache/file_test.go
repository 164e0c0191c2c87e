package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/platewise/reviewpipe/internal/domain"
)

func TestFileCache_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", DefaultFile)

	first, err := NewFileCache(path)
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	first.Set(ctx, "places:p1", []byte(`{"reviews":[]}`), time.Hour)
	first.Set(ctx, "forever", []byte("x"), 0)
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	second, err := NewFileCache(path)
	if err != nil {
		t.Fatalf("NewFileCache() reopen error = %v", err)
	}
	defer second.Close()

	got, err := second.Get(ctx, "places:p1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != `{"reviews":[]}` {
		t.Errorf("Get() = %s", got)
	}
	if ok, _ := second.Exists(ctx, "forever"); !ok {
		t.Error("entry without TTL should survive reopening")
	}
}

func TestFileCache_DropsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), DefaultFile)
	start := time.Now()

	c, err := NewFileCache(path)
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	c.now = func() time.Time { return start }
	c.Set(ctx, "short", []byte("a"), time.Minute)
	c.Set(ctx, "long", []byte("b"), 48*time.Hour)
	c.now = func() time.Time { return start.Add(time.Hour) }
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewFileCache(path)
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	defer reopened.Close()

	if reopened.Size() != 1 {
		t.Errorf("Size() = %d, want 1", reopened.Size())
	}
	if _, err := reopened.Get(ctx, "short"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("Get(short) error = %v, want cache miss", err)
	}
}

func TestFileCache_UnreadableFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := NewFileCache(path)
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	defer c.Close()

	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0", c.Size())
	}
}

func TestNewFileCache_EmptyPath(t *testing.T) {
	if _, err := NewFileCache(""); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("NewFileCache() error = %v, want %v", err, domain.ErrInvalidConfig)
	}
}
