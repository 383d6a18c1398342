package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

func testBasicOps(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	// Miss before set.
	_, ok, err := c.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected miss before Set")
	}

	if err := c.Set(ctx, "k1", []byte("payload"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	data, ok, err := c.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if string(data) != "payload" {
		t.Errorf("Get = %q, want %q", data, "payload")
	}

	if err := c.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, ok, err = c.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected miss after Delete")
	}

	// Deleting a missing key is fine.
	if err := c.Delete(ctx, "never-set"); err != nil {
		t.Errorf("Delete missing key: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	testBasicOps(t, c)
}

func TestFileCacheExpiry(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	_, ok, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected expired entry to read as a miss")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// Corrupt the entry on disk.
	if err := os.WriteFile(c.path("k"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}

	_, ok, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected corrupt entry to read as a miss")
	}
}

func TestNullCache(t *testing.T) {
	c := NewNullCache()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	_, ok, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("null cache must never hit")
	}
}

func TestNamespaced(t *testing.T) {
	inner, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	ctx := context.Background()

	a := Namespaced(inner, "a:")
	b := Namespaced(inner, "b:")

	if err := a.Set(ctx, "k", []byte("from-a"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, ok, _ := b.Get(ctx, "k"); ok {
		t.Error("namespaces must not share entries")
	}
	data, ok, err := a.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get via same namespace: ok=%v err=%v", ok, err)
	}
	if string(data) != "from-a" {
		t.Errorf("Get = %q, want %q", data, "from-a")
	}
}

func TestBadgerCache(t *testing.T) {
	c, err := NewBadgerCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadgerCache: %v", err)
	}
	defer c.Close()

	testBasicOps(t, c)
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("STACSMITH_REDIS_ADDR")
	if addr == "" {
		t.Skip("STACSMITH_REDIS_ADDR not set")
	}

	c, err := NewRedisCache(context.Background(), RedisOptions{Addr: addr})
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()

	testBasicOps(t, c)
}

func TestDocumentKey(t *testing.T) {
	k1 := DocumentKey("https://example.com/catalog.json")
	k2 := DocumentKey("https://example.com/other.json")
	if k1 == k2 {
		t.Error("distinct hrefs must produce distinct keys")
	}
	if k1 != DocumentKey("https://example.com/catalog.json") {
		t.Error("keys must be deterministic")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	t.Run("NonRetryableFailsFast", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, 3, func() error {
			calls++
			return os.ErrPermission
		})
		if err == nil {
			t.Fatal("expected error")
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("SucceedsFirstTry", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, 3, func() error {
			calls++
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})
}
