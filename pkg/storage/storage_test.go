package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stacsmith/stacsmith/pkg/cache"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore()
	href := filepath.ToSlash(filepath.Join(t.TempDir(), "nested", "dir", "catalog.json"))

	if err := s.Put(ctx, href, []byte(`{"id":"cat"}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	data, err := s.Get(ctx, href)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != `{"id":"cat"}` {
		t.Errorf("Get = %q", data)
	}

	if err := s.Delete(ctx, href); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, href); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete = %v, want ErrNotFound", err)
	}
}

func TestFileStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore()

	_, err := s.Get(ctx, filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get = %v, want ErrNotFound", err)
	}
	err = s.Delete(ctx, filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete = %v, want ErrNotFound", err)
	}
}

func TestFileStoreFileScheme(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore()
	dir := t.TempDir()

	href := "file://" + filepath.ToSlash(filepath.Join(dir, "item.json"))
	if err := s.Put(ctx, href, []byte("{}")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	// Readable without the scheme too.
	if _, err := s.Get(ctx, filepath.Join(dir, "item.json")); err != nil {
		t.Errorf("Get without scheme: %v", err)
	}
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.Put(ctx, "/a.json", []byte("a")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := m.Put(ctx, "/b.json", []byte("b")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	data, err := m.Get(ctx, "/a.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "a" {
		t.Errorf("Get = %q, want %q", data, "a")
	}

	// Mutating the returned slice must not affect the store.
	data[0] = 'x'
	again, _ := m.Get(ctx, "/a.json")
	if string(again) != "a" {
		t.Error("Get must return a copy")
	}

	if got := m.Hrefs(); len(got) != 2 || got[0] != "/a.json" || got[1] != "/b.json" {
		t.Errorf("Hrefs = %v", got)
	}

	if err := m.Delete(ctx, "/a.json"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Get(ctx, "/a.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete = %v, want ErrNotFound", err)
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
}

func TestHTTPReader(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/catalog.json":
			w.Write([]byte(`{"id":"remote"}`))
		case "/missing.json":
			http.NotFound(w, r)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	r := NewHTTPReader(WithRetries(1))

	t.Run("OK", func(t *testing.T) {
		data, err := r.Get(ctx, srv.URL+"/catalog.json")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if string(data) != `{"id":"remote"}` {
			t.Errorf("Get = %q", data)
		}
		if gotUA == "" {
			t.Error("request carried no User-Agent")
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := r.Get(ctx, srv.URL+"/missing.json")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Get = %v, want ErrNotFound", err)
		}
	})

	t.Run("ServerError", func(t *testing.T) {
		_, err := r.Get(ctx, srv.URL+"/boom.json")
		if err == nil {
			t.Fatal("expected error for 500 response")
		}
		if !cache.IsRetryable(err) {
			t.Errorf("500 should be retryable, got %v", err)
		}
	})
}

// countingReader counts Get calls so tests can observe cache hits.
type countingReader struct {
	inner Reader
	calls int
}

func (c *countingReader) Get(ctx context.Context, href string) ([]byte, error) {
	c.calls++
	return c.inner.Get(ctx, href)
}

func TestCachingReader(t *testing.T) {
	ctx := context.Background()

	src := NewMemory()
	if err := src.Put(ctx, "/cat.json", []byte(`{"id":"c"}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	counted := &countingReader{inner: src}

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := NewCachingReader(counted, fc, 0)

	for i := 0; i < 3; i++ {
		data, err := r.Get(ctx, "/cat.json")
		if err != nil {
			t.Fatalf("Get #%d: %v", i, err)
		}
		if string(data) != `{"id":"c"}` {
			t.Errorf("Get #%d = %q", i, data)
		}
	}
	if counted.calls != 1 {
		t.Errorf("source fetched %d times, want 1", counted.calls)
	}

	// Errors pass through and are not cached.
	if _, err := r.Get(ctx, "/missing.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing = %v, want ErrNotFound", err)
	}
}

func TestDefaultDispatch(t *testing.T) {
	ctx := context.Background()
	s := Default()

	if err := s.Put(ctx, "https://example.com/catalog.json", []byte("{}")); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Put https = %v, want ErrReadOnly", err)
	}
	if err := s.Delete(ctx, "http://example.com/catalog.json"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Delete http = %v, want ErrReadOnly", err)
	}

	href := filepath.Join(t.TempDir(), "local.json")
	if err := s.Put(ctx, href, []byte(`{"id":"l"}`)); err != nil {
		t.Fatalf("Put local: %v", err)
	}
	data, err := s.Get(ctx, href)
	if err != nil {
		t.Fatalf("Get local: %v", err)
	}
	if string(data) != `{"id":"l"}` {
		t.Errorf("Get = %q", data)
	}
}
