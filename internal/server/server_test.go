package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func testCatalogDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"catalog.json":     `{"type": "Catalog", "stac_version": "1.1.0", "id": "root", "description": "d", "links": []}`,
		"sub/catalog.json": `{"type": "Catalog", "stac_version": "1.1.0", "id": "sub", "description": "d", "links": []}`,
		"sub/i1/i1.json":   `{"type": "Feature", "stac_version": "1.1.0", "id": "i1", "geometry": null, "properties": {"datetime": "2021-06-15T12:00:00Z"}, "links": [], "assets": {}}`,
		"sub/notes.txt":    "not json",
	}
	for rel, body := range files {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(New(testCatalogDir(t), nil).Handler())
	t.Cleanup(ts.Close)
	return ts
}

// get fetches path without following redirects.
func get(t *testing.T, ts *httptest.Server, path string) *http.Response {
	t.Helper()
	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
	resp, err := client.Get(ts.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServeCatalog(t *testing.T) {
	ts := testServer(t)
	resp := get(t, ts, "/catalog.json")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s", ct)
	}
	var doc map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatal(err)
	}
	if doc["id"] != "root" {
		t.Errorf("served document id = %v", doc["id"])
	}
}

func TestServeItemGeoJSON(t *testing.T) {
	ts := testServer(t)
	resp := get(t, ts, "/sub/i1/i1.json")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("Content-Type = %s, want application/geo+json", ct)
	}
}

func TestServeNonJSON(t *testing.T) {
	ts := testServer(t)
	resp := get(t, ts, "/sub/notes.txt")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %s, want text/plain", ct)
	}
}

func TestRootRedirect(t *testing.T) {
	ts := testServer(t)
	resp := get(t, ts, "/")

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/catalog.json" {
		t.Errorf("Location = %s", loc)
	}
}

func TestDirectoryRedirect(t *testing.T) {
	ts := testServer(t)
	resp := get(t, ts, "/sub")

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/sub/catalog.json" {
		t.Errorf("Location = %s", loc)
	}
}

func TestNotFound(t *testing.T) {
	ts := testServer(t)
	if resp := get(t, ts, "/missing.json"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestTraversalBlocked(t *testing.T) {
	dir := testCatalogDir(t)
	secret := filepath.Join(filepath.Dir(dir), "secret.json")
	if err := os.WriteFile(secret, []byte(`{"type": "Catalog"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	defer os.Remove(secret)

	ts := httptest.NewServer(New(dir, nil).Handler())
	defer ts.Close()

	resp := get(t, ts, "/%2e%2e/secret.json")
	if resp.StatusCode == http.StatusOK {
		t.Fatal("path traversal served a file outside the root")
	}
}

func TestHealthz(t *testing.T) {
	ts := testServer(t)
	resp := get(t, ts, "/healthz")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), `"status":"ok"`) {
		t.Errorf("body = %s", body)
	}
}
