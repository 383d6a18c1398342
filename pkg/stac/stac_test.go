package stac

import (
	"context"
	"fmt"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/stacsmith/stacsmith/pkg/storage"
)

// countingReader wraps a Reader and counts Get calls per href, so tests can
// prove that link resolution memoizes instead of re-fetching.
type countingReader struct {
	inner storage.Reader
	calls map[string]int
}

func newCountingReader(inner storage.Reader) *countingReader {
	return &countingReader{inner: inner, calls: map[string]int{}}
}

func (r *countingReader) Get(ctx context.Context, href string) ([]byte, error) {
	r.calls[href]++
	return r.inner.Get(ctx, href)
}

func (r *countingReader) total() int {
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

// Fixture documents. Minimal but valid: every object carries the fields the
// decoder requires plus one extra field to exercise round-trip fidelity.

func catalogJSON(id string) []byte {
	return fmt.Appendf(nil, `{
		"type": "Catalog",
		"id": %q,
		"stac_version": "1.1.0",
		"description": "test catalog %s",
		"links": []
	}`, id, id)
}

func collectionJSON(id string) []byte {
	return fmt.Appendf(nil, `{
		"type": "Collection",
		"id": %q,
		"stac_version": "1.1.0",
		"description": "test collection %s",
		"license": "CC-BY-4.0",
		"extent": {
			"spatial": {"bbox": [[-180, -90, 180, 90]]},
			"temporal": {"interval": [["2020-01-01T00:00:00Z", null]]}
		},
		"links": []
	}`, id, id)
}

func itemJSON(id string) []byte {
	return fmt.Appendf(nil, `{
		"type": "Feature",
		"id": %q,
		"stac_version": "1.1.0",
		"geometry": {"type": "Point", "coordinates": [5.1, 52.0]},
		"bbox": [5.1, 52.0, 5.1, 52.0],
		"properties": {"datetime": "2021-06-15T12:00:00Z"},
		"links": [],
		"assets": {}
	}`, id)
}

// testTime is the acquisition datetime used by in-memory fixture items.
var testTime = time.Date(2021, 6, 15, 12, 0, 0, 0, time.UTC)

// newTestItem builds an item with a point geometry and bbox.
func newTestItem(id string) *Item {
	it := NewItem(id, testTime)
	it.Geometry = map[string]any{"type": "Point", "coordinates": []any{5.1, 52.0}}
	it.BBox = []float64{5.1, 52.0, 5.1, 52.0}
	return it
}

// newTestTree assembles root -> child -> item1 in memory, the shape most
// tree-operation tests start from.
func newTestTree(t *testing.T) (root, child *Catalog, item *Item) {
	t.Helper()
	root = NewCatalog("root", "root catalog")
	child = NewCatalog("child", "child catalog")
	item = newTestItem("item1")
	if _, err := root.AddChild(child); err != nil {
		t.Fatalf("AddChild: %v", err)
	}
	if _, err := child.AddItem(item); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	return root, child, item
}

// linkHrefs collects the hrefs of obj's links with the given rel.
func linkHrefs(obj Object, rel Rel) []string {
	var out []string
	for _, l := range obj.FindLinks(rel) {
		out = append(out, l.Href())
	}
	return out
}

// storageWith builds a Memory store preloaded with documents.
func storageWith(t *testing.T, docs map[string][]byte) *storage.Memory {
	t.Helper()
	m := storage.NewMemory()
	for h, data := range docs {
		if err := m.Put(context.Background(), h, data); err != nil {
			t.Fatalf("seed %s: %v", h, err)
		}
	}
	return m
}

// mustUnmarshal parses written JSON back into a document for assertions.
func mustUnmarshal(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal document: %v", err)
	}
	return doc
}

// docLinkHrefs collects the hrefs of a decoded document's links with the
// given rel.
func docLinkHrefs(doc map[string]any, rel string) []string {
	links, _ := doc["links"].([]any)
	var out []string
	for _, raw := range links {
		ld, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if ld["rel"] == rel {
			h, _ := ld["href"].(string)
			out = append(out, h)
		}
	}
	return out
}
