package stac

import (
	"context"
	"slices"
	"testing"
	"time"
)

func TestGlobalExtent(t *testing.T) {
	e := GlobalExtent()
	if len(e.Spatial.BBoxes) != 1 || !slices.Equal(e.Spatial.BBoxes[0], []float64{-180, -90, 180, 90}) {
		t.Errorf("bboxes = %v", e.Spatial.BBoxes)
	}
	if len(e.Temporal.Intervals) != 1 {
		t.Fatalf("intervals = %v", e.Temporal.Intervals)
	}
	if iv := e.Temporal.Intervals[0]; iv[0] != nil || iv[1] != nil {
		t.Errorf("interval = %v, want open on both ends", iv)
	}
}

func TestExtentFromItems(t *testing.T) {
	a := NewItem("a", testTime)
	a.BBox = []float64{0, 0, 2, 2}
	july := time.Date(2021, 7, 10, 0, 0, 0, 0, time.UTC)
	b := NewItem("b", july)
	b.BBox = []float64{1, 1, 3, 3}
	empty := NewItem("empty", testTime)
	empty.Properties["datetime"] = nil // no bbox, no datetime: contributes nothing

	e := ExtentFromItems([]*Item{a, b, empty})

	if len(e.Spatial.BBoxes) != 1 || !slices.Equal(e.Spatial.BBoxes[0], []float64{0, 0, 3, 3}) {
		t.Errorf("bboxes = %v, want single union box [0 0 3 3]", e.Spatial.BBoxes)
	}
	if len(e.Temporal.Intervals) != 1 {
		t.Fatalf("intervals = %v, want a single interval", e.Temporal.Intervals)
	}
	iv := e.Temporal.Intervals[0]
	if iv[0] == nil || !iv[0].Equal(testTime) {
		t.Errorf("interval start = %v, want %v", iv[0], testTime)
	}
	if iv[1] == nil || !iv[1].Equal(july) {
		t.Errorf("interval end = %v, want %v", iv[1], july)
	}
}

func TestExtentFromItemsRange(t *testing.T) {
	it := NewItem("ranged", testTime)
	start := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2021, 6, 30, 0, 0, 0, 0, time.UTC)
	it.SetDatetimeRange(start, end)

	e := ExtentFromItems([]*Item{it})
	iv := e.Temporal.Intervals[0]
	if iv[0] == nil || !iv[0].Equal(start) || iv[1] == nil || !iv[1].Equal(end) {
		t.Errorf("interval = [%v, %v], want the declared range", iv[0], iv[1])
	}
}

func TestExtentFromItemsEmpty(t *testing.T) {
	e := ExtentFromItems(nil)
	if e.Spatial.BBoxes == nil || len(e.Spatial.BBoxes) != 0 {
		t.Errorf("bboxes = %#v, want empty non-nil", e.Spatial.BBoxes)
	}
	iv := e.Temporal.Intervals[0]
	if iv[0] != nil || iv[1] != nil {
		t.Errorf("interval = %v, want open", iv)
	}
}

func TestCollectionAddItem(t *testing.T) {
	col := NewCollection("col1", "a collection", GlobalExtent())
	col.SetSelfHref("/data/col1/collection.json")
	it := newTestItem("i1")

	if _, err := col.AddItem(it); err != nil {
		t.Fatal(err)
	}
	if it.CollectionID != "col1" {
		t.Errorf("collection id = %q", it.CollectionID)
	}
	if it.FindLink(RelCollection) == nil {
		t.Error("no collection link on the item")
	}
	if it.Parent() != Container(col) {
		t.Error("item not parented under the collection")
	}

	t.Run("KeepParent", func(t *testing.T) {
		other := NewCollection("col2", "another collection", GlobalExtent())
		guest := newTestItem("guest")
		if _, err := other.AddItem(guest, KeepParent()); err != nil {
			t.Fatal(err)
		}
		if guest.CollectionID != "" || guest.FindLink(RelCollection) != nil {
			t.Error("KeepParent must not rebind the item's collection")
		}
	})
}

func TestUpdateExtentFromItems(t *testing.T) {
	col := NewCollection("col1", "a collection", GlobalExtent())
	col.SetSelfHref("/data/col1/collection.json")
	a := NewItem("a", testTime)
	a.BBox = []float64{0, 0, 1, 1}
	b := NewItem("b", testTime)
	b.BBox = []float64{2, 2, 4, 4}
	for _, it := range []*Item{a, b} {
		if _, err := col.AddItem(it); err != nil {
			t.Fatal(err)
		}
	}

	if err := col.UpdateExtentFromItems(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := col.Extent.Spatial.BBoxes; len(got) != 1 || !slices.Equal(got[0], []float64{0, 0, 4, 4}) {
		t.Errorf("bboxes = %v", got)
	}
	iv := col.Extent.Temporal.Intervals[0]
	if iv[0] == nil || !iv[0].Equal(testTime) || iv[1] == nil || !iv[1].Equal(testTime) {
		t.Errorf("interval = [%v, %v]", iv[0], iv[1])
	}
}

func TestCollectionClone(t *testing.T) {
	col := NewCollection("col1", "a collection", GlobalExtent())
	col.License = "CC-BY-4.0"
	col.Keywords = []string{"satellite"}
	col.Providers = []*Provider{{Name: "acme", Roles: []string{"producer"}}}
	col.Summaries = map[string]any{"gsd": []any{10.0}}
	col.Assets = map[string]*Asset{"thumb": {Href: "./thumb.png"}}

	clone, ok := col.Clone().(*Collection)
	if !ok {
		t.Fatal("clone is not a collection")
	}
	if clone.License != "CC-BY-4.0" || !slices.Equal(clone.Keywords, col.Keywords) {
		t.Error("scalar fields not copied")
	}
	if clone.Root() != Container(clone) {
		t.Error("clone does not root itself")
	}

	clone.Extent.Spatial.BBoxes[0][0] = 7
	if col.Extent.Spatial.BBoxes[0][0] != -180 {
		t.Error("extent shared between clone and original")
	}
	clone.Providers[0].Name = "changed"
	if col.Providers[0].Name != "acme" {
		t.Error("providers shared between clone and original")
	}
	a, ok := clone.Assets["thumb"]
	if !ok {
		t.Fatal("assets not cloned")
	}
	if a.Owner() != Object(clone) {
		t.Error("cloned asset still owned by the original")
	}
}

func TestCollectionDocument(t *testing.T) {
	col := NewCollection("col1", "a collection", GlobalExtent())
	col.SetSelfHref("/data/col1/collection.json")
	col.Providers = []*Provider{{Name: "acme", URL: "https://acme.example"}}

	d, err := col.Document(EncodeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if d["type"] != string(KindCollection) {
		t.Errorf("type = %v", d["type"])
	}
	if d["license"] != "other" {
		t.Errorf("license = %v", d["license"])
	}
	ext, ok := d["extent"].(map[string]any)
	if !ok {
		t.Fatalf("extent = %T", d["extent"])
	}
	spatial := ext["spatial"].(map[string]any)
	if _, ok := spatial["bbox"].([][]float64); !ok {
		t.Errorf("spatial bbox = %T", spatial["bbox"])
	}
	temporal := ext["temporal"].(map[string]any)
	if _, ok := temporal["interval"].([]any); !ok {
		t.Errorf("temporal interval = %T", temporal["interval"])
	}
	provs, ok := d["providers"].([]any)
	if !ok || len(provs) != 1 {
		t.Fatalf("providers = %v", d["providers"])
	}
	if provs[0].(map[string]any)["name"] != "acme" {
		t.Errorf("provider = %v", provs[0])
	}
}

// A zero extent still renders the required spatial and temporal members.
func TestExtentDocumentZero(t *testing.T) {
	d := Extent{}.document()
	spatial := d["spatial"].(map[string]any)
	if bboxes, ok := spatial["bbox"].([][]float64); !ok || bboxes == nil {
		t.Errorf("bbox = %#v, want empty non-nil slice", spatial["bbox"])
	}
	temporal := d["temporal"].(map[string]any)
	intervals := temporal["interval"].([]any)
	if len(intervals) != 1 {
		t.Fatalf("intervals = %v", intervals)
	}
	pair := intervals[0].([]any)
	if pair[0] != nil || pair[1] != nil {
		t.Errorf("interval = %v, want open", pair)
	}
}
