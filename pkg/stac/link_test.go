package stac

import (
	"context"
	"errors"
	"testing"

	"github.com/stacsmith/stacsmith/pkg/storage"
)

func TestNewLink(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		l, err := NewLink(RelChild, "./child/catalog.json")
		if err != nil {
			t.Fatalf("NewLink: %v", err)
		}
		if l.Rel() != RelChild {
			t.Errorf("Rel = %q, want %q", l.Rel(), RelChild)
		}
		if l.IsResolved() {
			t.Error("href-only link should start unresolved")
		}
		if got := l.Href(); got != "./child/catalog.json" {
			t.Errorf("Href = %q", got)
		}
	})

	t.Run("EmptyHref", func(t *testing.T) {
		if _, err := NewLink(RelChild, ""); !errors.Is(err, ErrEmptyHref) {
			t.Errorf("err = %v, want ErrEmptyHref", err)
		}
	})
}

func TestNewLinkTo(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		target := NewCatalog("c", "a catalog")
		l, err := NewLinkTo(RelChild, target)
		if err != nil {
			t.Fatalf("NewLinkTo: %v", err)
		}
		if !l.IsResolved() {
			t.Error("target link should start resolved")
		}
		if l.Resolved() != Object(target) {
			t.Error("Resolved returned a different object")
		}
	})

	t.Run("NilTarget", func(t *testing.T) {
		if _, err := NewLinkTo(RelChild, nil); !errors.Is(err, ErrNilTarget) {
			t.Errorf("err = %v, want ErrNilTarget", err)
		}
	})
}

func TestLinkHref(t *testing.T) {
	t.Run("StoredHref", func(t *testing.T) {
		l := &Link{rel: RelChild, href: "./c/catalog.json"}
		if got := l.Href(); got != "./c/catalog.json" {
			t.Errorf("Href = %q", got)
		}
	})

	t.Run("TargetSelfHrefWins", func(t *testing.T) {
		target := NewCatalog("c", "a catalog")
		target.SetSelfHref("/data/c/catalog.json")
		l := &Link{rel: RelChild, href: "./stale/catalog.json", target: target}
		if got := l.Href(); got != "/data/c/catalog.json" {
			t.Errorf("Href = %q, want target self href", got)
		}
	})

	t.Run("NothingDerivable", func(t *testing.T) {
		target := NewCatalog("c", "a catalog")
		l := &Link{rel: RelChild, target: target}
		if got := l.Href(); got != "" {
			t.Errorf("Href = %q, want empty", got)
		}
	})
}

func TestLinkAbsoluteHref(t *testing.T) {
	owner := NewCatalog("root", "root catalog")
	owner.SetSelfHref("/data/catalog.json")
	l, err := NewLink(RelItem, "./item1/item1.json")
	if err != nil {
		t.Fatal(err)
	}
	owner.AddLink(l)

	if got := l.AbsoluteHref(); got != "/data/item1/item1.json" {
		t.Errorf("AbsoluteHref = %q, want /data/item1/item1.json", got)
	}
}

// TestLinkTargetMemoized covers the core resolution contract: an item link
// with a relative href resolves against the owner's location through the
// reader exactly once, and every later access reuses the in-memory target.
func TestLinkTargetMemoized(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	if err := mem.Put(ctx, "/data/item1.json", itemJSON("item1")); err != nil {
		t.Fatal(err)
	}
	reader := newCountingReader(mem)

	owner := NewCatalog("root", "root catalog")
	owner.SetSelfHref("/data/catalog.json")
	l, err := NewLink(RelItem, "./item1.json")
	if err != nil {
		t.Fatal(err)
	}
	owner.AddLink(l)

	got, err := l.Target(ctx, reader)
	if err != nil {
		t.Fatalf("Target: %v", err)
	}
	item, ok := got.(*Item)
	if !ok {
		t.Fatalf("Target returned %T, want *Item", got)
	}
	if item.ID() != "item1" {
		t.Errorf("item id = %q, want item1", item.ID())
	}
	if reader.calls["/data/item1.json"] != 1 {
		t.Fatalf("reader calls = %d, want 1", reader.calls["/data/item1.json"])
	}

	again, err := l.Target(ctx, reader)
	if err != nil {
		t.Fatalf("second Target: %v", err)
	}
	if again != got {
		t.Error("second resolution returned a different instance")
	}
	if reader.calls["/data/item1.json"] != 1 {
		t.Errorf("reader calls after second Target = %d, want 1", reader.calls["/data/item1.json"])
	}
}

func TestLinkTargetUsesTreeReader(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	if err := mem.Put(ctx, "/data/child/catalog.json", catalogJSON("child")); err != nil {
		t.Fatal(err)
	}

	owner := NewCatalog("root", "root catalog")
	owner.SetSelfHref("/data/catalog.json")
	owner.SetReader(mem)
	l, err := NewLink(RelChild, "./child/catalog.json")
	if err != nil {
		t.Fatal(err)
	}
	owner.AddLink(l)

	// nil reader falls back to the tree's.
	got, err := l.Target(ctx, nil)
	if err != nil {
		t.Fatalf("Target: %v", err)
	}
	if got.ID() != "child" {
		t.Errorf("target id = %q, want child", got.ID())
	}
}

func TestLinkTargetNoReader(t *testing.T) {
	owner := NewCatalog("root", "root catalog")
	owner.SetSelfHref("/data/catalog.json")
	l, err := NewLink(RelChild, "./child/catalog.json")
	if err != nil {
		t.Fatal(err)
	}
	owner.AddLink(l)

	_, err = l.Target(context.Background(), nil)
	if !errors.Is(err, ErrNoReader) {
		t.Errorf("err = %v, want ErrNoReader", err)
	}
}

func TestLinkTargetWrongKind(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	// An item link whose document turns out to be a catalog.
	if err := mem.Put(ctx, "/data/item1.json", catalogJSON("not-an-item")); err != nil {
		t.Fatal(err)
	}

	owner := NewCatalog("root", "root catalog")
	owner.SetSelfHref("/data/catalog.json")
	l, err := NewLink(RelItem, "./item1.json")
	if err != nil {
		t.Fatal(err)
	}
	owner.AddLink(l)

	_, err = l.Target(ctx, mem)
	if !errors.Is(err, ErrWrongObjectType) {
		t.Fatalf("err = %v, want ErrWrongObjectType", err)
	}
	var re *ResolutionError
	if !errors.As(err, &re) {
		t.Fatalf("err = %T, want *ResolutionError", err)
	}
	if re.Href != "/data/item1.json" {
		t.Errorf("ResolutionError.Href = %q, want offending href", re.Href)
	}
	if re.Rel != RelItem {
		t.Errorf("ResolutionError.Rel = %q, want item", re.Rel)
	}
}

func TestLinkTargetFetchError(t *testing.T) {
	owner := NewCatalog("root", "root catalog")
	owner.SetSelfHref("/data/catalog.json")
	l, err := NewLink(RelChild, "./missing/catalog.json")
	if err != nil {
		t.Fatal(err)
	}
	owner.AddLink(l)

	_, err = l.Target(context.Background(), storage.NewMemory())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want wrapped storage.ErrNotFound", err)
	}
	var re *ResolutionError
	if !errors.As(err, &re) {
		t.Errorf("err = %T, want *ResolutionError", err)
	}
}

func TestLinkResolutionRepairsHierarchy(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	if err := mem.Put(ctx, "/data/child/catalog.json", catalogJSON("child")); err != nil {
		t.Fatal(err)
	}

	root := NewCatalog("root", "root catalog")
	root.SetSelfHref("/data/catalog.json")
	root.SetReader(mem)
	l, err := NewLink(RelChild, "./child/catalog.json")
	if err != nil {
		t.Fatal(err)
	}
	root.AddLink(l)

	got, err := l.Target(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	child := got.(*Catalog)
	if child.Parent() == nil || !sameObject(child.Parent(), root) {
		t.Error("resolved child's parent is not the owning catalog")
	}
	if child.Root() == nil || !sameObject(child.Root(), root) {
		t.Error("resolved child's root is not the owner's root")
	}
}

func TestLinkDocument(t *testing.T) {
	t.Run("NoHrefFails", func(t *testing.T) {
		target := NewCatalog("c", "a catalog")
		l := &Link{rel: RelChild, target: target}
		if _, err := l.Document(false); !errors.Is(err, ErrNoHref) {
			t.Errorf("err = %v, want ErrNoHref", err)
		}
	})

	t.Run("Fields", func(t *testing.T) {
		l := &Link{
			rel:       RelChild,
			href:      "./c/catalog.json",
			MediaType: MediaTypeJSON,
			Title:     "Child",
			Extra:     map[string]any{"custom:flag": true},
		}
		d, err := l.Document(false)
		if err != nil {
			t.Fatal(err)
		}
		if d["rel"] != "child" || d["href"] != "./c/catalog.json" {
			t.Errorf("rel/href = %v/%v", d["rel"], d["href"])
		}
		if d["type"] != MediaTypeJSON || d["title"] != "Child" {
			t.Errorf("type/title = %v/%v", d["type"], d["title"])
		}
		if d["custom:flag"] != true {
			t.Error("extra field not carried through")
		}
	})

	t.Run("RelativizedUnderSelfContained", func(t *testing.T) {
		root := NewCatalog("root", "root catalog")
		root.CatalogType = CatalogTypeSelfContained
		root.SetSelfHref("/data/catalog.json")
		child := NewCatalog("child", "child catalog")
		if _, err := root.AddChild(child); err != nil {
			t.Fatal(err)
		}

		l := root.FindLink(RelChild)
		d, err := l.Document(false)
		if err != nil {
			t.Fatal(err)
		}
		if d["href"] != "./child/catalog.json" {
			t.Errorf("href = %v, want ./child/catalog.json", d["href"])
		}
	})

	t.Run("AbsoluteUnderAbsolutePublished", func(t *testing.T) {
		root := NewCatalog("root", "root catalog")
		root.CatalogType = CatalogTypeAbsolutePublished
		root.SetSelfHref("/data/catalog.json")
		child := NewCatalog("child", "child catalog")
		if _, err := root.AddChild(child); err != nil {
			t.Fatal(err)
		}

		l := root.FindLink(RelChild)
		d, err := l.Document(false)
		if err != nil {
			t.Fatal(err)
		}
		if d["href"] != "/data/child/catalog.json" {
			t.Errorf("href = %v, want /data/child/catalog.json", d["href"])
		}
	})
}

func TestRelIsHierarchical(t *testing.T) {
	hierarchical := []Rel{RelSelf, RelRoot, RelParent, RelChild, RelItem, RelCollection}
	for _, r := range hierarchical {
		if !r.IsHierarchical() {
			t.Errorf("%q should be hierarchical", r)
		}
	}
	for _, r := range []Rel{RelLicense, RelAlternate, RelVia, Rel("describedby")} {
		if r.IsHierarchical() {
			t.Errorf("%q should not be hierarchical", r)
		}
	}
}
