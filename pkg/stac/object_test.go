package stac

import (
	"slices"
	"testing"
)

func TestNodeIdentity(t *testing.T) {
	c := NewCatalog("cat", "a catalog")
	if c.Kind() != KindCatalog {
		t.Errorf("Kind = %q, want Catalog", c.Kind())
	}
	if c.ID() != "cat" {
		t.Errorf("ID = %q", c.ID())
	}
	if c.StacVersion() != Version {
		t.Errorf("StacVersion = %q, want %q", c.StacVersion(), Version)
	}
	c.SetID("renamed")
	if c.ID() != "renamed" {
		t.Errorf("ID after SetID = %q", c.ID())
	}
	c.SetStacVersion("1.0.0")
	if c.StacVersion() != "1.0.0" {
		t.Errorf("StacVersion after set = %q", c.StacVersion())
	}
}

func TestExtensions(t *testing.T) {
	const uri = "https://stac-extensions.github.io/raster/v1.1.0/schema.json"
	c := NewCatalog("cat", "a catalog")

	if c.HasExtension(uri) {
		t.Error("fresh object should declare no extensions")
	}
	c.AddExtension(uri)
	c.AddExtension(uri) // duplicate is a no-op
	if got := c.Extensions(); len(got) != 1 || got[0] != uri {
		t.Errorf("Extensions = %v", got)
	}
	if !c.HasExtension(uri) {
		t.Error("HasExtension = false after AddExtension")
	}
	c.RemoveExtension(uri)
	if c.HasExtension(uri) {
		t.Error("HasExtension = true after RemoveExtension")
	}
}

func TestLinkList(t *testing.T) {
	c := NewCatalog("cat", "a catalog")
	l1, _ := NewLink(RelLicense, "./LICENSE.txt")
	l2, _ := NewLink(RelLicense, "./LICENSE-2.txt")
	c.AddLink(l1)
	c.AddLink(l2)

	if l1.Owner() != Object(c) {
		t.Error("AddLink did not claim ownership")
	}
	if got := c.FindLink(RelLicense); got != l1 {
		t.Error("FindLink should return the first match")
	}
	if got := c.FindLinks(RelLicense); len(got) != 2 {
		t.Errorf("FindLinks returned %d links, want 2", len(got))
	}
	c.RemoveLinks(RelLicense)
	if got := c.FindLinks(RelLicense); len(got) != 0 {
		t.Errorf("FindLinks after RemoveLinks = %v", got)
	}
}

func TestSetSelfHrefRekeysCache(t *testing.T) {
	c := NewCatalog("cat", "a catalog")
	rc := c.resolvedObjects()

	c.SetSelfHref("/data/catalog.json")
	if got, ok := rc.GetByHref("/data/catalog.json"); !ok || !sameObject(got, c) {
		t.Fatal("catalog not cached under its new self href")
	}

	c.SetSelfHref("/published/catalog.json")
	if rc.ContainsHref("/data/catalog.json") {
		t.Error("stale href key left in cache")
	}
	if got, ok := rc.GetByHref("/published/catalog.json"); !ok || !sameObject(got, c) {
		t.Error("catalog not re-keyed under the new href")
	}

	c.SetSelfHref("")
	if c.SelfHref() != "" {
		t.Errorf("SelfHref after clear = %q", c.SelfHref())
	}
	if c.FindLink(RelSelf) != nil {
		t.Error("self link survived a clear")
	}
}

func TestSelfLinkEmission(t *testing.T) {
	c := NewCatalog("cat", "a catalog")
	c.SetSelfHref("/data/catalog.json")

	l := c.FindLink(RelSelf)
	if l == nil {
		t.Fatal("SetSelfHref did not create a self link")
	}
	if l.MediaType != MediaTypeJSON {
		t.Errorf("self link media type = %q", l.MediaType)
	}
	if !sameObject(l.Resolved(), c) {
		t.Error("self link target is not the object itself")
	}
}

// TestParentUniqueness moves a child between two catalogs and checks the
// single-parent invariant: the new parent holds the only child link, the
// old parent stops listing the child.
func TestParentUniqueness(t *testing.T) {
	a := NewCatalog("a", "first parent")
	c := NewCatalog("c", "second parent")
	child := NewCatalog("x", "the child")

	if _, err := a.AddChild(child); err != nil {
		t.Fatal(err)
	}
	if _, err := c.AddChild(child); err != nil {
		t.Fatal(err)
	}

	if child.Parent() == nil || !sameObject(child.Parent(), c) {
		t.Error("child's parent is not the second catalog")
	}
	for _, l := range a.ChildLinks() {
		if l.Resolved() != nil && sameObject(l.Resolved(), child) {
			t.Error("first catalog still lists the moved child")
		}
	}
	var toChild int
	for _, l := range c.ChildLinks() {
		if l.Resolved() != nil && sameObject(l.Resolved(), child) {
			toChild++
		}
	}
	if toChild != 1 {
		t.Errorf("second catalog has %d links to the child, want 1", toChild)
	}
	if got := child.FindLinks(RelParent); len(got) != 1 {
		t.Errorf("child has %d parent links, want 1", len(got))
	}
}

func TestSetParentSameParentIsNoop(t *testing.T) {
	root, child, _ := newTestTree(t)

	before := len(root.ChildLinks())
	child.SetParent(root)
	if got := len(root.ChildLinks()); got != before {
		t.Errorf("child links = %d, want %d", got, before)
	}
	if got := len(child.FindLinks(RelParent)); got != 1 {
		t.Errorf("parent links = %d, want 1", got)
	}
}

func TestAddChildAssignsLayoutHref(t *testing.T) {
	root := NewCatalog("root", "root catalog")
	root.SetSelfHref("/data/catalog.json")
	child := NewCatalog("child", "child catalog")
	if _, err := root.AddChild(child); err != nil {
		t.Fatal(err)
	}
	if got := child.SelfHref(); got != "/data/child/catalog.json" {
		t.Errorf("child self href = %q, want /data/child/catalog.json", got)
	}

	item := newTestItem("item1")
	if _, err := child.AddItem(item); err != nil {
		t.Fatal(err)
	}
	if got := item.SelfHref(); got != "/data/child/item1/item1.json" {
		t.Errorf("item self href = %q, want /data/child/item1/item1.json", got)
	}
}

func TestAddChildWithoutHrefLeavesChildUnplaced(t *testing.T) {
	root, child, item := newTestTree(t)

	if got := child.SelfHref(); got != "" {
		t.Errorf("child self href = %q, want empty until normalized", got)
	}
	if got := item.SelfHref(); got != "" {
		t.Errorf("item self href = %q, want empty until normalized", got)
	}
	if !sameObject(child.Root(), root) || !sameObject(item.Root(), root) {
		t.Error("descendants do not share the root")
	}
}

func TestKeepParentOption(t *testing.T) {
	a := NewCatalog("a", "owner")
	b := NewCatalog("b", "extra lister")
	child := NewCatalog("x", "the child")

	if _, err := a.AddChild(child); err != nil {
		t.Fatal(err)
	}
	if _, err := b.AddChild(child, KeepParent()); err != nil {
		t.Fatal(err)
	}

	if !sameObject(child.Parent(), a) {
		t.Error("KeepParent should leave the original parent in place")
	}
	if len(a.ChildLinks()) != 1 || len(b.ChildLinks()) != 1 {
		t.Error("both catalogs should list the child")
	}
}

func TestTemplateValueFromExtra(t *testing.T) {
	c := NewCatalog("cat", "a catalog")
	c.Extra()["mission"] = "sentinel-2"
	c.Extra()["props"] = map[string]any{"tier": 3}

	tests := []struct {
		name string
		want string
	}{
		{"id", "cat"},
		{"mission", "sentinel-2"},
		{"props.tier", "3"},
	}
	for _, tt := range tests {
		got, err := c.TemplateValue(tt.name)
		if err != nil {
			t.Errorf("TemplateValue(%q): %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("TemplateValue(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}

	if _, err := c.TemplateValue("nope"); err == nil {
		t.Error("unknown variable should error")
	}
}

func TestLinksReturnsCopy(t *testing.T) {
	c := NewCatalog("cat", "a catalog")
	l, _ := NewLink(RelLicense, "./LICENSE.txt")
	c.AddLink(l)

	links := c.Links()
	links[0] = nil
	if got := c.Links(); len(got) == 0 || got[len(got)-1] == nil {
		t.Error("mutating the returned slice changed the object's links")
	}
	if !slices.Contains(c.Links(), l) {
		t.Error("license link missing after slice mutation")
	}
}
