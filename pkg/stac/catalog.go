package stac

import (
	"context"
	"fmt"

	"github.com/stacsmith/stacsmith/pkg/href"
	"github.com/stacsmith/stacsmith/pkg/layout"
)

// CatalogType describes how a catalog's links are written at save time.
// See the STAC best practices document for the publication patterns these
// correspond to.
type CatalogType string

const (
	// CatalogTypeSelfContained serializes hierarchical links relative and
	// omits self links entirely. The catalog works from any location, e.g.
	// checked into a repository or shipped in an archive.
	CatalogTypeSelfContained CatalogType = "SELF_CONTAINED"
	// CatalogTypeAbsolutePublished serializes every link absolute and
	// includes a self link on every object.
	CatalogTypeAbsolutePublished CatalogType = "ABSOLUTE_PUBLISHED"
	// CatalogTypeRelativePublished serializes hierarchical links relative
	// but stamps a self link on the root, anchoring the tree to its
	// published location.
	CatalogTypeRelativePublished CatalogType = "RELATIVE_PUBLISHED"
)

// IsRelative reports whether hierarchical links serialize relative under
// this catalog type.
func (t CatalogType) IsRelative() bool {
	return t == CatalogTypeSelfContained || t == CatalogTypeRelativePublished
}

// DetermineCatalogType infers the catalog type from a serialized document
// by inspecting its links: a self link marks a published catalog, and any
// relative hierarchical href marks a relative one. A document with neither
// a self link nor a relative hierarchical href is ambiguous and yields "".
func DetermineCatalogType(doc map[string]any) CatalogType {
	hasSelf := false
	hasRelative := false
	for _, ld := range docMapSlice(doc, "links") {
		rel := Rel(docString(ld, "rel"))
		if rel == RelSelf {
			hasSelf = true
			continue
		}
		if !rel.IsHierarchical() {
			continue
		}
		if h := docString(ld, "href"); h != "" && !href.IsAbsolute(h) {
			hasRelative = true
		}
	}
	switch {
	case hasSelf && !hasRelative:
		return CatalogTypeAbsolutePublished
	case hasSelf:
		return CatalogTypeRelativePublished
	case hasRelative:
		return CatalogTypeSelfContained
	default:
		return ""
	}
}

// Catalog is the generic container node of a STAC tree. It groups child
// catalogs, collections and items via links and owns the tree's resolution
// cache when it is the root.
type Catalog struct {
	node

	// Description is the required human-readable catalog description.
	Description string
	// Title is an optional short title.
	Title string
	// CatalogType governs link and self-link rendering at save time.
	CatalogType CatalogType

	cache *ResolvedObjectCache
}

// NewCatalog creates a catalog that is its own root, ready to have
// children and items attached.
func NewCatalog(id, description string) *Catalog {
	c := &Catalog{Description: description, CatalogType: CatalogTypeAbsolutePublished}
	c.node.init(c, KindCatalog, id)
	c.cache = NewResolvedObjectCache()
	c.SetRoot(c)
	return c
}

func (c *Catalog) resolvedObjects() *ResolvedObjectCache { return c.cache }

// container returns the outermost object as a Container. A *Collection
// embedding this catalog is returned as the collection, not the catalog.
func (c *Catalog) container() Container { return c.node.self.(Container) }

// SetRoot replaces the catalog's root link and merges this catalog's
// resolution cache into the new root's, so the joined tree deduplicates
// against a single cache. Setting a nil root detaches the catalog into an
// independent tree with a fresh cache.
func (c *Catalog) SetRoot(root Container) {
	c.node.SetRoot(root)
	if root == nil {
		c.cache = NewResolvedObjectCache()
		c.cache.Cache(c.container())
		return
	}
	rc := root.resolvedObjects()
	if rc != c.cache {
		rc.absorb(c.cache)
		c.cache = rc
	}
}

// AddOption adjusts AddChild and AddItem behavior.
type AddOption func(*addOptions)

type addOptions struct {
	title      string
	keepParent bool
	strategy   layout.Strategy
}

// WithTitle sets the title on the created link.
func WithTitle(title string) AddOption {
	return func(o *addOptions) { o.title = title }
}

// KeepParent leaves the added object's existing parent link untouched
// instead of re-parenting it under the receiving container.
func KeepParent() AddOption {
	return func(o *addOptions) { o.keepParent = true }
}

// WithStrategy overrides the layout strategy used to place the added
// object when the receiving container has a self href.
func WithStrategy(s layout.Strategy) AddOption {
	return func(o *addOptions) { o.strategy = s }
}

func applyAddOptions(opts []AddOption) addOptions {
	var o addOptions
	for _, fn := range opts {
		fn(&o)
	}
	if o.strategy == nil {
		o.strategy = layout.BestPractices{}
	}
	return o
}

// AddChild attaches child under this container and returns the created
// child link. The child inherits this container's root; if the container
// has none, it becomes the child's root itself. Unless KeepParent is given
// the child is re-parented, which detaches it from any previous parent.
// When the container has a self href, the child is placed by the layout
// strategy relative to it.
func (c *Catalog) AddChild(child Container, opts ...AddOption) (*Link, error) {
	o := applyAddOptions(opts)
	self := c.container()

	root := c.Root()
	if root == nil {
		root = self
	}
	child.SetRoot(root)
	if !o.keepParent {
		child.SetParent(self)
	}
	if selfHref := c.SelfHref(); selfHref != "" {
		childHref, err := containerLayoutHref(o.strategy, child, href.Parent(selfHref), false)
		if err != nil {
			return nil, fmt.Errorf("add child %q: %w", child.ID(), err)
		}
		child.SetSelfHref(childHref)
	}
	l := &Link{rel: RelChild, target: child, MediaType: MediaTypeJSON, Title: o.title}
	c.AddLink(l)
	return l, nil
}

// AddChildren attaches several children with default options.
func (c *Catalog) AddChildren(children ...Container) error {
	for _, child := range children {
		if _, err := c.container().AddChild(child); err != nil {
			return err
		}
	}
	return nil
}

// AddItem attaches item under this container and returns the created item
// link. Root, parent and placement follow the AddChild rules.
func (c *Catalog) AddItem(item *Item, opts ...AddOption) (*Link, error) {
	o := applyAddOptions(opts)
	self := c.container()

	root := c.Root()
	if root == nil {
		root = self
	}
	item.SetRoot(root)
	if !o.keepParent {
		item.SetParent(self)
	}
	if selfHref := c.SelfHref(); selfHref != "" {
		itemHref, err := o.strategy.ItemHref(item, href.Parent(selfHref))
		if err != nil {
			return nil, fmt.Errorf("add item %q: %w", item.ID(), err)
		}
		item.SetSelfHref(itemHref)
	}
	l := &Link{rel: RelItem, target: item, MediaType: MediaTypeGeoJSON, Title: o.title}
	c.AddLink(l)
	return l, nil
}

// AddItems attaches several items with default options.
func (c *Catalog) AddItems(items ...*Item) error {
	for _, item := range items {
		if _, err := c.container().AddItem(item); err != nil {
			return err
		}
	}
	return nil
}

// containerLayoutHref dispatches to the strategy rule matching the
// container's kind.
func containerLayoutHref(s layout.Strategy, c Container, parentDir string, isRoot bool) (string, error) {
	if c.Kind() == KindCollection {
		return s.CollectionHref(c, parentDir, isRoot)
	}
	return s.CatalogHref(c, parentDir, isRoot)
}

// ChildLinks returns the container's child links.
func (c *Catalog) ChildLinks() []*Link { return c.FindLinks(RelChild) }

// ItemLinks returns the container's item links.
func (c *Catalog) ItemLinks() []*Link { return c.FindLinks(RelItem) }

// Children resolves and returns the direct children in link order.
func (c *Catalog) Children(ctx context.Context) ([]Container, error) {
	links := c.ChildLinks()
	out := make([]Container, 0, len(links))
	for _, l := range links {
		t, err := l.Target(ctx, nil)
		if err != nil {
			return nil, err
		}
		child, ok := AsContainer(t)
		if !ok {
			return nil, resolutionErr(RelChild, l.AbsoluteHref(), fmt.Errorf("%w: child resolved to %s", ErrWrongObjectType, t.Kind()))
		}
		out = append(out, child)
	}
	return out, nil
}

// Items resolves and returns the direct items in link order.
func (c *Catalog) Items(ctx context.Context) ([]*Item, error) {
	links := c.ItemLinks()
	out := make([]*Item, 0, len(links))
	for _, l := range links {
		t, err := l.Target(ctx, nil)
		if err != nil {
			return nil, err
		}
		item, ok := t.(*Item)
		if !ok {
			return nil, resolutionErr(RelItem, l.AbsoluteHref(), fmt.Errorf("%w: item link resolved to %s", ErrWrongObjectType, t.Kind()))
		}
		out = append(out, item)
	}
	return out, nil
}

// GetChild returns the direct child with the given id, resolving child
// links as needed. Absence is reported via the bool, not an error.
func (c *Catalog) GetChild(ctx context.Context, id string) (Container, bool, error) {
	for _, l := range c.ChildLinks() {
		t, err := l.Target(ctx, nil)
		if err != nil {
			return nil, false, err
		}
		if t.ID() != id {
			continue
		}
		child, ok := AsContainer(t)
		if !ok {
			return nil, false, resolutionErr(RelChild, l.AbsoluteHref(), fmt.Errorf("%w: child resolved to %s", ErrWrongObjectType, t.Kind()))
		}
		return child, true, nil
	}
	return nil, false, nil
}

// GetItem returns the direct item with the given id. Absence is reported
// via the bool, not an error.
func (c *Catalog) GetItem(ctx context.Context, id string) (*Item, bool, error) {
	for _, l := range c.ItemLinks() {
		t, err := l.Target(ctx, nil)
		if err != nil {
			return nil, false, err
		}
		if item, ok := t.(*Item); ok && item.ID() == id {
			return item, true, nil
		}
	}
	return nil, false, nil
}

// RemoveChild detaches the first child with the given id and returns it.
// The detached child loses its parent and root links, becoming the root of
// an independent tree with its own resolution cache. Absence is reported
// via the bool, not an error.
func (c *Catalog) RemoveChild(ctx context.Context, id string) (Container, bool, error) {
	for _, l := range c.ChildLinks() {
		t, err := l.Target(ctx, nil)
		if err != nil {
			return nil, false, err
		}
		if t.ID() != id {
			continue
		}
		child, ok := AsContainer(t)
		if !ok {
			return nil, false, resolutionErr(RelChild, l.AbsoluteHref(), fmt.Errorf("%w: child resolved to %s", ErrWrongObjectType, t.Kind()))
		}
		c.removeLinkByIdentity(l)
		child.SetParent(nil)
		child.SetRoot(nil)
		return child, true, nil
	}
	return nil, false, nil
}

// RemoveItem detaches the first item with the given id and returns it. The
// detached item loses its parent and root links. Absence is reported via
// the bool, not an error.
func (c *Catalog) RemoveItem(ctx context.Context, id string) (*Item, bool, error) {
	for _, l := range c.ItemLinks() {
		t, err := l.Target(ctx, nil)
		if err != nil {
			return nil, false, err
		}
		item, ok := t.(*Item)
		if !ok || item.ID() != id {
			continue
		}
		c.removeLinkByIdentity(l)
		item.SetParent(nil)
		item.SetRoot(nil)
		return item, true, nil
	}
	return nil, false, nil
}

func (c *Catalog) removeLinkByIdentity(target *Link) {
	for i, l := range c.node.links {
		if l == target {
			c.node.links = append(c.node.links[:i], c.node.links[i+1:]...)
			return
		}
	}
}

// ClearChildren drops every child link. Children that were already
// resolved are orphaned; unresolved links are dropped without I/O.
func (c *Catalog) ClearChildren() {
	for _, l := range c.ChildLinks() {
		if l.target != nil {
			l.target.SetParent(nil)
			l.target.SetRoot(nil)
		}
	}
	c.RemoveLinks(RelChild)
}

// ClearItems drops every item link, orphaning resolved items.
func (c *Catalog) ClearItems() {
	for _, l := range c.ItemLinks() {
		if l.target != nil {
			l.target.SetParent(nil)
			l.target.SetRoot(nil)
		}
	}
	c.RemoveLinks(RelItem)
}

// Clone copies the catalog and its link list. Cloned links share their
// resolved targets with the original; the root link is not cloned, since a
// clone starts out as its own root. The reader and writer carry over.
func (c *Catalog) Clone() Object {
	out := NewCatalog(c.id, c.Description)
	out.Title = c.Title
	out.CatalogType = c.CatalogType
	cloneNodeState(&out.node, &c.node)
	for _, l := range c.node.links {
		if l.rel == RelRoot {
			continue
		}
		out.AddLink(l.Clone())
	}
	return out
}

// cloneNodeState copies the scalar node state from src into a freshly
// constructed node. Links are not copied; each type decides which of them
// a clone keeps.
func cloneNodeState(dst, src *node) {
	dst.version = src.version
	dst.extensions = append([]string(nil), src.extensions...)
	dst.extra = deepCopyMap(src.extra)
	dst.reader = src.reader
	dst.writer = src.writer
}

// Document renders the catalog as a JSON-ready document.
func (c *Catalog) Document(opts EncodeOptions) (map[string]any, error) {
	d := map[string]any{
		"type":         string(KindCatalog),
		"id":           c.id,
		"stac_version": c.version,
		"description":  c.Description,
	}
	links, err := linkDocuments(&c.node, opts)
	if err != nil {
		return nil, err
	}
	d["links"] = links
	if len(c.extensions) > 0 {
		d["stac_extensions"] = append([]string(nil), c.extensions...)
	}
	if c.Title != "" {
		d["title"] = c.Title
	}
	mergeExtra(d, c.extra)
	return d, nil
}

// linkDocuments renders an object's links, honoring the self-link and raw
// href options.
func linkDocuments(n *node, opts EncodeOptions) ([]any, error) {
	out := make([]any, 0, len(n.links))
	for _, l := range n.links {
		if opts.OmitSelfLink && l.rel == RelSelf {
			continue
		}
		ld, err := l.Document(opts.RawHrefs)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", n.kind, n.id, err)
		}
		out = append(out, ld)
	}
	return out, nil
}
