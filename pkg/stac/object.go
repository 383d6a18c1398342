package stac

import (
	"context"
	"fmt"
	"iter"
	"slices"

	"github.com/stacsmith/stacsmith/pkg/storage"
)

// Version is the STAC specification version written into documents produced
// by this package. Documents carrying a different stac_version round-trip
// unchanged; the constant only seeds newly constructed objects.
const Version = "1.1.0"

// Kind identifies the concrete STAC object type. The values match the
// "type" field of serialized documents, so items report "Feature" per the
// GeoJSON encoding.
type Kind string

const (
	KindCatalog    Kind = "Catalog"
	KindCollection Kind = "Collection"
	KindItem       Kind = "Feature"
)

// Object is the interface shared by catalogs, collections and items. It
// covers identity, extension declarations, the link list, and the object's
// place in a catalog tree (self href, root, parent).
//
// The interface is sealed: only the types in this package implement it.
// Tree operations rely on invariants (single parent, shared resolution
// cache) that outside implementations could not uphold.
type Object interface {
	// Kind reports the concrete object type.
	Kind() Kind
	// ID returns the object's identifier.
	ID() string
	// SetID replaces the object's identifier.
	SetID(id string)
	// StacVersion returns the STAC version the object declares.
	StacVersion() string
	// SetStacVersion replaces the declared STAC version.
	SetStacVersion(version string)

	// Extensions returns the extension schema URIs the object declares, in
	// declaration order.
	Extensions() []string
	// AddExtension declares an extension schema URI. Adding a URI that is
	// already declared is a no-op.
	AddExtension(uri string)
	// RemoveExtension removes a declared extension schema URI.
	RemoveExtension(uri string)
	// HasExtension reports whether the object declares the given URI.
	HasExtension(uri string) bool

	// Extra returns the object's unrecognized top-level fields. The map is
	// live: mutations are reflected in the object and survive
	// serialization. Extension packages read and write through it.
	Extra() map[string]any

	// Links returns a copy of the object's link list. The links themselves
	// are shared, not copied.
	Links() []*Link
	// AddLink appends a link and claims ownership of it.
	AddLink(l *Link)
	// RemoveLinks drops every link with the given rel.
	RemoveLinks(rel Rel)
	// FindLink returns the first link with the given rel, or nil.
	FindLink(rel Rel) *Link
	// FindLinks returns every link with the given rel.
	FindLinks(rel Rel) []*Link

	// SelfHref returns the href of the object's self link, or "" when the
	// object has no recorded location.
	SelfHref() string
	// SetSelfHref records the object's location, replacing any existing
	// self link and re-keying the tree's resolution cache. An empty href
	// clears the location.
	SetSelfHref(href string)

	// Root returns the resolved target of the root link, or nil when the
	// object has no root link or the link is unresolved. It never performs
	// I/O; use ResolveRoot to force resolution.
	Root() Container
	// SetRoot replaces the root link. For catalogs and collections this
	// also merges the object's resolution cache into the new root's, so the
	// whole tree keeps deduplicating against one cache.
	SetRoot(root Container)
	// Parent returns the resolved target of the parent link, or nil. It
	// never performs I/O; use ResolveParent to force resolution.
	Parent() Container
	// SetParent replaces the parent link. When the object moves between
	// resolved parents, the previous parent's child or item link to it is
	// removed: a node belongs to at most one container.
	SetParent(parent Container)
	// ResolveRoot resolves the root link, fetching the target if needed,
	// and returns it. A missing root link yields (nil, nil).
	ResolveRoot(ctx context.Context) (Container, error)
	// ResolveParent resolves the parent link, fetching the target if
	// needed, and returns it. A missing parent link yields (nil, nil).
	ResolveParent(ctx context.Context) (Container, error)

	// SetReader installs the reader used to resolve this object's links.
	// Objects without their own reader fall back to their root's.
	SetReader(r storage.Reader)
	// SetWriter installs the writer used to save this object. Objects
	// without their own writer fall back to their root's.
	SetWriter(w storage.Writer)

	// TemplateValue resolves a layout template variable against the
	// object's metadata. See pkg/layout.
	TemplateValue(name string) (string, error)

	// Document renders the object as a JSON-ready document. Every link must
	// yield an href; rendering an in-memory tree that has never been
	// normalized fails with [ErrNoHref].
	Document(opts EncodeOptions) (map[string]any, error)
	// Clone returns a copy of the object. Links are cloned but their
	// resolved targets are shared; use FullCopy for a deep copy.
	Clone() Object
	// FullCopy returns a deep copy of the object and, recursively, of every
	// object reachable through child, item and collection links.
	FullCopy(ctx context.Context) (Object, error)
	// SaveObject writes this single object via the effective writer. It
	// does not recurse; see Container.Save for whole-tree persistence.
	SaveObject(ctx context.Context, opts SaveObjectOptions) error
	// Validate checks the object against a validator, aggregating core and
	// per-extension failures into a single error.
	Validate(ctx context.Context, v Validator) error

	base() *node
}

// Container is an Object that can hold children and items: a catalog or a
// collection. All tree-level operations hang off this interface.
type Container interface {
	Object

	// AddChild attaches a catalog or collection under this container and
	// returns the created child link. The child inherits this container's
	// root (or this container becomes its root) and, unless KeepParent is
	// given, is re-parented here. If this container has a self href, the
	// child is assigned one from the layout strategy.
	AddChild(child Container, opts ...AddOption) (*Link, error)
	// AddChildren attaches several children with default options.
	AddChildren(children ...Container) error
	// AddItem attaches an item under this container and returns the created
	// item link. Root, parent and href handling mirror AddChild.
	AddItem(item *Item, opts ...AddOption) (*Link, error)
	// AddItems attaches several items with default options.
	AddItems(items ...*Item) error

	// Children resolves and returns the container's direct children.
	Children(ctx context.Context) ([]Container, error)
	// Items resolves and returns the container's direct items.
	Items(ctx context.Context) ([]*Item, error)
	// GetChild returns the direct child with the given id. The second
	// return is false when no child matches; absence is not an error.
	GetChild(ctx context.Context, id string) (Container, bool, error)
	// GetItem returns the direct item with the given id. The second return
	// is false when no item matches; absence is not an error.
	GetItem(ctx context.Context, id string) (*Item, bool, error)
	// FindChild searches the whole subtree depth-first for a container with
	// the given id.
	FindChild(ctx context.Context, id string) (Container, bool, error)

	// RemoveChild detaches the first child with the given id and returns
	// it. The detached subtree loses its parent and root links and gets a
	// fresh resolution cache. The second return is false when no child
	// matched; absence is not an error.
	RemoveChild(ctx context.Context, id string) (Container, bool, error)
	// RemoveItem detaches the first item with the given id and returns it.
	// The second return is false when no item matched.
	RemoveItem(ctx context.Context, id string) (*Item, bool, error)
	// ClearChildren drops every child link. Already-resolved children are
	// orphaned (parent and root links cleared); unresolved links are
	// dropped without being fetched.
	ClearChildren()
	// ClearItems drops every item link, orphaning resolved items.
	ClearItems()

	// Walk traverses the subtree depth-first, yielding one entry per
	// container with its resolved children and items. Resolution failures
	// and cycles are yielded as errors; the caller decides whether to stop
	// or skip the offending subtree.
	Walk(ctx context.Context) iter.Seq2[*WalkEntry, error]
	// AllItems yields every item in the subtree, depth-first.
	AllItems(ctx context.Context) iter.Seq2[*Item, error]

	// NormalizeHrefs assigns every object under this container a canonical
	// self href rooted at rootHref, using the layout strategy from opts.
	NormalizeHrefs(ctx context.Context, rootHref string, opts NormalizeOptions) error
	// Save persists the subtree via the effective writer, following the
	// container's catalog type for self-link emission. Unresolved links
	// are skipped, not fetched; the counts are reported in the result.
	Save(ctx context.Context, opts SaveOptions) (SaveResult, error)
	// GenerateSubcatalogs reorganizes the tree's items into subcatalog
	// chains derived from a path template such as "${year}/${month}". It
	// returns the catalogs it created and is idempotent.
	GenerateSubcatalogs(ctx context.Context, template string, opts SubcatalogOptions) ([]*Catalog, error)
	// MapItems deep-copies the tree and replaces every item with the
	// mapper's output. A mapper may split an item into several.
	MapItems(ctx context.Context, fn ItemMapper) (Container, error)
	// MapAssets deep-copies the tree and rewrites every item's assets with
	// the mapper's output. A mapper may rename or split an asset.
	MapAssets(ctx context.Context, fn AssetMapper) (Container, error)

	resolvedObjects() *ResolvedObjectCache
}

// node carries the state shared by all object types: identity, links, the
// extension list, unrecognized fields, and the I/O collaborators. The
// concrete types embed it by value.
//
// self points at the outermost object embedding this node. Methods that
// create links or consult the resolution cache go through self so that a
// *Collection is always seen as a *Collection, never as the *Catalog it
// embeds. Constructors must set self before doing anything else.
type node struct {
	self Object

	kind       Kind
	id         string
	version    string
	extensions []string
	extra      map[string]any
	links      []*Link

	reader storage.Reader
	writer storage.Writer

	// fallbackKey is the resolution-cache key for objects that have neither
	// a self href nor a usable id chain. Assigned lazily, stable afterward.
	fallbackKey string
}

func (n *node) init(self Object, kind Kind, id string) {
	n.self = self
	n.kind = kind
	n.id = id
	n.version = Version
	n.extra = map[string]any{}
}

func (n *node) base() *node { return n }

func (n *node) Kind() Kind { return n.kind }

func (n *node) ID() string { return n.id }

func (n *node) SetID(id string) { n.id = id }

func (n *node) StacVersion() string { return n.version }

func (n *node) SetStacVersion(version string) { n.version = version }

func (n *node) Extensions() []string { return slices.Clone(n.extensions) }

func (n *node) AddExtension(uri string) {
	if !slices.Contains(n.extensions, uri) {
		n.extensions = append(n.extensions, uri)
	}
}

func (n *node) RemoveExtension(uri string) {
	n.extensions = slices.DeleteFunc(n.extensions, func(u string) bool { return u == uri })
}

func (n *node) HasExtension(uri string) bool { return slices.Contains(n.extensions, uri) }

func (n *node) Extra() map[string]any {
	if n.extra == nil {
		n.extra = map[string]any{}
	}
	return n.extra
}

func (n *node) Links() []*Link { return slices.Clone(n.links) }

func (n *node) AddLink(l *Link) {
	l.owner = n.self
	n.links = append(n.links, l)
}

func (n *node) RemoveLinks(rel Rel) {
	n.links = slices.DeleteFunc(n.links, func(l *Link) bool { return l.rel == rel })
}

func (n *node) FindLink(rel Rel) *Link {
	for _, l := range n.links {
		if l.rel == rel {
			return l
		}
	}
	return nil
}

func (n *node) FindLinks(rel Rel) []*Link {
	var out []*Link
	for _, l := range n.links {
		if l.rel == rel {
			out = append(out, l)
		}
	}
	return out
}

// SelfHref reads the raw href off the self link. It deliberately does not
// go through Link.Href: the self link's target is the object itself, and
// deriving the href from the target would recurse.
func (n *node) SelfHref() string {
	for _, l := range n.links {
		if l.rel == RelSelf && l.href != "" {
			return l.href
		}
	}
	return ""
}

func (n *node) SetSelfHref(hrefStr string) {
	// The resolution cache keys resolved objects by self href, so the entry
	// must be re-keyed around the change.
	var rc *ResolvedObjectCache
	if root := n.Root(); root != nil {
		rc = root.resolvedObjects()
	}
	if rc != nil {
		rc.Remove(n.self)
	}
	n.RemoveLinks(RelSelf)
	if hrefStr != "" {
		n.AddLink(&Link{rel: RelSelf, href: hrefStr, target: n.self, MediaType: MediaTypeJSON})
	}
	if rc != nil {
		rc.Cache(n.self)
	}
}

func (n *node) Root() Container {
	l := n.FindLink(RelRoot)
	if l == nil || l.target == nil {
		return nil
	}
	c, _ := l.target.(Container)
	return c
}

func (n *node) SetRoot(root Container) {
	if old := n.Root(); old != nil {
		if root != nil && sameObject(old, root) {
			return
		}
		old.resolvedObjects().Remove(n.self)
	}
	n.RemoveLinks(RelRoot)
	if root != nil {
		n.AddLink(&Link{rel: RelRoot, target: root, MediaType: MediaTypeJSON})
		root.resolvedObjects().Cache(n.self)
	}
}

func (n *node) Parent() Container {
	l := n.FindLink(RelParent)
	if l == nil || l.target == nil {
		return nil
	}
	c, _ := l.target.(Container)
	return c
}

func (n *node) SetParent(parent Container) {
	old := n.Parent()
	if old != nil && parent != nil && sameObject(old, parent) {
		return
	}
	if old != nil && parent != nil {
		// Moving to a new container: the old one must stop listing us.
		ob := old.base()
		ob.links = slices.DeleteFunc(ob.links, func(l *Link) bool {
			return (l.rel == RelChild || l.rel == RelItem) && l.target != nil && sameObject(l.target, n.self)
		})
	}
	n.RemoveLinks(RelParent)
	if parent != nil {
		n.AddLink(&Link{rel: RelParent, target: parent, MediaType: MediaTypeJSON})
	}
}

func (n *node) ResolveRoot(ctx context.Context) (Container, error) {
	l := n.FindLink(RelRoot)
	if l == nil {
		return nil, nil
	}
	if l.target == nil {
		t, err := l.Target(ctx, nil)
		if err != nil {
			return nil, err
		}
		c, ok := AsContainer(t)
		if !ok {
			return nil, resolutionErr(RelRoot, l.AbsoluteHref(), fmt.Errorf("%w: root resolved to %s", ErrWrongObjectType, t.Kind()))
		}
		// Adopt the resolved root so the caches merge.
		n.self.SetRoot(c)
		return c, nil
	}
	c, _ := l.target.(Container)
	return c, nil
}

func (n *node) ResolveParent(ctx context.Context) (Container, error) {
	l := n.FindLink(RelParent)
	if l == nil {
		return nil, nil
	}
	t, err := l.Target(ctx, nil)
	if err != nil {
		return nil, err
	}
	c, ok := AsContainer(t)
	if !ok {
		return nil, resolutionErr(RelParent, l.AbsoluteHref(), fmt.Errorf("%w: parent resolved to %s", ErrWrongObjectType, t.Kind()))
	}
	return c, nil
}

func (n *node) SetReader(r storage.Reader) { n.reader = r }

func (n *node) SetWriter(w storage.Writer) { n.writer = w }

// TemplateValue resolves "id" and dotted paths into the object's extra
// fields. Item overrides this with datetime- and property-aware lookup.
func (n *node) TemplateValue(name string) (string, error) {
	if name == "id" {
		return n.id, nil
	}
	if v, ok := lookupPath(n.extra, name); ok {
		return templateString(v), nil
	}
	return "", fmt.Errorf("object %q has no value for template variable %q", n.id, name)
}

// sameObject reports whether two interface values wrap the same underlying
// object. Every object is represented by exactly one interface value (its
// node's self), so pointer equality through the interface is reliable.
func sameObject(a, b Object) bool { return a == b }

// AsContainer reports whether obj can hold children and items, returning it
// as a Container when so.
func AsContainer(obj Object) (Container, bool) {
	c, ok := obj.(Container)
	return c, ok
}

// rootOf returns obj's resolved root, or nil. Safe on nil obj.
func rootOf(obj Object) Container {
	if obj == nil {
		return nil
	}
	return obj.Root()
}

// effectiveReader returns the reader serving obj: its own if set, else its
// root's. Returns nil when the tree has no reader installed.
func effectiveReader(obj Object) storage.Reader {
	if obj == nil {
		return nil
	}
	if r := obj.base().reader; r != nil {
		return r
	}
	if root := obj.Root(); root != nil && !sameObject(root, obj) {
		return root.base().reader
	}
	return nil
}

// effectiveWriter returns the writer serving obj: its own if set, else its
// root's.
func effectiveWriter(obj Object) storage.Writer {
	if obj == nil {
		return nil
	}
	if w := obj.base().writer; w != nil {
		return w
	}
	if root := obj.Root(); root != nil && !sameObject(root, obj) {
		return root.base().writer
	}
	return nil
}
