package stac

import (
	"context"
	"fmt"

	"github.com/stacsmith/stacsmith/pkg/href"
	"github.com/stacsmith/stacsmith/pkg/storage"
)

// Media types for STAC documents. Hierarchical links created by this
// package carry MediaTypeJSON; item documents are served as GeoJSON.
const (
	MediaTypeJSON    = "application/json"
	MediaTypeGeoJSON = "application/geo+json"
)

// Link is a typed edge from an owning object to a target. A link holds a
// stored href, an in-memory resolved target, or both; resolution turns the
// former into the latter exactly once and memoizes the result.
//
// The exported fields are optional link metadata and may be set freely. The
// graph state (rel, owner, href, target) is managed through methods so the
// tree invariants hold.
type Link struct {
	rel    Rel
	href   string
	target Object
	owner  Object

	// MediaType is the advertised media type of the target document.
	MediaType string
	// Title is a human-readable label for the link.
	Title string
	// Method is the HTTP method for API links, e.g. "POST". Empty means GET.
	Method string
	// Headers are extra HTTP headers for API links.
	Headers map[string]any
	// Body is a request body for API links.
	Body any
	// Extra holds unrecognized fields from the serialized link.
	Extra map[string]any
}

// NewLink creates an unresolved link from an href. The href may be relative;
// it is resolved against the owner's self href at resolution time.
func NewLink(rel Rel, hrefStr string) (*Link, error) {
	if hrefStr == "" {
		return nil, ErrEmptyHref
	}
	return &Link{rel: rel, href: hrefStr}, nil
}

// NewLinkTo creates a resolved link pointing at an in-memory object.
func NewLinkTo(rel Rel, target Object) (*Link, error) {
	if target == nil {
		return nil, ErrNilTarget
	}
	return &Link{rel: rel, target: target}, nil
}

// Rel returns the link's relation type.
func (l *Link) Rel() Rel { return l.rel }

// Owner returns the object whose link list holds this link, or nil for a
// detached link.
func (l *Link) Owner() Object { return l.owner }

// IsResolved reports whether the link's target is in memory.
func (l *Link) IsResolved() bool { return l.target != nil }

// Resolved returns the in-memory target without performing I/O, or nil when
// the link is unresolved.
func (l *Link) Resolved() Object { return l.target }

// SetTarget replaces the link's target. Setting nil clears the resolution
// so the stored href, if any, governs again.
func (l *Link) SetTarget(target Object) { l.target = target }

// Href returns the link's href as stored or derived. For a resolved link
// whose target knows its own location, the target's self href wins over the
// stored href: the stored value is a persistence hint and may be stale
// after the tree was rearranged or normalized. Returns "" when nothing is
// derivable.
func (l *Link) Href() string {
	if l.target != nil {
		if sh := l.target.SelfHref(); sh != "" {
			return sh
		}
	}
	return l.href
}

// AbsoluteHref returns the link's href resolved against the owner's self
// href. The result may still be relative when the owner has no location.
func (l *Link) AbsoluteHref() string {
	h := l.Href()
	if h == "" || l.owner == nil {
		return h
	}
	base := l.owner.SelfHref()
	if base == "" {
		return h
	}
	return href.MakeAbsolute(h, base, false)
}

// Target resolves the link and returns its target. The first call fetches
// and decodes the document (consulting the tree's resolution cache first);
// subsequent calls return the memoized object without I/O.
//
// r overrides the reader for this call; nil means use the owner tree's
// effective reader. Resolution failures are reported as a
// [*ResolutionError] naming the rel and offending href.
//
// Resolving a child or item link also repairs the target's place in the
// tree: the target's parent becomes the link's owner and its root becomes
// the owner's root.
func (l *Link) Target(ctx context.Context, r storage.Reader) (Object, error) {
	if l.target == nil {
		if err := l.resolve(ctx, r); err != nil {
			return nil, err
		}
	}
	l.repairHierarchy()
	return l.target, nil
}

func (l *Link) resolve(ctx context.Context, r storage.Reader) error {
	if l.href == "" {
		return resolutionErr(l.rel, "", ErrNoHref)
	}
	abs := l.AbsoluteHref()

	var rc *ResolvedObjectCache
	if root := rootOf(l.owner); root != nil {
		rc = root.resolvedObjects()
	}
	if rc != nil {
		if obj, ok := rc.GetByHref(abs); ok {
			if err := l.checkTargetKind(obj); err != nil {
				return resolutionErr(l.rel, abs, err)
			}
			l.target = obj
			return nil
		}
	}

	if r == nil {
		r = effectiveReader(l.owner)
	}
	if r == nil {
		return resolutionErr(l.rel, abs, ErrNoReader)
	}
	data, err := r.Get(ctx, abs)
	if err != nil {
		return resolutionErr(l.rel, abs, err)
	}
	obj, err := Decode(data)
	if err != nil {
		return resolutionErr(l.rel, abs, err)
	}
	obj.SetSelfHref(abs)
	if err := l.checkTargetKind(obj); err != nil {
		return resolutionErr(l.rel, abs, err)
	}
	if it, ok := obj.(*Item); ok {
		if col, isCol := l.owner.(*Collection); isCol && l.rel == RelItem {
			it.SetCollection(col)
		}
	}
	if rc != nil {
		obj = rc.GetOrCache(obj)
	}
	l.target = obj
	return nil
}

// repairHierarchy re-asserts the structural fix-ups for hierarchical links
// on every access, so a subtree that was re-rooted propagates the new root
// to descendants as they are walked.
func (l *Link) repairHierarchy() {
	if l.owner == nil || (l.rel != RelChild && l.rel != RelItem) {
		return
	}
	owner, ok := AsContainer(l.owner)
	if !ok {
		return
	}
	l.target.SetParent(owner)
	if root := owner.Root(); root != nil {
		l.target.SetRoot(root)
	}
}

// checkTargetKind enforces the object shape hierarchical rels imply.
func (l *Link) checkTargetKind(obj Object) error {
	switch l.rel {
	case RelChild, RelParent, RelRoot:
		if _, ok := AsContainer(obj); !ok {
			return fmt.Errorf("%w: %s link resolved to %s", ErrWrongObjectType, l.rel, obj.Kind())
		}
	case RelItem:
		if _, ok := obj.(*Item); !ok {
			return fmt.Errorf("%w: item link resolved to %s", ErrWrongObjectType, obj.Kind())
		}
	case RelCollection:
		if _, ok := obj.(*Collection); !ok {
			return fmt.Errorf("%w: collection link resolved to %s", ErrWrongObjectType, obj.Kind())
		}
	}
	return nil
}

// Clone copies the link's metadata and resolution state. The target, when
// resolved, is shared with the original; the owner is not carried over and
// is reassigned when the clone is added to an object.
func (l *Link) Clone() *Link {
	c := &Link{
		rel:       l.rel,
		href:      l.href,
		target:    l.target,
		MediaType: l.MediaType,
		Title:     l.Title,
		Method:    l.Method,
	}
	if l.Headers != nil {
		c.Headers = make(map[string]any, len(l.Headers))
		for k, v := range l.Headers {
			c.Headers[k] = v
		}
	}
	c.Body = l.Body
	if l.Extra != nil {
		c.Extra = make(map[string]any, len(l.Extra))
		for k, v := range l.Extra {
			c.Extra[k] = v
		}
	}
	return c
}

// Document renders the link for serialization. When raw is false and the
// owning tree's root is a relative catalog type, hierarchical hrefs are
// rewritten relative to the owner's location. A link with no derivable href
// fails with [ErrNoHref] rather than emitting an empty one.
func (l *Link) Document(raw bool) (map[string]any, error) {
	h := l.Href()
	if h == "" {
		return nil, fmt.Errorf("serialize %s link: %w", l.rel, ErrNoHref)
	}
	if !raw && l.shouldRelativize() {
		if base := l.owner.SelfHref(); base != "" && href.IsAbsolute(h) {
			h = href.MakeRelative(h, base, false)
		}
	}
	d := map[string]any{
		"rel":  string(l.rel),
		"href": h,
	}
	if l.MediaType != "" {
		d["type"] = l.MediaType
	}
	if l.Title != "" {
		d["title"] = l.Title
	}
	if l.Method != "" {
		d["method"] = l.Method
	}
	if len(l.Headers) > 0 {
		d["headers"] = l.Headers
	}
	if l.Body != nil {
		d["body"] = l.Body
	}
	mergeExtra(d, l.Extra)
	return d, nil
}

// shouldRelativize reports whether serialization should rewrite this link's
// href relative to its owner. Only hierarchical links other than self are
// rewritten, and only when the tree's root declares a relative catalog
// type. Self links always serialize absolute: a relative self href would
// be meaningless to a later reader.
func (l *Link) shouldRelativize() bool {
	if l.owner == nil || l.rel == RelSelf || !l.rel.IsHierarchical() {
		return false
	}
	root := rootOf(l.owner)
	if root == nil {
		return false
	}
	return containerIsRelative(root)
}

// containerIsRelative reports whether the container's catalog type calls
// for relative hierarchical links at serialization time.
func containerIsRelative(c Container) bool {
	switch v := c.(type) {
	case *Catalog:
		return v.CatalogType.IsRelative()
	case *Collection:
		return v.CatalogType.IsRelative()
	}
	return false
}
