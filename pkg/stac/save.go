package stac

import (
	"context"
	"fmt"

	"github.com/stacsmith/stacsmith/pkg/href"
	"github.com/stacsmith/stacsmith/pkg/storage"
)

// SaveObjectOptions adjusts SaveObject. The zero value writes to the
// object's self href with the self link included.
type SaveObjectOptions struct {
	// OmitSelfLink drops the rel=self link from the written document.
	OmitSelfLink bool
	// DestHref writes the document somewhere other than its self href. The
	// self href is left unchanged.
	DestHref string
	// Writer overrides the tree's effective writer for this write.
	Writer storage.Writer
}

// SaveObject writes this single object. The destination is opts.DestHref
// when given, otherwise the object's self href; an object with neither
// fails with [ErrNoSelfHref]. Child and item documents are not written;
// use Container.Save for that.
func (n *node) SaveObject(ctx context.Context, opts SaveObjectOptions) error {
	w := opts.Writer
	if w == nil {
		w = effectiveWriter(n.self)
	}
	if w == nil {
		return fmt.Errorf("save %s %q: %w", n.kind, n.id, ErrNoWriter)
	}
	dest := opts.DestHref
	if dest == "" {
		dest = n.SelfHref()
	}
	if dest == "" {
		return fmt.Errorf("save %s %q: %w", n.kind, n.id, ErrNoSelfHref)
	}
	data, err := Encode(n.self, EncodeOptions{OmitSelfLink: opts.OmitSelfLink})
	if err != nil {
		return err
	}
	if err := w.Put(ctx, dest, data); err != nil {
		return fmt.Errorf("save %s %q to %s: %w", n.kind, n.id, dest, err)
	}
	return nil
}

// SaveOptions adjusts Container.Save.
type SaveOptions struct {
	// CatalogType, when non-empty, replaces the container's catalog type
	// before saving. The type then governs self-link emission for the
	// whole subtree.
	CatalogType CatalogType
	// DestHref mirrors the tree under a different root directory, leaving
	// the in-memory self hrefs unchanged. Relative positions between
	// documents are preserved.
	DestHref string
	// Writer overrides the tree's effective writer.
	Writer storage.Writer
}

// SaveResult reports what a Save did.
type SaveResult struct {
	// Saved is the number of documents written.
	Saved int
	// SkippedUnresolved counts the hierarchical links that were skipped
	// because their targets were never resolved. Their documents still
	// exist in storage untouched; a partial save is not an error.
	SkippedUnresolved int
}

// Save persists the subtree: resolved children recursively, resolved
// items, then the container itself. Unresolved links are skipped without
// fetching, so saving a lazily-loaded tree only rewrites what was actually
// brought into memory.
//
// Self links are emitted per the catalog type: ABSOLUTE_PUBLISHED stamps
// one on every object, RELATIVE_PUBLISHED only on the tree's root, and
// SELF_CONTAINED on none. Hierarchical links serialize relative for the
// relative types; see CatalogType.
func (c *Catalog) Save(ctx context.Context, opts SaveOptions) (SaveResult, error) {
	if opts.CatalogType != "" {
		c.CatalogType = opts.CatalogType
	}
	w := opts.Writer
	if w == nil {
		w = effectiveWriter(c.container())
	}
	if w == nil {
		return SaveResult{}, fmt.Errorf("save catalog %q: %w", c.id, ErrNoWriter)
	}
	var res SaveResult
	err := saveTree(ctx, c.container(), w, opts.DestHref, c.CatalogType, &res, map[Object]struct{}{})
	return res, err
}

func saveTree(ctx context.Context, cur Container, w storage.Writer, destHref string, ct CatalogType, res *SaveResult, visited map[Object]struct{}) error {
	if _, seen := visited[cur]; seen {
		return fmt.Errorf("save catalog %q: %w", cur.ID(), ErrCycle)
	}
	visited[cur] = struct{}{}

	for _, l := range cur.FindLinks(RelChild) {
		if !l.IsResolved() {
			res.SkippedUnresolved++
			continue
		}
		child, ok := AsContainer(l.Resolved())
		if !ok {
			return resolutionErr(RelChild, l.AbsoluteHref(), fmt.Errorf("%w: child resolved to %s", ErrWrongObjectType, l.Resolved().Kind()))
		}
		childDest, err := mirrorDest(cur, child, destHref, true)
		if err != nil {
			return err
		}
		if err := saveTree(ctx, child, w, childDest, ct, res, visited); err != nil {
			return err
		}
	}

	itemsIncludeSelf := ct == CatalogTypeAbsolutePublished
	for _, l := range cur.FindLinks(RelItem) {
		if !l.IsResolved() {
			res.SkippedUnresolved++
			continue
		}
		item, ok := l.Resolved().(*Item)
		if !ok {
			return resolutionErr(RelItem, l.AbsoluteHref(), fmt.Errorf("%w: item link resolved to %s", ErrWrongObjectType, l.Resolved().Kind()))
		}
		itemDest, err := mirrorDest(cur, item, destHref, false)
		if err != nil {
			return err
		}
		if err := item.SaveObject(ctx, SaveObjectOptions{
			OmitSelfLink: !itemsIncludeSelf,
			DestHref:     itemDest,
			Writer:       w,
		}); err != nil {
			return err
		}
		res.Saved++
	}

	rootIsSelf := false
	if r := cur.Root(); r != nil && sameObject(r, cur) {
		rootIsSelf = true
	}
	includeSelf := ct == CatalogTypeAbsolutePublished ||
		(ct == CatalogTypeRelativePublished && rootIsSelf)

	dest := ""
	if destHref != "" {
		self := cur.SelfHref()
		if self == "" {
			return fmt.Errorf("save catalog %q: %w", cur.ID(), ErrNoSelfHref)
		}
		dest = href.Join(destHref, href.Basename(self))
	}
	if err := cur.SaveObject(ctx, SaveObjectOptions{
		OmitSelfLink: !includeSelf,
		DestHref:     dest,
		Writer:       w,
	}); err != nil {
		return err
	}
	res.Saved++
	return nil
}

// mirrorDest maps obj's location into the mirror rooted at destHref,
// preserving its position relative to parent. For containers the returned
// href is the directory the child's own save writes into; for items it is
// the document href itself. Returns "" when no mirroring is requested.
func mirrorDest(parent Container, obj Object, destHref string, isDir bool) (string, error) {
	if destHref == "" {
		return "", nil
	}
	parentSelf := parent.SelfHref()
	objSelf := obj.SelfHref()
	if parentSelf == "" || objSelf == "" {
		return "", fmt.Errorf("mirror %s %q under %s: %w", obj.Kind(), obj.ID(), destHref, ErrNoSelfHref)
	}
	rel := href.MakeRelative(objSelf, parentSelf, false)
	abs := href.MakeAbsolute(rel, destHref, true)
	if isDir {
		return href.Parent(abs), nil
	}
	return abs, nil
}
