package stac

import (
	"context"
	"fmt"
)

// FullCopy deep-copies the object and everything reachable from it through
// child, item and collection links. Objects reachable along several paths
// (an item linked from a subcatalog and from its collection, say) are
// copied once and shared in the copy exactly as they were in the original.
// Unresolved links are resolved along the way, so a full copy of a
// lazily-loaded tree materializes all of it.
func (n *node) FullCopy(ctx context.Context) (Object, error) {
	return fullCopy(ctx, n.self, nil, nil, map[Object]Object{})
}

// objectLinkRels lists, per rel, whether a link's target belongs to the
// copied graph. Parent and root links are structural and get rewired by
// SetRoot/SetParent instead of copied through.
var objectLinkRels = map[Rel]bool{
	RelChild:      true,
	RelItem:       true,
	RelCollection: true,
}

func fullCopy(ctx context.Context, src Object, root Container, parent Container, copied map[Object]Object) (Object, error) {
	clone := src.Clone()
	copied[src] = clone
	if root == nil {
		if cc, ok := AsContainer(clone); ok {
			root = cc
		}
	}
	clone.SetRoot(root)
	if parent != nil {
		clone.SetParent(parent)
	}
	cloneContainer, cloneIsContainer := AsContainer(clone)

	for _, l := range clone.Links() {
		if !objectLinkRels[l.rel] {
			continue
		}
		// Resolve without the hierarchy fix-ups: the shared target still
		// belongs to the source tree and must not be re-parented into the
		// copy. Its replacement below gets the copy's parent and root.
		if l.target == nil {
			if err := l.resolve(ctx, nil); err != nil {
				return nil, err
			}
		}
		target := l.target
		newTarget, ok := copied[target]
		if !ok {
			var targetParent Container
			if cloneIsContainer && (l.rel == RelChild || l.rel == RelItem) {
				targetParent = cloneContainer
			}
			ct, err := fullCopy(ctx, target, root, targetParent, copied)
			if err != nil {
				return nil, err
			}
			newTarget = ct
		}
		if l.rel == RelChild || l.rel == RelItem {
			newTarget.SetRoot(root)
			if cloneIsContainer {
				newTarget.SetParent(cloneContainer)
			}
		}
		l.target = newTarget
	}
	return clone, nil
}

// ItemMapper transforms one item into one or more replacements. Returning
// an empty slice drops the item.
type ItemMapper func(item *Item) ([]*Item, error)

// AssetMapper transforms one asset into its replacements, keyed by asset
// name. Returning the input under its own key keeps it unchanged.
type AssetMapper func(key string, a *Asset) (map[string]*Asset, error)

// MapItems deep-copies the tree and replaces every item in the copy with
// the mapper's output. The original tree is untouched. Mapped items take
// over the replaced item's link, so a mapper returning several items fans
// the link out.
func (c *Catalog) MapItems(ctx context.Context, fn ItemMapper) (Container, error) {
	copied, err := c.FullCopy(ctx)
	if err != nil {
		return nil, err
	}
	root, ok := AsContainer(copied)
	if !ok {
		return nil, fmt.Errorf("map items: copy is not a container")
	}
	if err := mapItemLinks(ctx, root, fn, map[Object]struct{}{}); err != nil {
		return nil, err
	}
	return root, nil
}

func mapItemLinks(ctx context.Context, cur Container, fn ItemMapper, visited map[Object]struct{}) error {
	if _, seen := visited[cur]; seen {
		return fmt.Errorf("map items: catalog %q: %w", cur.ID(), ErrCycle)
	}
	visited[cur] = struct{}{}

	children, err := cur.Children(ctx)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := mapItemLinks(ctx, child, fn, visited); err != nil {
			return err
		}
	}

	var mapped []*Link
	for _, l := range cur.FindLinks(RelItem) {
		t, err := l.Target(ctx, nil)
		if err != nil {
			return err
		}
		item, ok := t.(*Item)
		if !ok {
			return resolutionErr(RelItem, l.AbsoluteHref(), fmt.Errorf("%w: item link resolved to %s", ErrWrongObjectType, t.Kind()))
		}
		replacements, err := fn(item)
		if err != nil {
			return fmt.Errorf("map items: item %q: %w", item.ID(), err)
		}
		for _, repl := range replacements {
			nl := l.Clone()
			nl.target = repl
			nl.href = ""
			mapped = append(mapped, nl)
		}
	}
	cur.ClearItems()
	for _, nl := range mapped {
		cur.AddLink(nl)
	}
	return nil
}

// MapAssets deep-copies the tree and rewrites every item's assets through
// the mapper. Assets come back under the keys the mapper chooses, so an
// asset can be renamed or split into several.
func (c *Catalog) MapAssets(ctx context.Context, fn AssetMapper) (Container, error) {
	return c.MapItems(ctx, func(item *Item) ([]*Item, error) {
		newAssets := map[string]*Asset{}
		for key, a := range item.Assets {
			replacements, err := fn(key, a)
			if err != nil {
				return nil, fmt.Errorf("asset %q: %w", key, err)
			}
			for k, ra := range replacements {
				ra.owner = item
				newAssets[k] = ra
			}
		}
		item.Assets = newAssets
		return []*Item{item}, nil
	})
}
