package stac

import (
	"context"
	"fmt"
	"iter"
)

// WalkEntry is one step of a tree traversal: a container together with its
// resolved direct children and items.
type WalkEntry struct {
	Container Container
	Children  []Container
	Items     []*Item
}

// Walk traverses the subtree rooted at this container depth-first, yielding
// one entry per container before descending into its children. Children
// and items are resolved lazily, one level at a time, so breaking out early
// never fetches deeper levels.
//
// Resolution failures and revisited containers (a cycle, reported as
// [ErrCycle]) are yielded as errors with a nil entry; iteration then skips
// that subtree and continues with its siblings, letting the caller decide
// whether to stop. Each call walks fresh: links resolved by a previous walk
// stay resolved, but the traversal itself is restartable.
func (c *Catalog) Walk(ctx context.Context) iter.Seq2[*WalkEntry, error] {
	return func(yield func(*WalkEntry, error) bool) {
		visited := map[Object]struct{}{}
		walkInto(ctx, c.container(), visited, yield)
	}
}

// walkInto emits cur's entry and descends. It returns false when the
// consumer stopped the iteration.
func walkInto(ctx context.Context, cur Container, visited map[Object]struct{}, yield func(*WalkEntry, error) bool) bool {
	if _, seen := visited[cur]; seen {
		return yield(nil, fmt.Errorf("catalog %q: %w", cur.ID(), ErrCycle))
	}
	visited[cur] = struct{}{}

	children, err := cur.Children(ctx)
	if err != nil {
		return yield(nil, err)
	}
	items, err := cur.Items(ctx)
	if err != nil {
		return yield(nil, err)
	}
	if !yield(&WalkEntry{Container: cur, Children: children, Items: items}, nil) {
		return false
	}
	for _, child := range children {
		if !walkInto(ctx, child, visited, yield) {
			return false
		}
	}
	return true
}

// AllItems yields every item in the subtree, depth-first in walk order.
// Errors pass through from Walk.
func (c *Catalog) AllItems(ctx context.Context) iter.Seq2[*Item, error] {
	return func(yield func(*Item, error) bool) {
		for entry, err := range c.Walk(ctx) {
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}
			for _, it := range entry.Items {
				if !yield(it, nil) {
					return
				}
			}
		}
	}
}

// FindChild searches the subtree depth-first for a container with the
// given id. The receiving container itself is not a candidate. Absence is
// reported via the bool, not an error.
func (c *Catalog) FindChild(ctx context.Context, id string) (Container, bool, error) {
	for entry, err := range c.Walk(ctx) {
		if err != nil {
			return nil, false, err
		}
		for _, child := range entry.Children {
			if child.ID() == id {
				return child, true, nil
			}
		}
	}
	return nil, false, nil
}
