package stac

import (
	"context"
	"fmt"
	"slices"

	"github.com/stacsmith/stacsmith/pkg/layout"
)

// SubcatalogOptions adjusts GenerateSubcatalogs.
type SubcatalogOptions struct {
	// Defaults supplies values for template variables an item lacks, e.g.
	// {"platform": "unknown"}.
	Defaults map[string]string
	// ParentIDs extends the chain of ancestor ids used to recognize items
	// that are already organized. Callers running the template against a
	// subtree of a larger organized catalog pass the outer ancestry here.
	ParentIDs []string
}

// GenerateSubcatalogs reorganizes the subtree's items into chains of
// subcatalogs derived from template, a slash-separated pattern of "${var}"
// placeholders such as "${year}/${month}" (see layout.Template). Each item
// moves under the catalog chain named by its substituted values; chains
// are created on demand and shared between items that substitute equally.
//
// An item whose substituted chain already suffixes its ancestry is left
// where it is, which makes the operation idempotent: a second run with the
// same template creates nothing and moves nothing.
//
// Returns the newly created subcatalogs in creation order.
func (c *Catalog) GenerateSubcatalogs(ctx context.Context, template string, opts SubcatalogOptions) ([]*Catalog, error) {
	tpl := layout.NewTemplate(template, opts.Defaults)
	return generateSubcatalogs(ctx, c.container(), tpl, opts.ParentIDs, map[Object]struct{}{})
}

func generateSubcatalogs(ctx context.Context, cur Container, tpl *layout.Template, parentIDs []string, visited map[Object]struct{}) ([]*Catalog, error) {
	if _, seen := visited[cur]; seen {
		return nil, fmt.Errorf("generate subcatalogs: catalog %q: %w", cur.ID(), ErrCycle)
	}
	visited[cur] = struct{}{}

	parentIDs = append(slices.Clone(parentIDs), cur.ID())
	var created []*Catalog

	children, err := cur.Children(ctx)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		sub, err := generateSubcatalogs(ctx, child, tpl, parentIDs, visited)
		if err != nil {
			return nil, err
		}
		created = append(created, sub...)
	}

	items, err := cur.Items(ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		segments, err := tpl.SubstitutePath(item)
		if err != nil {
			return nil, fmt.Errorf("generate subcatalogs: item %q: %w", item.ID(), err)
		}
		if endsWith(parentIDs, segments) {
			// Already sitting under its chain.
			continue
		}
		parent := cur
		for _, id := range segments {
			sub, ok, err := parent.GetChild(ctx, id)
			if err != nil {
				return nil, err
			}
			if !ok {
				nc := NewCatalog(id, fmt.Sprintf("Catalog of items from %s with %s of %s", parent.ID(), tpl.Pattern(), id))
				if _, err := parent.AddChild(nc); err != nil {
					return nil, err
				}
				created = append(created, nc)
				sub = nc
			}
			parent = sub
		}
		// Resolve the collection link before the move so it survives with
		// the right target.
		if colLink := item.FindLink(RelCollection); colLink != nil {
			if _, err := colLink.Target(ctx, nil); err != nil {
				return nil, err
			}
		}
		// AddItem re-parents the item, which detaches it from cur.
		if _, err := parent.AddItem(item); err != nil {
			return nil, err
		}
	}
	return created, nil
}

// endsWith reports whether chain ends with the given suffix.
func endsWith(chain, suffix []string) bool {
	if len(suffix) > len(chain) {
		return false
	}
	off := len(chain) - len(suffix)
	for i, s := range suffix {
		if chain[off+i] != s {
			return false
		}
	}
	return true
}
