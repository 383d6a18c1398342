package stac

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stacsmith/stacsmith/pkg/href"
	"github.com/stacsmith/stacsmith/pkg/layout"
)

// NormalizeOptions adjusts NormalizeHrefs.
type NormalizeOptions struct {
	// Strategy places each object; nil means layout.BestPractices.
	Strategy layout.Strategy
	// SkipUnresolved leaves unresolved links untouched instead of fetching
	// their targets. Objects behind them keep their current hrefs.
	SkipUnresolved bool
}

// NormalizeHrefs assigns every object in the subtree a canonical self href
// under rootHref, per the layout strategy. A relative rootHref is resolved
// against the working directory first.
//
// Normalization runs in two passes: the first walks the tree computing the
// new href of every object without mutating anything, the second applies
// them all. Computing against a half-updated tree would corrupt hrefs, and
// a resolution failure in the first pass leaves the tree untouched.
//
// Stale links are skipped: a child or item link whose target has since been
// re-parented elsewhere does not drag the target's href along.
func (c *Catalog) NormalizeHrefs(ctx context.Context, rootHref string, opts NormalizeOptions) error {
	strat := opts.Strategy
	if strat == nil {
		strat = layout.BestPractices{}
	}
	if !href.IsAbsolute(rootHref) {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("normalize hrefs: %w", err)
		}
		rootHref = href.MakeAbsolute(rootHref, filepath.ToSlash(wd), true)
	}
	setters, err := normalizePass(ctx, c.container(), strat, rootHref, true, opts.SkipUnresolved, map[Object]struct{}{})
	if err != nil {
		return err
	}
	for _, apply := range setters {
		apply()
	}
	return nil
}

// normalizePass computes deferred href setters for cur and its subtree.
// parentDir is the directory cur's document will live in; for the root it
// is the normalize root itself.
func normalizePass(ctx context.Context, cur Container, strat layout.Strategy, parentDir string, isRoot bool, skipUnresolved bool, visited map[Object]struct{}) ([]func(), error) {
	if _, seen := visited[cur]; seen {
		return nil, fmt.Errorf("normalize hrefs: catalog %q: %w", cur.ID(), ErrCycle)
	}
	visited[cur] = struct{}{}

	selfHref, err := containerLayoutHref(strat, cur, parentDir, isRoot)
	if err != nil {
		return nil, fmt.Errorf("normalize hrefs: catalog %q: %w", cur.ID(), err)
	}
	dir := href.Parent(selfHref)

	var setters []func()
	for _, l := range cur.Links() {
		switch l.Rel() {
		case RelItem:
			if skipUnresolved && !l.IsResolved() {
				continue
			}
			t, err := l.Target(ctx, nil)
			if err != nil {
				return nil, err
			}
			item, ok := t.(*Item)
			if !ok {
				return nil, resolutionErr(RelItem, l.AbsoluteHref(), fmt.Errorf("%w: item link resolved to %s", ErrWrongObjectType, t.Kind()))
			}
			if p := item.Parent(); p != nil && !sameObject(p, cur) {
				continue
			}
			itemHref, err := strat.ItemHref(item, dir)
			if err != nil {
				return nil, fmt.Errorf("normalize hrefs: item %q: %w", item.ID(), err)
			}
			setters = append(setters, func() { item.SetSelfHref(itemHref) })
		case RelChild:
			if skipUnresolved && !l.IsResolved() {
				continue
			}
			t, err := l.Target(ctx, nil)
			if err != nil {
				return nil, err
			}
			child, ok := AsContainer(t)
			if !ok {
				return nil, resolutionErr(RelChild, l.AbsoluteHref(), fmt.Errorf("%w: child resolved to %s", ErrWrongObjectType, t.Kind()))
			}
			if p := child.Parent(); p != nil && !sameObject(p, cur) {
				continue
			}
			sub, err := normalizePass(ctx, child, strat, dir, false, skipUnresolved, visited)
			if err != nil {
				return nil, err
			}
			setters = append(setters, sub...)
		}
	}
	target := cur
	setters = append(setters, func() { target.SetSelfHref(selfHref) })
	return setters, nil
}
