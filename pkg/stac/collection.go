package stac

import (
	"context"
	"time"
)

// SpatialExtent is the union of bounding boxes covered by a collection.
// Each bbox is [west, south, east, north], or six values when elevation
// bounds are included.
type SpatialExtent struct {
	BBoxes [][]float64
	Extra  map[string]any
}

// TemporalExtent is the set of time intervals covered by a collection. A
// nil endpoint marks an open interval.
type TemporalExtent struct {
	Intervals [][2]*time.Time
	Extra     map[string]any
}

// Extent is a collection's spatial and temporal coverage.
type Extent struct {
	Spatial  SpatialExtent
	Temporal TemporalExtent
	Extra    map[string]any
}

// GlobalExtent covers the whole globe and all of time. Useful as a
// placeholder before UpdateExtentFromItems computes the real coverage.
func GlobalExtent() Extent {
	return Extent{
		Spatial:  SpatialExtent{BBoxes: [][]float64{{-180, -90, 180, 90}}},
		Temporal: TemporalExtent{Intervals: [][2]*time.Time{{nil, nil}}},
	}
}

// ExtentFromItems computes the single-interval, single-bbox extent
// covering every given item. Items without a bbox contribute nothing
// spatially; items without any datetime contribute nothing temporally.
func ExtentFromItems(items []*Item) Extent {
	var (
		haveBox                bool
		minX, minY, maxX, maxY float64
		start, end             *time.Time
	)
	for _, it := range items {
		if len(it.BBox) >= 4 {
			if !haveBox {
				minX, minY, maxX, maxY = it.BBox[0], it.BBox[1], it.BBox[2], it.BBox[3]
				haveBox = true
			} else {
				minX = min(minX, it.BBox[0])
				minY = min(minY, it.BBox[1])
				maxX = max(maxX, it.BBox[2])
				maxY = max(maxY, it.BBox[3])
			}
		}
		s, e := it.temporalBounds()
		if s != nil && (start == nil || s.Before(*start)) {
			start = s
		}
		if e != nil && (end == nil || e.After(*end)) {
			end = e
		}
	}
	ext := Extent{
		Temporal: TemporalExtent{Intervals: [][2]*time.Time{{start, end}}},
	}
	if haveBox {
		ext.Spatial = SpatialExtent{BBoxes: [][]float64{{minX, minY, maxX, maxY}}}
	} else {
		ext.Spatial = SpatialExtent{BBoxes: [][]float64{}}
	}
	return ext
}

// Provider names an organization that captured, processed or hosts the
// collection's data.
type Provider struct {
	Name        string
	Description string
	Roles       []string
	URL         string
	Extra       map[string]any
}

// Clone returns a copy of the provider.
func (p *Provider) Clone() *Provider {
	out := &Provider{
		Name:        p.Name,
		Description: p.Description,
		Roles:       append([]string(nil), p.Roles...),
		URL:         p.URL,
		Extra:       deepCopyMap(p.Extra),
	}
	return out
}

// Collection is a catalog whose members share metadata: an extent, a
// license, providers and summaries. It behaves as a container exactly like
// Catalog and additionally anchors items through their collection link.
type Collection struct {
	Catalog

	// Extent is the collection's required spatial and temporal coverage.
	Extent Extent
	// License is the required data license, an SPDX identifier or "other".
	License string
	// Keywords are optional search keywords.
	Keywords []string
	// Providers lists the organizations behind the data.
	Providers []*Provider
	// Summaries aggregates item property ranges or sample values.
	Summaries map[string]any
	// Assets are collection-level assets, keyed by a short name.
	Assets map[string]*Asset
	// ItemAssets documents the assets every item in the collection is
	// expected to carry, keyed like item assets.
	ItemAssets map[string]any
}

// NewCollection creates a collection that is its own root. The license
// defaults to "other"; set License to an SPDX identifier when one applies.
func NewCollection(id, description string, extent Extent) *Collection {
	c := &Collection{Extent: extent, License: "other"}
	c.Description = description
	c.CatalogType = CatalogTypeAbsolutePublished
	c.node.init(c, KindCollection, id)
	c.cache = NewResolvedObjectCache()
	c.SetRoot(c)
	return c
}

// AddItem attaches item under the collection and binds it to the
// collection: the item's collection link and mirrored collection id are
// replaced. With KeepParent the item is linked without being re-parented
// or re-bound.
func (c *Collection) AddItem(item *Item, opts ...AddOption) (*Link, error) {
	l, err := c.Catalog.AddItem(item, opts...)
	if err != nil {
		return nil, err
	}
	if !applyAddOptions(opts).keepParent {
		item.SetCollection(c)
	}
	return l, nil
}

// UpdateExtentFromItems recomputes the collection's extent from its
// current items, resolving item links as needed.
func (c *Collection) UpdateExtentFromItems(ctx context.Context) error {
	items, err := c.Items(ctx)
	if err != nil {
		return err
	}
	c.Extent = ExtentFromItems(items)
	return nil
}

// Clone copies the collection. Like Catalog.Clone, cloned links share
// their resolved targets and the clone roots itself.
func (c *Collection) Clone() Object {
	out := NewCollection(c.id, c.Description, c.Extent.clone())
	out.Title = c.Title
	out.CatalogType = c.CatalogType
	out.License = c.License
	out.Keywords = append([]string(nil), c.Keywords...)
	for _, p := range c.Providers {
		out.Providers = append(out.Providers, p.Clone())
	}
	if c.Summaries != nil {
		out.Summaries = deepCopyMap(c.Summaries)
	}
	if c.Assets != nil {
		out.Assets = make(map[string]*Asset, len(c.Assets))
		for k, a := range c.Assets {
			clone := a.Clone()
			clone.owner = out
			out.Assets[k] = clone
		}
	}
	if c.ItemAssets != nil {
		out.ItemAssets = deepCopyMap(c.ItemAssets)
	}
	cloneNodeState(&out.node, &c.node)
	for _, l := range c.node.links {
		if l.rel == RelRoot {
			continue
		}
		out.AddLink(l.Clone())
	}
	return out
}

func (e Extent) clone() Extent {
	out := Extent{Extra: deepCopyMap(e.Extra)}
	out.Spatial.Extra = deepCopyMap(e.Spatial.Extra)
	for _, b := range e.Spatial.BBoxes {
		out.Spatial.BBoxes = append(out.Spatial.BBoxes, append([]float64(nil), b...))
	}
	out.Temporal.Extra = deepCopyMap(e.Temporal.Extra)
	for _, iv := range e.Temporal.Intervals {
		out.Temporal.Intervals = append(out.Temporal.Intervals, iv)
	}
	return out
}

// Document renders the collection as a JSON-ready document.
func (c *Collection) Document(opts EncodeOptions) (map[string]any, error) {
	d, err := c.Catalog.Document(opts)
	if err != nil {
		return nil, err
	}
	d["type"] = string(KindCollection)
	d["extent"] = c.Extent.document()
	license := c.License
	if license == "" {
		license = "other"
	}
	d["license"] = license
	if len(c.Keywords) > 0 {
		d["keywords"] = append([]string(nil), c.Keywords...)
	}
	if len(c.Providers) > 0 {
		provs := make([]any, 0, len(c.Providers))
		for _, p := range c.Providers {
			provs = append(provs, p.document())
		}
		d["providers"] = provs
	}
	if len(c.Summaries) > 0 {
		d["summaries"] = c.Summaries
	}
	if len(c.Assets) > 0 {
		assets := make(map[string]any, len(c.Assets))
		for k, a := range c.Assets {
			assets[k] = a.Document()
		}
		d["assets"] = assets
	}
	if len(c.ItemAssets) > 0 {
		d["item_assets"] = c.ItemAssets
	}
	return d, nil
}

func (e Extent) document() map[string]any {
	bboxes := e.Spatial.BBoxes
	if bboxes == nil {
		bboxes = [][]float64{}
	}
	spatial := map[string]any{"bbox": bboxes}
	mergeExtra(spatial, e.Spatial.Extra)

	intervals := make([]any, 0, len(e.Temporal.Intervals))
	for _, iv := range e.Temporal.Intervals {
		pair := make([]any, 2)
		for i, t := range []*time.Time{iv[0], iv[1]} {
			if t != nil {
				pair[i] = formatDatetime(*t)
			}
		}
		intervals = append(intervals, pair)
	}
	if len(intervals) == 0 {
		intervals = append(intervals, []any{nil, nil})
	}
	temporal := map[string]any{"interval": intervals}
	mergeExtra(temporal, e.Temporal.Extra)

	d := map[string]any{"spatial": spatial, "temporal": temporal}
	mergeExtra(d, e.Extra)
	return d
}

func (p *Provider) document() map[string]any {
	d := map[string]any{"name": p.Name}
	if p.Description != "" {
		d["description"] = p.Description
	}
	if len(p.Roles) > 0 {
		d["roles"] = append([]string(nil), p.Roles...)
	}
	if p.URL != "" {
		d["url"] = p.URL
	}
	mergeExtra(d, p.Extra)
	return d
}
