package stac

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stacsmith/stacsmith/pkg/href"
)

// Item is a leaf of a STAC tree: one spatiotemporal observation with its
// downloadable assets. Serialized items are GeoJSON features.
//
// Properties is the single source of truth for item metadata, including
// the datetime fields; the typed accessors read and write through it, so
// unknown properties written by other tools survive a round trip.
type Item struct {
	node

	// Geometry is the item's GeoJSON geometry, nil for geometry-less items.
	Geometry map[string]any
	// BBox is the bounding box [west, south, east, north], required when
	// Geometry is set.
	BBox []float64
	// Properties carries the item's metadata verbatim.
	Properties map[string]any
	// Assets maps short names to the item's downloadable assets.
	Assets map[string]*Asset
	// CollectionID is the id of the collection this item belongs to,
	// mirrored from the collection link.
	CollectionID string
}

// NewItem creates an item with the given acquisition datetime. Use
// SetDatetimeRange afterward for items that span an interval.
func NewItem(id string, datetime time.Time) *Item {
	it := &Item{
		Properties: map[string]any{},
		Assets:     map[string]*Asset{},
	}
	it.node.init(it, KindItem, id)
	it.SetDatetime(datetime)
	return it
}

// Datetime returns the item's single acquisition datetime. ok is false
// when the item has no datetime or carries a range instead.
func (it *Item) Datetime() (time.Time, bool) {
	return propTime(it.Properties, "datetime")
}

// SetDatetime sets the single acquisition datetime.
func (it *Item) SetDatetime(t time.Time) {
	if it.Properties == nil {
		it.Properties = map[string]any{}
	}
	it.Properties["datetime"] = formatDatetime(t)
}

// StartDatetime returns the start of the item's datetime range.
func (it *Item) StartDatetime() (time.Time, bool) {
	return propTime(it.Properties, "start_datetime")
}

// EndDatetime returns the end of the item's datetime range.
func (it *Item) EndDatetime() (time.Time, bool) {
	return propTime(it.Properties, "end_datetime")
}

// SetDatetimeRange replaces the single datetime with a range. The
// "datetime" property is set to null: a range-valued item declares no
// point datetime.
func (it *Item) SetDatetimeRange(start, end time.Time) {
	if it.Properties == nil {
		it.Properties = map[string]any{}
	}
	it.Properties["start_datetime"] = formatDatetime(start)
	it.Properties["end_datetime"] = formatDatetime(end)
	it.Properties["datetime"] = nil
}

// temporalBounds returns the item's time coverage as an interval: the
// point datetime twice, or the declared range. Nil bounds mean unknown.
func (it *Item) temporalBounds() (start, end *time.Time) {
	if dt, ok := it.Datetime(); ok {
		return &dt, &dt
	}
	if s, ok := it.StartDatetime(); ok {
		start = &s
	}
	if e, ok := it.EndDatetime(); ok {
		end = &e
	}
	return start, end
}

// AddAsset attaches an asset under the given key, claiming ownership.
func (it *Item) AddAsset(key string, a *Asset) {
	if it.Assets == nil {
		it.Assets = map[string]*Asset{}
	}
	a.owner = it
	it.Assets[key] = a
}

// Asset returns the asset stored under key.
func (it *Item) Asset(key string) (*Asset, bool) {
	a, ok := it.Assets[key]
	return a, ok
}

// MakeAssetHrefsAbsolute rewrites relative asset hrefs against the item's
// self href. Fails with [ErrNoSelfHref] when a relative asset exists but
// the item has no location.
func (it *Item) MakeAssetHrefsAbsolute() error {
	self := it.SelfHref()
	for key, a := range it.Assets {
		if a.Href == "" || href.IsAbsolute(a.Href) {
			continue
		}
		if self == "" {
			return fmt.Errorf("make asset %q href absolute: %w", key, ErrNoSelfHref)
		}
		a.Href = href.MakeAbsolute(a.Href, self, false)
	}
	return nil
}

// MakeAssetHrefsRelative rewrites absolute asset hrefs relative to the
// item's self href. Already-relative hrefs are untouched.
func (it *Item) MakeAssetHrefsRelative() error {
	self := it.SelfHref()
	for key, a := range it.Assets {
		if a.Href == "" || !href.IsAbsolute(a.Href) {
			continue
		}
		if self == "" {
			return fmt.Errorf("make asset %q href relative: %w", key, ErrNoSelfHref)
		}
		a.Href = href.MakeRelative(a.Href, self, false)
	}
	return nil
}

// SetSelfHref moves the item, rewriting relative asset hrefs so they keep
// pointing at the same locations: each is resolved against the old self
// href and re-relativized against the new one.
func (it *Item) SetSelfHref(hrefStr string) {
	prev := it.SelfHref()
	it.node.SetSelfHref(hrefStr)
	cur := it.SelfHref()
	if prev == "" || cur == "" {
		return
	}
	for _, a := range it.Assets {
		if a.Href == "" || href.IsAbsolute(a.Href) {
			continue
		}
		abs := href.MakeAbsolute(a.Href, prev, false)
		a.Href = href.MakeRelative(abs, cur, false)
	}
}

// SetCollection binds the item to a collection: the collection link and
// the mirrored collection id are replaced together. A nil collection
// unbinds the item.
func (it *Item) SetCollection(col *Collection) {
	it.RemoveLinks(RelCollection)
	it.CollectionID = ""
	if col != nil {
		it.AddLink(&Link{rel: RelCollection, target: col, MediaType: MediaTypeJSON})
		it.CollectionID = col.ID()
	}
}

// Collection resolves and returns the item's collection. An item bound
// only by id (no collection link) is looked up in the tree's resolution
// cache. Returns (nil, nil) when the item belongs to no collection.
func (it *Item) Collection(ctx context.Context) (*Collection, error) {
	l := it.FindLink(RelCollection)
	if l == nil {
		if it.CollectionID != "" {
			if root := it.Root(); root != nil {
				if col, ok := root.resolvedObjects().GetCollectionByID(it.CollectionID); ok {
					return col, nil
				}
			}
		}
		return nil, nil
	}
	t, err := l.Target(ctx, nil)
	if err != nil {
		return nil, err
	}
	col, ok := t.(*Collection)
	if !ok {
		return nil, resolutionErr(RelCollection, l.AbsoluteHref(), fmt.Errorf("%w: collection link resolved to %s", ErrWrongObjectType, t.Kind()))
	}
	return col, nil
}

// TemplateValue resolves layout template variables against the item:
// "id", "collection", the datetime derivatives "year", "month", "day",
// "date" and "datetime" (months and days zero-padded so templated paths
// sort lexicographically), and finally dotted property paths with an
// optional "properties." prefix.
func (it *Item) TemplateValue(name string) (string, error) {
	switch name {
	case "id":
		return it.id, nil
	case "collection":
		if it.CollectionID == "" {
			return "", fmt.Errorf("item %q belongs to no collection", it.id)
		}
		return it.CollectionID, nil
	case "year", "month", "day", "date", "datetime":
		dt, ok := it.Datetime()
		if !ok {
			dt, ok = it.StartDatetime()
		}
		if !ok {
			return "", fmt.Errorf("item %q has no datetime for template variable %q", it.id, name)
		}
		switch name {
		case "year":
			return fmt.Sprintf("%04d", dt.Year()), nil
		case "month":
			return fmt.Sprintf("%02d", int(dt.Month())), nil
		case "day":
			return fmt.Sprintf("%02d", dt.Day()), nil
		case "date":
			return dt.Format("2006-01-02"), nil
		default:
			return formatDatetime(dt), nil
		}
	}
	key := strings.TrimPrefix(name, "properties.")
	if v, ok := lookupPath(it.Properties, key); ok {
		return templateString(v), nil
	}
	if v, ok := lookupPath(it.extra, name); ok {
		return templateString(v), nil
	}
	return "", fmt.Errorf("item %q has no value for template variable %q", it.id, name)
}

// Clone copies the item. All links are cloned, sharing resolved targets
// with the original, so the clone sits in the same tree until re-rooted.
func (it *Item) Clone() Object {
	out := &Item{
		Geometry:     deepCopyMap(it.Geometry),
		Properties:   deepCopyMap(it.Properties),
		CollectionID: it.CollectionID,
	}
	out.node.init(out, KindItem, it.id)
	if it.BBox != nil {
		out.BBox = append([]float64(nil), it.BBox...)
	}
	cloneNodeState(&out.node, &it.node)
	for _, l := range it.node.links {
		out.AddLink(l.Clone())
	}
	out.Assets = make(map[string]*Asset, len(it.Assets))
	for k, a := range it.Assets {
		clone := a.Clone()
		clone.owner = out
		out.Assets[k] = clone
	}
	return out
}

// Document renders the item as a GeoJSON feature document.
func (it *Item) Document(opts EncodeOptions) (map[string]any, error) {
	links, err := linkDocuments(&it.node, opts)
	if err != nil {
		return nil, err
	}
	assets := make(map[string]any, len(it.Assets))
	for k, a := range it.Assets {
		assets[k] = a.Document()
	}
	d := map[string]any{
		"type":         string(KindItem),
		"stac_version": it.version,
		"id":           it.id,
		"geometry":     it.Geometry,
		"properties":   it.Properties,
		"links":        links,
		"assets":       assets,
	}
	if len(it.extensions) > 0 {
		d["stac_extensions"] = append([]string(nil), it.extensions...)
	}
	if it.BBox != nil {
		d["bbox"] = it.BBox
	}
	if it.CollectionID != "" {
		d["collection"] = it.CollectionID
	}
	mergeExtra(d, it.extra)
	return d, nil
}

// Datetime layout helpers shared by items and collection extents.

// formatDatetime renders t as RFC 3339 in UTC, keeping sub-second
// precision when present.
func formatDatetime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseDatetime accepts RFC 3339 timestamps with or without fractional
// seconds.
func parseDatetime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// propTime reads an RFC 3339 timestamp property. ok is false for missing,
// null or malformed values.
func propTime(props map[string]any, key string) (time.Time, bool) {
	s, ok := props[key].(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	t, err := parseDatetime(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
