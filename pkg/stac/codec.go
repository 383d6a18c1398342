package stac

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// EncodeOptions controls document rendering. The zero value matches the
// common case: self links included, hrefs transformed per the tree's
// catalog type.
type EncodeOptions struct {
	// OmitSelfLink drops the rel=self link from the output. Save uses this
	// to honor the catalog type's self-link rules.
	OmitSelfLink bool
	// RawHrefs serializes link hrefs exactly as stored or derived, without
	// the relative rewriting that relative catalog types apply.
	RawHrefs bool
}

// Encode renders obj as indented JSON.
func Encode(obj Object, opts EncodeOptions) ([]byte, error) {
	doc, err := obj.Document(opts)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode %s %q: %w", obj.Kind(), obj.ID(), err)
	}
	return data, nil
}

// Decode parses a serialized STAC document into the matching object type.
func Decode(data []byte) (Object, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return FromDocument(doc)
}

// FromDocument builds the typed object a document describes, dispatching
// on its "type" field. Documents predating the type field are identified
// by shape: a geometry marks an item, an extent with a license marks a
// collection, and a description with links marks a catalog.
func FromDocument(doc map[string]any) (Object, error) {
	switch identifyKind(doc) {
	case KindCatalog:
		return CatalogFromDocument(doc)
	case KindCollection:
		return CollectionFromDocument(doc)
	case KindItem:
		return ItemFromDocument(doc)
	default:
		return nil, fmt.Errorf("%w: type %q", ErrUnknownObjectType, docString(doc, "type"))
	}
}

func identifyKind(doc map[string]any) Kind {
	switch docString(doc, "type") {
	case string(KindCatalog):
		return KindCatalog
	case string(KindCollection):
		return KindCollection
	case string(KindItem):
		return KindItem
	case "":
		if _, ok := doc["geometry"]; ok {
			return KindItem
		}
		_, hasExtent := doc["extent"]
		_, hasLicense := doc["license"]
		if hasExtent && hasLicense {
			return KindCollection
		}
		_, hasDescription := doc["description"]
		_, hasLinks := doc["links"]
		if hasDescription && hasLinks {
			return KindCatalog
		}
	}
	return ""
}

var catalogKnownKeys = []string{
	"type", "id", "stac_version", "stac_extensions", "title", "description", "links",
}

// CatalogFromDocument decodes a catalog document. The catalog's root link
// comes from the document when present, replacing the self-root the
// constructor installs; the catalog type is inferred from the links.
func CatalogFromDocument(doc map[string]any) (*Catalog, error) {
	c := NewCatalog(docString(doc, "id"), docString(doc, "description"))
	if c.id == "" {
		return nil, fmt.Errorf("catalog document: missing id")
	}
	c.Title = docString(doc, "title")
	if t := DetermineCatalogType(doc); t != "" {
		c.CatalogType = t
	}
	if err := decodeNodeDoc(&c.node, doc); err != nil {
		return nil, fmt.Errorf("catalog %q: %w", c.id, err)
	}
	c.node.extra = extraFields(doc, catalogKnownKeys...)
	return c, nil
}

var collectionKnownKeys = []string{
	"type", "id", "stac_version", "stac_extensions", "title", "description", "links",
	"extent", "license", "keywords", "providers", "summaries", "assets", "item_assets",
}

// CollectionFromDocument decodes a collection document.
func CollectionFromDocument(doc map[string]any) (*Collection, error) {
	ext, err := extentFromDocument(docMap(doc, "extent"))
	if err != nil {
		return nil, fmt.Errorf("collection %q: %w", docString(doc, "id"), err)
	}
	c := NewCollection(docString(doc, "id"), docString(doc, "description"), ext)
	if c.id == "" {
		return nil, fmt.Errorf("collection document: missing id")
	}
	c.Title = docString(doc, "title")
	if t := DetermineCatalogType(doc); t != "" {
		c.CatalogType = t
	}
	if lic := docString(doc, "license"); lic != "" {
		c.License = lic
	}
	c.Keywords = docStringSlice(doc, "keywords")
	for _, pd := range docMapSlice(doc, "providers") {
		c.Providers = append(c.Providers, providerFromDocument(pd))
	}
	if s := docMap(doc, "summaries"); s != nil {
		c.Summaries = s
	}
	if assets := docMap(doc, "assets"); assets != nil {
		c.Assets = make(map[string]*Asset, len(assets))
		for k, v := range assets {
			ad, ok := v.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("collection %q: asset %q is not an object", c.id, k)
			}
			a := assetFromDocument(ad)
			a.owner = c
			c.Assets[k] = a
		}
	}
	if ia := docMap(doc, "item_assets"); ia != nil {
		c.ItemAssets = ia
	}
	if err := decodeNodeDoc(&c.node, doc); err != nil {
		return nil, fmt.Errorf("collection %q: %w", c.id, err)
	}
	c.node.extra = extraFields(doc, collectionKnownKeys...)
	return c, nil
}

var itemKnownKeys = []string{
	"type", "stac_version", "stac_extensions", "id", "geometry", "bbox",
	"properties", "links", "assets", "collection",
}

// ItemFromDocument decodes an item document.
func ItemFromDocument(doc map[string]any) (*Item, error) {
	it := &Item{
		Geometry:     docMap(doc, "geometry"),
		BBox:         docFloatSlice(doc, "bbox"),
		Properties:   docMap(doc, "properties"),
		CollectionID: docString(doc, "collection"),
		Assets:       map[string]*Asset{},
	}
	it.node.init(it, KindItem, docString(doc, "id"))
	if it.id == "" {
		return nil, fmt.Errorf("item document: missing id")
	}
	if it.Properties == nil {
		it.Properties = map[string]any{}
	}
	if assets := docMap(doc, "assets"); assets != nil {
		for k, v := range assets {
			ad, ok := v.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("item %q: asset %q is not an object", it.id, k)
			}
			a := assetFromDocument(ad)
			a.owner = it
			it.Assets[k] = a
		}
	}
	if err := decodeNodeDoc(&it.node, doc); err != nil {
		return nil, fmt.Errorf("item %q: %w", it.id, err)
	}
	it.node.extra = extraFields(doc, itemKnownKeys...)
	return it, nil
}

// decodeNodeDoc applies the fields every object type shares: version,
// extensions and links. A root link in the document replaces any root link
// already on the object (for containers, the constructor's self-root).
func decodeNodeDoc(n *node, doc map[string]any) error {
	if v := docString(doc, "stac_version"); v != "" {
		n.version = v
	}
	n.extensions = docStringSlice(doc, "stac_extensions")
	for _, ld := range docMapSlice(doc, "links") {
		l, err := linkFromDocument(ld)
		if err != nil {
			return err
		}
		if l.rel == RelRoot {
			n.RemoveLinks(RelRoot)
		}
		n.AddLink(l)
	}
	return nil
}

var linkKnownKeys = []string{"rel", "href", "type", "title", "method", "headers", "body"}

// linkFromDocument decodes one serialized link. Serialized links must
// carry both a rel and an href.
func linkFromDocument(doc map[string]any) (*Link, error) {
	rel := Rel(docString(doc, "rel"))
	if rel == "" {
		return nil, fmt.Errorf("link document: missing rel")
	}
	h := docString(doc, "href")
	if h == "" {
		return nil, fmt.Errorf("link document (rel %s): %w", rel, ErrEmptyHref)
	}
	l := &Link{
		rel:       rel,
		href:      h,
		MediaType: docString(doc, "type"),
		Title:     docString(doc, "title"),
		Method:    docString(doc, "method"),
		Headers:   docMap(doc, "headers"),
		Body:      doc["body"],
	}
	l.Extra = extraFields(doc, linkKnownKeys...)
	return l, nil
}

func providerFromDocument(doc map[string]any) *Provider {
	return &Provider{
		Name:        docString(doc, "name"),
		Description: docString(doc, "description"),
		Roles:       docStringSlice(doc, "roles"),
		URL:         docString(doc, "url"),
		Extra:       extraFields(doc, "name", "description", "roles", "url"),
	}
}

func extentFromDocument(doc map[string]any) (Extent, error) {
	var ext Extent
	if doc == nil {
		return ext, nil
	}
	spatial := docMap(doc, "spatial")
	for _, raw := range docSlice(spatial, "bbox") {
		coords, ok := raw.([]any)
		if !ok {
			return ext, fmt.Errorf("extent: bbox entry is not an array")
		}
		box := make([]float64, 0, len(coords))
		for _, c := range coords {
			f, ok := c.(float64)
			if !ok {
				return ext, fmt.Errorf("extent: bbox coordinate is not a number")
			}
			box = append(box, f)
		}
		ext.Spatial.BBoxes = append(ext.Spatial.BBoxes, box)
	}
	ext.Spatial.Extra = extraFields(spatial, "bbox")

	temporal := docMap(doc, "temporal")
	for _, raw := range docSlice(temporal, "interval") {
		pair, ok := raw.([]any)
		if !ok || len(pair) != 2 {
			return ext, fmt.Errorf("extent: temporal interval is not a two-element array")
		}
		var iv [2]*time.Time
		for i, v := range pair {
			if v == nil {
				continue
			}
			s, ok := v.(string)
			if !ok {
				return ext, fmt.Errorf("extent: temporal bound is not a string")
			}
			t, err := parseDatetime(s)
			if err != nil {
				return ext, fmt.Errorf("extent: temporal bound %q: %w", s, err)
			}
			iv[i] = &t
		}
		ext.Temporal.Intervals = append(ext.Temporal.Intervals, iv)
	}
	ext.Temporal.Extra = extraFields(temporal, "interval")
	ext.Extra = extraFields(doc, "spatial", "temporal")
	return ext, nil
}

// Document access helpers. Decoded JSON is all map[string]any and []any;
// these narrow it without panicking on absent or mistyped fields.

func docString(doc map[string]any, key string) string {
	s, _ := doc[key].(string)
	return s
}

func docMap(doc map[string]any, key string) map[string]any {
	m, _ := doc[key].(map[string]any)
	return m
}

func docSlice(doc map[string]any, key string) []any {
	s, _ := doc[key].([]any)
	return s
}

func docMapSlice(doc map[string]any, key string) []map[string]any {
	raw := docSlice(doc, key)
	out := make([]map[string]any, 0, len(raw))
	for _, v := range raw {
		if m, ok := v.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func docStringSlice(doc map[string]any, key string) []string {
	raw := docSlice(doc, key)
	if raw == nil {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func docFloatSlice(doc map[string]any, key string) []float64 {
	raw := docSlice(doc, key)
	if raw == nil {
		return nil
	}
	out := make([]float64, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(float64); ok {
			out = append(out, f)
		}
	}
	return out
}

// extraFields copies doc minus the known keys. The result is never nil so
// extension packages can write through it.
func extraFields(doc map[string]any, known ...string) map[string]any {
	extra := map[string]any{}
	for k, v := range doc {
		if !slices.Contains(known, k) {
			extra[k] = v
		}
	}
	return extra
}

// mergeExtra copies extra fields into a rendered document without
// overriding the typed fields already present.
func mergeExtra(doc, extra map[string]any) {
	for k, v := range extra {
		if _, exists := doc[k]; !exists {
			doc[k] = v
		}
	}
}

// deepCopyMap copies nested maps and slices so a clone shares no mutable
// state with the original. Scalars are shared, which is fine: decoded JSON
// scalars are immutable.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return v
	}
}

// lookupPath descends dotted paths through nested maps: "eo:cloud_cover"
// is a single key, "proj.code" reads m["proj"]["code"].
func lookupPath(m map[string]any, path string) (any, bool) {
	if m == nil {
		return nil, false
	}
	if v, ok := m[path]; ok {
		return v, true
	}
	parts := strings.Split(path, ".")
	var cur any = m
	for _, p := range parts {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = mm[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// templateString renders a metadata value for use in a path template.
// Floats that carry integer values print without a decimal point.
func templateString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(v)
	}
}
