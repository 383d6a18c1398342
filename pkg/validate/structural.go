// Package validate checks STAC documents against the structural rules of
// core STAC and of declared extensions.
//
// The checks operate on rendered documents (map[string]any), not on the
// typed objects, so a tree validates exactly what would be written to disk.
// All violations for one document are aggregated into a single error; use
// [Violations] to enumerate them or [HasCode] to test for a category.
package validate

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/stacsmith/stacsmith/pkg/extensions"
	"github.com/stacsmith/stacsmith/pkg/stac"
)

// Structural validates the document shape: required members per kind, link
// shape, item datetime rules and collection extents. Extension URIs are
// dispatched to the hooks in the registry.
//
// The zero value uses the default extension registry and silently skips
// URIs it has no validator for.
type Structural struct {
	// Extensions resolves extension URIs to validation hooks. Nil means
	// extensions.Default().
	Extensions *extensions.Registry
	// Strict reports declared extension URIs without a registered validator
	// as violations instead of skipping them.
	Strict bool
}

var _ stac.Validator = (*Structural)(nil)

// report appends violations; passed into the per-kind checks.
type report func(code Code, field, format string, args ...any)

// ValidateCore checks doc against the core rules for its kind.
func (s *Structural) ValidateCore(ctx context.Context, kind stac.Kind, version string, doc map[string]any) error {
	var result *multierror.Error
	add := func(code Code, field, format string, args ...any) {
		result = multierror.Append(result, violation(code, field, format, args...))
	}

	if getString(doc, "id") == "" {
		add(CodeMissingMember, "id", "missing or empty")
	}
	if getString(doc, "stac_version") == "" {
		add(CodeMissingMember, "stac_version", "missing or empty")
	}
	if typ := getString(doc, "type"); typ != string(kind) {
		add(CodeWrongType, "type", "%q does not match object kind %s", typ, kind)
	}
	checkLinks(doc, add)

	switch kind {
	case stac.KindCatalog:
		checkDescription(doc, add)
	case stac.KindCollection:
		checkDescription(doc, add)
		checkCollection(doc, add)
	case stac.KindItem:
		checkItem(doc, add)
	default:
		add(CodeWrongType, "type", "unknown object kind %q", kind)
	}
	return result.ErrorOrNil()
}

// ValidateExtension dispatches doc to the registered hook for uri. The hook
// only runs when the extension applies to the document's kind.
func (s *Structural) ValidateExtension(ctx context.Context, uri string, doc map[string]any) error {
	reg := s.Extensions
	if reg == nil {
		reg = extensions.Default()
	}
	ext, ok := reg.Lookup(uri)
	if !ok {
		if s.Strict {
			return violation(CodeUnknownExtension, "stac_extensions", "no validator registered for %s", uri)
		}
		return nil
	}
	if kind := stac.Kind(getString(doc, "type")); !ext.AppliesTo(kind) {
		return violation(CodeWrongType, "stac_extensions", "extension %s does not apply to %s documents", ext.Name, kind)
	}
	if err := ext.Validate(doc); err != nil {
		return &Violation{
			Code:    CodeBadExtensionField,
			Field:   ext.Name,
			Message: "extension rules violated",
			Cause:   err,
		}
	}
	return nil
}

func checkDescription(doc map[string]any, add report) {
	if _, present := doc["description"]; !present {
		add(CodeMissingMember, "description", "missing")
		return
	}
	if getString(doc, "description") == "" {
		add(CodeMissingMember, "description", "empty")
	}
}

func checkLinks(doc map[string]any, add report) {
	raw, present := doc["links"]
	if !present {
		add(CodeMissingMember, "links", "missing")
		return
	}
	links, ok := raw.([]any)
	if !ok {
		add(CodeWrongType, "links", "not an array")
		return
	}
	for i, entry := range links {
		l, ok := entry.(map[string]any)
		if !ok {
			add(CodeBadLink, fmt.Sprintf("links[%d]", i), "not an object")
			continue
		}
		if getString(l, "rel") == "" {
			add(CodeBadLink, fmt.Sprintf("links[%d].rel", i), "missing or empty")
		}
		if getString(l, "href") == "" {
			add(CodeBadLink, fmt.Sprintf("links[%d].href", i), "missing or empty")
		}
	}
}

func checkCollection(doc map[string]any, add report) {
	if getString(doc, "license") == "" {
		add(CodeMissingMember, "license", "missing or empty")
	}
	ext, ok := doc["extent"].(map[string]any)
	if !ok {
		add(CodeMissingMember, "extent", "missing or not an object")
		return
	}
	checkSpatialExtent(ext, add)
	checkTemporalExtent(ext, add)
}

func checkSpatialExtent(ext map[string]any, add report) {
	spatial, ok := ext["spatial"].(map[string]any)
	if !ok {
		add(CodeBadExtent, "extent.spatial", "missing or not an object")
		return
	}
	// Rendered documents carry [][]float64; decoded JSON carries []any.
	var bboxes []any
	switch bs := spatial["bbox"].(type) {
	case [][]float64:
		for _, b := range bs {
			bboxes = append(bboxes, b)
		}
	case []any:
		bboxes = bs
	default:
		add(CodeBadExtent, "extent.spatial.bbox", "missing or not an array")
		return
	}
	for i, raw := range bboxes {
		field := fmt.Sprintf("extent.spatial.bbox[%d]", i)
		box, ok := asFloatSlice(raw)
		if !ok {
			add(CodeBadExtent, field, "not an array of numbers")
			continue
		}
		if len(box) != 4 && len(box) != 6 {
			add(CodeBadExtent, field, "has %d values, want 4 or 6", len(box))
		}
	}
}

func checkTemporalExtent(ext map[string]any, add report) {
	temporal, ok := ext["temporal"].(map[string]any)
	if !ok {
		add(CodeBadExtent, "extent.temporal", "missing or not an object")
		return
	}
	intervals, ok := asSlice(temporal["interval"])
	if !ok || len(intervals) == 0 {
		add(CodeBadExtent, "extent.temporal.interval", "missing or empty")
		return
	}
	for i, raw := range intervals {
		field := fmt.Sprintf("extent.temporal.interval[%d]", i)
		pair, ok := raw.([]any)
		if !ok || len(pair) != 2 {
			add(CodeBadExtent, field, "not a two-element array")
			continue
		}
		var start, end *time.Time
		for j, endpoint := range pair {
			if endpoint == nil {
				continue
			}
			s, ok := endpoint.(string)
			if !ok {
				add(CodeBadExtent, fmt.Sprintf("%s[%d]", field, j), "not a timestamp or null")
				continue
			}
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				add(CodeBadExtent, fmt.Sprintf("%s[%d]", field, j), "invalid timestamp %q", s)
				continue
			}
			if j == 0 {
				start = &t
			} else {
				end = &t
			}
		}
		if start != nil && end != nil && start.After(*end) {
			add(CodeBadExtent, field, "start %s is after end %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
		}
	}
}

func checkItem(doc map[string]any, add report) {
	geomRaw, present := doc["geometry"]
	if !present {
		add(CodeMissingMember, "geometry", "missing (use null for unlocated items)")
	} else if geomRaw != nil {
		geom, ok := geomRaw.(map[string]any)
		if !ok {
			add(CodeBadGeometry, "geometry", "not an object or null")
		} else if getString(geom, "type") == "" {
			add(CodeBadGeometry, "geometry.type", "missing or empty")
		}
		// A located item must declare its bounding box.
		box, ok := asFloatSlice(doc["bbox"])
		if !ok {
			add(CodeBadGeometry, "bbox", "required when geometry is non-null")
		} else if len(box) != 4 && len(box) != 6 {
			add(CodeBadGeometry, "bbox", "has %d values, want 4 or 6", len(box))
		}
	}

	props, ok := doc["properties"].(map[string]any)
	if !ok {
		add(CodeMissingMember, "properties", "missing or not an object")
		return
	}
	checkItemDatetime(props, add)
}

// checkItemDatetime enforces the datetime-or-range rule: an item declares
// either a point datetime or, with datetime explicitly null, a start/end
// range whose endpoints are ordered.
func checkItemDatetime(props map[string]any, add report) {
	dtRaw, present := props["datetime"]
	if !present {
		add(CodeBadDatetime, "properties.datetime", "missing (use null when declaring a range)")
		return
	}

	parse := func(field string) (*time.Time, bool) {
		raw, present := props[field]
		if !present {
			return nil, false
		}
		s, ok := raw.(string)
		if !ok {
			add(CodeBadDatetime, "properties."+field, "not a timestamp")
			return nil, true
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			add(CodeBadDatetime, "properties."+field, "invalid timestamp %q", s)
			return nil, true
		}
		return &t, true
	}

	if dtRaw == nil {
		start, hasStart := parse("start_datetime")
		end, hasEnd := parse("end_datetime")
		if !hasStart || !hasEnd {
			add(CodeBadDatetime, "properties.datetime", "null datetime requires start_datetime and end_datetime")
			return
		}
		if start != nil && end != nil && start.After(*end) {
			add(CodeBadDatetime, "properties.start_datetime", "start %s is after end %s",
				start.Format(time.RFC3339), end.Format(time.RFC3339))
		}
		return
	}

	s, ok := dtRaw.(string)
	if !ok {
		add(CodeBadDatetime, "properties.datetime", "not a timestamp or null")
		return
	}
	if _, err := time.Parse(time.RFC3339Nano, s); err != nil {
		add(CodeBadDatetime, "properties.datetime", "invalid timestamp %q", s)
	}
}

func getString(doc map[string]any, key string) string {
	s, _ := doc[key].(string)
	return s
}

func asSlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

// asFloatSlice accepts both decoded JSON ([]any of float64) and the
// [][]float64 values typed documents carry before serialization.
func asFloatSlice(v any) ([]float64, bool) {
	switch s := v.(type) {
	case []float64:
		return s, true
	case []any:
		out := make([]float64, 0, len(s))
		for _, e := range s {
			f, ok := e.(float64)
			if !ok {
				return nil, false
			}
			out = append(out, f)
		}
		return out, true
	}
	return nil, false
}
