// Package classification implements the STAC classification extension:
// named classes for categorical raster values, carried as
// "classification:classes" on item properties, assets or raster bands, and
// "classification:bitfields" for bit-packed encodings.
package classification

import (
	"fmt"
	"maps"
	"slices"

	"github.com/hashicorp/go-multierror"

	"github.com/stacsmith/stacsmith/pkg/extensions"
	"github.com/stacsmith/stacsmith/pkg/stac"
)

// SchemaURI is the versioned schema this package implements.
const SchemaURI = "https://stac-extensions.github.io/classification/v2.0.0/schema.json"

const (
	classesField   = "classification:classes"
	bitfieldsField = "classification:bitfields"
)

// Extension is the registry descriptor for this package.
var Extension = &extensions.Extension{
	Name:     "classification",
	URI:      SchemaURI,
	Kinds:    []stac.Kind{stac.KindItem, stac.KindCollection},
	Validate: validateDoc,
}

// Class maps one raster value to a name.
type Class struct {
	// Value is the raster value the class describes.
	Value int
	// Name is the required machine name, e.g. "water".
	Name string
	// Description is an optional human-readable description.
	Description string
	// ColorHint is an optional RRGGBB hex color, without the leading "#".
	ColorHint string
	// NoData marks the class as a fill value.
	NoData bool
}

// Bitfield describes classes packed into a range of bits of the raster
// value, as used by quality-assessment bands.
type Bitfield struct {
	// Name identifies the field, e.g. "cloud_confidence".
	Name string
	// Description is an optional human-readable description.
	Description string
	// Offset is the index of the field's first bit, counted from bit 0.
	Offset int
	// Length is the number of bits in the field.
	Length int
	// Classes interpret the field's unpacked values.
	Classes []Class
}

// Apply declares the extension on obj. Call it after setting classes so the
// document declares what it carries.
func Apply(obj stac.Object) { obj.AddExtension(SchemaURI) }

// Has reports whether obj declares the extension.
func Has(obj stac.Object) bool { return obj.HasExtension(SchemaURI) }

// ItemClasses reads the classes from an item's properties.
func ItemClasses(it *stac.Item) ([]Class, bool) {
	return classesFrom(it.Properties)
}

// SetItemClasses writes classes to an item's properties.
func SetItemClasses(it *stac.Item, classes []Class) {
	it.Properties[classesField] = classesDoc(classes)
}

// AssetClasses reads the classes from an asset's extension fields.
func AssetClasses(a *stac.Asset) ([]Class, bool) {
	return classesFrom(a.Extra)
}

// SetAssetClasses writes classes to an asset's extension fields.
func SetAssetClasses(a *stac.Asset, classes []Class) {
	if a.Extra == nil {
		a.Extra = map[string]any{}
	}
	a.Extra[classesField] = classesDoc(classes)
}

// BandClasses reads the classes from a raster band document, as stored in
// an asset's "raster:bands" array.
func BandClasses(band map[string]any) ([]Class, bool) {
	return classesFrom(band)
}

// SetBandClasses writes classes to a raster band document.
func SetBandClasses(band map[string]any, classes []Class) {
	band[classesField] = classesDoc(classes)
}

// ItemBitfields reads the bitfields from an item's properties.
func ItemBitfields(it *stac.Item) ([]Bitfield, bool) {
	return bitfieldsFrom(it.Properties)
}

// SetItemBitfields writes bitfields to an item's properties.
func SetItemBitfields(it *stac.Item, fields []Bitfield) {
	it.Properties[bitfieldsField] = bitfieldsDoc(fields)
}

// AssetBitfields reads the bitfields from an asset's extension fields.
func AssetBitfields(a *stac.Asset) ([]Bitfield, bool) {
	return bitfieldsFrom(a.Extra)
}

// SetAssetBitfields writes bitfields to an asset's extension fields.
func SetAssetBitfields(a *stac.Asset, fields []Bitfield) {
	if a.Extra == nil {
		a.Extra = map[string]any{}
	}
	a.Extra[bitfieldsField] = bitfieldsDoc(fields)
}

func classesFrom(m map[string]any) ([]Class, bool) {
	raw, ok := m[classesField].([]any)
	if !ok {
		return nil, false
	}
	out := make([]Class, 0, len(raw))
	for _, entry := range raw {
		cd, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, classFromDoc(cd))
	}
	return out, true
}

func classFromDoc(doc map[string]any) Class {
	c := Class{
		Name:        str(doc, "name"),
		Description: str(doc, "description"),
		ColorHint:   str(doc, "color_hint"),
	}
	switch v := doc["value"].(type) {
	case float64:
		c.Value = int(v)
	case int:
		c.Value = v
	}
	c.NoData, _ = doc["nodata"].(bool)
	return c
}

func classesDoc(classes []Class) []any {
	out := make([]any, 0, len(classes))
	for _, c := range classes {
		d := map[string]any{"value": c.Value, "name": c.Name}
		if c.Description != "" {
			d["description"] = c.Description
		}
		if c.ColorHint != "" {
			d["color_hint"] = c.ColorHint
		}
		if c.NoData {
			d["nodata"] = true
		}
		out = append(out, d)
	}
	return out
}

func bitfieldsFrom(m map[string]any) ([]Bitfield, bool) {
	raw, ok := m[bitfieldsField].([]any)
	if !ok {
		return nil, false
	}
	out := make([]Bitfield, 0, len(raw))
	for _, entry := range raw {
		bd, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		b := Bitfield{
			Name:        str(bd, "name"),
			Description: str(bd, "description"),
			Offset:      intField(bd, "offset"),
			Length:      intField(bd, "length"),
		}
		b.Classes, _ = classesFrom(bd)
		out = append(out, b)
	}
	return out, true
}

func bitfieldsDoc(fields []Bitfield) []any {
	out := make([]any, 0, len(fields))
	for _, b := range fields {
		d := map[string]any{
			"offset":     b.Offset,
			"length":     b.Length,
			classesField: classesDoc(b.Classes),
		}
		if b.Name != "" {
			d["name"] = b.Name
		}
		if b.Description != "" {
			d["description"] = b.Description
		}
		out = append(out, d)
	}
	return out
}

// validateDoc checks every place classes can appear: item properties,
// assets, and raster bands nested in assets.
func validateDoc(doc map[string]any) error {
	var result *multierror.Error
	if props, ok := doc["properties"].(map[string]any); ok {
		checkCarrier(props, "properties", &result)
	}
	assets, ok := doc["assets"].(map[string]any)
	if !ok {
		return result.ErrorOrNil()
	}
	for _, key := range slices.Sorted(maps.Keys(assets)) {
		a, ok := assets[key].(map[string]any)
		if !ok {
			continue
		}
		checkCarrier(a, "assets."+key, &result)
		if bands, ok := a["raster:bands"].([]any); ok {
			for i, raw := range bands {
				band, ok := raw.(map[string]any)
				if !ok {
					continue
				}
				checkCarrier(band, fmt.Sprintf("assets.%s.raster:bands[%d]", key, i), &result)
			}
		}
	}
	return result.ErrorOrNil()
}

func checkCarrier(m map[string]any, path string, result **multierror.Error) {
	add := func(format string, args ...any) {
		*result = multierror.Append(*result, fmt.Errorf(format, args...))
	}
	if raw, present := m[classesField]; present {
		classes, ok := raw.([]any)
		if !ok {
			add("%s.%s: not an array", path, classesField)
		} else {
			checkClasses(classes, fmt.Sprintf("%s.%s", path, classesField), add)
		}
	}
	if raw, present := m[bitfieldsField]; present {
		fields, ok := raw.([]any)
		if !ok {
			add("%s.%s: not an array", path, bitfieldsField)
			return
		}
		for i, entry := range fields {
			fieldPath := fmt.Sprintf("%s.%s[%d]", path, bitfieldsField, i)
			bd, ok := entry.(map[string]any)
			if !ok {
				add("%s: not an object", fieldPath)
				continue
			}
			if intField(bd, "offset") < 0 {
				add("%s.offset: negative", fieldPath)
			}
			if length, present := bd["length"]; !present {
				add("%s.length: missing", fieldPath)
			} else if intFromAny(length) < 1 {
				add("%s.length: must be at least 1", fieldPath)
			}
			classes, ok := bd[classesField].([]any)
			if !ok || len(classes) == 0 {
				add("%s.%s: missing or empty", fieldPath, classesField)
				continue
			}
			checkClasses(classes, fieldPath+"."+classesField, add)
		}
	}
}

func checkClasses(classes []any, path string, add func(string, ...any)) {
	for i, entry := range classes {
		classPath := fmt.Sprintf("%s[%d]", path, i)
		cd, ok := entry.(map[string]any)
		if !ok {
			add("%s: not an object", classPath)
			continue
		}
		if str(cd, "name") == "" {
			add("%s.name: missing or empty", classPath)
		}
		if _, present := cd["value"]; !present {
			add("%s.value: missing", classPath)
		} else if !isNumber(cd["value"]) {
			add("%s.value: not a number", classPath)
		}
		if hint := str(cd, "color_hint"); hint != "" && !validColorHint(hint) {
			add("%s.color_hint: %q is not a six-digit hex color", classPath, hint)
		}
	}
}

// validColorHint accepts RRGGBB without a leading "#".
func validColorHint(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func intField(m map[string]any, key string) int {
	return intFromAny(m[key])
}

func intFromAny(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, int:
		return true
	}
	return false
}
