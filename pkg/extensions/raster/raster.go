// Package raster implements the STAC raster extension: per-band metadata
// ("raster:bands") on assets, covering nodata fill values, sampling,
// storage data type, value statistics and the scale/offset transform.
package raster

import (
	"fmt"
	"maps"
	"slices"

	"github.com/hashicorp/go-multierror"

	"github.com/stacsmith/stacsmith/pkg/extensions"
	"github.com/stacsmith/stacsmith/pkg/stac"
)

// SchemaURI is the versioned schema this package implements.
const SchemaURI = "https://stac-extensions.github.io/raster/v1.1.0/schema.json"

const bandsField = "raster:bands"

// Extension is the registry descriptor for this package.
var Extension = &extensions.Extension{
	Name:     "raster",
	URI:      SchemaURI,
	Kinds:    []stac.Kind{stac.KindItem, stac.KindCollection},
	Validate: validateDoc,
}

// Sampling tells whether a pixel value refers to the area it covers or to
// its center point.
type Sampling string

const (
	SamplingArea  Sampling = "area"
	SamplingPoint Sampling = "point"
)

// dataTypes are the storage types the extension enumerates.
var dataTypes = []string{
	"int8", "int16", "int32", "int64",
	"uint8", "uint16", "uint32", "uint64",
	"float16", "float32", "float64",
	"cint16", "cint32", "cfloat32", "cfloat64",
	"other",
}

// Statistics summarizes the distribution of a band's values. Nil fields
// were not computed.
type Statistics struct {
	Minimum      *float64
	Maximum      *float64
	Mean         *float64
	Stddev       *float64
	ValidPercent *float64
}

// Band is the raster metadata of one band of an asset.
type Band struct {
	// Nodata is the fill value, nil when the band has none.
	Nodata *float64
	// Sampling tells how pixel values relate to pixel footprints.
	Sampling Sampling
	// DataType is the storage type, e.g. "uint16".
	DataType string
	// Statistics summarizes the band's values, nil when not computed.
	Statistics *Statistics
	// Unit is the measurement unit of the values.
	Unit string
	// Scale and Offset transform stored values into measurements:
	// measurement = value*scale + offset. Nil means identity.
	Scale  *float64
	Offset *float64
}

// Apply declares the extension on obj.
func Apply(obj stac.Object) { obj.AddExtension(SchemaURI) }

// Has reports whether obj declares the extension.
func Has(obj stac.Object) bool { return obj.HasExtension(SchemaURI) }

// Bands reads the band list from an asset.
func Bands(a *stac.Asset) ([]Band, bool) {
	raw, ok := a.Extra[bandsField].([]any)
	if !ok {
		return nil, false
	}
	out := make([]Band, 0, len(raw))
	for _, entry := range raw {
		bd, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, bandFromDoc(bd))
	}
	return out, true
}

// SetBands writes the band list to an asset.
func SetBands(a *stac.Asset, bands []Band) {
	if a.Extra == nil {
		a.Extra = map[string]any{}
	}
	docs := make([]any, 0, len(bands))
	for _, b := range bands {
		docs = append(docs, b.document())
	}
	a.Extra[bandsField] = docs
}

func bandFromDoc(doc map[string]any) Band {
	b := Band{
		Sampling: Sampling(str(doc, "sampling")),
		DataType: str(doc, "data_type"),
		Unit:     str(doc, "unit"),
		Nodata:   num(doc, "nodata"),
		Scale:    num(doc, "scale"),
		Offset:   num(doc, "offset"),
	}
	if sd, ok := doc["statistics"].(map[string]any); ok {
		b.Statistics = &Statistics{
			Minimum:      num(sd, "minimum"),
			Maximum:      num(sd, "maximum"),
			Mean:         num(sd, "mean"),
			Stddev:       num(sd, "stddev"),
			ValidPercent: num(sd, "valid_percent"),
		}
	}
	return b
}

func (b Band) document() map[string]any {
	d := map[string]any{}
	if b.Nodata != nil {
		d["nodata"] = *b.Nodata
	}
	if b.Sampling != "" {
		d["sampling"] = string(b.Sampling)
	}
	if b.DataType != "" {
		d["data_type"] = b.DataType
	}
	if b.Unit != "" {
		d["unit"] = b.Unit
	}
	if b.Scale != nil {
		d["scale"] = *b.Scale
	}
	if b.Offset != nil {
		d["offset"] = *b.Offset
	}
	if s := b.Statistics; s != nil {
		sd := map[string]any{}
		for key, v := range map[string]*float64{
			"minimum": s.Minimum, "maximum": s.Maximum,
			"mean": s.Mean, "stddev": s.Stddev, "valid_percent": s.ValidPercent,
		} {
			if v != nil {
				sd[key] = *v
			}
		}
		d["statistics"] = sd
	}
	return d
}

func validateDoc(doc map[string]any) error {
	var result *multierror.Error
	add := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf(format, args...))
	}
	assets, ok := doc["assets"].(map[string]any)
	if !ok {
		return nil
	}
	for _, key := range slices.Sorted(maps.Keys(assets)) {
		a, ok := assets[key].(map[string]any)
		if !ok {
			continue
		}
		raw, present := a[bandsField]
		if !present {
			continue
		}
		bands, ok := raw.([]any)
		if !ok {
			add("assets.%s.%s: not an array", key, bandsField)
			continue
		}
		for i, entry := range bands {
			checkBand(entry, fmt.Sprintf("assets.%s.%s[%d]", key, bandsField, i), add)
		}
	}
	return result.ErrorOrNil()
}

func checkBand(entry any, path string, add func(string, ...any)) {
	bd, ok := entry.(map[string]any)
	if !ok {
		add("%s: not an object", path)
		return
	}
	if s := str(bd, "sampling"); s != "" && s != string(SamplingArea) && s != string(SamplingPoint) {
		add("%s.sampling: %q is not %q or %q", path, s, SamplingArea, SamplingPoint)
	}
	if dt := str(bd, "data_type"); dt != "" && !slices.Contains(dataTypes, dt) {
		add("%s.data_type: unknown type %q", path, dt)
	}
	for _, key := range []string{"nodata", "scale", "offset"} {
		if v, present := bd[key]; present && !isNumber(v) {
			add("%s.%s: not a number", path, key)
		}
	}
	if raw, present := bd["statistics"]; present {
		sd, ok := raw.(map[string]any)
		if !ok {
			add("%s.statistics: not an object", path)
			return
		}
		for _, key := range []string{"minimum", "maximum", "mean", "stddev", "valid_percent"} {
			if v, present := sd[key]; present && !isNumber(v) {
				add("%s.statistics.%s: not a number", path, key)
			}
		}
	}
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func num(m map[string]any, key string) *float64 {
	switch v := m[key].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	}
	return nil
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, int:
		return true
	}
	return false
}
