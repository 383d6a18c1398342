package raster

import (
	"strings"
	"testing"
	"time"

	"github.com/stacsmith/stacsmith/pkg/stac"
)

func fp(v float64) *float64 { return &v }

func TestApplyHas(t *testing.T) {
	it := stac.NewItem("i1", time.Date(2021, 6, 15, 12, 0, 0, 0, time.UTC))
	if Has(it) {
		t.Fatal("fresh item claims the extension")
	}
	Apply(it)
	if !Has(it) {
		t.Error("Apply did not declare the extension")
	}
}

func TestBandsRoundTrip(t *testing.T) {
	full := Band{
		Nodata:   fp(0),
		Sampling: SamplingArea,
		DataType: "uint16",
		Unit:     "W/m2",
		Scale:    fp(0.0001),
		Offset:   fp(-0.1),
		Statistics: &Statistics{
			Minimum:      fp(1),
			Maximum:      fp(10000),
			Mean:         fp(1342.5),
			ValidPercent: fp(98.4),
		},
	}
	minimal := Band{DataType: "float32"}

	a := &stac.Asset{Href: "./data.tif"}
	if _, ok := Bands(a); ok {
		t.Fatal("fresh asset reports bands")
	}
	SetBands(a, []Band{full, minimal})

	got, ok := Bands(a)
	if !ok {
		t.Fatal("bands not found after SetBands")
	}
	if len(got) != 2 {
		t.Fatalf("got %d bands, want 2", len(got))
	}

	b := got[0]
	if b.Nodata == nil || *b.Nodata != 0 {
		t.Errorf("Nodata = %v", b.Nodata)
	}
	if b.Sampling != SamplingArea || b.DataType != "uint16" || b.Unit != "W/m2" {
		t.Errorf("band = %+v", b)
	}
	if b.Scale == nil || *b.Scale != 0.0001 || b.Offset == nil || *b.Offset != -0.1 {
		t.Errorf("scale/offset = %v/%v", b.Scale, b.Offset)
	}
	s := b.Statistics
	if s == nil {
		t.Fatal("statistics lost in round trip")
	}
	if *s.Minimum != 1 || *s.Maximum != 10000 || *s.Mean != 1342.5 || *s.ValidPercent != 98.4 {
		t.Errorf("statistics = %+v", s)
	}
	if s.Stddev != nil {
		t.Errorf("Stddev = %v, want nil", s.Stddev)
	}

	m := got[1]
	if m.DataType != "float32" || m.Nodata != nil || m.Statistics != nil || m.Sampling != "" {
		t.Errorf("minimal band = %+v", m)
	}
}

func TestBandDocumentOmitsEmpty(t *testing.T) {
	if d := (Band{}).document(); len(d) != 0 {
		t.Errorf("zero band document = %v, want empty", d)
	}
	d := Band{Nodata: fp(0), Sampling: SamplingPoint}.document()
	if d["nodata"] != 0.0 {
		t.Errorf("nodata = %v", d["nodata"])
	}
	if d["sampling"] != "point" {
		t.Errorf("sampling = %v", d["sampling"])
	}
	if _, present := d["data_type"]; present {
		t.Error("empty data_type serialized")
	}
}

func TestValidateDoc(t *testing.T) {
	valid := func() map[string]any {
		return map[string]any{
			"assets": map[string]any{
				"data": map[string]any{
					bandsField: []any{
						map[string]any{
							"nodata":     0.0,
							"sampling":   "area",
							"data_type":  "uint16",
							"statistics": map[string]any{"minimum": 1.0, "maximum": 255.0},
						},
					},
				},
			},
		}
	}

	if err := validateDoc(valid()); err != nil {
		t.Fatalf("valid document rejected: %v", err)
	}
	if err := validateDoc(map[string]any{"id": "no assets"}); err != nil {
		t.Fatalf("document without assets rejected: %v", err)
	}

	band := func(d map[string]any) map[string]any {
		return d["assets"].(map[string]any)["data"].(map[string]any)[bandsField].([]any)[0].(map[string]any)
	}

	tests := []struct {
		name     string
		mutate   func(doc map[string]any)
		wantPath string
	}{
		{
			name: "BandsNotArray",
			mutate: func(d map[string]any) {
				d["assets"].(map[string]any)["data"].(map[string]any)[bandsField] = "nope"
			},
			wantPath: "assets.data.raster:bands: not an array",
		},
		{
			name: "BandNotObject",
			mutate: func(d map[string]any) {
				d["assets"].(map[string]any)["data"].(map[string]any)[bandsField] = []any{"nope"}
			},
			wantPath: "assets.data.raster:bands[0]: not an object",
		},
		{
			name:     "BadSampling",
			mutate:   func(d map[string]any) { band(d)["sampling"] = "center" },
			wantPath: "assets.data.raster:bands[0].sampling",
		},
		{
			name:     "UnknownDataType",
			mutate:   func(d map[string]any) { band(d)["data_type"] = "uint128" },
			wantPath: "assets.data.raster:bands[0].data_type",
		},
		{
			name:     "NodataNotNumber",
			mutate:   func(d map[string]any) { band(d)["nodata"] = "none" },
			wantPath: "assets.data.raster:bands[0].nodata",
		},
		{
			name:     "StatisticsNotObject",
			mutate:   func(d map[string]any) { band(d)["statistics"] = []any{} },
			wantPath: "assets.data.raster:bands[0].statistics",
		},
		{
			name: "StatisticsFieldNotNumber",
			mutate: func(d map[string]any) {
				band(d)["statistics"] = map[string]any{"mean": "high"}
			},
			wantPath: "assets.data.raster:bands[0].statistics.mean",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := valid()
			tt.mutate(doc)
			err := validateDoc(doc)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantPath) {
				t.Errorf("err = %v, want mention of %s", err, tt.wantPath)
			}
		})
	}
}
