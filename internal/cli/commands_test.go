package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stacsmith/stacsmith/pkg/stac"
	"github.com/stacsmith/stacsmith/pkg/storage"
)

// makeCatalogDir writes a small valid tree to a temp dir and returns the
// root catalog href: a catalog, one collection and two 2021 items.
func makeCatalogDir(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	root := stac.NewCatalog("root", "Test catalog")
	col := stac.NewCollection("plots", "Plot scenes", stac.Extent{
		Spatial:  stac.SpatialExtent{BBoxes: [][]float64{{-180, -90, 180, 90}}},
		Temporal: stac.TemporalExtent{Intervals: [][2]*time.Time{{nil, nil}}},
	})
	if _, err := root.AddChild(col); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"scene-a", "scene-b"} {
		it := stac.NewItem(id, time.Date(2021, 3, 14, 12, 0, 0, 0, time.UTC))
		it.Geometry = map[string]any{"type": "Point", "coordinates": []any{12.5, 41.9}}
		it.BBox = []float64{12.5, 41.9, 12.5, 41.9}
		if _, err := col.AddItem(it); err != nil {
			t.Fatal(err)
		}
	}

	dir := t.TempDir()
	if err := root.NormalizeHrefs(ctx, dir, stac.NormalizeOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := root.Save(ctx, stac.SaveOptions{Writer: storage.NewFileStore()}); err != nil {
		t.Fatal(err)
	}
	return filepath.Join(dir, "catalog.json")
}

// runCommand executes the CLI with args against a hermetic environment.
func runCommand(t *testing.T, args ...string) error {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestDescribeCommand(t *testing.T) {
	path := makeCatalogDir(t)

	if err := runCommand(t, "describe", path, "--no-cache"); err != nil {
		t.Fatalf("describe: %v", err)
	}
}

func TestValidateCommand(t *testing.T) {
	t.Run("ValidTree", func(t *testing.T) {
		path := makeCatalogDir(t)

		if err := runCommand(t, "validate", path, "--recursive", "--no-cache"); err != nil {
			t.Fatalf("validate: %v", err)
		}
	})

	t.Run("InvalidDocument", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.json")
		doc := `{"type": "Catalog", "id": "bad", "stac_version": "1.1.0", "links": []}`
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			t.Fatal(err)
		}

		err := runCommand(t, "validate", path, "--no-cache")
		if err == nil {
			t.Fatal("validate should fail on a catalog without description")
		}
		if !strings.Contains(err.Error(), "failed validation") {
			t.Errorf("error = %v, want validation failure", err)
		}
	})
}

func TestNormalizeCommand(t *testing.T) {
	path := makeCatalogDir(t)
	out := t.TempDir()

	if err := runCommand(t, "normalize", path, "--root", out, "--save", "--no-cache"); err != nil {
		t.Fatalf("normalize: %v", err)
	}

	for _, rel := range []string{
		"catalog.json",
		filepath.Join("plots", "collection.json"),
		filepath.Join("plots", "scene-a", "scene-a.json"),
	} {
		if _, err := os.Stat(filepath.Join(out, rel)); err != nil {
			t.Errorf("missing %s after normalize --save: %v", rel, err)
		}
	}
}

func TestCopyCommand(t *testing.T) {
	path := makeCatalogDir(t)
	dest := filepath.Join(t.TempDir(), "mirror")

	if err := runCommand(t, "copy", path, dest, "--catalog-type", "self-contained", "--no-cache"); err != nil {
		t.Fatalf("copy: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dest, "catalog.json"))
	if err != nil {
		t.Fatalf("copied root missing: %v", err)
	}
	// Self-contained trees carry no self links.
	if bytes.Contains(data, []byte(`"self"`)) {
		t.Error("self-contained copy should not write self links")
	}
	if _, err := os.Stat(filepath.Join(dest, "plots", "scene-b", "scene-b.json")); err != nil {
		t.Errorf("copied item missing: %v", err)
	}
}

func TestSubcatalogsCommand(t *testing.T) {
	path := makeCatalogDir(t)
	dir := filepath.Dir(path)

	if err := runCommand(t, "subcatalogs", path, "--template", "${year}", "--save", "--no-cache"); err != nil {
		t.Fatalf("subcatalogs: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "plots", "2021", "catalog.json")); err != nil {
		t.Errorf("missing year subcatalog: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "plots", "2021", "scene-a", "scene-a.json")); err != nil {
		t.Errorf("missing relocated item: %v", err)
	}
}

func TestVizCommand(t *testing.T) {
	path := makeCatalogDir(t)
	out := filepath.Join(t.TempDir(), "tree.dot")

	if err := runCommand(t, "viz", path, "-o", out, "--no-cache"); err != nil {
		t.Fatalf("viz: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	dot := string(data)
	if !strings.Contains(dot, "digraph") {
		t.Error("output is not a DOT graph")
	}
	for _, id := range []string{"root", "plots", "scene-a", "scene-b"} {
		if !strings.Contains(dot, `"`+id+`"`) {
			t.Errorf("DOT output missing node %q", id)
		}
	}
}

func TestVizCommandUnknownFormat(t *testing.T) {
	path := makeCatalogDir(t)

	err := runCommand(t, "viz", path, "-o", "tree.tiff", "--no-cache")
	if err == nil {
		t.Fatal("viz should reject unknown output formats")
	}
}

func TestCatalogTypeFromString(t *testing.T) {
	tests := []struct {
		in      string
		want    stac.CatalogType
		wantErr bool
	}{
		{in: "", want: ""},
		{in: "self-contained", want: stac.CatalogTypeSelfContained},
		{in: "SELF_CONTAINED", want: stac.CatalogTypeSelfContained},
		{in: "relative-published", want: stac.CatalogTypeRelativePublished},
		{in: "absolute-published", want: stac.CatalogTypeAbsolutePublished},
		{in: "published", wantErr: true},
	}
	for _, tt := range tests {
		got, err := catalogTypeFromString(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("catalogTypeFromString(%q) should fail", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("catalogTypeFromString(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("catalogTypeFromString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
