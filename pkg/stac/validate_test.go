package stac

import (
	"context"
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
)

var (
	errCoreBad = errors.New("core violation")
	errExtBad  = errors.New("extension violation")
)

// fakeValidator records which documents it saw and fails on request, keyed
// by object id for core checks and by schema URI for extension checks.
type fakeValidator struct {
	coreSeen []string
	extSeen  []string
	failCore map[string]error
	failExt  map[string]error
}

func (f *fakeValidator) ValidateCore(ctx context.Context, kind Kind, version string, doc map[string]any) error {
	id, _ := doc["id"].(string)
	f.coreSeen = append(f.coreSeen, id)
	return f.failCore[id]
}

func (f *fakeValidator) ValidateExtension(ctx context.Context, uri string, doc map[string]any) error {
	f.extSeen = append(f.extSeen, uri)
	return f.failExt[uri]
}

func TestValidate(t *testing.T) {
	ctx := context.Background()
	extURI := "https://example.com/ext/v1.0.0/schema.json"

	t.Run("Passes", func(t *testing.T) {
		c := NewCatalog("ok", "a valid catalog")
		c.SetSelfHref("/data/catalog.json")
		c.AddExtension(extURI)
		v := &fakeValidator{}
		if err := c.Validate(ctx, v); err != nil {
			t.Fatal(err)
		}
		if len(v.coreSeen) != 1 || v.coreSeen[0] != "ok" {
			t.Errorf("core checks = %v", v.coreSeen)
		}
		if len(v.extSeen) != 1 || v.extSeen[0] != extURI {
			t.Errorf("extension checks = %v", v.extSeen)
		}
	})

	t.Run("AggregatesFailures", func(t *testing.T) {
		c := NewCatalog("bad", "an invalid catalog")
		c.SetSelfHref("/data/catalog.json")
		c.AddExtension(extURI)
		v := &fakeValidator{
			failCore: map[string]error{"bad": errCoreBad},
			failExt:  map[string]error{extURI: errExtBad},
		}
		err := c.Validate(ctx, v)
		if err == nil {
			t.Fatal("expected validation failure")
		}
		if !errors.Is(err, errCoreBad) || !errors.Is(err, errExtBad) {
			t.Errorf("err = %v, want both failures", err)
		}
		var merr *multierror.Error
		if !errors.As(err, &merr) || len(merr.Errors) != 2 {
			t.Errorf("err = %v, want 2 aggregated failures", err)
		}
	})

	t.Run("RenderFailurePropagates", func(t *testing.T) {
		c := NewCatalog("unplaced", "no self href")
		dangling, err := NewLink(RelChild, "./child/catalog.json")
		if err != nil {
			t.Fatal(err)
		}
		c.AddLink(dangling)
		v := &fakeValidator{}
		if err := c.Validate(ctx, v); err == nil {
			t.Fatal("unrenderable document should fail validation")
		}
		if len(v.coreSeen) != 0 {
			t.Error("validator ran against an unrenderable document")
		}
	})
}

func TestValidateAll(t *testing.T) {
	ctx := context.Background()
	root, child, _ := normalizedTestTree(t)

	// An unresolved link must be skipped, not fetched.
	dangling, err := NewLink(RelChild, "./elsewhere/catalog.json")
	if err != nil {
		t.Fatal(err)
	}
	child.AddLink(dangling)
	reader := &countingReader{inner: storageWith(t, nil)}
	root.SetReader(reader)

	t.Run("ResolvedOnly", func(t *testing.T) {
		v := &fakeValidator{}
		if err := ValidateAll(ctx, v, root); err != nil {
			t.Fatal(err)
		}
		want := []string{"root", "child", "item1"}
		if len(v.coreSeen) != len(want) {
			t.Fatalf("core checks = %v, want %v", v.coreSeen, want)
		}
		for i, id := range want {
			if v.coreSeen[i] != id {
				t.Errorf("core check %d = %q, want %q", i, v.coreSeen[i], id)
			}
		}
		if reader.total() != 0 {
			t.Errorf("ValidateAll fetched %d documents, want none", reader.total())
		}
	})

	t.Run("AggregatesAcrossObjects", func(t *testing.T) {
		v := &fakeValidator{
			failCore: map[string]error{"child": errCoreBad, "item1": errExtBad},
		}
		err := ValidateAll(ctx, v, root)
		if err == nil {
			t.Fatal("expected validation failure")
		}
		if !errors.Is(err, errCoreBad) || !errors.Is(err, errExtBad) {
			t.Errorf("err = %v, want both objects' failures", err)
		}
		var merr *multierror.Error
		if !errors.As(err, &merr) || len(merr.Errors) != 2 {
			t.Errorf("err = %v, want 2 aggregated failures", err)
		}
	})
}
