package stac

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stacsmith/stacsmith/pkg/href"
	"github.com/stacsmith/stacsmith/pkg/storage"
)

// Open reads the STAC object at hrefStr using the default store, which
// dispatches between the local filesystem and HTTP by scheme. The store is
// installed as the tree's reader and writer, so links resolve and Save
// works without further wiring.
func Open(ctx context.Context, hrefStr string) (Object, error) {
	return Load(ctx, hrefStr, storage.Default())
}

// OpenContainer is Open restricted to catalogs and collections. Items fail
// with [ErrWrongObjectType].
func OpenContainer(ctx context.Context, hrefStr string) (Container, error) {
	obj, err := Open(ctx, hrefStr)
	if err != nil {
		return nil, err
	}
	c, ok := AsContainer(obj)
	if !ok {
		return nil, fmt.Errorf("open %s: %w: %s", hrefStr, ErrWrongObjectType, obj.Kind())
	}
	return c, nil
}

// Load reads the STAC object at hrefStr through an explicit reader, which
// becomes the tree's reader. If the reader also writes (a storage.Store),
// it is installed as the writer too. A relative hrefStr is resolved
// against the working directory.
//
// A root catalog document's root link points at itself; Load recognizes
// that and self-roots the object so the tree shares one resolution cache.
func Load(ctx context.Context, hrefStr string, r storage.Reader) (Object, error) {
	if r == nil {
		return nil, fmt.Errorf("load %s: %w", hrefStr, ErrNoReader)
	}
	abs := hrefStr
	if !href.IsAbsolute(abs) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", hrefStr, err)
		}
		abs = href.MakeAbsolute(abs, filepath.ToSlash(wd), true)
	}
	data, err := r.Get(ctx, abs)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", abs, err)
	}
	obj, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", abs, err)
	}
	obj.SetSelfHref(abs)
	obj.SetReader(r)
	if w, ok := r.(storage.Writer); ok {
		obj.SetWriter(w)
	}
	if rl := obj.FindLink(RelRoot); rl != nil && !rl.IsResolved() {
		if c, ok := AsContainer(obj); ok && href.Clean(rl.AbsoluteHref()) == href.Clean(abs) {
			c.SetRoot(c)
		}
	}
	return obj, nil
}
