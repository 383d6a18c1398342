// Package pkg provides the core libraries for Stacsmith STAC catalog tooling.
//
// # Overview
//
// Stacsmith reads, builds, reshapes and writes SpatioTemporal Asset Catalogs
// (STAC): trees of catalogs, collections and items joined by typed links.
// The pkg directory is organized into five main areas:
//
//  1. [stac] - The domain model (objects, links, lazy resolution, tree ops)
//  2. [storage] / [cache] - Document I/O backends and byte caching
//  3. [validate] / [extensions] - Structural validation and extension fields
//  4. [layout] / [href] - Href strategies and path arithmetic
//  5. [viz] - Graphviz rendering of catalog trees
//
// # Architecture
//
// The typical data flow through Stacsmith:
//
//	catalog.json (file / HTTP / MongoDB)
//	         ↓
//	    [storage] package (fetch bytes, optionally through [cache])
//	         ↓
//	    [stac] package (decode, resolve links lazily, walk and reshape)
//	         ↓
//	    [layout] package (assign canonical hrefs)
//	         ↓
//	    [stac] save (render documents, write via [storage])
//
// # Quick Start
//
// Open a catalog, reorganize its items by year and save the result:
//
//	import (
//	    "context"
//	    "github.com/stacsmith/stacsmith/pkg/stac"
//	)
//
//	// 1. Open the root (scheme dispatch picks file or HTTP)
//	obj, _ := stac.Open(context.Background(), "https://example.com/catalog.json")
//	cat, _ := stac.AsContainer(obj)
//
//	// 2. Reorganize items into year subcatalogs
//	cat.GenerateSubcatalogs(ctx, "${year}", stac.SubcatalogOptions{})
//
//	// 3. Lay the tree out under a new root
//	cat.NormalizeHrefs(ctx, "/data/copy", stac.NormalizeOptions{})
//
//	// 4. Write every document
//	cat.Save(ctx, stac.SaveOptions{CatalogType: stac.CatalogTypeSelfContained})
//
// # Main Packages
//
// [stac] - Catalogs, collections and items with their links. Links resolve
// lazily and memoize through a per-tree resolution cache, so shared targets
// decode once. Tree operations: walk, find, add/remove, full copy, item and
// asset mapping, href normalization, subcatalog generation, save.
//
// [storage] - Reader/Writer/Store interfaces with a filesystem store, an
// HTTP reader (retries, custom headers) and scheme dispatch between them.
// [storage/mongostore] keeps whole documents in MongoDB keyed by href.
// CachingReader layers a [cache.Cache] over any reader.
//
// [cache] - Byte caches: file tree, embedded Badger, Redis, null. All
// implement one interface, so the CLI swaps backends by configuration.
//
// [validate] - Structural validation of rendered documents: required
// members per kind, link shape, item datetime rules, collection extents.
// Failures are [validate.Violation] values with machine-readable codes,
// aggregated, never short-circuited.
//
// [extensions] - Registry mapping extension schema URIs to typed field
// accessors and validation hooks. [extensions/classification],
// [extensions/raster] and [extensions/mlm] cover the built-in extensions;
// [extensions/builtins] registers them all.
//
// [layout] - Href strategies: STAC best-practices layout, metadata
// templates ("${collection}/${year}/${id}.json"), custom functions.
//
// [href] - Path arithmetic shared by everything above: join, relativize,
// absolutize, clean, for both URLs and file paths.
//
// [viz] - DOT and SVG rendering of catalog trees via Graphviz.
//
// [buildinfo] - Version and user-agent strings stamped at build time.
//
// # Common Workflows
//
// Validate a tree against core rules and built-in extensions:
//
//	v := &validate.Structural{}
//	err := stac.ValidateAll(ctx, v, cat)
//	for _, viol := range validate.Violations(err) {
//	    fmt.Println(viol.Code, viol.Field, viol.Message)
//	}
//
// Read raster bands from an item's asset:
//
//	asset, _ := item.Asset("data")
//	bands, _ := raster.Bands(asset)
//	fmt.Println(bands[0].DataType, *bands[0].Nodata)
//
// Walk a remote catalog without fetching more than one level at a time:
//
//	for entry, err := range cat.Walk(ctx) {
//	    if err != nil {
//	        break
//	    }
//	    fmt.Println(entry.Container.ID(), len(entry.Items))
//	}
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                  # All tests
//	go test ./pkg/stac/...             # Specific package
//	STACSMITH_REDIS_ADDR=... go test ./pkg/cache/   # Include Redis-backed tests
//	STACSMITH_MONGO_URI=... go test ./pkg/storage/mongostore/
//
// [stac]: https://pkg.go.dev/github.com/stacsmith/stacsmith/pkg/stac
// [storage]: https://pkg.go.dev/github.com/stacsmith/stacsmith/pkg/storage
// [storage/mongostore]: https://pkg.go.dev/github.com/stacsmith/stacsmith/pkg/storage/mongostore
// [cache]: https://pkg.go.dev/github.com/stacsmith/stacsmith/pkg/cache
// [validate]: https://pkg.go.dev/github.com/stacsmith/stacsmith/pkg/validate
// [extensions]: https://pkg.go.dev/github.com/stacsmith/stacsmith/pkg/extensions
// [extensions/classification]: https://pkg.go.dev/github.com/stacsmith/stacsmith/pkg/extensions/classification
// [extensions/raster]: https://pkg.go.dev/github.com/stacsmith/stacsmith/pkg/extensions/raster
// [extensions/mlm]: https://pkg.go.dev/github.com/stacsmith/stacsmith/pkg/extensions/mlm
// [extensions/builtins]: https://pkg.go.dev/github.com/stacsmith/stacsmith/pkg/extensions/builtins
// [layout]: https://pkg.go.dev/github.com/stacsmith/stacsmith/pkg/layout
// [href]: https://pkg.go.dev/github.com/stacsmith/stacsmith/pkg/href
// [viz]: https://pkg.go.dev/github.com/stacsmith/stacsmith/pkg/viz
// [buildinfo]: https://pkg.go.dev/github.com/stacsmith/stacsmith/pkg/buildinfo
package pkg
