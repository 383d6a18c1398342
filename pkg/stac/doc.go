// Package stac models SpatioTemporal Asset Catalog trees: catalogs,
// collections and items connected by typed links, with lazy resolution of
// linked documents from local or remote storage.
//
// # Objects and links
//
// The three object types share the [Object] interface; [Catalog] and
// [Collection] additionally satisfy [Container]. Objects reference each
// other through [Link] values. A link starts out as either an href
// ([NewLink]) or an in-memory target ([NewLinkTo]); calling [Link.Target]
// fetches and decodes the document behind an href exactly once, after
// which the link behaves like an in-memory one. Each tree deduplicates
// resolutions through a [ResolvedObjectCache] owned by its root, so two
// links to the same href yield the same instance.
//
// # Building and persisting trees
//
// Trees are assembled with [Container.AddChild] and [Container.AddItem],
// given canonical locations with [Container.NormalizeHrefs], and persisted
// with [Container.Save]. The [CatalogType] chooses between the standard
// publication flavors: fully absolute links, relative links with a pinned
// root, or fully relocatable self-contained trees.
//
// Reading starts from [Open] or [Load]; from there the tree is explored
// lazily with [Container.Walk], [Container.Children] and
// [Container.Items], touching storage only for the documents actually
// visited.
//
// # Fidelity
//
// Unrecognized fields survive a decode/encode round trip at every level
// (objects, links, assets, extents), so rewriting a catalog produced by
// another tool preserves whatever that tool wrote. Extension packages
// under pkg/extensions build on the same mechanism.
package stac
