// Package viz renders catalog trees as node-link diagrams.
//
// # Overview
//
// This package produces directed graph visualizations of STAC trees using
// Graphviz: containers appear as boxes, items as ellipses, and every child
// and item link becomes an edge.
//
// # Usage
//
// Convert a tree to DOT format, then render to SVG:
//
//	dot, err := viz.ToDOT(ctx, catalog, viz.Options{})
//	svg, err := viz.RenderSVG(ctx, dot)
//
// For PDF or PNG output, convert the SVG:
//
//	pdf, err := viz.ToPDF(ctx, svg)
//	png, err := viz.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// [ToDOT] resolves links while it walks, so rendering a lazily loaded tree
// fetches every level. The generated DOT can also be saved and processed
// with external Graphviz tools.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package viz
