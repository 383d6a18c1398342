package viz

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/stacsmith/stacsmith/pkg/stac"
)

// Options configures tree diagram rendering.
type Options struct {
	// Detailed includes the object kind and title in node labels.
	// When false, only the object ID is shown.
	Detailed bool
}

// ToDOT converts the tree rooted at root to Graphviz DOT format. Containers
// are rendered as boxes (collections filled grey), items as ellipses, with
// one edge per child and item link. The resulting DOT string can be
// rendered using [RenderSVG].
//
// The walk resolves links as it descends; the first resolution failure or
// cycle aborts the conversion.
func ToDOT(ctx context.Context, root stac.Container, opts Options) (string, error) {
	var nodes, edges []string
	for entry, err := range root.Walk(ctx) {
		if err != nil {
			return "", err
		}
		c := entry.Container
		nodes = append(nodes, nodeLine(c, opts))
		for _, child := range entry.Children {
			edges = append(edges, edgeLine(c, child))
		}
		for _, it := range entry.Items {
			nodes = append(nodes, nodeLine(it, opts))
			edges = append(edges, edgeLine(c, it))
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph stac {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")
	for _, n := range nodes {
		buf.WriteString(n)
	}
	buf.WriteString("\n")
	for _, e := range edges {
		buf.WriteString(e)
	}
	buf.WriteString("}\n")
	return buf.String(), nil
}

func nodeLine(obj stac.Object, opts Options) string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(obj, opts.Detailed))}
	switch obj.Kind() {
	case stac.KindItem:
		attrs = append(attrs, "shape=ellipse")
	case stac.KindCollection:
		attrs = append(attrs, "fillcolor=lightgrey")
	}
	return fmt.Sprintf("  %q [%s];\n", obj.ID(), strings.Join(attrs, ", "))
}

func edgeLine(from, to stac.Object) string {
	return fmt.Sprintf("  %q -> %q;\n", from.ID(), to.ID())
}

func fmtLabel(obj stac.Object, detailed bool) string {
	if !detailed {
		return obj.ID()
	}

	parts := []string{string(obj.Kind())}
	if t := title(obj); t != "" {
		parts = append(parts, t)
	}
	return obj.ID() + "\n" + strings.Join(parts, "\n")
}

func title(obj stac.Object) string {
	switch o := obj.(type) {
	case *stac.Catalog:
		return o.Title
	case *stac.Collection:
		return o.Title
	case *stac.Item:
		t, _ := o.Properties["title"].(string)
		return t
	}
	return ""
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with
// [ToPDF] or [ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
