package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stacsmith/stacsmith/pkg/stac"
	"github.com/stacsmith/stacsmith/pkg/viz"
)

// vizCommand creates the viz command.
func (c *CLI) vizCommand() *cobra.Command {
	var (
		output   string
		detailed bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "viz <href>",
		Short: "Render a catalog tree as a diagram",
		Long: `Render a catalog tree as a diagram.

Walks the tree below <href> and renders it with Graphviz: catalogs and
collections as boxes, items as ellipses, one edge per child or item link.
The output format follows the file extension of --output (.dot, .svg,
.png or .pdf); without --output the DOT source goes to stdout.

PNG and PDF conversion shells out to rsvg-convert (librsvg).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runViz(cmd.Context(), args[0], output, detailed, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file; format from extension (.dot, .svg, .png, .pdf)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include kinds and titles in node labels")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runViz builds the DOT graph and writes the requested format.
func (c *CLI) runViz(ctx context.Context, hrefStr, output string, detailed, noCache bool) error {
	reader, _, closer, err := c.newReader(ctx, noCache)
	if err != nil {
		return err
	}
	defer closer()

	obj, err := stac.Load(ctx, hrefStr, reader)
	if err != nil {
		return err
	}
	container, ok := stac.AsContainer(obj)
	if !ok {
		return fmt.Errorf("viz %s: %w: %s", hrefStr, stac.ErrWrongObjectType, obj.Kind())
	}

	dot, err := viz.ToDOT(ctx, container, viz.Options{Detailed: detailed})
	if err != nil {
		return err
	}

	if output == "" {
		fmt.Print(dot)
		return nil
	}

	var data []byte
	switch ext := strings.ToLower(filepath.Ext(output)); ext {
	case ".dot":
		data = []byte(dot)
	case ".svg":
		data, err = viz.RenderSVG(ctx, dot)
	case ".png":
		var svg []byte
		if svg, err = viz.RenderSVG(ctx, dot); err == nil {
			data, err = viz.ToPNG(ctx, svg, 2.0)
		}
	case ".pdf":
		var svg []byte
		if svg, err = viz.RenderSVG(ctx, dot); err == nil {
			data, err = viz.ToPDF(ctx, svg)
		}
	default:
		return fmt.Errorf("unsupported output format %q", ext)
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	printSuccess("Rendered %s", container.ID())
	printFile(output)
	return nil
}
