package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stacsmith/stacsmith/pkg/stac"
)

// describeCommand creates the describe command.
func (c *CLI) describeCommand() *cobra.Command {
	var (
		depth   int
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "describe <href>",
		Short: "Summarize a STAC object and its tree",
		Long: `Summarize a STAC object and its tree.

Loads the catalog, collection or item at <href> (a file path or URL),
prints its metadata, and for containers renders the tree beneath it.
Children and items are fetched lazily, so the depth flag bounds how much
of a remote catalog is downloaded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDescribe(cmd.Context(), args[0], depth, noCache)
		},
	}

	cmd.Flags().IntVar(&depth, "depth", 2, "tree levels to fetch and print, 0 for unlimited")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runDescribe loads the object and prints its summary.
func (c *CLI) runDescribe(ctx context.Context, hrefStr string, depth int, noCache bool) error {
	reader, _, closer, err := c.newReader(ctx, noCache)
	if err != nil {
		return err
	}
	defer closer()

	obj, err := stac.Load(ctx, hrefStr, reader)
	if err != nil {
		return err
	}

	printKeyValue("Kind", kindWord(obj.Kind()))
	printKeyValue("ID", obj.ID())
	if t := objectTitle(obj); t != "" {
		printKeyValue("Title", t)
	}
	printKeyValue("Version", obj.StacVersion())
	if exts := obj.Extensions(); len(exts) > 0 {
		printKeyValue("Extensions", strings.Join(exts, ", "))
	}

	switch o := obj.(type) {
	case *stac.Item:
		describeItem(o)
		return nil
	case *stac.Collection:
		printKeyValue("License", o.License)
		describeExtent(o.Extent)
	case *stac.Catalog:
		printKeyValue("Type", string(o.CatalogType))
	}

	container, ok := stac.AsContainer(obj)
	if !ok {
		return nil
	}
	printNewline()
	fmt.Println(StyleTitle.Render(container.ID()))
	return printTree(ctx, container, "", depth)
}

// describeItem prints item-specific metadata: datetime and assets.
func describeItem(it *stac.Item) {
	if t, ok := it.Datetime(); ok {
		printKeyValue("Datetime", t.Format(time.RFC3339))
	} else if start, ok := it.StartDatetime(); ok {
		end, _ := it.EndDatetime()
		printKeyValue("Range", start.Format(time.RFC3339)+" / "+end.Format(time.RFC3339))
	}
	if it.CollectionID != "" {
		printKeyValue("Collection", it.CollectionID)
	}
	if len(it.BBox) > 0 {
		parts := make([]string, len(it.BBox))
		for i, v := range it.BBox {
			parts[i] = strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", v), "0"), ".")
		}
		printKeyValue("BBox", "["+strings.Join(parts, ", ")+"]")
	}
	if len(it.Assets) == 0 {
		return
	}
	printNewline()
	fmt.Println(StyleTitle.Render("Assets"))
	keys := make([]string, 0, len(it.Assets))
	for k := range it.Assets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		a := it.Assets[k]
		line := StyleHighlight.Render(k)
		if a.MediaType != "" {
			line += StyleDim.Render(" (" + a.MediaType + ")")
		}
		fmt.Println("  " + line)
		if a.Href != "" {
			fmt.Println("    " + StyleLink.Render(a.Href))
		}
	}
}

// describeExtent prints a collection's spatial and temporal extent.
func describeExtent(ext stac.Extent) {
	if len(ext.Spatial.BBoxes) > 0 {
		bbox := ext.Spatial.BBoxes[0]
		parts := make([]string, len(bbox))
		for i, v := range bbox {
			parts[i] = strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", v), "0"), ".")
		}
		printKeyValue("BBox", "["+strings.Join(parts, ", ")+"]")
	}
	if len(ext.Temporal.Intervals) > 0 {
		iv := ext.Temporal.Intervals[0]
		start, end := "..", ".."
		if iv[0] != nil {
			start = iv[0].Format(time.RFC3339)
		}
		if iv[1] != nil {
			end = iv[1].Format(time.RFC3339)
		}
		printKeyValue("Interval", start+" / "+end)
	}
}

// printTree renders the hierarchy below cur with box-drawing connectors,
// fetching at most depth levels. depth 0 means unlimited.
func printTree(ctx context.Context, cur stac.Container, prefix string, depth int) error {
	if depth < 0 {
		return nil
	}
	next := depth - 1
	if depth == 0 {
		next = 0
	}

	children, err := cur.Children(ctx)
	if err != nil {
		return err
	}
	items, err := cur.Items(ctx)
	if err != nil {
		return err
	}

	total := len(children) + len(items)
	for i, child := range children {
		last := i == total-1
		fmt.Println(prefix + connector(last) + StyleHighlight.Render(child.ID()) + StyleDim.Render(" "+kindWord(child.Kind())))
		if depth != 1 {
			if err := printTree(ctx, child, prefix+indent(last), next); err != nil {
				return err
			}
		}
	}
	for j, it := range items {
		last := len(children)+j == total-1
		fmt.Println(prefix + connector(last) + StyleValue.Render(it.ID()) + StyleDim.Render(" item"))
	}
	return nil
}

func connector(last bool) string {
	if last {
		return StyleDim.Render("└── ")
	}
	return StyleDim.Render("├── ")
}

func indent(last bool) string {
	if last {
		return "    "
	}
	return StyleDim.Render("│") + "   "
}

// kindWord renders a Kind for display; items serialize as "Feature" but
// read better as "item".
func kindWord(k stac.Kind) string {
	if k == stac.KindItem {
		return "item"
	}
	return strings.ToLower(string(k))
}

// objectTitle returns the object's title, if any.
func objectTitle(obj stac.Object) string {
	switch o := obj.(type) {
	case *stac.Catalog:
		return o.Title
	case *stac.Collection:
		return o.Title
	case *stac.Item:
		if t, ok := o.Properties["title"].(string); ok {
			return t
		}
	}
	return ""
}
