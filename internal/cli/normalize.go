package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stacsmith/stacsmith/pkg/layout"
	"github.com/stacsmith/stacsmith/pkg/stac"
)

// normalizeCommand creates the normalize command.
func (c *CLI) normalizeCommand() *cobra.Command {
	var (
		rootHref       string
		template       string
		skipUnresolved bool
		save           bool
		noCache        bool
	)

	cmd := &cobra.Command{
		Use:   "normalize <href>",
		Short: "Assign canonical hrefs to every object in a tree",
		Long: `Assign canonical hrefs to every object in a tree.

Loads the catalog or collection at <href> and lays its subtree out under
--root following best practices: one directory per container holding
catalog.json or collection.json, one directory per item. With --template,
item locations are derived from metadata instead, e.g.
"${collection}/${year}/${id}.json".

Normalization only rewrites hrefs in memory; pass --save to write the
documents to their new locations.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runNormalize(cmd.Context(), args[0], rootHref, template, skipUnresolved, save, noCache)
		},
	}

	cmd.Flags().StringVar(&rootHref, "root", "", "new root directory or URL for the tree (required)")
	cmd.Flags().StringVar(&template, "template", "", "metadata template for item hrefs")
	cmd.Flags().BoolVar(&skipUnresolved, "skip-unresolved", false, "leave unresolved links untouched instead of fetching")
	cmd.Flags().BoolVar(&save, "save", false, "write the documents to their new locations")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	_ = cmd.MarkFlagRequired("root")

	return cmd
}

// runNormalize loads the tree, rewires its hrefs and optionally saves it.
func (c *CLI) runNormalize(ctx context.Context, hrefStr, rootHref, template string, skipUnresolved, save, noCache bool) error {
	reader, store, closer, err := c.newReader(ctx, noCache)
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
		return fmt.Errorf("normalize %s: %w: %s", hrefStr, stac.ErrWrongObjectType, obj.Kind())
	}

	opts := stac.NormalizeOptions{SkipUnresolved: skipUnresolved}
	if template != "" {
		opts.Strategy = layout.Templated{Item: layout.NewTemplate(template, nil)}
	}

	prog := newProgress(c.Logger)
	if err := container.NormalizeHrefs(ctx, rootHref, opts); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Normalized tree under %s", rootHref))

	if !save {
		printSuccess("Normalized %s under %s", container.ID(), rootHref)
		printDetail("rerun with --save to write the documents")
		return nil
	}

	res, err := container.Save(ctx, stac.SaveOptions{Writer: store})
	if err != nil {
		return err
	}
	printSuccess("Saved %d documents under %s", res.Saved, rootHref)
	if res.SkippedUnresolved > 0 {
		printWarning("%d unresolved links left pointing at their old locations", res.SkippedUnresolved)
	}
	return nil
}
