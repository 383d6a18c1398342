package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stacsmith/stacsmith/pkg/href"
	"github.com/stacsmith/stacsmith/pkg/stac"
)

// subcatalogsCommand creates the subcatalogs command.
func (c *CLI) subcatalogsCommand() *cobra.Command {
	var (
		template string
		defaults map[string]string
		save     bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "subcatalogs <href>",
		Short: "Reorganize a tree's items into subcatalog chains",
		Long: `Reorganize a tree's items into subcatalog chains.

Moves every item below the catalog at <href> under a chain of subcatalogs
derived from --template, a slash-separated pattern of metadata variables
such as "${year}/${month}" or "${collection}/${platform}". Chains are
created on demand and shared between items; items already sitting under
their chain stay put, so rerunning the same template changes nothing.

Items missing a template variable fail the run unless --defaults supplies
a value, e.g. --defaults platform=unknown.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSubcatalogs(cmd.Context(), args[0], template, defaults, save, noCache)
		},
	}

	cmd.Flags().StringVar(&template, "template", "", "path template, e.g. \"${year}/${month}\" (required)")
	cmd.Flags().StringToStringVar(&defaults, "defaults", nil, "fallback values for missing variables (k=v)")
	cmd.Flags().BoolVar(&save, "save", false, "write the reorganized documents")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	_ = cmd.MarkFlagRequired("template")

	return cmd
}

// runSubcatalogs reorganizes items, re-normalizes the moved subtrees and
// optionally saves.
func (c *CLI) runSubcatalogs(ctx context.Context, hrefStr, template string, defaults map[string]string, save, noCache bool) error {
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
		return fmt.Errorf("subcatalogs %s: %w: %s", hrefStr, stac.ErrWrongObjectType, obj.Kind())
	}

	prog := newProgress(c.Logger)
	created, err := container.GenerateSubcatalogs(ctx, template, stac.SubcatalogOptions{Defaults: defaults})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Generated %d subcatalogs", len(created)))

	if len(created) == 0 {
		printSuccess("Nothing to do: every item already sits under its chain")
		return nil
	}

	// Moved objects keep their old hrefs until the tree is laid out again.
	rootDir := href.Parent(container.SelfHref())
	if err := container.NormalizeHrefs(ctx, rootDir, stac.NormalizeOptions{}); err != nil {
		return err
	}

	printSuccess("Created %d subcatalogs with %s", len(created), template)
	for _, sub := range created {
		printDetail("%s", sub.ID())
	}

	if !save {
		printDetail("rerun with --save to write the documents")
		return nil
	}
	res, err := container.Save(ctx, stac.SaveOptions{Writer: store})
	if err != nil {
		return err
	}
	printCounts(countPart{res.Saved, "documents written"}, countPart{res.SkippedUnresolved, "unresolved links skipped"})
	return nil
}
