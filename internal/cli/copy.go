package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stacsmith/stacsmith/pkg/stac"
)

// copyCommand creates the copy command.
func (c *CLI) copyCommand() *cobra.Command {
	var (
		catalogType string
		noCache     bool
	)

	cmd := &cobra.Command{
		Use:   "copy <src> <dest>",
		Short: "Copy a whole catalog tree to a new root",
		Long: `Copy a whole catalog tree to a new root.

Fetches every object below the catalog or collection at <src>, deep-copies
the tree, lays it out under <dest> following best practices, and writes
the documents. The source is left untouched.

The catalog type controls link and self-link serialization in the copy:
SELF_CONTAINED (relative links, no self links), RELATIVE_PUBLISHED
(relative links, self link on the root) or ABSOLUTE_PUBLISHED (absolute
links and self links everywhere).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ct, err := catalogTypeFromString(catalogType)
			if err != nil {
				return err
			}
			return c.runCopy(cmd.Context(), args[0], args[1], ct, noCache)
		},
	}

	cmd.Flags().StringVar(&catalogType, "catalog-type", "", "catalog type for the copy: self-contained, relative-published, absolute-published")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runCopy deep-copies the tree at src and saves it under destRoot.
func (c *CLI) runCopy(ctx context.Context, src, destRoot string, ct stac.CatalogType, noCache bool) error {
	reader, store, closer, err := c.newReader(ctx, noCache)
	if err != nil {
		return err
	}
	defer closer()

	obj, err := stac.Load(ctx, src, reader)
	if err != nil {
		return err
	}
	container, ok := stac.AsContainer(obj)
	if !ok {
		return fmt.Errorf("copy %s: %w: %s", src, stac.ErrWrongObjectType, obj.Kind())
	}

	sp := newSpinner(ctx, fmt.Sprintf("Copying %s...", container.ID()))
	sp.Start()

	copied, err := container.FullCopy(ctx)
	if err != nil {
		sp.StopWithError(fmt.Sprintf("Copy failed: %v", err))
		return err
	}
	dest, ok := stac.AsContainer(copied)
	if !ok {
		sp.Stop()
		return fmt.Errorf("copy %s: %w: %s", src, stac.ErrWrongObjectType, copied.Kind())
	}
	if err := dest.NormalizeHrefs(ctx, destRoot, stac.NormalizeOptions{}); err != nil {
		sp.StopWithError(fmt.Sprintf("Copy failed: %v", err))
		return err
	}
	res, err := dest.Save(ctx, stac.SaveOptions{CatalogType: ct, Writer: store})
	if err != nil {
		sp.StopWithError(fmt.Sprintf("Copy failed: %v", err))
		return err
	}
	if sp.Cancelled() {
		sp.Stop()
		return ctx.Err()
	}

	sp.StopWithSuccess(fmt.Sprintf("Copied %s to %s", container.ID(), destRoot))
	printCounts(countPart{res.Saved, "documents written"})
	return nil
}

// catalogTypeFromString maps the flag spelling to a catalog type. Empty
// keeps the source tree's type.
func catalogTypeFromString(s string) (stac.CatalogType, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "_", "-")) {
	case "":
		return "", nil
	case "self-contained":
		return stac.CatalogTypeSelfContained, nil
	case "relative-published":
		return stac.CatalogTypeRelativePublished, nil
	case "absolute-published":
		return stac.CatalogTypeAbsolutePublished, nil
	}
	return "", fmt.Errorf("unknown catalog type %q", s)
}
