package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stacsmith/stacsmith/pkg/extensions"
	"github.com/stacsmith/stacsmith/pkg/extensions/builtins"
	"github.com/stacsmith/stacsmith/pkg/stac"
	"github.com/stacsmith/stacsmith/pkg/validate"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var (
		recursive bool
		strict    bool
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "validate <href>",
		Short: "Check a STAC object against the core rules and its extensions",
		Long: `Check a STAC object against the core rules and its extensions.

Validates the document at <href>: required members per object type, link
shape, item datetimes, collection extents, and the fields of every
declared extension with a registered validator. With --recursive the
whole tree below a catalog or collection is fetched and checked.

Unknown extension URIs are skipped unless --strict reports them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(cmd.Context(), args[0], recursive, strict, noCache)
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "validate the whole tree below a container")
	cmd.Flags().BoolVar(&strict, "strict", false, "report declared extensions without a validator")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runValidate loads the object and reports violations per object.
func (c *CLI) runValidate(ctx context.Context, hrefStr string, recursive, strict, noCache bool) error {
	reader, _, closer, err := c.newReader(ctx, noCache)
	if err != nil {
		return err
	}
	defer closer()

	obj, err := stac.Load(ctx, hrefStr, reader)
	if err != nil {
		return err
	}

	v := &validate.Structural{
		Extensions: builtins.Register(extensions.NewRegistry()),
		Strict:     strict,
	}

	prog := newProgress(c.Logger)
	checked, failed := 0, 0
	report := func(o stac.Object) {
		checked++
		err := o.Validate(ctx, v)
		if err == nil {
			c.Logger.Debug("valid", "kind", kindWord(o.Kind()), "id", o.ID())
			return
		}
		failed++
		printError("%s %s", kindWord(o.Kind()), o.ID())
		viols := validate.Violations(err)
		if len(viols) == 0 {
			printDetail("%v", err)
		}
		for _, viol := range viols {
			printDetail("%s", viol.Error())
		}
	}

	container, isContainer := stac.AsContainer(obj)
	if recursive && isContainer {
		for entry, err := range container.Walk(ctx) {
			if err != nil {
				return err
			}
			report(entry.Container)
			for _, it := range entry.Items {
				report(it)
			}
		}
	} else {
		report(obj)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d objects failed validation", failed, checked)
	}
	prog.done(fmt.Sprintf("Validated %d objects", checked))
	printSuccess("%d objects valid", checked)
	return nil
}
