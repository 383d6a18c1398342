package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stacsmith/stacsmith/internal/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve <dir>",
		Short: "Serve an on-disk catalog over HTTP",
		Long: `Serve an on-disk catalog over HTTP.

Exposes the static catalog rooted at <dir>: JSON documents are served
with their STAC media types (application/geo+json for items), the root
and bare directories redirect to their catalog.json, and /healthz
answers liveness probes. Intended for local browsing and tests, not as
a public deployment.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), args[0], addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	return cmd
}

// runServe blocks until the context is cancelled or the listener fails.
func (c *CLI) runServe(ctx context.Context, dir, addr string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("serve %s: not a directory", dir)
	}
	printInfo("Serving %s on %s", dir, addr)
	return server.New(dir, c.Logger).ListenAndServe(ctx, addr)
}
