package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opendid-docs/docroutes/internal/errors"
	"github.com/opendid-docs/docroutes/internal/watch"
)

func validateCmd(opts *rootOptions) *cobra.Command {
	var watchFiles bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check manifests for configuration errors",
		Long: `Load the manifests and build the route table without serving it.

Exits non-zero on a missing catch-all route, ambiguous sibling prefixes,
malformed paths or undecodable manifests. With --watch the check is
repeated whenever a local manifest changes.

Examples:
  docroutes validate
  docroutes validate -m build/routes.json -m extra/routes.yaml
  docroutes validate --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.load(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			err = p.validate(cmd.Context(), out)
			if !watchFiles {
				return err
			}
			if err != nil {
				reportInvalid(out, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w, err := p.watch(ctx, func(change watch.Change) {
				info(out, "%s %s", change.Type, change.Path)
				if err := p.validate(ctx, out); err != nil {
					reportInvalid(out, err)
				}
			})
			if err != nil {
				return err
			}
			defer w.Stop()

			info(out, "Watching %d manifests, press Ctrl+C to stop", len(p.localSources()))
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watchFiles, "watch", "w", false, "Re-validate when manifests change")

	return cmd
}

// validate builds the table once and prints a summary to out on success.
func (p *project) validate(ctx context.Context, out io.Writer) error {
	table, digest, err := p.build(ctx)
	if err != nil {
		return err
	}

	success(out, "%d routes in %d manifests", table.Len(), len(p.sources))
	info(out, "catch-all: %s", table.Wildcard().ComponentRef)
	info(out, "digest:    %s", digest)
	fmt.Fprintln(out)
	return nil
}

func reportInvalid(out io.Writer, err error) {
	errorMsg(out, "Invalid route table")
	errors.Fprint(out, err)
}
