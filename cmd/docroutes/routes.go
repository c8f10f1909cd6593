package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opendid-docs/docroutes/pkg/router"
)

// routeListing is the output of `docroutes routes --json`.
type routeListing struct {
	Digest string             `json:"digest"`
	Routes []router.RouteInfo `json:"routes"`
}

func routesCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the route table",
		Long: `Print the built route table as an indented tree, children under
their parents in registration order and the catch-all route last.

Examples:
  docroutes routes
  docroutes routes -m s3://docs-site/prod/routes.json --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.load(cmd)
			if err != nil {
				return err
			}
			table, digest, err := p.build(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(routeListing{Digest: digest, Routes: table.Routes()})
			}

			printTree(out, table.Routes())
			fmt.Fprintln(out)
			info(out, "%d routes, digest %s", table.Len(), digest)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the table as JSON")

	return cmd
}

// printTree writes one line per route. Structural nodes show "-" in place
// of a component.
func printTree(w io.Writer, routes []router.RouteInfo) {
	width := 0
	for _, r := range routes {
		width = max(width, 2*r.Depth+len(r.Path))
	}

	for _, r := range routes {
		label := strings.Repeat("  ", r.Depth) + r.Path
		component := r.ComponentRef
		if component == "" {
			component = "-"
		}

		var flags []string
		if r.Exact {
			flags = append(flags, "exact")
		}
		for _, k := range slices.Sorted(maps.Keys(r.Metadata)) {
			flags = append(flags, k+"="+r.Metadata[k])
		}

		line := fmt.Sprintf("  %-*s  %s", width, label, component)
		if len(flags) > 0 {
			line += "  [" + strings.Join(flags, " ") + "]"
		}
		fmt.Fprintln(w, line)
	}
}
