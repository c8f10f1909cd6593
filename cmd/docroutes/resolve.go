package main

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opendid-docs/docroutes/pkg/router"
	"github.com/opendid-docs/docroutes/pkg/routepath"
)

// resolution is one line of `docroutes resolve --json`.
type resolution struct {
	Input string                `json:"input"`
	Path  string                `json:"path,omitempty"`
	Route *router.ResolvedRoute `json:"route,omitempty"`
	Error string                `json:"error,omitempty"`
}

func resolveCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve <path>...",
		Short: "Resolve request paths against the route table",
		Long: `Resolve one or more request paths the way the server does.

Paths are canonicalized first, so "/docs//next/" and "/docs/next"
give the same answer.

Examples:
  docroutes resolve /docs/next/tutorial
  docroutes resolve -m routes.json /api /blog --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.load(cmd)
			if err != nil {
				return err
			}
			table, _, err := p.build(cmd.Context())
			if err != nil {
				return err
			}

			results := resolveAll(table, args)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			printResolutions(cmd, results)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")

	return cmd
}

func resolveAll(table router.Resolver, inputs []string) []resolution {
	results := make([]resolution, 0, len(inputs))
	for _, input := range inputs {
		res := resolution{Input: input}
		canon, err := routepath.Normalize(input)
		if err != nil {
			res.Error = err.Error()
		} else {
			route := table.Resolve(canon.Path)
			res.Path = canon.Path
			res.Route = &route
		}
		results = append(results, res)
	}
	return results
}

func printResolutions(cmd *cobra.Command, results []resolution) {
	out := cmd.OutOrStdout()
	for _, res := range results {
		if res.Error != "" {
			errorMsg(out, "%s: %s", res.Input, res.Error)
			continue
		}

		route := res.Route
		if route.Fallback {
			warn(out, "%s → %s (not found)", res.Path, route.ComponentRef)
		} else {
			success(out, "%s → %s", res.Path, route.ComponentRef)
		}
		if route.Path != res.Path {
			info(out, "matched:  %s", route.Path)
		}
		if len(route.Layouts) > 0 {
			info(out, "layouts:  %s", strings.Join(route.Layouts, " > "))
		}
		for _, k := range slices.Sorted(maps.Keys(route.Metadata)) {
			info(out, "%-9s %s", k+":", route.Metadata[k])
		}
	}
	fmt.Fprintln(out)
}
