package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opendid-docs/docroutes/internal/errors"
)

func explainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain [code]",
		Short: "Describe docroutes error codes",
		Long: `Print the category, message and explanation of an error code.
Without a code every registered code is listed.

Examples:
  docroutes explain
  docroutes explain D005`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, code := range errors.GetAllCodes() {
					t, _ := errors.GetTemplate(code)
					fmt.Fprintf(out, "  %s  %-8s %s\n", code, t.Category, t.Message)
				}
				return nil
			}

			code := strings.ToUpper(args[0])
			t, ok := errors.GetTemplate(code)
			if !ok {
				return errors.New("D008").
					WithDetail(fmt.Sprintf("Unknown error code %q", args[0])).
					WithSuggestion("Run 'docroutes explain' to list the known codes")
			}
			fmt.Fprintf(out, "%s (%s): %s\n\n", code, t.Category, t.Message)
			fmt.Fprintln(out, t.Detail)
			return nil
		},
	}

	return cmd
}
