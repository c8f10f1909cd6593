package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/opendid-docs/docroutes/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌┬┐┌─┐┌─┐┬─┐┌─┐┬ ┬┌┬┐┌─┐┌─┐
   │││ ││  ├┬┘│ ││ │ │ ├┤ └─┐
  ─┴┘└─┘└─┘┴└─└─┘└─┘ ┴ └─┘└─┘
`

func main() {
	if !colorsWanted(os.Getenv, os.Stdout, os.Stderr) {
		errors.DisableColors()
	}
	if err := newRootCmd().Execute(); err != nil {
		// Errors cobra raises itself (unknown flags, wrong arg counts)
		// carry no code yet.
		errors.PrintError(errors.FromError(err, "D008"))
		os.Exit(1)
	}
}

// colorsWanted reports whether output should use ANSI colors: NO_COLOR is
// unset and every file is a terminal.
func colorsWanted(getenv func(string) string, files ...*os.File) bool {
	if getenv("NO_COLOR") != "" {
		return false
	}
	for _, f := range files {
		if f == nil || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
			return false
		}
	}
	return true
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "docroutes",
		Short: "Route table server for the OpenDID documentation site",
		Long: `docroutes resolves documentation URLs to page components.

It loads the route manifests produced by the site build, checks them
for conflicts and serves resolutions over HTTP and WebSocket:

  • Exact and longest-prefix matching with a catch-all route
  • Layout chains and inherited sidebar metadata
  • Manifests from local JSON/YAML files or S3
  • Prometheus metrics and OpenTelemetry spans
  • Hot reload when manifests change`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Config file or directory (default: nearest docroutes.yaml)")
	flags.StringArrayVarP(&opts.manifests, "manifest", "m", nil, "Manifest path or s3:// URL, repeatable (default from docroutes.yaml)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format: text, json")

	rootCmd.AddCommand(
		serveCmd(opts),
		resolveCmd(opts),
		validateCmd(opts),
		routesCmd(opts),
		explainCmd(),
		versionCmd(),
	)

	return rootCmd
}

// printBanner prints the ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// mark colors a status symbol when colors are enabled.
func mark(ansi, symbol string) string {
	if !errors.ColorsEnabled() {
		return symbol
	}
	return ansi + symbol + "\033[0m"
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", mark("\033[32m", "✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", mark("\033[33m", "⚠"), fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", mark("\033[31m", "✗"), fmt.Sprintf(format, args...))
}
