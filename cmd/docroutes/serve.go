package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opendid-docs/docroutes/internal/errors"
	"github.com/opendid-docs/docroutes/internal/watch"
	"github.com/opendid-docs/docroutes/pkg/server"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	var (
		addr       string
		watchFiles bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve route resolutions over HTTP",
		Long: `Build the route table and serve it.

Endpoints:
  GET /{path}            resolve a page path
  GET /_resolve?path=    resolve a path given as a query parameter
  GET /_routes           list the route table
  GET /healthz           health check
  GET /metrics           Prometheus metrics (if enabled)
  WS  /_ws               streaming resolve requests (if enabled)

With --watch, local manifests are reloaded when they change. A manifest
that fails to build leaves the current table in place.

Examples:
  docroutes serve
  docroutes serve --addr=localhost:9000
  docroutes serve -m build/routes.json --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts, addr, watchFiles)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (default from docroutes.yaml)")
	cmd.Flags().BoolVarP(&watchFiles, "watch", "w", false, "Reload manifests when they change")

	return cmd
}

func runServe(cmd *cobra.Command, opts *rootOptions, addr string, watchFiles bool) error {
	p, err := opts.load(cmd)
	if err != nil {
		return err
	}
	if addr != "" {
		p.config.Server.Address = addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table, digest, err := p.build(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printBanner(out)
	fmt.Fprintln(out, "  serve")
	fmt.Fprintln(out)
	success(out, "Loaded %d routes from %d manifests", table.Len(), len(p.sources))
	info(out, "Listening on %s", p.config.Server.Address)
	fmt.Fprintln(out)

	srv := server.New(table, digest, serverConfig(p))

	if watchFiles {
		w, err := p.watch(ctx, reloader(ctx, p, srv))
		if err != nil {
			return err
		}
		defer w.Stop()
	}

	if err := srv.Run(ctx); err != nil {
		return errors.FromError(err, "D007")
	}
	return nil
}

// serverConfig maps docroutes.yaml onto the server's options.
func serverConfig(p *project) *server.ServerConfig {
	cfg := p.config
	sc := server.DefaultServerConfig()

	sc.Address = cfg.Server.Address
	sc.ReadHeaderTimeout = cfg.Server.ReadHeaderTimeout
	sc.ReadTimeout = cfg.Server.ReadTimeout
	sc.WriteTimeout = cfg.Server.WriteTimeout
	sc.IdleTimeout = cfg.Server.IdleTimeout
	sc.ShutdownTimeout = cfg.Server.ShutdownTimeout

	ws := cfg.Server.WebSocket
	sc.WebSocket.Enabled = ws.Enabled
	sc.WebSocket.Path = ws.Path
	sc.WebSocket.ReadBufferSize = ws.ReadBufferSize
	sc.WebSocket.WriteBufferSize = ws.WriteBufferSize
	if len(ws.AllowedOrigins) > 0 {
		sc.WebSocket.CheckOrigin = server.AllowOrigins(ws.AllowedOrigins)
	}

	sc.MetricsEnabled = cfg.Metrics.Enabled
	sc.MetricsPath = cfg.Metrics.Path
	sc.MetricsNamespace = cfg.Metrics.Namespace

	sc.TracingEnabled = cfg.Tracing.Enabled
	sc.TracerName = cfg.Tracing.TracerName

	sc.Logger = p.logger
	return sc
}

// reloader rebuilds the table after a manifest change and swaps it into
// srv. Build failures keep the previous table.
func reloader(ctx context.Context, p *project, srv *server.Server) func(watch.Change) {
	return func(change watch.Change) {
		table, digest, err := p.build(ctx)
		if err != nil {
			p.logger.Error("reload failed, keeping current routes",
				"path", change.Path,
				"change", change.Type.String(),
				"error", errors.FromError(err, "D005").FormatCompact())
			return
		}
		if digest == srv.Digest() {
			p.logger.Debug("manifest unchanged", "path", change.Path)
			return
		}
		srv.SetTable(table, digest)
		p.logger.Info("routes reloaded",
			"path", change.Path,
			"routes", table.Len(),
			"digest", digest)
	}
}
