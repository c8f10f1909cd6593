package main

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net/url"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opendid-docs/docroutes/internal/config"
	"github.com/opendid-docs/docroutes/internal/errors"
	"github.com/opendid-docs/docroutes/internal/manifest"
	"github.com/opendid-docs/docroutes/internal/watch"
	"github.com/opendid-docs/docroutes/pkg/router"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	manifests  []string
	logLevel   string
	logFormat  string
}

// project is the loaded configuration plus what commands derive from it.
type project struct {
	config  *config.Config
	sources []string
	logger  *slog.Logger
	loader  *manifest.Loader
}

// load resolves configuration, flag overrides, the logger and the manifest
// loader.
func (o *rootOptions) load(cmd *cobra.Command) (*project, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	if o.logLevel != "" {
		cfg.Log.Level = strings.ToLower(o.logLevel)
	}
	if o.logFormat != "" {
		cfg.Log.Format = strings.ToLower(o.logFormat)
	}

	// Flag manifests are relative to the working directory, config
	// manifests to the config file.
	sources := cfg.ManifestPaths()
	if len(o.manifests) > 0 {
		cfg.Manifests = slices.Clone(o.manifests)
		sources = cfg.Manifests
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Log)

	loaderOpts := []manifest.Option{manifest.WithLogger(logger)}
	if slices.ContainsFunc(sources, func(s string) bool { return strings.HasPrefix(s, "s3://") }) {
		loaderOpts = append(loaderOpts, manifest.WithS3(manifest.NewS3Client(cfg.S3)))
	}

	return &project{
		config:  cfg,
		sources: sources,
		logger:  logger,
		loader:  manifest.NewLoader(loaderOpts...),
	}, nil
}

// loadConfig reads --config when given. Otherwise it searches upward from
// the working directory and falls back to defaults when nothing is found.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		if fi, err := os.Stat(o.configPath); err == nil && fi.IsDir() {
			return config.Load(o.configPath)
		}
		return config.LoadFile(o.configPath)
	}

	cfg, err := config.LoadFromWorkingDir()
	if err == nil {
		return cfg, nil
	}
	if !errors.HasCode(err, "D001") {
		return nil, err
	}
	cfg = config.New()
	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// build loads the project's manifests into a route table.
func (p *project) build(ctx context.Context) (*router.RouteTable, string, error) {
	return p.loader.Snapshot(ctx, p.sources)
}

// localSources returns the manifest sources that are files on this machine.
func (p *project) localSources() []string {
	var paths []string
	for _, source := range p.sources {
		switch {
		case strings.HasPrefix(source, "s3://"):
		case strings.HasPrefix(source, "file://"):
			if u, err := url.Parse(source); err == nil {
				paths = append(paths, u.Path)
			}
		default:
			paths = append(paths, source)
		}
	}
	return paths
}

// watch starts watching the local manifests and returns once events are
// being received. The watcher stops with ctx or Stop.
func (p *project) watch(ctx context.Context, fn func(watch.Change)) (*watch.Watcher, error) {
	paths := p.localSources()
	if len(paths) == 0 {
		return nil, errors.New("D008").
			WithDetail("--watch needs at least one local manifest").
			WithSuggestion("s3:// manifests cannot be watched; restart the server to pick up new objects")
	}

	w := watch.New(watch.Config{Paths: paths, Logger: p.logger})
	w.OnChange(fn)

	errCh := make(chan error, 1)
	go func() { errCh <- w.Start(ctx) }()

	select {
	case <-w.Ready():
		go func() {
			if err := <-errCh; err != nil && !stderrors.Is(err, context.Canceled) {
				p.logger.Error("manifest watcher stopped", "error", err)
			}
		}()
		return w, nil
	case err := <-errCh:
		if err == nil {
			return w, nil
		}
		return nil, err
	}
}

// newLogger creates the slog logger described by cfg. Unknown levels fall
// back to info.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
