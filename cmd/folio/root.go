package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"finitefield.org/portfolio-web/internal/config"
	"finitefield.org/portfolio-web/internal/fragments"
	"finitefield.org/portfolio-web/internal/location"
	"finitefield.org/portfolio-web/internal/observability"
	"finitefield.org/portfolio-web/internal/router"
	"finitefield.org/portfolio-web/internal/view"
)

type rootOptions struct {
	cfgFile  string
	verbose  bool
	baseURL  string
	revision string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "folio",
		Short: "Headless client and dev server for the portfolio site",
		Long: `folio resolves portfolio pages to their HTML fragments, loads them into
the site shell and prints the result. It also serves the site directory and
generates its sitemap, blog pages and markdown resumes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "folio.yml", "config file path")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "site base URL (overrides site.base_url)")
	cmd.PersistentFlags().StringVar(&opts.revision, "revision", "", "site revision appended to fragment requests")

	cmd.AddCommand(
		newNavigateCmd(opts),
		newBrowseCmd(opts),
		newRoutesCmd(opts),
		newServeCmd(opts),
		newSitemapCmd(opts),
		newBlogCmd(opts),
		newResumeCmd(opts),
	)
	return cmd
}

// load reads the configuration, applies flag overrides and validates it.
func (o *rootOptions) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if o.baseURL != "" {
		cfg.Site.BaseURL = o.baseURL
	}
	if o.revision != "" {
		cfg.Site.Revision = o.revision
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger, err := observability.NewLogger(observability.LogOptions{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	return cfg, logger, nil
}

// session is one loaded shell with a router attached to it.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	doc    *view.Document
	loc    *location.Hash
	router *router.Router
}

func (o *rootOptions) openSession(ctx context.Context, hash string) (*session, error) {
	cfg, logger, err := o.load()
	if err != nil {
		return nil, err
	}
	table, err := cfg.RouteTable()
	if err != nil {
		return nil, fmt.Errorf("loading routes: %w", err)
	}
	fetcher, err := fragments.New(cfg.Site.BaseURL,
		fragments.WithRevision(cfg.Site.Revision),
		fragments.WithTimeout(cfg.Site.FetchTimeout),
		fragments.WithSanitize(cfg.Site.Sanitize),
		fragments.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	shell, err := fetcher.Get(ctx, cfg.Site.Shell)
	if err != nil {
		return nil, fmt.Errorf("loading shell: %w", err)
	}
	doc, err := view.Parse(bytes.NewReader(shell), view.WithContentRegion(cfg.Site.ContentRegion))
	if err != nil {
		return nil, fmt.Errorf("parsing shell %s: %w", cfg.Site.Shell, err)
	}
	if u, err := fetcher.URL(cfg.Site.Shell); err == nil {
		doc.HighlightPath(u.Path)
	}

	loc := location.NewHash(hash)
	r := router.New(table, fetcher, doc, loc, router.WithLogger(logger))
	return &session{cfg: cfg, logger: logger, doc: doc, loc: loc, router: r}, nil
}

func (s *session) Close() {
	s.router.Close()
	_ = s.logger.Sync()
}

func validFormat(format string) error {
	switch strings.ToLower(format) {
	case "html", "text", "markdown", "md":
		return nil
	}
	return fmt.Errorf("unknown format %q (want html, text or markdown)", format)
}
