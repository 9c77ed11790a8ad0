package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"finitefield.org/portfolio-web/internal/blog"
	"finitefield.org/portfolio-web/internal/config"
	"finitefield.org/portfolio-web/internal/sitemap"
)

func newSitemapCmd(root *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "sitemap",
		Short: "Write sitemap.xml for the site root and blog pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if output == "-" {
				set, err := buildSitemap(cfg)
				if err != nil {
					return err
				}
				return sitemap.Write(cmd.OutOrStdout(), set)
			}
			return writeSitemap(cfg, logger, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path relative to the site directory, or - for stdout")
	return cmd
}

func buildSitemap(cfg *config.Config) (sitemap.URLSet, error) {
	base := cfg.Sitemap.BaseURL
	if base == "" {
		base = cfg.Site.BaseURL
	}
	return sitemap.Build(base, filepath.Join(cfg.Server.Dir, blog.PostsDir), time.Now())
}

// writeSitemap writes the sitemap to output, or to the configured path when
// output is empty. Relative paths resolve against the site directory.
func writeSitemap(cfg *config.Config, logger *zap.Logger, output string) error {
	set, err := buildSitemap(cfg)
	if err != nil {
		return err
	}
	if output == "" {
		output = cfg.Sitemap.Output
	}
	if !filepath.IsAbs(output) {
		output = filepath.Join(cfg.Server.Dir, output)
	}
	if err := sitemap.WriteFile(output, set); err != nil {
		return fmt.Errorf("writing sitemap: %w", err)
	}
	logger.Info("sitemap generated", zap.String("path", output), zap.Int("urls", len(set.URLs)))
	return nil
}
