package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"finitefield.org/portfolio-web/internal/blog"
)

func newBlogCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blog",
		Short: "Manage blog posts",
	}
	cmd.AddCommand(newBlogBuildCmd(root))
	return cmd
}

func newBlogBuildCmd(root *rootOptions) *cobra.Command {
	var (
		source    string
		noSitemap bool
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render markdown posts into blog pages and the blog index fragment",
		Long: `build renders every markdown file with YAML front matter in the blog
source directory to blog/<slug>.html under the site directory, rewrites
components/blog.html with one card per post, newest first, and then
regenerates the sitemap.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if source == "" {
				source = cfg.Build.BlogSource
			}
			b, err := blog.NewBuilder(
				blog.WithPostTemplate(cfg.Build.PostTemplate),
				blog.WithLogger(logger),
			)
			if err != nil {
				return err
			}
			posts, err := b.Build(source, cfg.Server.Dir)
			if err != nil {
				return err
			}
			for _, p := range posts {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", p.Link(), p.Title)
			}
			if noSitemap {
				return nil
			}
			if err := writeSitemap(cfg, logger, ""); err != nil {
				return err
			}
			logger.Debug("blog build finished", zap.Int("posts", len(posts)))
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "markdown source directory (overrides build.blog_source)")
	cmd.Flags().BoolVar(&noSitemap, "no-sitemap", false, "skip sitemap regeneration")
	return cmd
}
