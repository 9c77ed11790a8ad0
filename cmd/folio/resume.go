package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"finitefield.org/portfolio-web/internal/resume"
)

func newResumeCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Generate resume and CV documents",
	}
	cmd.AddCommand(newResumeRenderCmd(root))
	return cmd
}

func newResumeRenderCmd(root *rootOptions) *cobra.Command {
	var (
		target string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render resume.md and cv.md from the YAML layouts",
		Long: `render reads <data>/<target>.yaml, merges blocks that name a content_key
with <data>/store.yaml and writes <target>.md into the site directory, where
the downloads section links to it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			targets, err := resume.ExpandTarget(target)
			if err != nil {
				return err
			}
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if out == "" {
				out = cfg.Server.Dir
			}
			g := resume.NewGenerator(cfg.Build.DataDir, logger)
			for _, t := range targets {
				path, err := g.WriteFile(t, out)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "resume", "document to render: resume, cv or all")
	cmd.Flags().StringVarP(&out, "output-dir", "o", "", "output directory (defaults to server.dir)")
	return cmd
}
