package main

import (
	"github.com/spf13/cobra"
)

func newNavigateCmd(root *rootOptions) *cobra.Command {
	var (
		format string
		full   bool
		hash   string
	)
	cmd := &cobra.Command{
		Use:   "navigate [page]",
		Short: "Load one page and print the content region",
		Long: `Loads the site shell, navigates to page (or, without an argument, to the
page named by --hash, falling back to home) and prints the content region.
Unknown pages show home.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validFormat(format); err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := root.openSession(ctx, hash)
			if err != nil {
				return err
			}
			defer s.Close()

			if len(args) == 1 {
				s.router.Navigate(ctx, args[0])
			} else {
				s.router.Start(ctx)
			}

			out := cmd.OutOrStdout()
			if full {
				html, err := s.doc.HTML()
				if err != nil {
					return err
				}
				_, err = out.Write([]byte(html + "\n"))
				return err
			}
			return s.doc.Render(out, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "html", "output format: html, text or markdown")
	cmd.Flags().BoolVar(&full, "full", false, "print the whole document instead of the content region")
	cmd.Flags().StringVar(&hash, "hash", "", "initial location fragment, e.g. #cv")
	return cmd
}
