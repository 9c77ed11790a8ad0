package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"finitefield.org/portfolio-web/internal/nav"
)

func newBrowseCmd(root *rootOptions) *cobra.Command {
	var (
		format string
		hash   string
	)
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Interactive session driven by location fragment changes",
		Long: `Starts at --hash (home when it names no page) and then reads one command
per line from stdin:

  #page | page   change the location fragment
  back           go back in the fragment history
  forward        go forward in the fragment history
  quit           end the session

The menu and the content region are printed after every command.`,
		Args: cobra.NoArgs,
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

			out := cmd.OutOrStdout()
			s.router.Start(ctx)
			if err := s.print(out, format); err != nil {
				return err
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				switch line {
				case "":
					continue
				case "quit", "exit":
					return nil
				case "back":
					if !s.loc.Back() {
						fmt.Fprintln(out, "no earlier entry")
						continue
					}
				case "forward":
					if !s.loc.Forward() {
						fmt.Fprintln(out, "no later entry")
						continue
					}
				default:
					s.loc.SetFragment(line)
				}
				if err := s.print(out, format); err != nil {
					return err
				}
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format: html, text or markdown")
	cmd.Flags().StringVar(&hash, "hash", "", "initial location fragment, e.g. #cv")
	return cmd
}

func (s *session) print(w io.Writer, format string) error {
	fmt.Fprintf(w, "#%s  %s\n", s.loc.Fragment(), nav.Summary(nav.Build(s.doc.ActiveNav())))
	return s.doc.Render(w, format)
}
