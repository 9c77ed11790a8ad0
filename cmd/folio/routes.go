package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"finitefield.org/portfolio-web/internal/config"
	"finitefield.org/portfolio-web/internal/downloads"
)

func newRoutesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the route table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.cfgFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			table, err := cfg.RouteTable()
			if err != nil {
				return fmt.Errorf("loading routes: %w", err)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PAGE\tFRAGMENTS\tDOWNLOADS")
			for _, id := range table.Pages() {
				_, paths := table.Resolve(id)
				fmt.Fprintf(tw, "%s\t%s\t%s.*\n", id, strings.Join(paths, ", "), downloads.For(id).Target)
			}
			return tw.Flush()
		},
	}
}
