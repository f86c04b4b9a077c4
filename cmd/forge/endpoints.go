package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newEndpointsCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "endpoints",
		Short: "List the endpoints saved by the last backend build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store := newStore(cfg, newLogger(cfg))
			routes, err := store.LoadAPIEndpoints()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "METHOD\tROUTE\tDYNAMIC\tPROBED")
			for _, r := range routes {
				if !all && !r.Probeable() {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", strings.ToUpper(r.Method), r.Route, r.IsRouteDynamic, r.Probeable())
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include routes that are not probed")
	return cmd
}
