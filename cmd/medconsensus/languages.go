package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/medconsensus/internal/report"
)

func languagesCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List report translation languages",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, l := range report.Languages() {
				fmt.Fprintf(w, "%s\t%s\n", l.Code, l.Name)
			}
			return w.Flush()
		},
	}
}
