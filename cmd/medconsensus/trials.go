package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/medconsensus/internal/oncology"
	"github.com/mohammad-safakhou/medconsensus/internal/trialindex"
)

func trialsCMD() *cobra.Command {
	var cancerType, stage, prior string
	var markers []string
	var ps int
	var trials = &cobra.Command{
		Use:   "trials",
		Short: "List clinical trials matching eligibility filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := oncology.DefaultCatalog()
			if err != nil {
				return err
			}
			criteria := oncology.TrialCriteria{
				CancerType:     cancerType,
				Stage:          stage,
				Markers:        markers,
				PriorTreatment: prior,
			}
			if cmd.Flags().Changed("ps") {
				if ps < 0 || ps > 4 {
					return fmt.Errorf("--ps must be between 0 and 4")
				}
				criteria.PerformanceStatus = &ps
			}
			printTrials(cmd.OutOrStdout(), oncology.FindTrials(catalog, criteria))
			return nil
		},
	}
	trials.Flags().StringVar(&cancerType, "type", "", "cancer type")
	trials.Flags().StringVar(&stage, "stage", "", "stage, e.g. IIIA or Extensive Stage")
	trials.Flags().StringSliceVar(&markers, "marker", nil, "genetic marker (repeatable)")
	trials.Flags().StringVar(&prior, "prior-treatment", "", "prior treatment")
	trials.Flags().IntVar(&ps, "ps", 0, "ECOG performance status")

	trials.AddCommand(trialSearchCMD())
	return trials
}

func trialSearchCMD() *cobra.Command {
	var limit int
	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over the trial catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := oncology.DefaultCatalog()
			if err != nil {
				return err
			}
			idx, err := trialindex.Build(catalog)
			if err != nil {
				return err
			}
			hits, err := idx.Search(strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RANK\tSCORE\tID\tTITLE")
			for _, h := range hits {
				fmt.Fprintf(w, "%d\t%.3f\t%s\t%s\n", h.Rank, h.Score, h.Trial.ID, h.Trial.Title)
			}
			return w.Flush()
		},
	}
	search.Flags().IntVarP(&limit, "limit", "n", 10, "maximum hits")
	return search
}

func printTrials(out io.Writer, trials []oncology.Trial) {
	if len(trials) == 0 {
		fmt.Fprintln(out, "No matching trials.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPHASE\tTITLE")
	for _, t := range trials {
		fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, t.Phase, t.Title)
	}
	_ = w.Flush()
}
