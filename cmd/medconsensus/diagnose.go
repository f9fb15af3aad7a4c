package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/medconsensus/internal/report"
	"github.com/mohammad-safakhou/medconsensus/internal/workflow"
)

func diagnoseCMD(cfgPath *string) *cobra.Command {
	var symptoms, history, tests, language, outDir string
	var rounds int
	var diagnose = &cobra.Command{
		Use:   "diagnose <topic>",
		Short: "Run one consensus diagnosis and save the report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := strings.TrimSpace(strings.Join(args, " "))
			if topic == "" {
				return fmt.Errorf("topic is required")
			}
			if language != "" {
				if _, ok := report.LookupLanguage(language); !ok {
					return fmt.Errorf("%w: %s", report.ErrUnsupportedLanguage, language)
				}
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			rt, err := newRuntime(ctx, *cfgPath, prometheus.NewRegistry())
			if err != nil {
				return err
			}
			defer rt.Close()
			if rounds < 1 {
				rounds = rt.cfg.Workflow.MaxRounds
			}
			if language == "" && rt.cfg.Translation.Enabled {
				language = rt.cfg.Translation.Language
			}

			final, err := rt.orchestrator.Run(ctx, workflow.NewState(topic, symptoms, history, tests, rounds))
			if err != nil {
				return err
			}
			finished := time.Now()
			rep := report.Assemble(final)
			if language != "" {
				if rep, err = translate(ctx, rt, rep, language, finished); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if final.TimedOut {
				fmt.Fprintln(out, "Run deadline reached; the report is partial.")
			}
			fmt.Fprintln(out, "=== CONSENSUS ===")
			fmt.Fprintln(out, rep.Consensus)

			path, err := report.Save(outDir, rep, finished)
			if err != nil {
				return err
			}
			rt.logger.Info("report saved", zap.String("path", path), zap.String("run_id", final.RunID))
			fmt.Fprintf(out, "\nReport saved to %s\n", path)
			return nil
		},
	}
	diagnose.Flags().StringVarP(&symptoms, "symptoms", "s", "", "patient symptoms")
	diagnose.Flags().StringVarP(&history, "medical-history", "m", "", "patient medical history")
	diagnose.Flags().StringVarP(&tests, "test-results", "t", "", "patient test results")
	diagnose.Flags().StringVar(&language, "language", "", "translate the report (name or code)")
	diagnose.Flags().StringVar(&outDir, "out", ".", "directory for the markdown report")
	diagnose.Flags().IntVar(&rounds, "rounds", 0, "consensus rounds (default from workflow.max_rounds)")

	return diagnose
}

// translate falls back to the completer when translation is disabled in
// config and a language was passed on the command line.
func translate(ctx context.Context, rt *runtime, rep report.Report, language string, now time.Time) (report.Report, error) {
	tr := rt.translator()
	if tr == nil {
		tr = report.LLMTranslator{Completer: rt.completer}
	}
	return report.Translate(ctx, tr, rep, language, now, rt.logger)
}
