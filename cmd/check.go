package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/virtos/app"
	"github.com/kilianp07/virtos/core/model"
	"github.com/kilianp07/virtos/qa/scenarios"
)

var checkCmd = &cobra.Command{
	Use:   "check <scenario-file>...",
	Short: "Run reference scenarios against the current library",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *app.Service) error {
		sim := scenarios.SimulatorFunc(func(ctx context.Context, site model.SiteSpec) (model.SimulationResult, error) {
			out, err := svc.Simulate(ctx, site)
			return out.Result, err
		})
		w := cmd.OutOrStdout()
		failed := 0
		for _, path := range args {
			sc, err := scenarios.Load(path)
			if err != nil {
				return err
			}
			rep, err := scenarios.Run(ctx, sim, sc)
			if err != nil {
				return err
			}
			if rep.Passed() {
				fmt.Fprintf(w, "ok   %s\n", rep.Name)
				continue
			}
			failed++
			fmt.Fprintf(w, "FAIL %s\n", rep.Name)
			for _, f := range rep.Failures {
				fmt.Fprintf(w, "     %s\n", f)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d scenarios failed", failed, len(args))
		}
		return nil
	})
}
