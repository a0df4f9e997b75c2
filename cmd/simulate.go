package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/virtos/app"
	"github.com/kilianp07/virtos/config"
	"github.com/kilianp07/virtos/core/explain"
	"github.com/kilianp07/virtos/core/model"
	"github.com/kilianp07/virtos/pkg/export"
)

var (
	simArch    string
	simExplain bool
	simOutput  string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate [site-file]",
	Short: "Simulate one site",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSimulate,
}

var compareCmd = &cobra.Command{
	Use:   "compare [site-file]",
	Short: "Simulate a site under every architecture and report the deltas",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCompare,
}

func init() {
	simulateCmd.Flags().StringVarP(&simArch, "architecture", "a", "", "override the site architecture")
	simulateCmd.Flags().BoolVar(&simExplain, "explain", false, "include the constraint audit")
	simulateCmd.Flags().StringVarP(&simOutput, "output", "o", "table", "output format: table, json or csv (per-step ledger)")
	compareCmd.Flags().StringVarP(&simOutput, "output", "o", "table", "output format: table or json")
	rootCmd.AddCommand(simulateCmd, compareCmd)
}

// siteFrom reads the site file given as argument, falling back to the site
// section of the configuration.
func siteFrom(args []string) (model.SiteSpec, error) {
	if len(args) == 1 {
		return config.LoadSite(args[0])
	}
	if cfg.Site == nil {
		return model.SiteSpec{}, errors.New("no site file given and no site in configuration")
	}
	return *cfg.Site, nil
}

func withService(fn func(ctx context.Context, svc *app.Service) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	svc, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()
	return fn(ctx, svc)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	site, err := siteFrom(args)
	if err != nil {
		return err
	}
	if simArch != "" {
		arch, err := model.ParseArchitecture(simArch)
		if err != nil {
			return err
		}
		site = site.WithArchitecture(arch)
	}
	return withService(func(ctx context.Context, svc *app.Service) error {
		out, err := svc.Simulate(ctx, site)
		if err != nil {
			return err
		}
		var exp *app.Explanation
		if simExplain {
			e := app.Explain(site, out.Result)
			exp = &e
		}
		w := cmd.OutOrStdout()
		switch simOutput {
		case "csv":
			return export.WriteCSV(w, explain.Ledger(out.Result))
		case "json":
			return writeJSON(w, struct {
				app.Outcome
				Explanation *app.Explanation `json:"explanation,omitempty"`
			}{out, exp})
		}
		return printOutcome(w, out, exp)
	})
}

func runCompare(cmd *cobra.Command, args []string) error {
	site, err := siteFrom(args)
	if err != nil {
		return err
	}
	return withService(func(ctx context.Context, svc *app.Service) error {
		cmp, err := svc.Compare(ctx, site)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if simOutput == "json" {
			return writeJSON(w, cmp)
		}
		return printComparison(w, cmp)
	})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printOutcome(w io.Writer, out app.Outcome, exp *app.Explanation) error {
	res := out.Result
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "run\t%s\n", out.RunID)
	fmt.Fprintf(tw, "site\t%s\n", res.SiteName)
	fmt.Fprintf(tw, "architecture\t%s\n", res.Architecture)
	fmt.Fprintf(tw, "cached\t%t\n", out.Cached)
	fmt.Fprintf(tw, "steps\t%d\n", res.Steps)
	fmt.Fprintf(tw, "time satisfied\t%.1f%%\n", res.Metrics.TimeSatisfiedPct)
	fmt.Fprintf(tw, "power satisfied\t%.1f%%\n", res.Metrics.PowerSatisfiedPct)
	fmt.Fprintf(tw, "energy not served\t%.2f kWh\n", res.Metrics.EnergyNotServedKWh)
	fmt.Fprintf(tw, "total cost\t%.2f\n", res.Costs.TotalCost)
	if exp != nil {
		fmt.Fprintf(tw, "topology\t%s\n", exp.Topology)
		for i, c := range exp.ConstraintStack {
			fmt.Fprintf(tw, "constraint %d\t%s\n", i+1, c)
		}
		if exp.Hint != "" {
			fmt.Fprintf(tw, "hint\t%s\n", exp.Hint)
		}
	}
	return tw.Flush()
}

func printComparison(w io.Writer, cmp app.Comparison) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ARCHITECTURE\tTIME %\tPOWER %\tENS kWh\tTOTAL COST")
	for _, o := range cmp.Outcomes {
		r := o.Result
		fmt.Fprintf(tw, "%s\t%.1f\t%.1f\t%.2f\t%.2f\n", r.Architecture,
			r.Metrics.TimeSatisfiedPct, r.Metrics.PowerSatisfiedPct, r.Metrics.EnergyNotServedKWh, r.Costs.TotalCost)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(cmp.Deltas) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DELTA\tCOST\tPEAK kW\tPOWER %\tENS kWh")
	for _, d := range cmp.Deltas {
		fmt.Fprintf(tw, "%s - %s\t%+.2f\t%+.2f\t%+.1f\t%+.2f\n", d.A, d.B,
			d.TotalCost, d.PeakKW, d.PowerSatisfiedPct, d.EnergyNotServedKWh)
	}
	return tw.Flush()
}
