package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teslashibe/liftviz/pkg/animation"
	"github.com/teslashibe/liftviz/pkg/session"
)

func (a *app) simulateCmd() *cobra.Command {
	var (
		samples int
		params  map[string]string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "simulate <lift>",
		Short: "Sample one lift cycle and print angles and torque",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseParams(params)
			if err != nil {
				return err
			}
			skeletons, profiles, err := a.registries()
			if err != nil {
				return err
			}

			series, err := session.Simulate(skeletons, profiles, args[0], values, samples)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(series)
			}
			printSeries(series)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVarP(&samples, "samples", "n", 24, "number of evenly spaced samples")
	f.StringToStringVarP(&params, "param", "p", nil, "setup parameter override, key=value (repeatable)")
	f.BoolVar(&asJSON, "json", false, "print the full series as JSON")
	return cmd
}

func parseParams(in map[string]string) (animation.Parameters, error) {
	out := make(animation.Parameters, len(in))
	for k, raw := range in {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

func printSeries(series session.Series) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "%s\tcycle %.1fs\tparameters %v\n\n", series.Lift, series.Duration, series.Parameters)
	fmt.Fprintln(tw, "TIME\tPROGRESS\tPHASE\tBAR\tTOTAL TORQUE")
	for _, p := range series.Samples {
		fmt.Fprintf(tw, "%.2f\t%.3f\t%s\t(%.1f, %.1f)\t%.2f\n", p.Time, p.Progress, p.Phase, p.Bar.X, p.Bar.Y, p.TotalTorque)
	}
}
