package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) liftsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lifts [lift]",
		Short: "List lifts, or show one lift's phases and setup parameters",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			skeletons, profiles, err := a.registries()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			defer tw.Flush()

			if len(args) == 0 {
				fmt.Fprintln(tw, "LIFT\tROOT\tJOINTS\tCYCLE\tPARAMETERS")
				for _, lift := range skeletons.List() {
					r, err := skeletons.Get(lift)
					if err != nil {
						return err
					}
					p := profiles.Ensure(r.Lift)
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\n", r.Lift, r.Root, len(r.Joints()), p.Duration, len(p.Parameters))
				}
				return nil
			}

			r, err := skeletons.Get(args[0])
			if err != nil {
				return err
			}
			p := profiles.Ensure(r.Lift)

			fmt.Fprintf(tw, "%s\troot %s\tcycle %s\n", r.Lift, r.Root, p.Duration)
			fmt.Fprintf(tw, "joints\t%s\n", strings.Join(r.Joints(), ", "))
			fmt.Fprintln(tw)
			fmt.Fprintln(tw, "AT\tPHASE")
			for _, kf := range p.Keyframes {
				fmt.Fprintf(tw, "%.2f\t%s\n", kf.At, kf.Label)
			}
			fmt.Fprintln(tw)
			fmt.Fprintln(tw, "PARAMETER\tDEFAULT\tRANGE\tCHANNELS")
			for _, d := range p.Parameters {
				fmt.Fprintf(tw, "%s\t%g %s\t[%g, %g]\t%s\n", d.Key, d.Default, d.Unit, d.Min, d.Max, strings.Join(d.Channels, ","))
			}
			return nil
		},
	}
}
