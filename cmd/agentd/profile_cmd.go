package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/bidspace"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/profile"
	"github.com/spf13/cobra"
)

func profileCmd() *cobra.Command {
	var (
		near  float64
		width float64
	)
	cmd := &cobra.Command{
		Use:   "profile [path]",
		Short: "Describe a preference profile and its bid space",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			space, err := profile.Load(args[0])
			if err != nil {
				return err
			}
			if near < 0 || near > 1 || width < 0 {
				return fmt.Errorf("--near must be in [0,1] and --width non-negative")
			}
			return describeProfile(os.Stdout, space, near, width)
		},
	}
	cmd.Flags().Float64Var(&near, "near", 1, "list bids around this own utility")
	cmd.Flags().Float64Var(&width, "width", 0.05, "half-width of the utility band around --near")
	return cmd
}

func describeProfile(w io.Writer, space *profile.LinearAdditive, near, width float64) error {
	ix := bidspace.Build(space)
	st := ix.Stats()

	fmt.Fprintf(w, "Domain %s, reservation %s\n", space.Domain().Name(), reservation(space.ReservationValue()))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ISSUE\tWEIGHT\tVALUES")
	for i, is := range space.Domain().Issues() {
		fmt.Fprintf(tw, "%s\t%.4f\t%d\n", is.Name, space.Weight(i), len(is.Values))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Space: %s\n", spread(st))
	if st.Bids == 0 {
		return nil
	}

	closest := ix.ClosestTo(near)
	fmt.Fprintf(w, "Closest to %.4f: %s (%.4f)\n", near, closest.Bid, closest.Utility)
	band := ix.InRange(near, width, width)
	fmt.Fprintf(w, "%d bids within %.4f of %.4f\n", len(band), width, near)
	for i := len(band) - 1; i >= 0; i-- {
		fmt.Fprintf(w, "  %.4f  %s\n", band[i].Utility, band[i].Bid)
	}
	return nil
}
