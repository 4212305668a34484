package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/bidspace"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/profile"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/simulate"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/store"
	"github.com/spf13/cobra"
)

func simulateCmd() *cobra.Command {
	var (
		matches  int
		rounds   int
		parallel int
		seed     uint64
		dbPath   string
		jsonOut  bool
	)
	cmd := &cobra.Command{
		Use:   "simulate [profile-a] [profile-b]",
		Short: "Negotiate two profiles against each other",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if matches < 1 || rounds < 1 {
				return fmt.Errorf("--matches and --rounds must be positive")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			a, err := profile.Load(args[0])
			if err != nil {
				return err
			}
			b, err := profile.Load(args[1])
			if err != nil {
				return err
			}

			runner := &simulate.Runner{Config: cfg.Agent(), Logger: log}
			if dbPath != "" {
				st, err := store.NewStore(dbPath)
				if err != nil {
					return fmt.Errorf("open store: %w", err)
				}
				defer st.Close()
				runner.Recorder = st
			}

			ms := make([]simulate.Match, matches)
			for i := range ms {
				ms[i] = simulate.Match{
					Name:   fmt.Sprintf("match-%03d", i+1),
					A:      a,
					B:      b,
					Rounds: rounds,
					SeedA:  seed + 2*uint64(i),
					SeedB:  seed + 2*uint64(i) + 1,
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			results, err := runner.RunAll(ctx, ms, parallel)
			if err != nil {
				return err
			}
			summary := simulate.Summarize(results, a, b)

			if jsonOut {
				data, _ := json.MarshalIndent(struct {
					Results []simulate.Result `json:"results"`
					Summary simulate.Summary  `json:"summary"`
				}{results, summary}, "", "  ")
				fmt.Println(string(data))
				return nil
			}
			printResults(results, summary)
			return nil
		},
	}
	cmd.Flags().IntVar(&matches, "matches", 10, "number of negotiations")
	cmd.Flags().IntVar(&rounds, "rounds", 200, "turns per negotiation, both sides counted")
	cmd.Flags().IntVar(&parallel, "parallel", 4, "negotiations run at once")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "seed of the first match; later matches count up from it")
	cmd.Flags().StringVar(&dbPath, "db", "", "record every session to this SQLite file")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	return cmd
}

func printResults(results []simulate.Result, s simulate.Summary) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MATCH\tOUTCOME\tBY\tTURNS\tBIDS(A/B)\tU(A)\tU(B)")
	for _, r := range results {
		by := r.AcceptedBy
		if by == "" {
			by = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d/%d\t%.4f\t%.4f\n",
			r.Name, r.Outcome, by, r.Turns, r.DistinctA, r.DistinctB, r.UtilityA, r.UtilityB)
	}
	tw.Flush()

	fmt.Printf("\n%d/%d agreements, mean turns %.1f\n", s.Agreements, s.Matches, s.MeanTurns)
	fmt.Printf("A: mean utility %.4f (reservation %s), %s\n", s.MeanUtilityA, reservation(s.ReservationA), spread(s.SpaceA))
	fmt.Printf("B: mean utility %.4f (reservation %s), %s\n", s.MeanUtilityB, reservation(s.ReservationB), spread(s.SpaceB))
}

func spread(st bidspace.Stats) string {
	return fmt.Sprintf("%d bids in [%.4f, %.4f], mean %.4f sd %.4f", st.Bids, st.Min, st.Max, st.Mean, st.Stdev)
}

func reservation(v float64) string {
	if v < 0 {
		return "none"
	}
	return fmt.Sprintf("%.4f", v)
}
