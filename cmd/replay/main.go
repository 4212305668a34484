package main

import (
	"context"
	"fmt"
	"os"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/replay"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/store"
	"github.com/spf13/cobra"
)

// #region main

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var (
		dbPath      string
		sessionID   string
		fixturePath string
		exitCode    int
	)
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-run a recorded negotiation and compare decisions",
		Long: "Replays a session from a fixture file (--fixture) or straight from the\n" +
			"negotiation database (--db --session) and prints turn-by-turn differences.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (dbPath == "") == (fixturePath == "") {
				exitCode = 2
				return fmt.Errorf("exactly one of --db or --fixture is required")
			}
			var (
				f   *replay.Fixture
				err error
			)
			if fixturePath != "" {
				f, err = replay.LoadFixture(fixturePath)
			} else {
				f, err = fixtureFromDB(dbPath, sessionID)
			}
			if err != nil {
				exitCode = 2
				return err
			}
			exitCode = runFixture(cmd.Context(), f)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "path to negotiations.db (DB mode)")
	cmd.Flags().StringVar(&sessionID, "session", "", "session to replay in DB mode (default: most recent)")
	cmd.Flags().StringVar(&fixturePath, "fixture", "", "path to fixture JSON (fixture mode)")
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		if exitCode == 0 {
			exitCode = 2
		}
	}
	return exitCode
}

// #endregion main

// #region db-extract

func fixtureFromDB(dbPath, sessionID string) (*replay.Fixture, error) {
	st, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	if sessionID == "" {
		recent, err := st.ListSessions(1)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		if len(recent) == 0 {
			return nil, fmt.Errorf("no sessions recorded in %s", dbPath)
		}
		sessionID = recent[0].SessionID
	}

	sess, err := st.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	turns, err := st.ListTurns(sessionID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	if len(turns) == 0 {
		return nil, fmt.Errorf("session %s has no turns", sessionID)
	}
	return replay.FixtureFromStore(sess, turns)
}

// #endregion db-extract

// #region output

func runFixture(ctx context.Context, f *replay.Fixture) int {
	space, interactions, config, err := f.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}
	results, err := replay.Replay(ctx, space, interactions, config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}
	code := printComparison(results, f.ExpectedResults)

	s := replay.Summarize(results)
	fmt.Printf("Agent: %d counters, %d distinct bids, %d eval failures",
		s.Counters, s.DistinctBids, s.EvalFailures)
	if s.Agreement {
		fmt.Printf(", agreement at %.4f", s.AgreementUtility)
	}
	fmt.Println()
	for _, r := range results {
		if !r.Eval.Passed {
			fmt.Printf("  turn %d: %s\n", r.Turn, r.Eval.Reason)
		}
	}
	return code
}

// printComparison outputs a comparison table and returns exit code.
func printComparison(results []replay.ReplayResult, expected []replay.FixtureExpectedResult) int {
	fmt.Printf("%-12s| %-15s| %-15s| %s\n", "Turn", "Expected", "Replayed", "Match")
	fmt.Printf("%-12s+%-15s+%-15s+%s\n",
		"------------", "----------------", "----------------", "------")

	diffs := make(map[int]bool)
	for _, m := range replay.Compare(results, expected) {
		diffs[m.Turn] = true
	}

	total := max(len(results), len(expected))
	matches := 0
	for i := 0; i < total; i++ {
		turn, exp, got := i+1, "-", "-"
		if i < len(expected) {
			turn, exp = expected[i].Turn, expected[i].Action
		}
		if i < len(results) {
			got = results[i].Action
		}
		match := "DIFF"
		if i < len(expected) && i < len(results) && !diffs[turn] {
			match = "OK"
			matches++
		}
		fmt.Printf("%-12d| %-15s| %-15s| %s\n", turn, exp, got, match)
	}

	diverge := total - matches
	fmt.Printf("\nSummary: %d total, %d match, %d diverge\n", total, matches, diverge)

	if diverge > 0 {
		return 1
	}
	return 0
}

// #endregion output
