package main

import (
	"fmt"
	"os"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/replay"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/store"
	"github.com/spf13/cobra"
)

// #region main

func main() {
	var (
		dbPath    string
		sessionID string
		last      int
		outPath   string
	)
	cmd := &cobra.Command{
		Use:          "fixture-export",
		Short:        "Export a recorded session as a replay fixture",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(dbPath, sessionID, last, outPath)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "path to negotiations.db")
	cmd.Flags().StringVar(&sessionID, "session", "", "session to export")
	cmd.Flags().IntVar(&last, "last", 1, "export the Nth most recent session when --session is empty")
	cmd.Flags().StringVar(&outPath, "out", "", "output fixture JSON path")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("out")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

func run(dbPath, sessionID string, last int, outPath string) error {
	st, err := store.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	if sessionID == "" {
		if last < 1 {
			return fmt.Errorf("--last must be at least 1, got %d", last)
		}
		recent, err := st.ListSessions(last)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		if len(recent) < last {
			return fmt.Errorf("only %d sessions recorded", len(recent))
		}
		sessionID = recent[last-1].SessionID
	}

	sess, err := st.GetSession(sessionID)
	if err != nil {
		return err
	}
	turns, err := st.ListTurns(sessionID)
	if err != nil {
		return fmt.Errorf("list turns: %w", err)
	}
	if len(turns) == 0 {
		return fmt.Errorf("session %s has no turns", sessionID)
	}

	f, err := replay.FixtureFromStore(sess, turns)
	if err != nil {
		return err
	}
	if err := replay.WriteFixture(outPath, f); err != nil {
		return err
	}

	fmt.Printf("Exported %d turns of session %s to %s\n", len(f.Turns), sessionID, outPath)
	return nil
}

// #endregion extract
