package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/logging"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/store"
	"github.com/spf13/cobra"
)

// #region main

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		dbPath    string
		last      int
		sessionID string
		jsonOut   bool
	)
	cmd := &cobra.Command{
		Use:          "inspect",
		Short:        "Inspect recorded negotiation sessions",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := store.NewStore(dbPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer st.Close()

			if sessionID != "" {
				return runDetailMode(st, sessionID, jsonOut)
			}
			return runListMode(st, last, jsonOut)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "path to negotiations.db")
	cmd.Flags().IntVar(&last, "last", 20, "show N most recent sessions")
	cmd.Flags().StringVar(&sessionID, "session", "", "show one session turn by turn")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON instead of table")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

// #endregion main

// #region list-mode

type listRow struct {
	SessionID        string  `json:"session_id"`
	Domain           string  `json:"domain"`
	StartedAt        string  `json:"started_at"`
	EndedAt          string  `json:"ended_at,omitempty"`
	Outcome          string  `json:"outcome,omitempty"`
	AgreementUtility float64 `json:"agreement_utility,omitempty"`
}

func runListMode(st *store.Store, last int, jsonOut bool) error {
	sessions, err := st.ListSessions(last)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(os.Stderr, "no sessions found")
		return nil
	}

	rows := make([]listRow, len(sessions))
	for i, s := range sessions {
		rows[i] = listRow{
			SessionID:        s.SessionID,
			Domain:           s.Domain,
			StartedAt:        s.StartedAt.Format(time.RFC3339),
			Outcome:          s.Outcome,
			AgreementUtility: s.AgreementUtility,
		}
		if !s.Open() {
			rows[i].EndedAt = s.EndedAt.Format(time.RFC3339)
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tDOMAIN\tSTARTED\tOUTCOME\tUTILITY")
	for _, r := range rows {
		outcome, util := r.Outcome, "-"
		if outcome == "" {
			outcome = "open"
		}
		if r.AgreementUtility > 0 {
			util = fmt.Sprintf("%.4f", r.AgreementUtility)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.SessionID, r.Domain, r.StartedAt, outcome, util)
	}
	return tw.Flush()
}

// #endregion list-mode

// #region detail-mode

type turnRow struct {
	Turn            int                  `json:"turn"`
	Time            float64              `json:"time"`
	Received        json.RawMessage      `json:"received,omitempty"`
	ReceivedUtility float64              `json:"received_utility"`
	Counter         json.RawMessage      `json:"counter,omitempty"`
	CounterUtility  float64              `json:"counter_utility"`
	Target          float64              `json:"target"`
	Accepted        bool                 `json:"accepted"`
	Reason          string               `json:"reason,omitempty"`
	Signals         *logging.TurnSignals `json:"signals,omitempty"`
}

type detail struct {
	Session listRow   `json:"session"`
	Turns   []turnRow `json:"turns"`
}

func runDetailMode(st *store.Store, sessionID string, jsonOut bool) error {
	sess, err := st.GetSession(sessionID)
	if err != nil {
		return err
	}
	turns, err := st.ListTurns(sessionID)
	if err != nil {
		return err
	}

	d := detail{Session: listRow{
		SessionID:        sess.SessionID,
		Domain:           sess.Domain,
		StartedAt:        sess.StartedAt.Format(time.RFC3339),
		Outcome:          sess.Outcome,
		AgreementUtility: sess.AgreementUtility,
	}}
	if !sess.Open() {
		d.Session.EndedAt = sess.EndedAt.Format(time.RFC3339)
	}
	for _, t := range turns {
		row := turnRow{
			Turn:            t.Turn,
			Time:            t.Time,
			ReceivedUtility: t.ReceivedUtility,
			CounterUtility:  t.CounterUtility,
			Target:          t.Target,
			Accepted:        t.Accepted,
			Reason:          t.Reason,
		}
		if t.ReceivedJSON != "" {
			row.Received = json.RawMessage(t.ReceivedJSON)
		}
		if t.CounterJSON != "" {
			row.Counter = json.RawMessage(t.CounterJSON)
		}
		if t.SignalsJSON != "" {
			var sig logging.TurnSignals
			if err := json.Unmarshal([]byte(t.SignalsJSON), &sig); err == nil {
				row.Signals = &sig
			}
		}
		d.Turns = append(d.Turns, row)
	}

	if jsonOut {
		return printJSON(d)
	}

	fmt.Printf("Session:  %s\n", d.Session.SessionID)
	fmt.Printf("Domain:   %s\n", d.Session.Domain)
	fmt.Printf("Started:  %s\n", d.Session.StartedAt)
	if d.Session.EndedAt != "" {
		fmt.Printf("Ended:    %s (%s, utility %.4f)\n", d.Session.EndedAt, d.Session.Outcome, d.Session.AgreementUtility)
	}
	fmt.Println()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TURN\tTIME\tRECEIVED\tU(RECV)\tTARGET\tCOUNTER\tU(CNTR)\tDECISION")
	for _, r := range d.Turns {
		decision := "counter"
		if r.Accepted {
			decision = "accept"
		}
		fmt.Fprintf(tw, "%d\t%.3f\t%s\t%.4f\t%.4f\t%s\t%.4f\t%s\n",
			r.Turn, r.Time, orDash(r.Received), r.ReceivedUtility, r.Target,
			orDash(r.Counter), r.CounterUtility, decision)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, r := range d.Turns {
		if r.Reason != "" {
			fmt.Printf("  turn %d: %s\n", r.Turn, r.Reason)
		}
	}
	return nil
}

// #endregion detail-mode

// #region helpers

func orDash(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "-"
	}
	return string(raw)
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// #endregion helpers
