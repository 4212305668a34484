package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/profile"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/rpc"
	"github.com/spf13/cobra"
)

// #region play
func playCmd() *cobra.Command {
	var (
		addr      string
		rounds    int
		deadline  time.Duration
		agentOpen bool
	)
	cmd := &cobra.Command{
		Use:   "play [profile]",
		Short: "Negotiate by hand against a running agent",
		Long: "Opens a session on a running agent with the given profile and reads\n" +
			"offers from stdin as issue=value pairs. 'accept' takes the last\n" +
			"counter-offer, 'quit' walks away.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Listen
			}
			space, err := profile.Load(args[0])
			if err != nil {
				return err
			}

			client, err := rpc.NewAgentClient(addr)
			if err != nil {
				return fmt.Errorf("connect to agent at %s: %w", addr, err)
			}
			defer client.Close()

			req := rpc.OpenRequest{FirstMove: agentOpen, Rounds: rounds}
			if deadline > 0 {
				req.Rounds = 0
				req.DeadlineMS = deadline.Milliseconds()
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			opened, err := client.OpenProfile(ctx, space, req)
			cancel()
			if err != nil {
				return err
			}

			fmt.Printf("Session %s on %s.\n", opened.SessionID, addr)
			for _, is := range space.Domain().Issues() {
				fmt.Printf("  %s: %s\n", is.Name, strings.Join(is.Values, " | "))
			}
			fmt.Println("Type an offer (issue=value ...), 'accept' or 'quit':")
			if opened.First != nil {
				printTurn(*opened.First)
			}
			return loop(cmd.Context(), client, opened.SessionID)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "agent address (default server.listen)")
	cmd.Flags().IntVar(&rounds, "rounds", 40, "turns in the negotiation")
	cmd.Flags().DurationVar(&deadline, "deadline", 0, "wall-clock deadline instead of rounds")
	cmd.Flags().BoolVar(&agentOpen, "agent-first", false, "let the agent make the opening bid")
	return cmd
}

func loop(ctx context.Context, client *rpc.AgentClient, sessionID string) error {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "quit", "exit":
			return closeAs(ctx, client, sessionID, "aborted")
		case "accept":
			return closeAs(ctx, client, sessionID, "accepted_by_opponent")
		}

		bid, err := parseBid(line)
		if err != nil {
			fmt.Println(err)
			continue
		}
		tctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		res, err := client.Receive(tctx, rpc.ReceiveRequest{SessionID: sessionID, Bid: bid})
		cancel()
		if err != nil {
			fmt.Printf("agent error: %v\n", err)
			continue
		}
		printTurn(res)
		if res.Action == "accept" {
			return nil
		}
	}
	return closeAs(ctx, client, sessionID, "aborted")
}

func closeAs(ctx context.Context, client *rpc.AgentClient, sessionID, outcome string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	res, err := client.CloseSession(ctx, rpc.CloseRequest{SessionID: sessionID, Outcome: outcome})
	if err != nil {
		return err
	}
	fmt.Printf("Session closed: %s\n", res.Outcome)
	return nil
}

// #endregion play

// #region helpers
func parseBid(line string) (map[string]string, error) {
	bid := make(map[string]string)
	for _, field := range strings.Fields(strings.ReplaceAll(line, ",", " ")) {
		issue, value, ok := strings.Cut(field, "=")
		if !ok || issue == "" || value == "" {
			return nil, fmt.Errorf("expected issue=value, got %q", field)
		}
		bid[issue] = value
	}
	return bid, nil
}

func formatBid(bid map[string]string) string {
	keys := make([]string, 0, len(bid))
	for k := range bid {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + bid[k]
	}
	return strings.Join(parts, " ")
}

func printTurn(t rpc.TurnResult) {
	switch t.Action {
	case "accept":
		fmt.Printf("[turn %d t=%.2f] agent accepts %s (utility %.4f)\n", t.Turn, t.Time, formatBid(t.Bid), t.Utility)
	default:
		fmt.Printf("[turn %d t=%.2f] agent offers %s (utility %.4f, target %.4f)\n",
			t.Turn, t.Time, formatBid(t.Bid), t.Utility, t.Target)
	}
}

// #endregion helpers
