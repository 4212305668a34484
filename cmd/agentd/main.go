package main

import (
	"fmt"
	"os"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/config"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgPath  string
	logLevel string
)

// #region main
func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "agentd",
		Short:         "Bilateral negotiation agent",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&cfgPath, "config", envOr("AGENT_CONFIG", ""), "config file (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level from the config")
	cmd.AddCommand(serveCmd())
	cmd.AddCommand(simulateCmd())
	cmd.AddCommand(playCmd())
	cmd.AddCommand(configCmd())
	cmd.AddCommand(profileCmd())
	return cmd
}

// #endregion main

// #region helpers
func loadConfig() (config.Config, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}
	return config.Load(cfgPath)
}

func newLogger(cfg config.Config) (*logrus.Logger, error) {
	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	return logging.New(os.Stderr, level, cfg.Log.Format)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
