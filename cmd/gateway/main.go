// In file: cmd/gateway/main.go
package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Agent gateway answers questions over enterprise data with tool-calling models",
	Long: `The agent gateway lets a language model plan queries against a caller's
permitted collections, runs them, and synthesizes an answer with a reasoning trace.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "config.yaml", "Path to the gateway configuration file")
}

// newLogger builds the root logger. Components take named sub-loggers.
func newLogger(cfg *AppConfig) hclog.Logger {
	level := hclog.LevelFromString(cfg.LogLevel)
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       "gateway",
		Level:      level,
		JSONFormat: cfg.LogJSON,
		Output:     os.Stderr,
	})
}

func loadConfig(cmd *cobra.Command) (*AppConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	if env := os.Getenv("GATEWAY_CONFIG"); env != "" && !cmd.Flags().Changed("config") {
		path = env
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}
