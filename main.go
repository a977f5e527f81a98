package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"duel/internal/config"
)

func main() {
	var configPath, envPath, logLevel, logFormat string

	rootCmd := &cobra.Command{
		Use:   "duel",
		Short: "Two-player solitaire race over websockets",
		Long: `duel runs a real-time two-player solitaire race.

Start a server with "duel serve" and connect each player with "duel play".
The player reads key events from stdin, one per line: "+2" presses key 2,
"-2" releases it. Keys: a d w s space 0-9 x (quit).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "JSON config file")
	rootCmd.PersistentFlags().StringVar(&envPath, "env-file", ".env", "dotenv file with DUEL_* overrides")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "text or json")

	// loadConfig layers the config file, DUEL_* variables and flags, then
	// installs the logger.
	loadConfig := func(cmd *cobra.Command) (config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return cfg, err
		}
		lookup, err := config.Env(envPath)
		if err != nil {
			return cfg, err
		}
		if err := cfg.ApplyEnv(lookup); err != nil {
			return cfg, err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.LogFormat = logFormat
		}
		if err := cfg.Validate(); err != nil {
			return cfg, err
		}
		level, _ := cfg.Level()
		slog.SetDefault(slog.New(newLogHandler(os.Stderr, cfg.LogFormat, level)))
		return cfg, nil
	}

	rootCmd.AddCommand(
		serveCmd(loadConfig),
		playCmd(loadConfig),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

type configLoader func(cmd *cobra.Command) (config.Config, error)

func newLogHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
