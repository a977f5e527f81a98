package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"duel/internal/client"
	"duel/internal/transport"
)

func playCmd(load configLoader) *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Join a game server and play from stdin key events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("url") {
				cfg.ServerURL = url
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cli, err := transport.Dial(ctx, cfg.ServerURL, transport.Options{})
			if err != nil {
				return err
			}
			defer cli.Close()

			logger := slog.Default().With("component", "client")
			keys := make(chan client.KeyEvent, 64)
			go func() {
				err := client.ReadKeys(ctx, os.Stdin, keys, func(err error) {
					logger.Warn("ignoring input", "error", err)
				})
				if err != nil && ctx.Err() == nil {
					logger.Error("reading keys", "error", err)
				}
			}()

			s := client.NewSession(cli, keys, client.Options{
				TickInterval: cfg.TickInterval(),
				Logger:       logger,
			})
			return s.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&url, "url", "u", "", "game server websocket URL")
	return cmd
}
