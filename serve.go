package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"duel/internal/database"
	"duel/internal/game"
	"duel/internal/metrics"
	"duel/internal/server"
	"duel/internal/transport"
)

func serveCmd(load configLoader) *cobra.Command {
	var (
		listen     string
		tickRate   int
		maxPlayers int
		dbPath     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the authoritative game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.Listen = listen
			}
			if cmd.Flags().Changed("tick-rate") {
				cfg.TickRate = tickRate
			}
			if cmd.Flags().Changed("max-players") {
				cfg.MaxPlayers = maxPlayers
			}
			if cmd.Flags().Changed("db") {
				cfg.DatabasePath = dbPath
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg.Listen, cfg.DatabasePath, cfg.TickInterval(), cfg.MaxPlayers)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "HTTP listen address")
	cmd.Flags().IntVar(&tickRate, "tick-rate", 0, "ticks per second")
	cmd.Flags().IntVar(&maxPlayers, "max-players", 0, "simultaneous players")
	cmd.Flags().StringVar(&dbPath, "db", "", "session ledger DSN (default in-memory)")
	return cmd
}

func runServe(ctx context.Context, listen, dsn string, tick time.Duration, maxPlayers int) error {
	logger := slog.Default().With("component", "serve")

	store, err := database.NewStore(dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	m := metrics.New(nil)
	hub := transport.NewServer(transport.Options{
		WriteTimeout: writeTimeout(tick),
		Logger:       slog.Default().With("component", "transport"),
	})
	mgr := server.NewManager(game.New(), hub, store, m, server.Options{
		TickInterval: tick,
		MaxPlayers:   maxPlayers,
	})

	srv := &http.Server{
		Addr:              listen,
		Handler:           server.NewHandler(store, m, hub).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		// Stop the tick loop if the listener dies.
		if err := <-serveErr; err != nil {
			logger.Error("http server failed", "error", err)
			cancel()
		}
	}()

	err = mgr.Run(runCtx)
	hub.Close()

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		logger.Warn("http shutdown", "error", serr)
	}
	logger.Info("server stopped")
	return err
}

// writeTimeout keeps a slow client from stalling the tick loop for more
// than a few ticks.
func writeTimeout(tick time.Duration) time.Duration {
	const floor = 20 * time.Millisecond
	if d := 4 * tick; d > floor {
		return d
	}
	return floor
}
