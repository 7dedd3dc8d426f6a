package commands

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cashm/note-sorter/internal/link"
	"github.com/cashm/note-sorter/internal/store"
	"github.com/cashm/note-sorter/internal/tally"
)

func tallyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tally",
		Short: "Listen on the coin channel and maintain denomination counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.Default()

			db, err := store.NewDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			monitor := tally.NewMonitor(cfg.CoinPort, link.SerialDialer(cfg.CoinBaud), db, logger)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err = monitor.Run(ctx)
			if errors.Is(err, context.Canceled) {
				logger.Printf("tally: stopped")
				return nil
			}
			return err
		},
	}
}
