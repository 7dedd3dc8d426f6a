package commands

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cashm/note-sorter/internal/domain"
	"github.com/cashm/note-sorter/internal/link"
)

func viewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Move the gantry to the compartment viewing position",
		RunE: func(cmd *cobra.Command, args []string) error {
			return oneShot(domain.Command{Kind: domain.CmdViewCompartment})
		},
	}
}

func homeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Return the gantry to its home position",
		RunE: func(cmd *cobra.Command, args []string) error {
			return oneShot(domain.Command{Kind: domain.CmdHome})
		},
	}
}

// oneShot connects, sends a single command, and waits for its terminal
// response.
func oneShot(c domain.Command) error {
	logger := log.Default()

	client := link.NewClient(cfg.ActuatorPorts, link.SerialDialer(cfg.ActuatorBaud), logger)
	client.Settle = link.SettleDelay
	if err := client.Connect(); err != nil {
		return err
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := client.Send(ctx, c); err != nil {
		return fmt.Errorf("%s: %w", c.Token(), err)
	}
	logger.Printf("%s complete", c.Token())
	return nil
}
