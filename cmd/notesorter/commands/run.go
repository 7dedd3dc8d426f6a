package commands

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cashm/note-sorter/internal/capture"
	"github.com/cashm/note-sorter/internal/cycle"
	"github.com/cashm/note-sorter/internal/input"
	"github.com/cashm/note-sorter/internal/ipc"
	"github.com/cashm/note-sorter/internal/link"
	"github.com/cashm/note-sorter/internal/store"
	"github.com/cashm/note-sorter/internal/telemetry"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the sorting control loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.Default()

			db, err := store.NewDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			sinks := []telemetry.Sink{telemetry.NewJournal(db)}
			if cfg.TelemetryURL != "" {
				sinks = append(sinks, telemetry.NewHTTPSink(cfg.TelemetryURL))
			}
			sink := telemetry.NewFanout(logger, sinks...)

			client := link.NewClient(cfg.ActuatorPorts, link.SerialDialer(cfg.ActuatorBaud), logger)
			client.Settle = link.SettleDelay
			if err := client.Connect(); err != nil {
				// The engine stays up; sends fail fast until restart.
				logger.Printf("actuator unavailable: %v", err)
			}
			defer client.Close()

			cam := &capture.ExecCamera{
				Command: cfg.CaptureCommand,
				Args:    cfg.CaptureArgs,
				Dir:     cfg.CaptureDir,
			}
			classifier := capture.NewHTTPClassifier(cfg.ClassifierURL)

			queue := input.NewQueue(time.Duration(cfg.DebounceMs)*time.Millisecond, logger)
			reader := input.NewLineReader(queue, logger)

			ctrl := cycle.NewController(cam, classifier, client, reader, sink, logger)

			dispatcher := input.NewDispatcher(queue, ctrl, logger)
			dispatcher.PollInterval = time.Duration(cfg.PollIntervalMs) * time.Millisecond

			handler := &ipc.Handler{
				DB:          db,
				JournalRepo: &store.JournalRepo{},
				TallyRepo:   &store.TallyRepo{},
				Queue:       queue,
				Controller:  ctrl,
			}
			srv := ipc.NewServer(handler, cfg.ListenAddr)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go reader.Run(ctx, os.Stdin)
			go func() {
				if err := srv.Start(); err != nil && err != http.ErrServerClosed {
					logger.Printf("status api: %v", err)
				}
			}()
			logger.Printf("status api listening on %s", ipc.FormatListenURL(cfg.ListenAddr))

			err = dispatcher.Run(ctx)

			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if serr := srv.Shutdown(shutCtx); serr != nil {
				logger.Printf("status api shutdown: %v", serr)
			}

			if errors.Is(err, context.Canceled) {
				logger.Printf("shutting down")
				return nil
			}
			return err
		},
	}
}
