package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/swarmseed/internal/objective"
	"github.com/cwbudde/swarmseed/internal/server"
)

var (
	workerAddr      string
	workerObjective string
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start an evaluation worker",
	Long: `Starts a stateless fitness-evaluation worker. A coordinator running
in distributed mode sends it position batches over HTTP; the worker holds no
swarm state of its own.`,
	RunE: runWorker,
}

func init() {
	workerCmd.Flags().StringVar(&workerAddr, "addr", ":8750", "Listen address")
	workerCmd.Flags().StringVar(&workerObjective, "objective", "sphere", "Objective function to serve")

	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	fn, err := objective.Lookup(workerObjective)
	if err != nil {
		return err
	}

	worker := server.NewWorker(workerAddr, fn.Eval)

	errCh := make(chan error, 1)
	go func() {
		if err := worker.Start(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		slog.Info("Received signal", "signal", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return worker.Shutdown(ctx)
}
