package cli

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"apflow/internal/service"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the extraction queue worker",
	Long: `Polls for PENDING documents and runs the extraction pipeline on each:
download, primary and fallback extraction, field resolution, line-item
reconciliation, and the low-confidence review gate. Runs until SIGINT or
SIGTERM and drains in-flight extractions before exiting.`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	worker := service.NewExtractQueueWorker(a.docs, a.extraction, service.ExtractQueueConfig{
		PollInterval: time.Duration(a.cfg.Queue.PollIntervalSecs) * time.Second,
		Concurrency:  a.cfg.Queue.Concurrency,
		RatePerSec:   a.cfg.Queue.ExtractRatePerSec,
		Burst:        a.cfg.Queue.ExtractBurst,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Extraction worker starting")
	worker.Start(ctx)
	return nil
}
