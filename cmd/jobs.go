package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var workerMode bool

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Re-derive gateway status for open orders",
	Long:  "Fetch the gateway status of every open order in the order book and apply forward transitions. Covers callbacks that never arrived.",
	Run: func(_ *cobra.Command, _ []string) {
		rt := mustCreateRuntime()
		defer rt.cleanup()

		job := func(ctx context.Context) error {
			report, err := rt.service.RunReconcileBatch(ctx, rt.orders)
			logrus.WithFields(logrus.Fields{
				"checked": report.Checked,
				"updated": report.Updated,
				"failed":  report.Failed,
			}).Info("reconcile_report")
			return err
		}

		if workerMode {
			runWorker("reconcile", rt.cfg.Jobs.ReconcileInterval, job)
			return
		}
		runJob("reconcile", func() error { return job(context.Background()) })
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	reconcileCmd.Flags().BoolVar(&workerMode, "worker", false, "Run continuously using the configured interval")
}

func runWorker(name string, interval time.Duration, fn func(ctx context.Context) error) {
	if interval <= 0 {
		logrus.WithField("job", name).Fatal("invalid worker interval")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runJob(name, func() error { return fn(ctx) })

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	for {
		select {
		case <-quit:
			logrus.WithField("job", name).Info("Worker shutdown requested")
			return
		case <-ticker.C:
			runJob(name, func() error { return fn(ctx) })
		}
	}
}

func runJob(name string, fn func() error) {
	start := time.Now()
	err := fn()
	latency := time.Since(start)
	if err != nil {
		logrus.WithError(err).WithField("job", name).WithField("latency", latency.String()).Error("job_failed")
		return
	}
	logrus.WithField("job", name).WithField("latency", latency.String()).Info("job_completed")
}
