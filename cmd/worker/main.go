package main

import (
	"context"
	"log"
	"os"

	tactivity "go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/yourorg/blobtour/internal/activities"
	"github.com/yourorg/blobtour/internal/config"
	"github.com/yourorg/blobtour/internal/ledger"
	"github.com/yourorg/blobtour/internal/logging"
	znmetrics "github.com/yourorg/blobtour/internal/metrics"
	"github.com/yourorg/blobtour/internal/storage"
	"github.com/yourorg/blobtour/internal/workflow"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal("config:", err)
	}
	// Ensure work dir exists and is writable
	_ = os.MkdirAll(cfg.WorkDir, 0o755)

	zl := logging.New(cfg.LogLevel)
	defer zl.Sync()

	metricsAddr := cfg.MetricsAddr
	if metricsAddr == "" {
		metricsAddr = ":9090"
	}
	znmetrics.Init()
	go func() {
		if err := znmetrics.Serve(metricsAddr); err != nil {
			zl.Warn("metrics server stopped", zap.Error(err))
		}
	}()

	store, err := storage.Open(context.Background(), cfg.Storage)
	if err != nil {
		zl.Fatal("storage", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}

	actCfg := activities.Config{Store: store, Backend: cfg.Storage.Backend, WorkDir: cfg.WorkDir, Logger: zl}
	// The ledger is single-writer; a worker sharing a ledger dir with a running CLI goes without one.
	if lg, err := ledger.Open(cfg.LedgerDir); err != nil {
		zl.Warn("run ledger unavailable, runs will not be recorded", zap.String("dir", cfg.LedgerDir), zap.Error(err))
	} else {
		defer lg.Close()
		actCfg.Journal = lg
	}

	c, err := client.Dial(client.Options{HostPort: cfg.Temporal.Address, Namespace: cfg.Temporal.Namespace})
	if err != nil {
		log.Fatal("temporal client:", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	acts := activities.New(actCfg)
	// Register activities with explicit names matching workflow.ExecuteActivity calls
	w.RegisterActivityWithOptions(acts.ProvisionContainer, tactivity.RegisterOptions{Name: workflow.ProvisionActivity})
	w.RegisterActivityWithOptions(acts.UploadBlob, tactivity.RegisterOptions{Name: workflow.UploadActivity})
	w.RegisterActivityWithOptions(acts.ListBlobs, tactivity.RegisterOptions{Name: workflow.ListActivity})
	w.RegisterActivityWithOptions(acts.DownloadBlobs, tactivity.RegisterOptions{Name: workflow.DownloadActivity})
	w.RegisterActivityWithOptions(acts.ReadMetadata, tactivity.RegisterOptions{Name: workflow.MetadataActivity})
	w.RegisterActivityWithOptions(acts.CleanupContainer, tactivity.RegisterOptions{Name: workflow.CleanupActivity})
	w.RegisterWorkflow(workflow.WalkthroughWorkflow)

	zl.Info("worker started",
		zap.String("namespace", cfg.Temporal.Namespace),
		zap.String("taskQueue", cfg.Temporal.TaskQueue),
		zap.String("backend", cfg.Storage.Backend),
		zap.String("workDir", cfg.WorkDir),
		zap.String("metrics", metricsAddr))
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatal("worker failed:", err)
	}
}
