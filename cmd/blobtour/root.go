// Command blobtour walks through the basic object-storage operations against
// the configured backend.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourorg/blobtour/internal/config"
	"github.com/yourorg/blobtour/internal/ledger"
	"github.com/yourorg/blobtour/internal/logging"
	znmetrics "github.com/yourorg/blobtour/internal/metrics"
	"github.com/yourorg/blobtour/internal/storage"
	"github.com/yourorg/blobtour/internal/walkthrough"
)

var envFile string

var (
	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "blobtour",
	Short: "Guided tour of blob storage",
	Long: `Creates a container, uploads a generated text file, lists the container,
downloads every blob and prints the container metadata.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		var err error
		cfg, err = config.FromEnv(files...)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger = logging.New(cfg.LogLevel)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runWalkthrough,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", ".env file to load (default is ./.env)")
	rootCmd.Flags().Bool("no-pause", false, "do not wait for Enter between steps")
}

func runWalkthrough(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if cfg.MetricsAddr != "" {
		znmetrics.Init()
		go func() {
			if err := znmetrics.Serve(cfg.MetricsAddr); err != nil {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
	}

	pacer := walkthrough.NoPause
	if noPause, _ := cmd.Flags().GetBool("no-pause"); cfg.Interactive && !noPause {
		pacer = walkthrough.PromptPacer(cmd.InOrStdin(), out)
	}
	opts := []walkthrough.Option{
		walkthrough.WithOutput(out),
		walkthrough.WithPacer(pacer),
		walkthrough.WithLogger(logger),
	}
	lg, err := ledger.Open(cfg.LedgerDir)
	if err != nil {
		logger.Warn("run ledger unavailable, cleanup will not know about this run", zap.String("dir", cfg.LedgerDir), zap.Error(err))
	} else {
		defer lg.Close()
		opts = append(opts, walkthrough.WithJournal(lg))
	}

	fmt.Fprintln(out, "Azure Blob Storage exercise")
	fmt.Fprintln(out)

	runner := walkthrough.New(store, walkthrough.Config{
		WorkDir:         cfg.WorkDir,
		ContainerPrefix: cfg.ContainerPrefix,
		FilePrefix:      cfg.FilePrefix,
		Content:         cfg.Content,
		Metadata:        cfg.Metadata,
		Backend:         cfg.Storage.Backend,
	}, opts...)
	report, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("provision container: %w", err)
	}

	if failed := report.Failures(); len(failed) > 0 {
		steps := make([]string, 0, len(failed))
		for _, f := range failed {
			steps = append(steps, string(f.Step))
		}
		fmt.Fprintf(out, "\n%d step(s) failed: %s\n", len(failed), strings.Join(steps, ", "))
	}

	pacer(ctx, "Press enter to exit the sample application.")
	return nil
}
