package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourorg/blobtour/internal/cleanup"
	"github.com/yourorg/blobtour/internal/ledger"
	"github.com/yourorg/blobtour/internal/storage"
)

var cleanupContainer string

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete containers and local files created by earlier runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		store, err := storage.Open(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
		}
		lg, err := ledger.Open(cfg.LedgerDir)
		if err != nil {
			return fmt.Errorf("open run ledger: %w", err)
		}
		defer lg.Close()

		cleaner := cleanup.New(store, cfg.Storage.Backend, lg, out, logger)
		var sum cleanup.Summary
		if cleanupContainer != "" {
			sum, err = cleaner.RunOne(ctx, cleanupContainer)
		} else {
			sum, err = cleaner.Run(ctx)
		}
		if err != nil {
			return err
		}
		logger.Info("cleanup finished",
			zap.Int("deleted", len(sum.Deleted)),
			zap.Int("skipped", len(sum.Skipped)),
			zap.Int("failed", len(sum.Failed)))
		if len(sum.Failed) > 0 {
			names := make([]string, 0, len(sum.Failed))
			for name := range sum.Failed {
				names = append(names, name)
			}
			sort.Strings(names)
			return fmt.Errorf("cleanup failed for %d run(s): %v", len(names), names)
		}
		return nil
	},
}

func init() {
	cleanupCmd.Flags().StringVar(&cleanupContainer, "container", "", "clean up only the run that created this container")
	rootCmd.AddCommand(cleanupCmd)
}
