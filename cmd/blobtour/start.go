package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/yourorg/blobtour/internal/types"
	"github.com/yourorg/blobtour/internal/workflow"
)

var (
	startWait   bool
	startDelete bool
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Submit a walkthrough run to the Temporal worker",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		c, err := client.Dial(client.Options{HostPort: cfg.Temporal.Address, Namespace: cfg.Temporal.Namespace})
		if err != nil {
			return fmt.Errorf("temporal client: %w", err)
		}
		defer c.Close()

		params := types.WalkthroughParams{
			ContainerPrefix: cfg.ContainerPrefix,
			FilePrefix:      cfg.FilePrefix,
			Content:         cfg.Content,
			Metadata:        cfg.Metadata,
			DeleteContainer: startDelete,
		}
		opts := client.StartWorkflowOptions{
			ID:        "blobtour-" + uuid.NewString(),
			TaskQueue: cfg.Temporal.TaskQueue,
		}
		run, err := c.ExecuteWorkflow(ctx, opts, workflow.WalkthroughWorkflow, params)
		if err != nil {
			return fmt.Errorf("start workflow: %w", err)
		}
		logger.Info("workflow started", zap.String("workflowID", run.GetID()), zap.String("runID", run.GetRunID()))
		fmt.Fprintf(out, "Started workflow %s (run %s)\n", run.GetID(), run.GetRunID())
		if !startWait {
			return nil
		}

		var res types.WalkthroughResult
		if err := run.Get(ctx, &res); err != nil {
			return fmt.Errorf("workflow %s: %w", run.GetID(), err)
		}
		fmt.Fprintf(out, "Container: %s\n", res.Container)
		for _, s := range res.Steps {
			if s.Error != "" {
				fmt.Fprintf(out, "\t%s: failed (%s): %s\n", s.Step, s.Kind, s.Error)
				continue
			}
			fmt.Fprintf(out, "\t%s: ok\n", s.Step)
		}
		if res.CleanupError != "" {
			fmt.Fprintf(out, "Container cleanup failed: %s\n", res.CleanupError)
		}
		return nil
	},
}

func init() {
	startCmd.Flags().BoolVar(&startWait, "wait", false, "wait for the workflow to finish and print its result")
	startCmd.Flags().BoolVar(&startDelete, "delete-container", false, "delete the container once the run finishes")
	rootCmd.AddCommand(startCmd)
}
