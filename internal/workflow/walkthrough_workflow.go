package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/yourorg/blobtour/internal/types"
	"github.com/yourorg/blobtour/internal/walkthrough"
)

// Activity names as registered by the worker.
const (
	ProvisionActivity = "Activities.ProvisionContainer"
	UploadActivity    = "Activities.UploadBlob"
	ListActivity      = "Activities.ListBlobs"
	DownloadActivity  = "Activities.DownloadBlobs"
	MetadataActivity  = "Activities.ReadMetadata"
	CleanupActivity   = "Activities.CleanupContainer"
)

var steps = []struct {
	activity string
	step     walkthrough.Step
}{
	{UploadActivity, walkthrough.StepUpload},
	{ListActivity, walkthrough.StepList},
	{DownloadActivity, walkthrough.StepDownload},
	{MetadataActivity, walkthrough.StepMetadata},
}

// WalkthroughWorkflow runs the walkthrough steps one after another. Only a
// provisioning failure fails the workflow; every other step's outcome,
// failed or not, is returned in the result.
func WalkthroughWorkflow(ctx workflow.Context, p types.WalkthroughParams) (types.WalkthroughResult, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		// No retries beyond what the storage client does internally.
		RetryPolicy: &temporal.RetryPolicy{MaximumAttempts: 1},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	logger := workflow.GetLogger(ctx)

	var res types.WalkthroughResult
	var prov types.ProvisionResult
	if err := workflow.ExecuteActivity(ctx, ProvisionActivity, p).Get(ctx, &prov); err != nil {
		return res, err
	}
	res.Container = prov.Container
	res.Steps = append(res.Steps, types.StepOutcome{Step: string(walkthrough.StepProvision)})

	sp := types.StepParams{Params: p, Container: prov.Container}
	for _, s := range steps {
		var out types.StepOutcome
		if err := workflow.ExecuteActivity(ctx, s.activity, sp).Get(ctx, &out); err != nil {
			// the activity itself did not complete (timeout, lost worker)
			out = types.StepOutcome{Step: string(s.step), Error: err.Error(), Kind: walkthrough.KindGeneric.String()}
		}
		if out.Error != "" {
			logger.Warn("step failed", "step", out.Step, "error", out.Error)
		}
		res.Steps = append(res.Steps, out)
	}

	if p.DeleteContainer {
		if err := workflow.ExecuteActivity(ctx, CleanupActivity, types.CleanupParams{Container: prov.Container}).Get(ctx, nil); err != nil {
			res.CleanupError = err.Error()
		}
	}
	return res, nil
}
