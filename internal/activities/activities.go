package activities

import (
	"context"
	"io"

	"go.temporal.io/sdk/activity"
	"go.uber.org/zap"

	"github.com/yourorg/blobtour/internal/storage"
	"github.com/yourorg/blobtour/internal/types"
	"github.com/yourorg/blobtour/internal/walkthrough"
)

type Config struct {
	Store   storage.ObjectStore
	Backend string
	// WorkDir is used when a run does not name its own.
	WorkDir string
	Logger  *zap.Logger
	Journal walkthrough.Journal
}

type Activities struct {
	cfg Config
}

func New(cfg Config) *Activities {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Activities{cfg: cfg}
}

func (a *Activities) runner(ctx context.Context, p types.WalkthroughParams) *walkthrough.Runner {
	workDir := p.WorkDir
	if workDir == "" {
		workDir = a.cfg.WorkDir
	}
	log := a.cfg.Logger
	if activity.IsActivity(ctx) {
		info := activity.GetInfo(ctx)
		log = log.With(zap.String("workflowID", info.WorkflowExecution.ID), zap.String("activity", info.ActivityType.Name))
	}
	opts := []walkthrough.Option{walkthrough.WithOutput(io.Discard), walkthrough.WithLogger(log)}
	if a.cfg.Journal != nil {
		opts = append(opts, walkthrough.WithJournal(a.cfg.Journal))
	}
	return walkthrough.New(a.cfg.Store, walkthrough.Config{
		WorkDir:         workDir,
		ContainerPrefix: p.ContainerPrefix,
		FilePrefix:      p.FilePrefix,
		Content:         p.Content,
		Metadata:        p.Metadata,
		Backend:         a.cfg.Backend,
	}, opts...)
}

func (a *Activities) container(p types.StepParams) *storage.Container {
	return storage.NewContainer(a.cfg.Store, p.Container)
}

// ProvisionContainer fails the activity on error; the workflow treats that as fatal.
func (a *Activities) ProvisionContainer(ctx context.Context, p types.WalkthroughParams) (types.ProvisionResult, error) {
	c, err := a.runner(ctx, p).Provision(ctx)
	if err != nil {
		return types.ProvisionResult{}, err
	}
	return types.ProvisionResult{Container: c.Name}, nil
}

// The remaining steps never fail the activity for a step error: the outcome
// carries it so the workflow can continue.

func (a *Activities) UploadBlob(ctx context.Context, p types.StepParams) (types.StepOutcome, error) {
	return Outcome(a.runner(ctx, p.Params).Upload(ctx, a.container(p))), nil
}

func (a *Activities) ListBlobs(ctx context.Context, p types.StepParams) (types.StepOutcome, error) {
	return Outcome(a.runner(ctx, p.Params).List(ctx, a.container(p))), nil
}

func (a *Activities) DownloadBlobs(ctx context.Context, p types.StepParams) (types.StepOutcome, error) {
	return Outcome(a.runner(ctx, p.Params).Download(ctx, a.container(p))), nil
}

func (a *Activities) ReadMetadata(ctx context.Context, p types.StepParams) (types.StepOutcome, error) {
	return Outcome(a.runner(ctx, p.Params).ReadMetadata(ctx, a.container(p))), nil
}

// Outcome converts a step result into its serializable form.
func Outcome(res walkthrough.StepResult) types.StepOutcome {
	out := types.StepOutcome{
		Step:     string(res.Step),
		Blobs:    res.Blobs,
		Files:    res.Files,
		Metadata: res.Metadata,
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
		out.Kind = res.Kind.String()
	}
	return out
}
