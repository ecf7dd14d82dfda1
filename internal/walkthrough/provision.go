package walkthrough

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	znmetrics "github.com/yourorg/blobtour/internal/metrics"
	"github.com/yourorg/blobtour/internal/naming"
	"github.com/yourorg/blobtour/internal/storage"
)

// Provision creates a uniquely named container. There is no retry; an error
// here ends the run.
func (r *Runner) Provision(ctx context.Context) (*storage.Container, error) {
	name := naming.ContainerName(r.cfg.ContainerPrefix)
	if err := naming.ValidateContainerName(name); err != nil {
		return nil, fmt.Errorf("container %q: %w", name, err)
	}
	if err := r.store.CreateContainer(ctx, name, r.cfg.Metadata); err != nil {
		return nil, fmt.Errorf("create container %s: %w", name, err)
	}
	znmetrics.ContainersCreated.Inc()
	r.log.Info("container created", zap.String("container", name), zap.String("backend", r.cfg.Backend))
	if r.journal != nil {
		if err := r.journal.RecordContainer(ctx, name, r.cfg.Backend); err != nil {
			r.log.Warn("journal container", zap.String("container", name), zap.Error(err))
		}
	}

	r.printf("A container named '%s' has been created. "+
		"\nTake a minute and verify in the portal."+
		"\nNext a file will be created and uploaded to the container.\n", name)
	r.pace(ctx, continuePrompt)
	return storage.NewContainer(r.store, name), nil
}
