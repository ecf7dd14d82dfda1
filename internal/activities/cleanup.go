package activities

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/yourorg/blobtour/internal/storage"
	"github.com/yourorg/blobtour/internal/types"
)

// CleanupContainer deletes the run's container and its blobs.
// It is safe to call even if the container doesn't exist.
func (a *Activities) CleanupContainer(ctx context.Context, p types.CleanupParams) error {
	if p.Container == "" {
		// Safety: an empty name would address the account root on some backends.
		return errors.New("invalid container for cleanup")
	}
	if err := a.cfg.Store.DeleteContainer(ctx, p.Container); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	a.cfg.Logger.Info("container deleted", zap.String("container", p.Container))
	return nil
}
