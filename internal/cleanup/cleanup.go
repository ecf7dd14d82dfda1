// Package cleanup removes what earlier walkthrough runs left behind: the
// remote containers and the generated files in the working directory.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/yourorg/blobtour/internal/ledger"
	"github.com/yourorg/blobtour/internal/storage"
)

// Ledger is the part of the run ledger cleanup needs.
type Ledger interface {
	Get(ctx context.Context, container string) (ledger.Run, error)
	List(ctx context.Context) ([]ledger.Run, error)
	Delete(ctx context.Context, container string) error
}

type Summary struct {
	Deleted []string
	Skipped []string
	Failed  map[string]error
}

type Cleaner struct {
	store   storage.ObjectStore
	backend string
	ledger  Ledger
	out     io.Writer
	log     *zap.Logger
}

func New(store storage.ObjectStore, backend string, l Ledger, out io.Writer, log *zap.Logger) *Cleaner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cleaner{store: store, backend: backend, ledger: l, out: out, log: log}
}

// Run removes every recorded run created on the configured backend. A failure
// on one run is reported and the rest still proceed; that run stays in the
// ledger for the next attempt.
func (c *Cleaner) Run(ctx context.Context) (Summary, error) {
	sum := Summary{Failed: map[string]error{}}
	runs, err := c.ledger.List(ctx)
	if err != nil {
		return sum, fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(c.out, "Nothing to clean up.")
		return sum, nil
	}
	for _, run := range runs {
		c.clean(ctx, run, &sum)
	}
	return sum, nil
}

// RunOne removes a single recorded run. Unlike Run, an unknown container or a
// failed removal is returned as an error.
func (c *Cleaner) RunOne(ctx context.Context, container string) (Summary, error) {
	sum := Summary{Failed: map[string]error{}}
	run, err := c.ledger.Get(ctx, container)
	if err != nil {
		return sum, fmt.Errorf("run %s: %w", container, err)
	}
	c.clean(ctx, run, &sum)
	if err := sum.Failed[container]; err != nil {
		return sum, err
	}
	if len(sum.Skipped) > 0 {
		return sum, fmt.Errorf("run %s was created on the %s backend, not %s", container, run.Backend, c.backend)
	}
	return sum, nil
}

func (c *Cleaner) clean(ctx context.Context, run ledger.Run, sum *Summary) {
	if run.Backend != c.backend {
		fmt.Fprintf(c.out, "Skipping container '%s' (created on %s backend).\n", run.Container, run.Backend)
		sum.Skipped = append(sum.Skipped, run.Container)
		return
	}
	if err := RemoveRun(ctx, c.store, run); err != nil {
		fmt.Fprintf(c.out, "Failed to delete container '%s': %s\n", run.Container, err)
		c.log.Error("cleanup failed", zap.String("container", run.Container), zap.Error(err))
		sum.Failed[run.Container] = err
		return
	}
	if err := c.ledger.Delete(ctx, run.Container); err != nil {
		sum.Failed[run.Container] = err
		return
	}
	fmt.Fprintf(c.out, "Deleted container '%s' and %d local file(s).\n", run.Container, len(run.LocalFiles))
	c.log.Info("run cleaned up", zap.String("container", run.Container), zap.Int("files", len(run.LocalFiles)))
	sum.Deleted = append(sum.Deleted, run.Container)
}

// RemoveRun deletes the run's container and local files. Anything already
// gone counts as removed.
func RemoveRun(ctx context.Context, store storage.ObjectStore, run ledger.Run) error {
	if err := store.DeleteContainer(ctx, run.Container); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("delete container %s: %w", run.Container, err)
	}
	for _, p := range run.LocalFiles {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}
