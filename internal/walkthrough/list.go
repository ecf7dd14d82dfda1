package walkthrough

import (
	"context"
	"fmt"

	"github.com/yourorg/blobtour/internal/storage"
)

// List prints every blob name in the container. The working directory only
// appears in the follow-up message.
func (r *Runner) List(ctx context.Context, c *storage.Container) StepResult {
	res := StepResult{Step: StepList}
	r.printf("Listing blobs...\n")
	for name, err := range c.ListBlobs(ctx) {
		if err != nil {
			r.printf("Error listing blobs: %s\n", err)
			return r.fail(res, fmt.Errorf("list blobs in %s: %w", c.Name, err))
		}
		r.printf("\t%s\n", name)
		res.Blobs = append(res.Blobs, name)
	}

	r.printf("\nYou can also verify by looking inside the "+
		"container in the portal (local copies live in %s)."+
		"\nNext the blob will be downloaded with an altered file name.\n", r.cfg.WorkDir)
	r.pace(ctx, continuePrompt)
	return res
}
