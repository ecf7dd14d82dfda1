package walkthrough

import (
	"context"
	"sort"

	"github.com/yourorg/blobtour/internal/storage"
)

// ReadMetadata prints the container's metadata pairs. A failed service
// request is reported with its status and error code.
func (r *Runner) ReadMetadata(ctx context.Context, c *storage.Container) StepResult {
	res := StepResult{Step: StepMetadata}
	props, err := c.Properties(ctx)
	if err != nil {
		if re, ok := storage.AsRequestError(err); ok {
			r.printf("HTTP error code %d: %s\n", re.StatusCode, re.ErrorCode)
			r.printf("%s\n", re.Message)
			res = r.fail(res, err)
			r.pace(ctx, continuePrompt)
			return res
		}
		r.printf("Error reading container metadata: %s\n", err)
		return r.fail(res, err)
	}

	r.printf("Container metadata:\n")
	keys := make([]string, 0, len(props.Metadata))
	for k := range props.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		r.printf("\tKey: %s\n", k)
		r.printf("\tValue: %s\n", props.Metadata[k])
	}
	res.Metadata = props.Metadata
	return res
}
