package walkthrough

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/yourorg/blobtour/internal/iopkg"
	znmetrics "github.com/yourorg/blobtour/internal/metrics"
	"github.com/yourorg/blobtour/internal/naming"
	"github.com/yourorg/blobtour/internal/storage"
)

// Upload writes a freshly named text file into the working directory and
// uploads it as a blob of the same name.
func (r *Runner) Upload(ctx context.Context, c *storage.Container) StepResult {
	res := StepResult{Step: StepUpload}
	blob, path, url, err := r.upload(ctx, c)
	if err != nil {
		if classify(err) == KindDirectoryNotFound {
			r.printf("Error: %s\n", err)
		} else {
			r.printf("Unexpected error: %s\n", err)
		}
		return r.fail(res, err)
	}
	res.Blobs = []string{blob}
	res.Files = []string{path}

	r.printf("\nThe file was uploaded to\n\t %s\nWe'll verify by listing the blobs next.\n", url)
	r.pace(ctx, continuePrompt)
	return res
}

func (r *Runner) upload(ctx context.Context, c *storage.Container) (string, string, string, error) {
	if err := r.ensureWorkDir(r.cfg.WorkDir); err != nil {
		return "", "", "", err
	}
	name := naming.FileName(r.cfg.FilePrefix, ".txt")
	path := filepath.Join(r.cfg.WorkDir, name)
	if err := iopkg.WriteText(path, r.cfg.Content); err != nil {
		return "", "", "", err
	}
	if r.journal != nil {
		if err := r.journal.RecordBlob(ctx, c.Name, name, path); err != nil {
			r.log.Warn("journal blob", zap.String("blob", name), zap.Error(err))
		}
	}

	r.printf("Uploading to Blob storage as blob:\n\t %s\n\n", c.BlobURL(name))

	rc, size, err := iopkg.Open(path)
	if err != nil {
		return "", "", "", err
	}
	defer rc.Close()
	url, err := c.Put(ctx, name, rc, size)
	if err != nil {
		return "", "", "", fmt.Errorf("upload %s: %w", name, err)
	}
	znmetrics.BlobsUploaded.Inc()
	znmetrics.BytesTransferred.WithLabelValues("upload").Add(float64(size))
	r.log.Info("blob uploaded", zap.String("container", c.Name), zap.String("blob", name), zap.String("url", url), zap.Int64("bytes", size))
	return name, path, url, nil
}
