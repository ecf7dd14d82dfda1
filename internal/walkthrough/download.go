package walkthrough

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/yourorg/blobtour/internal/iopkg"
	znmetrics "github.com/yourorg/blobtour/internal/metrics"
	"github.com/yourorg/blobtour/internal/naming"
	"github.com/yourorg/blobtour/internal/storage"
)

var (
	// ErrUnsafeBlobName means a blob name does not map to a file inside the temporary directory.
	ErrUnsafeBlobName = errors.New("blob name does not map to a local file")
	// ErrDownloadNameClash means two blobs map to the same local file name.
	ErrDownloadNameClash = errors.New("blobs map to the same local file")
)

// Download fetches every blob into a fresh temporary directory, then copies
// the results into the working directory. The temporary directory is removed
// before Download returns, whatever the outcome.
func (r *Runner) Download(ctx context.Context, c *storage.Container) (res StepResult) {
	res = StepResult{Step: StepDownload}
	tmp, release, err := iopkg.TempDir(r.cfg.TempRoot, "blobtour-*")
	if err != nil {
		r.printf("Error downloading blobs: %s\n", err)
		return r.fail(res, err)
	}
	defer func() {
		if err := release(); err != nil {
			r.log.Warn("remove temp dir", zap.String("path", tmp), zap.Error(err))
		}
	}()

	if err := r.download(ctx, c, tmp, &res); err != nil {
		r.printf("Error downloading blobs: %s\n", err)
		return r.fail(res, err)
	}
	return res
}

func (r *Runner) download(ctx context.Context, c *storage.Container, tmp string, res *StepResult) error {
	r.printf("Listing blobs...\n")
	// local file name -> blob it came from
	seen := map[string]string{}
	for name, err := range c.ListBlobs(ctx) {
		if err != nil {
			return fmt.Errorf("list blobs in %s: %w", c.Name, err)
		}
		r.printf("\t%s\n", name)
		local := naming.DownloadName(name)
		if prev, ok := seen[local]; ok {
			return fmt.Errorf("blobs %q and %q: %w", prev, name, ErrDownloadNameClash)
		}
		seen[local] = name
		dst := filepath.Join(tmp, local)
		if filepath.Dir(dst) != filepath.Clean(tmp) {
			return fmt.Errorf("blob %q: %w", name, ErrUnsafeBlobName)
		}
		r.printf("\nDownloading blob to\n\t%s\n\n", dst)
		if err := r.downloadBlob(ctx, c, name, dst); err != nil {
			return err
		}
		res.Blobs = append(res.Blobs, name)
	}

	r.printf("\nCopying downloaded files to persistent directory: %s\n", r.cfg.WorkDir)
	if err := iopkg.EnsureDir(r.cfg.WorkDir); err != nil {
		return err
	}
	copied, err := iopkg.CopyDir(tmp, r.cfg.WorkDir)
	res.Files = copied
	if err != nil {
		return fmt.Errorf("copy to %s: %w", r.cfg.WorkDir, err)
	}
	if r.journal != nil {
		for _, name := range res.Blobs {
			if err := r.journal.RecordBlob(ctx, c.Name, name, filepath.Join(r.cfg.WorkDir, naming.DownloadName(name))); err != nil {
				r.log.Warn("journal download", zap.String("blob", name), zap.Error(err))
			}
		}
	}

	r.printf("\nLocate the downloaded files in the temporary directory: %s\n", tmp)
	r.printf("The next step is to delete the container and local files.\n")
	r.pace(ctx, continuePrompt)
	return nil
}

func (r *Runner) downloadBlob(ctx context.Context, c *storage.Container, name, dst string) error {
	rc, _, err := c.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("download %s: %w", name, err)
	}
	defer rc.Close()
	w, closer, err := iopkg.Create(dst)
	if err != nil {
		return err
	}
	n, err := io.Copy(w, rc)
	if cerr := closer.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("download %s: %w", name, err)
	}
	znmetrics.BlobsDownloaded.Inc()
	znmetrics.BytesTransferred.WithLabelValues("download").Add(float64(n))
	r.log.Info("blob downloaded", zap.String("container", c.Name), zap.String("blob", name), zap.String("path", dst), zap.Int64("bytes", n))
	return nil
}
