// Package walkthrough drives the guided object-storage tour: provision a
// container, upload a generated file, list, download, and read metadata.
// Steps run strictly in order. Only provisioning can stop a run; every other
// step reports its outcome in a StepResult and the run moves on.
package walkthrough

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/yourorg/blobtour/internal/iopkg"
	znmetrics "github.com/yourorg/blobtour/internal/metrics"
	"github.com/yourorg/blobtour/internal/storage"
)

type Step string

const (
	StepProvision Step = "provisioning"
	StepUpload    Step = "uploading"
	StepList      Step = "listing"
	StepDownload  Step = "downloading"
	StepMetadata  Step = "reading-metadata"
)

// ErrorKind classifies a step failure.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindDirectoryNotFound
	KindRequest
	KindGeneric
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindDirectoryNotFound:
		return "directory-not-found"
	case KindRequest:
		return "request-failed"
	default:
		return "generic"
	}
}

// StepResult is the outcome of one step. Blobs and Files list what the step
// touched remotely and locally.
type StepResult struct {
	Step     Step
	Err      error
	Kind     ErrorKind
	Blobs    []string
	Files    []string
	Metadata map[string]string
}

func (r StepResult) Failed() bool { return r.Err != nil }

// Report collects every step result of a run in execution order.
type Report struct {
	Container string
	Results   []StepResult
}

// Failures returns the results that ended in an error.
func (r Report) Failures() []StepResult {
	var out []StepResult
	for _, res := range r.Results {
		if res.Failed() {
			out = append(out, res)
		}
	}
	return out
}

// Journal records what a run created so it can be cleaned up later.
type Journal interface {
	RecordContainer(ctx context.Context, container, backend string) error
	RecordBlob(ctx context.Context, container, blob, localPath string) error
}

type Config struct {
	// WorkDir is the persistent directory for generated files and final downloads.
	WorkDir string
	// TempRoot is where per-download temporary directories are created; empty means os.TempDir().
	TempRoot        string
	ContainerPrefix string
	FilePrefix      string
	Content         string
	Metadata        map[string]string
	Backend         string
}

type Runner struct {
	store   storage.ObjectStore
	cfg     Config
	out     io.Writer
	pace    Pacer
	log     *zap.Logger
	journal Journal

	// ensureWorkDir prepares WorkDir before the upload writes into it.
	ensureWorkDir func(string) error
}

type Option func(*Runner)

func WithOutput(w io.Writer) Option { return func(r *Runner) { r.out = w } }
func WithPacer(p Pacer) Option      { return func(r *Runner) { r.pace = p } }
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.log = l }
}
func WithJournal(j Journal) Option { return func(r *Runner) { r.journal = j } }

// New returns a Runner that prints to stdout and never pauses unless options
// say otherwise.
func New(store storage.ObjectStore, cfg Config, opts ...Option) *Runner {
	r := &Runner{store: store, cfg: cfg, out: os.Stdout, pace: NoPause, log: zap.NewNop(), ensureWorkDir: iopkg.EnsureDir}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run executes every step in order. The returned error is non-nil only when
// provisioning fails; all other failures are in the report.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	var report Report
	c, err := r.Provision(ctx)
	if err != nil {
		report.Results = append(report.Results, StepResult{Step: StepProvision, Err: err, Kind: classify(err)})
		return report, err
	}
	report.Container = c.Name
	report.Results = append(report.Results, StepResult{Step: StepProvision})

	steps := []func(context.Context, *storage.Container) StepResult{
		r.Upload,
		r.List,
		r.Download,
		r.ReadMetadata,
	}
	for _, step := range steps {
		report.Results = append(report.Results, step(ctx, c))
	}
	return report, nil
}

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func (r *Runner) fail(res StepResult, err error) StepResult {
	res.Err = err
	res.Kind = classify(err)
	znmetrics.StepFailures.WithLabelValues(string(res.Step)).Inc()
	r.log.Error("step failed", zap.String("step", string(res.Step)), zap.String("kind", res.Kind.String()), zap.Error(err))
	return res
}

func classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.As(err, new(*storage.RequestError)):
		return KindRequest
	case errors.Is(err, fs.ErrNotExist):
		return KindDirectoryNotFound
	default:
		return KindGeneric
	}
}
