package walkthrough

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"iter"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/blobtour/internal/naming"
	"github.com/yourorg/blobtour/internal/storage"
)

// faultyStore wraps a real store and injects errors per operation.
type faultyStore struct {
	*storage.LocalStore
	createErr error
	putErr    error
	getErr    error
	propsErr  error
}

func (f *faultyStore) CreateContainer(ctx context.Context, name string, md map[string]string) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.LocalStore.CreateContainer(ctx, name, md)
}

func (f *faultyStore) Put(ctx context.Context, c, b string, body io.Reader, size int64) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	return f.LocalStore.Put(ctx, c, b, body, size)
}

func (f *faultyStore) Get(ctx context.Context, c, b string) (io.ReadCloser, int64, error) {
	if f.getErr != nil {
		return nil, 0, f.getErr
	}
	return f.LocalStore.Get(ctx, c, b)
}

func (f *faultyStore) ContainerProperties(ctx context.Context, c string) (storage.Properties, error) {
	if f.propsErr != nil {
		return storage.Properties{}, f.propsErr
	}
	return f.LocalStore.ContainerProperties(ctx, c)
}

// keyedStore lists and serves a fixed set of blobs, including names the local
// backend cannot hold.
type keyedStore struct {
	*storage.LocalStore
	blobs map[string]string
}

func (s *keyedStore) ListBlobs(context.Context, string) iter.Seq2[string, error] {
	names := make([]string, 0, len(s.blobs))
	for n := range s.blobs {
		names = append(names, n)
	}
	sort.Strings(names)
	return func(yield func(string, error) bool) {
		for _, n := range names {
			if !yield(n, nil) {
				return
			}
		}
	}
}

func (s *keyedStore) Get(_ context.Context, _, blob string) (io.ReadCloser, int64, error) {
	body := s.blobs[blob]
	return io.NopCloser(strings.NewReader(body)), int64(len(body)), nil
}

type recordingJournal struct {
	mu         sync.Mutex
	containers []string
	blobs      map[string][]string
}

func (j *recordingJournal) RecordContainer(_ context.Context, container, _ string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.containers = append(j.containers, container)
	return nil
}

func (j *recordingJournal) RecordBlob(_ context.Context, _, blob, path string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.blobs == nil {
		j.blobs = map[string][]string{}
	}
	j.blobs[blob] = append(j.blobs[blob], path)
	return nil
}

type fixture struct {
	store   *faultyStore
	cfg     Config
	out     bytes.Buffer
	prompts []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ls, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	return &fixture{
		store: &faultyStore{LocalStore: ls},
		cfg: Config{
			WorkDir:         filepath.Join(t.TempDir(), "files"),
			TempRoot:        t.TempDir(),
			ContainerPrefix: naming.DefaultContainerPrefix,
			FilePrefix:      naming.DefaultFilePrefix,
			Content:         "Hello, World!",
			Backend:         storage.BackendLocal,
		},
	}
}

func (f *fixture) runner(opts ...Option) *Runner {
	pace := func(_ context.Context, prompt string) { f.prompts = append(f.prompts, prompt) }
	return New(f.store, f.cfg, append([]Option{WithOutput(&f.out), WithPacer(pace)}, opts...)...)
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary directory left behind")
}

var uuidRe = `[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`

func TestRunScenario(t *testing.T) {
	f := newFixture(t)
	j := &recordingJournal{}
	report, err := f.runner(WithJournal(j)).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Failures())
	assert.Regexp(t, regexp.MustCompile(`^wtblob`+uuidRe+`$`), report.Container)

	require.Len(t, report.Results, 5)
	steps := []Step{StepProvision, StepUpload, StepList, StepDownload, StepMetadata}
	for i, res := range report.Results {
		assert.Equal(t, steps[i], res.Step)
	}

	upload := report.Results[1]
	require.Len(t, upload.Blobs, 1)
	blob := upload.Blobs[0]
	assert.Regexp(t, regexp.MustCompile(`^wtfile`+uuidRe+`\.txt$`), blob)

	assert.Equal(t, []string{blob}, report.Results[2].Blobs)
	assert.Equal(t, []string{blob}, report.Results[3].Blobs)

	downloaded := filepath.Join(f.cfg.WorkDir, blob+"_DOWNLOADED.txt")
	b, err := os.ReadFile(downloaded)
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!", string(b))
	assert.Equal(t, []string{downloaded}, report.Results[3].Files)

	src, err := os.ReadFile(filepath.Join(f.cfg.WorkDir, blob))
	require.NoError(t, err)
	assert.Equal(t, src, b, "round trip must be byte-identical")

	assert.Empty(t, report.Results[4].Metadata)
	assertEmptyDir(t, f.cfg.TempRoot)

	out := f.out.String()
	assert.Contains(t, out, "A container named '"+report.Container+"' has been created.")
	assert.Contains(t, out, "Uploading to Blob storage as blob:")
	assert.Contains(t, out, "The file was uploaded to\n\t "+f.store.BlobURL(report.Container, blob)+"\n")
	assert.Contains(t, out, "\t"+blob+"\n")
	assert.Contains(t, out, "Container metadata:")
	assert.NotContains(t, out, "Key:")
	assert.Len(t, f.prompts, 4)

	assert.Equal(t, []string{report.Container}, j.containers)
	assert.ElementsMatch(t, []string{filepath.Join(f.cfg.WorkDir, blob), downloaded}, j.blobs[blob])
}

func TestRunProvisionFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.store.createErr = &storage.RequestError{StatusCode: http.StatusForbidden, ErrorCode: "AuthorizationFailure", Message: "denied"}
	report, err := f.runner().Run(context.Background())
	require.Error(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, StepProvision, report.Results[0].Step)
	assert.Equal(t, KindRequest, report.Results[0].Kind)
	assert.Empty(t, report.Container)
	_, statErr := os.Stat(f.cfg.WorkDir)
	assert.True(t, errors.Is(statErr, fs.ErrNotExist), "later steps must not run")
}

func TestRunContinuesAfterUploadFailure(t *testing.T) {
	f := newFixture(t)
	f.store.putErr = errors.New("connection reset")
	report, err := f.runner().Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 5)

	failures := report.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, StepUpload, failures[0].Step)
	assert.Equal(t, KindGeneric, failures[0].Kind)
	assert.Contains(t, f.out.String(), "Unexpected error: upload")
	assert.Empty(t, report.Results[2].Blobs)
	assert.Contains(t, f.out.String(), "Container metadata:")
}

func TestDownloadRemovesTempDirOnFailure(t *testing.T) {
	f := newFixture(t)
	r := f.runner()
	ctx := context.Background()
	c, err := r.Provision(ctx)
	require.NoError(t, err)
	require.False(t, r.Upload(ctx, c).Failed())

	f.store.getErr = errors.New("stream interrupted")
	res := r.Download(ctx, c)
	require.True(t, res.Failed())
	assert.Contains(t, f.out.String(), "Error downloading blobs: download ")
	assertEmptyDir(t, f.cfg.TempRoot)

	f.store.getErr = nil
	res = r.Download(ctx, c)
	require.False(t, res.Failed(), "%v", res.Err)
	assertEmptyDir(t, f.cfg.TempRoot)
}

func TestDownloadOverwritesPersistentCopy(t *testing.T) {
	f := newFixture(t)
	r := f.runner()
	ctx := context.Background()
	c, err := r.Provision(ctx)
	require.NoError(t, err)
	_, err = c.Put(ctx, "x.txt", strings.NewReader("fresh"), 5)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(f.cfg.WorkDir, 0o755))
	stale := filepath.Join(f.cfg.WorkDir, "x.txt_DOWNLOADED.txt")
	require.NoError(t, os.WriteFile(stale, []byte("stale content"), 0o644))

	res := r.Download(ctx, c)
	require.False(t, res.Failed(), "%v", res.Err)
	b, err := os.ReadFile(stale)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(b))
}

func TestListReportsEveryBlob(t *testing.T) {
	f := newFixture(t)
	r := f.runner()
	ctx := context.Background()
	c, err := r.Provision(ctx)
	require.NoError(t, err)
	for _, n := range []string{"one.txt", "two.txt", "three.txt"} {
		_, err := c.Put(ctx, n, strings.NewReader(n), int64(len(n)))
		require.NoError(t, err)
	}
	res := r.List(ctx, c)
	require.False(t, res.Failed())
	assert.ElementsMatch(t, []string{"one.txt", "two.txt", "three.txt"}, res.Blobs)
}

func TestListFailureIsRecorded(t *testing.T) {
	f := newFixture(t)
	r := f.runner()
	res := r.List(context.Background(), storage.NewContainer(f.store, "never-created"))
	require.True(t, res.Failed())
	assert.Equal(t, KindRequest, res.Kind)
	assert.ErrorIs(t, res.Err, storage.ErrNotFound)
}

func TestReadMetadataPrintsPairs(t *testing.T) {
	f := newFixture(t)
	f.cfg.Metadata = map[string]string{"docType": "textDocuments", "category": "guidance"}
	r := f.runner()
	ctx := context.Background()
	c, err := r.Provision(ctx)
	require.NoError(t, err)
	res := r.ReadMetadata(ctx, c)
	require.False(t, res.Failed())
	assert.Equal(t, f.cfg.Metadata, res.Metadata)
	assert.Contains(t, f.out.String(), "Container metadata:\n\tKey: category\n\tValue: guidance\n\tKey: docType\n\tValue: textDocuments\n")
}

func TestReadMetadataRequestFailure(t *testing.T) {
	f := newFixture(t)
	r := f.runner()
	ctx := context.Background()
	c, err := r.Provision(ctx)
	require.NoError(t, err)
	prompts := len(f.prompts)

	f.store.propsErr = &storage.RequestError{StatusCode: http.StatusForbidden, ErrorCode: "AuthorizationFailure", Message: "This request is not authorized."}
	res := r.ReadMetadata(ctx, c)
	require.True(t, res.Failed())
	assert.Equal(t, KindRequest, res.Kind)
	assert.Contains(t, f.out.String(), "HTTP error code 403: AuthorizationFailure\nThis request is not authorized.\n")
	assert.Len(t, f.prompts, prompts+1)

	f.store.propsErr = errors.New("decode properties")
	res = r.ReadMetadata(ctx, c)
	assert.Equal(t, KindGeneric, res.Kind)
	assert.Contains(t, f.out.String(), "Error reading container metadata: decode properties")
}

func TestClassify(t *testing.T) {
	pathErr := &fs.PathError{Op: "open", Path: "/nope/f.txt", Err: fs.ErrNotExist}
	assert.Equal(t, KindDirectoryNotFound, classify(pathErr))
	assert.Equal(t, KindRequest, classify(&storage.RequestError{StatusCode: 404, Err: pathErr}))
	assert.Equal(t, KindGeneric, classify(errors.New("x")))
	assert.Equal(t, KindNone, classify(nil))
}

func TestUploadMissingWorkDirIsReportedAndRunContinues(t *testing.T) {
	f := newFixture(t)
	r := f.runner()
	// the directory disappears between preparation and the write
	r.ensureWorkDir = func(string) error { return nil }

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 5)

	failures := report.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, StepUpload, failures[0].Step)
	assert.Equal(t, KindDirectoryNotFound, failures[0].Kind)
	assert.ErrorIs(t, failures[0].Err, fs.ErrNotExist)

	out := f.out.String()
	assert.Contains(t, out, "Error: open "+f.cfg.WorkDir)
	assert.NotContains(t, out, "Unexpected error")
	assert.Contains(t, out, "Listing blobs...")
	assert.Contains(t, out, "Container metadata:")
	for _, res := range report.Results[2:] {
		assert.False(t, res.Failed(), "%s: %v", res.Step, res.Err)
	}
}

func TestDownloadKeepsNestedAndDottedBlobNamesInWorkDir(t *testing.T) {
	f := newFixture(t)
	base := t.TempDir()
	f.cfg.TempRoot = filepath.Join(base, "a", "b")
	require.NoError(t, os.MkdirAll(f.cfg.TempRoot, 0o755))
	ls, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	store := &keyedStore{LocalStore: ls, blobs: map[string]string{
		"docs/a.txt":        "nested",
		"../../escaped.txt": "dotted",
	}}
	r := New(store, f.cfg, WithOutput(&f.out))

	res := r.Download(context.Background(), storage.NewContainer(store, "wtblobkeyed"))
	require.False(t, res.Failed(), "%v", res.Err)
	assert.Equal(t, []string{"../../escaped.txt", "docs/a.txt"}, res.Blobs)
	require.Len(t, res.Files, 2)

	for name, want := range map[string]string{
		"docs_a.txt_DOWNLOADED.txt":        "nested",
		".._.._escaped.txt_DOWNLOADED.txt": "dotted",
	} {
		b, err := os.ReadFile(filepath.Join(f.cfg.WorkDir, name))
		require.NoError(t, err, name)
		assert.Equal(t, want, string(b))
	}

	// nothing was written outside the temporary root, which is empty again
	assertEmptyDir(t, f.cfg.TempRoot)
	require.NoError(t, filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		assert.False(t, strings.Contains(d.Name(), "escaped"), "stray file %s", path)
		return nil
	}))
}

func TestDownloadRejectsClashingLocalNames(t *testing.T) {
	f := newFixture(t)
	ls, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	store := &keyedStore{LocalStore: ls, blobs: map[string]string{
		"docs/a.txt": "one",
		"docs_a.txt": "two",
	}}
	r := New(store, f.cfg, WithOutput(&f.out))

	res := r.Download(context.Background(), storage.NewContainer(store, "wtblobkeyed"))
	require.True(t, res.Failed())
	assert.ErrorIs(t, res.Err, ErrDownloadNameClash)
	assert.Equal(t, KindGeneric, res.Kind)
	assert.Contains(t, f.out.String(), "Error downloading blobs: ")
	assertEmptyDir(t, f.cfg.TempRoot)
}
