package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"iter"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const localMetadataDir = ".metadata"

// LocalStore keeps each container as a directory under root. Container
// metadata lives in a JSON sidecar outside the container directory so it never
// shows up in listings.
type LocalStore struct {
	root string
}

func NewLocal(root string) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Join(root, localMetadataDir), 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{root: root}, nil
}

func (l *LocalStore) containerPath(name string) string { return filepath.Join(l.root, name) }

func (l *LocalStore) metadataPath(name string) string {
	return filepath.Join(l.root, localMetadataDir, name+".json")
}

func localError(err error, notFoundCode string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrExist):
		return &RequestError{StatusCode: http.StatusConflict, ErrorCode: "ContainerAlreadyExists", Message: "the specified container already exists", Err: err}
	case errors.Is(err, fs.ErrNotExist):
		msg := "the specified blob does not exist"
		if notFoundCode == "ContainerNotFound" {
			msg = "the specified container does not exist"
		}
		return &RequestError{StatusCode: http.StatusNotFound, ErrorCode: notFoundCode, Message: msg, Err: err}
	case errors.Is(err, fs.ErrPermission):
		return &RequestError{StatusCode: http.StatusForbidden, ErrorCode: "AuthorizationPermissionMismatch", Message: "permission denied", Err: err}
	default:
		return err
	}
}

func validLocalName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || name == localMetadataDir {
		return &RequestError{StatusCode: http.StatusBadRequest, ErrorCode: "InvalidResourceName", Message: "invalid name: " + name}
	}
	return nil
}

func (l *LocalStore) CreateContainer(_ context.Context, name string, metadata map[string]string) error {
	if err := validLocalName(name); err != nil {
		return err
	}
	if err := os.Mkdir(l.containerPath(name), 0o755); err != nil {
		return localError(err, "ContainerNotFound")
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	b, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	return os.WriteFile(l.metadataPath(name), b, 0o644)
}

func (l *LocalStore) DeleteContainer(_ context.Context, name string) error {
	if err := validLocalName(name); err != nil {
		return err
	}
	if _, err := os.Stat(l.containerPath(name)); err != nil {
		return localError(err, "ContainerNotFound")
	}
	if err := os.RemoveAll(l.containerPath(name)); err != nil {
		return localError(err, "ContainerNotFound")
	}
	if err := os.Remove(l.metadataPath(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (l *LocalStore) ListBlobs(_ context.Context, container string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := validLocalName(container); err != nil {
			yield("", err)
			return
		}
		d, err := os.Open(l.containerPath(container))
		if err != nil {
			yield("", localError(err, "ContainerNotFound"))
			return
		}
		defer d.Close()
		for {
			entries, err := d.ReadDir(64)
			for _, e := range entries {
				if !e.Type().IsRegular() {
					continue
				}
				if !yield(e.Name(), nil) {
					return
				}
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", err)
				return
			}
		}
	}
}

func (l *LocalStore) Get(_ context.Context, container, blob string) (io.ReadCloser, int64, error) {
	if err := validLocalName(container); err != nil {
		return nil, 0, err
	}
	if err := validLocalName(blob); err != nil {
		return nil, 0, err
	}
	if _, err := os.Stat(l.containerPath(container)); err != nil {
		return nil, 0, localError(err, "ContainerNotFound")
	}
	f, err := os.Open(filepath.Join(l.containerPath(container), blob))
	if err != nil {
		return nil, 0, localError(err, "BlobNotFound")
	}
	size := int64(0)
	if info, _ := f.Stat(); info != nil {
		size = info.Size()
	}
	return f, size, nil
}

func (l *LocalStore) Put(_ context.Context, container, blob string, body io.Reader, _ int64) (string, error) {
	if err := validLocalName(container); err != nil {
		return "", err
	}
	if err := validLocalName(blob); err != nil {
		return "", err
	}
	if _, err := os.Stat(l.containerPath(container)); err != nil {
		return "", localError(err, "ContainerNotFound")
	}
	f, err := os.Create(filepath.Join(l.containerPath(container), blob))
	if err != nil {
		return "", localError(err, "ContainerNotFound")
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return l.BlobURL(container, blob), nil
}

func (l *LocalStore) BlobURL(container, blob string) string {
	return "file://" + filepath.ToSlash(filepath.Join(l.containerPath(container), blob))
}

func (l *LocalStore) ContainerProperties(_ context.Context, container string) (Properties, error) {
	if err := validLocalName(container); err != nil {
		return Properties{}, err
	}
	if _, err := os.Stat(l.containerPath(container)); err != nil {
		return Properties{}, localError(err, "ContainerNotFound")
	}
	props := Properties{Metadata: map[string]string{}}
	b, err := os.ReadFile(l.metadataPath(container))
	if errors.Is(err, fs.ErrNotExist) {
		return props, nil
	}
	if err != nil {
		return Properties{}, err
	}
	if err := json.Unmarshal(b, &props.Metadata); err != nil {
		return Properties{}, err
	}
	if props.Metadata == nil {
		props.Metadata = map[string]string{}
	}
	return props, nil
}
