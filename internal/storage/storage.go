package storage

import (
	"context"
	"io"
	"iter"
)

// ObjectStore defines the container and blob operations the walkthrough needs.
type ObjectStore interface {
	// CreateContainer creates a new container; metadata may be nil.
	CreateContainer(ctx context.Context, name string, metadata map[string]string) error
	// DeleteContainer removes the container and every blob in it.
	DeleteContainer(ctx context.Context, name string) error
	// ListBlobs lazily enumerates blob names. Each call starts a fresh listing;
	// ordering is whatever the service returns.
	ListBlobs(ctx context.Context, container string) iter.Seq2[string, error]
	// Get returns a reader for the blob and its size when known.
	Get(ctx context.Context, container, blob string) (io.ReadCloser, int64, error)
	// Put uploads body as the named blob; returns the blob's destination identifier.
	Put(ctx context.Context, container, blob string, body io.Reader, size int64) (string, error)
	// BlobURL returns the destination identifier of a blob without contacting the service.
	BlobURL(container, blob string) string
	// ContainerProperties fetches container-level properties.
	ContainerProperties(ctx context.Context, container string) (Properties, error)
}

// Properties is the container property bag. Metadata is never nil.
type Properties struct {
	Metadata map[string]string
}

// Container binds a container name to the store that owns it.
type Container struct {
	Name  string
	store ObjectStore
}

// NewContainer returns a handle for an existing container.
func NewContainer(store ObjectStore, name string) *Container {
	return &Container{Name: name, store: store}
}

func (c *Container) ListBlobs(ctx context.Context) iter.Seq2[string, error] {
	return c.store.ListBlobs(ctx, c.Name)
}

func (c *Container) Get(ctx context.Context, blob string) (io.ReadCloser, int64, error) {
	return c.store.Get(ctx, c.Name, blob)
}

func (c *Container) Put(ctx context.Context, blob string, body io.Reader, size int64) (string, error) {
	return c.store.Put(ctx, c.Name, blob, body, size)
}

func (c *Container) BlobURL(blob string) string {
	return c.store.BlobURL(c.Name, blob)
}

func (c *Container) Properties(ctx context.Context) (Properties, error) {
	return c.store.ContainerProperties(ctx, c.Name)
}

// BlobNames drains ListBlobs into a slice.
func BlobNames(ctx context.Context, c *Container) ([]string, error) {
	var names []string
	for name, err := range c.ListBlobs(ctx) {
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}
