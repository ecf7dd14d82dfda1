package storage

import (
	"context"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/tags"
)

type MinIOConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// MinIOClient maps containers onto buckets and metadata onto bucket tags.
type MinIOClient struct {
	client *minio.Client
	region string
}

func NewMinIO(cfg MinIOConfig) (*MinIOClient, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("minio access key and secret key are required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	return &MinIOClient{client: client, region: region}, nil
}

func (m *MinIOClient) CreateContainer(ctx context.Context, name string, metadata map[string]string) error {
	if err := m.client.MakeBucket(ctx, name, minio.MakeBucketOptions{Region: m.region}); err != nil {
		return translateMinIOError(err)
	}
	if len(metadata) == 0 {
		return nil
	}
	t, err := tags.NewTags(metadata, false)
	if err != nil {
		return fmt.Errorf("bucket tags: %w", err)
	}
	return translateMinIOError(m.client.SetBucketTagging(ctx, name, t))
}

func (m *MinIOClient) DeleteContainer(ctx context.Context, name string) error {
	for key, err := range m.ListBlobs(ctx, name) {
		if err != nil {
			return err
		}
		if err := m.client.RemoveObject(ctx, name, key, minio.RemoveObjectOptions{}); err != nil {
			return translateMinIOError(err)
		}
	}
	return translateMinIOError(m.client.RemoveBucket(ctx, name))
}

func (m *MinIOClient) ListBlobs(ctx context.Context, container string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		// cancelling stops the listing goroutine when the caller breaks early
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		for obj := range m.client.ListObjects(ctx, container, minio.ListObjectsOptions{Recursive: true}) {
			if obj.Err != nil {
				yield("", translateMinIOError(obj.Err))
				return
			}
			if obj.Key == "" {
				continue
			}
			if !yield(obj.Key, nil) {
				return
			}
		}
	}
}

func (m *MinIOClient) Get(ctx context.Context, container, blob string) (io.ReadCloser, int64, error) {
	obj, err := m.client.GetObject(ctx, container, blob, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, translateMinIOError(err)
	}
	// GetObject is lazy; Stat surfaces missing keys before the caller reads
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, 0, translateMinIOError(err)
	}
	return obj, info.Size, nil
}

func (m *MinIOClient) Put(ctx context.Context, container, blob string, body io.Reader, size int64) (string, error) {
	_, err := m.client.PutObject(ctx, container, blob, body, size, minio.PutObjectOptions{
		ContentType: "text/plain",
	})
	if err != nil {
		return "", translateMinIOError(err)
	}
	return m.BlobURL(container, blob), nil
}

func (m *MinIOClient) BlobURL(container, blob string) string {
	u := *m.client.EndpointURL()
	u.Path = "/" + container + "/" + blob
	return u.String()
}

func (m *MinIOClient) ContainerProperties(ctx context.Context, container string) (Properties, error) {
	props := Properties{Metadata: map[string]string{}}
	t, err := m.client.GetBucketTagging(ctx, container)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchTagSet" {
			return props, nil
		}
		return Properties{}, translateMinIOError(err)
	}
	for k, v := range t.ToMap() {
		props.Metadata[k] = v
	}
	return props, nil
}

func translateMinIOError(err error) error {
	if err == nil {
		return nil
	}
	resp := minio.ToErrorResponse(err)
	if resp.Code == "" {
		return err
	}
	status := resp.StatusCode
	if status == 0 && (resp.Code == "NoSuchBucket" || resp.Code == "NoSuchKey") {
		status = http.StatusNotFound
	}
	return &RequestError{StatusCode: status, ErrorCode: resp.Code, Message: resp.Message, Err: err}
}
