package storage

import (
	"context"
	"errors"
	"io"
	"iter"
	"net/http"
	"strconv"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzureClient talks to an Azure Storage account through the azblob client.
type AzureClient struct {
	client *azblob.Client
}

// NewAzure authenticates with a storage account connection string.
func NewAzure(connectionString string) (*AzureClient, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, err
	}
	return &AzureClient{client: client}, nil
}

func (a *AzureClient) CreateContainer(ctx context.Context, name string, metadata map[string]string) error {
	var opts *azblob.CreateContainerOptions
	if len(metadata) > 0 {
		md := make(map[string]*string, len(metadata))
		for k, v := range metadata {
			v := v
			md[k] = &v
		}
		opts = &azblob.CreateContainerOptions{Metadata: md}
	}
	_, err := a.client.CreateContainer(ctx, name, opts)
	return translateAzureError(err)
}

func (a *AzureClient) DeleteContainer(ctx context.Context, name string) error {
	_, err := a.client.DeleteContainer(ctx, name, nil)
	return translateAzureError(err)
}

func (a *AzureClient) ListBlobs(ctx context.Context, container string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		pager := a.client.NewListBlobsFlatPager(container, nil)
		for pager.More() {
			page, err := pager.NextPage(ctx)
			if err != nil {
				yield("", translateAzureError(err))
				return
			}
			if page.Segment == nil {
				continue
			}
			for _, item := range page.Segment.BlobItems {
				if item == nil || item.Name == nil {
					continue
				}
				if !yield(*item.Name, nil) {
					return
				}
			}
		}
	}
}

func (a *AzureClient) Get(ctx context.Context, container, blob string) (io.ReadCloser, int64, error) {
	resp, err := a.client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		return nil, 0, translateAzureError(err)
	}
	size := int64(0)
	if resp.ContentLength != nil {
		size = *resp.ContentLength
	}
	return resp.Body, size, nil
}

func (a *AzureClient) Put(ctx context.Context, container, blob string, body io.Reader, _ int64) (string, error) {
	if _, err := a.client.UploadStream(ctx, container, blob, body, nil); err != nil {
		return "", translateAzureError(err)
	}
	return a.BlobURL(container, blob), nil
}

func (a *AzureClient) BlobURL(container, blob string) string {
	return a.client.ServiceClient().NewContainerClient(container).NewBlobClient(blob).URL()
}

func (a *AzureClient) ContainerProperties(ctx context.Context, container string) (Properties, error) {
	resp, err := a.client.ServiceClient().NewContainerClient(container).GetProperties(ctx, nil)
	if err != nil {
		return Properties{}, translateAzureError(err)
	}
	props := Properties{Metadata: make(map[string]string, len(resp.Metadata))}
	for k, v := range resp.Metadata {
		if v != nil {
			props.Metadata[k] = *v
		}
	}
	return props, nil
}

func translateAzureError(err error) error {
	if err == nil {
		return nil
	}
	var respErr *azcore.ResponseError
	if !errors.As(err, &respErr) {
		return err
	}
	return &RequestError{
		StatusCode: respErr.StatusCode,
		ErrorCode:  respErr.ErrorCode,
		Message:    azureMessage(respErr),
		Err:        err,
	}
}

// azureMessage returns the service's one-line description. The storage service
// sends it as the HTTP reason phrase ("404 The specified container does not
// exist."); ResponseError.Error() is a multi-line dump of the whole exchange.
func azureMessage(respErr *azcore.ResponseError) string {
	if respErr.RawResponse != nil {
		msg := strings.TrimSpace(strings.TrimPrefix(respErr.RawResponse.Status, strconv.Itoa(respErr.StatusCode)))
		if msg != "" {
			return msg
		}
	}
	return http.StatusText(respErr.StatusCode)
}
