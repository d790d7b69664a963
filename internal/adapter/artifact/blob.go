package artifact

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// uploader is the subset of *azblob.Client used by BlobStore.
type uploader interface {
	UploadStream(ctx context.Context, containerName, blobName string, body io.Reader, o *azblob.UploadStreamOptions) (azblob.UploadStreamResponse, error)
}

// BlobStore saves artifacts as block blobs in one Azure Storage container.
type BlobStore struct {
	client    uploader
	container string
}

// NewBlobStore connects with a storage connection string and makes sure the
// container exists.
func NewBlobStore(ctx context.Context, connectionString, container string) (*BlobStore, error) {
	if connectionString == "" {
		return nil, fmt.Errorf("azure connection string not set")
	}
	if container == "" {
		return nil, fmt.Errorf("azure container not set")
	}

	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create blob client: %w", err)
	}

	_, err = client.CreateContainer(ctx, container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return nil, fmt.Errorf("create container %s: %w", container, err)
	}

	return &BlobStore{client: client, container: container}, nil
}

// Save uploads r as blob name. An existing blob is overwritten.
func (s *BlobStore) Save(ctx context.Context, name string, r io.Reader) error {
	if _, err := s.client.UploadStream(ctx, s.container, name, r, nil); err != nil {
		return fmt.Errorf("upload %s to %s: %w", name, s.container, err)
	}
	return nil
}
