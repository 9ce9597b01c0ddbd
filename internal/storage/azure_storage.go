package storage

import (
	"context"
	"fmt"
	"image"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// BlobDownloader is the slice of the azblob client the fetcher needs
type BlobDownloader interface {
	DownloadStream(ctx context.Context, containerName string, blobName string, o *azblob.DownloadStreamOptions) (azblob.DownloadStreamResponse, error)
}

// AzureBlobFetcher resolves azblob://<container>/<blob path> references
type AzureBlobFetcher struct {
	client BlobDownloader
}

// NewAzureBlobFetcher authenticates against the storage account with a shared key
func NewAzureBlobFetcher(accountName, accountKey string) (*AzureBlobFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("azure client: %w", err)
	}
	return &AzureBlobFetcher{client: client}, nil
}

// NewAzureBlobFetcherWithClient wraps an existing downloader
func NewAzureBlobFetcherWithClient(client BlobDownloader) *AzureBlobFetcher {
	return &AzureBlobFetcher{client: client}
}

// ParseBlobReference splits an azblob reference into container and blob name
func ParseBlobReference(ref string) (container, blob string, err error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", "", fmt.Errorf("invalid blob reference: %w", err)
	}
	if u.Scheme != "azblob" {
		return "", "", fmt.Errorf("invalid blob reference: scheme %q", u.Scheme)
	}
	container = u.Host
	blob = strings.TrimPrefix(u.Path, "/")
	if container == "" || blob == "" {
		return "", "", fmt.Errorf("invalid blob reference: need azblob://<container>/<blob>")
	}
	return container, blob, nil
}

func (s *AzureBlobFetcher) FetchImage(ctx context.Context, blobRef string) (image.Image, error) {
	container, blob, err := ParseBlobReference(blobRef)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	return decodeImage(resp.Body)
}
