package source

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"ontomaint/internal/domain"
)

var _ domain.GraphSource = (*Azure)(nil)

// Azure reads graph files from an Azure Blob Storage container.
type Azure struct {
	client *azblob.Client
	loc    Location
	glob   string
}

// NewAzure creates an Azure source. Shared-key authentication is used when an
// account key is configured; otherwise the container must allow anonymous reads.
func NewAzure(loc Location, opts Options) (*Azure, error) {
	if opts.AzureAccountName == "" {
		return nil, domain.ErrValidation("AZURE_ACCOUNT_NAME is required for az:// locations")
	}
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net", opts.AzureAccountName)

	var client *azblob.Client
	if opts.AzureAccountKey != "" {
		cred, err := azblob.NewSharedKeyCredential(opts.AzureAccountName, opts.AzureAccountKey)
		if err != nil {
			return nil, fmt.Errorf("create shared key credential: %w", err)
		}
		client, err = azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("create Azure blob client: %w", err)
		}
	} else {
		var err error
		client, err = azblob.NewClientWithNoCredential(serviceURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create Azure blob client: %w", err)
		}
	}
	return &Azure{client: client, loc: loc, glob: opts.glob()}, nil
}

// List returns the matching blob names under dir, relative to the prefix.
func (a *Azure) List(ctx context.Context, dir string) ([]string, error) {
	root := joinKey(a.loc.Prefix, dir) + "/"
	pager := a.client.NewListBlobsFlatPager(a.loc.Bucket, &azblob.ListBlobsFlatOptions{Prefix: &root})
	var keys []string
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list az://%s/%s: %w", a.loc.Bucket, root, err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				keys = append(keys, *item.Name)
			}
		}
	}
	return objectKeys(keys, a.loc.Prefix, dir, a.glob)
}

// Open streams one blob.
func (a *Azure) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key := joinKey(a.loc.Prefix, name)
	resp, err := a.client.DownloadStream(ctx, a.loc.Bucket, key, nil)
	if err != nil {
		return nil, fmt.Errorf("download az://%s/%s: %w", a.loc.Bucket, key, err)
	}
	return resp.Body, nil
}
