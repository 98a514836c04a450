package cloud

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
)

// AzureProvider implements the Provider interface for Azure Blob Storage
type AzureProvider struct {
	client        *azblob.Client
	containerName string
	config        AzureConfig
}

// NewAzureProvider creates a new Azure Blob Storage provider
func NewAzureProvider(cfg AzureConfig) (*AzureProvider, error) {
	if err := ValidateAzureConfig(cfg); err != nil {
		return nil, err
	}

	var client *azblob.Client
	var err error

	// Create client using connection string or account name/key
	if cfg.ConnectionString != "" {
		client, err = azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	} else {
		serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.StorageAccountName)
		credential, credErr := azblob.NewSharedKeyCredential(cfg.StorageAccountName, cfg.StorageAccountKey)
		if credErr != nil {
			return nil, &CloudError{
				Code:    "AZURE_CREDENTIAL_ERROR",
				Message: "failed to create Azure credentials",
				Cause:   credErr,
			}
		}
		client, err = azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	}

	if err != nil {
		return nil, &CloudError{
			Code:    "AZURE_CLIENT_ERROR",
			Message: "failed to create Azure Blob Storage client",
			Cause:   err,
		}
	}

	return &AzureProvider{
		client:        client,
		containerName: cfg.ContainerName,
		config:        cfg,
	}, nil
}

func (p *AzureProvider) Name() string {
	return "azure"
}

// uploadOptions carries the object's metadata and content type onto the blob
func uploadOptions(obj *Object) *azblob.UploadBufferOptions {
	metadata := make(map[string]*string, len(obj.Metadata))
	for k, v := range obj.Metadata {
		metadata[k] = to.Ptr(v)
	}

	opts := &azblob.UploadBufferOptions{
		Metadata: metadata,
	}
	if obj.ContentType != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{
			BlobContentType: to.Ptr(obj.ContentType),
		}
	}
	return opts
}

// Put uploads obj as a block blob
func (p *AzureProvider) Put(ctx context.Context, obj *Object) (*ObjectInfo, error) {
	if obj == nil {
		return nil, ErrInvalidKey
	}
	if err := validKey(obj.Key); err != nil {
		return nil, err
	}

	resp, err := p.client.UploadBuffer(ctx, p.containerName, obj.Key, obj.Content, uploadOptions(obj))
	if err != nil {
		return nil, &CloudError{
			Code:    "UPLOAD_FAILED",
			Message: "failed to upload object to Azure Blob Storage",
			Cause:   err,
		}
	}

	info := &ObjectInfo{
		Key:         obj.Key,
		Size:        int64(len(obj.Content)),
		ContentType: obj.ContentType,
		URL:         p.objectURL(obj.Key),
		Metadata:    obj.Metadata,
	}
	if resp.ETag != nil {
		info.ETag = string(*resp.ETag)
	}
	if resp.LastModified != nil {
		info.LastModified = *resp.LastModified
	}

	return info, nil
}

func (p *AzureProvider) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}

	resp, err := p.client.DownloadStream(ctx, p.containerName, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, &CloudError{Code: ErrObjectNotFound.Code, Message: "object not found in Azure Blob Storage", Cause: err}
		}
		return nil, &CloudError{
			Code:    "DOWNLOAD_FAILED",
			Message: "failed to download object from Azure Blob Storage",
			Cause:   err,
		}
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, &CloudError{
			Code:    "DOWNLOAD_FAILED",
			Message: "failed to read object body",
			Cause:   err,
		}
	}
	return buf.Bytes(), nil
}

// List walks every page of the container listing under prefix
func (p *AzureProvider) List(ctx context.Context, prefix string) ([]*ObjectInfo, error) {
	opts := &container.ListBlobsFlatOptions{
		Include: container.ListBlobsInclude{Metadata: true},
	}
	if prefix != "" {
		opts.Prefix = to.Ptr(prefix)
	}

	pager := p.client.NewListBlobsFlatPager(p.containerName, opts)

	var objects []*ObjectInfo
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, &CloudError{
				Code:    "LIST_FAILED",
				Message: "failed to list objects from Azure Blob Storage",
				Cause:   err,
			}
		}

		for _, blob := range page.Segment.BlobItems {
			if blob.Name == nil {
				continue
			}

			info := &ObjectInfo{
				Key:      *blob.Name,
				URL:      p.objectURL(*blob.Name),
				Metadata: make(map[string]string),
			}
			if props := blob.Properties; props != nil {
				if props.ContentLength != nil {
					info.Size = *props.ContentLength
				}
				if props.ContentType != nil {
					info.ContentType = *props.ContentType
				}
				if props.LastModified != nil {
					info.LastModified = *props.LastModified
				}
				if props.ETag != nil {
					info.ETag = string(*props.ETag)
				}
			}
			for k, v := range blob.Metadata {
				if v != nil {
					info.Metadata[k] = *v
				}
			}

			objects = append(objects, info)
		}
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (p *AzureProvider) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}

	_, err := p.client.DeleteBlob(ctx, p.containerName, key, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return &CloudError{
			Code:    "DELETE_FAILED",
			Message: "failed to delete object from Azure Blob Storage",
			Cause:   err,
		}
	}

	return nil
}

func (p *AzureProvider) objectURL(key string) string {
	if p.config.BaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", p.config.BaseURL, p.containerName, key)
	}

	return fmt.Sprintf("%s%s/%s", p.client.URL(), p.containerName, url.PathEscape(key))
}
