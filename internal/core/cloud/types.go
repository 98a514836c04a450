package cloud

import (
	"context"
	"time"
)

// Provider stores small documents (order receipts) under slash-separated keys.
type Provider interface {
	// Put writes obj, replacing any existing object with the same key
	Put(ctx context.Context, obj *Object) (*ObjectInfo, error)

	// Get returns the object's content or ErrObjectNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns objects whose key starts with prefix, ordered by key
	List(ctx context.Context, prefix string) ([]*ObjectInfo, error)

	// Delete removes the object; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// Name identifies the backend in logs and metrics
	Name() string
}

// Object is one document to store.
type Object struct {
	Key         string
	ContentType string
	Content     []byte

	// Metadata is kept by backends that support it (Azure), ignored otherwise
	Metadata map[string]string
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	ETag         string
	LastModified time.Time
	URL          string
	Metadata     map[string]string
}

// Config contains cloud provider configuration
type Config struct {
	// Provider specifies which backend to use (local, azure)
	Provider string

	Local LocalConfig
	Azure AzureConfig
}

// LocalConfig points the local provider at a directory.
type LocalConfig struct {
	Dir string
}

// AzureConfig contains Azure Blob Storage specific configuration
type AzureConfig struct {
	// StorageAccountName is the Azure storage account name
	StorageAccountName string

	// StorageAccountKey is the Azure storage account key
	StorageAccountKey string

	// ConnectionString is the full connection string (alternative to name/key)
	ConnectionString string

	// ContainerName is the blob container name
	ContainerName string

	// BaseURL overrides the account URL used in ObjectInfo.URL
	BaseURL string
}

// Error types for cloud operations
var (
	ErrObjectNotFound   = &CloudError{Code: "OBJECT_NOT_FOUND", Message: "Object not found"}
	ErrInvalidKey       = &CloudError{Code: "INVALID_KEY", Message: "Invalid object key"}
	ErrInvalidConfig    = &CloudError{Code: "INVALID_CONFIG", Message: "Invalid configuration"}
	ErrProviderNotFound = &CloudError{Code: "PROVIDER_NOT_FOUND", Message: "Cloud provider not found"}
)

// CloudError represents a cloud storage error
type CloudError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CloudError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *CloudError) Unwrap() error {
	return e.Cause
}

// Is matches CloudErrors by code, so wrapped variants of the sentinels compare
// equal under errors.Is.
func (e *CloudError) Is(target error) bool {
	t, ok := target.(*CloudError)
	return ok && t.Code == e.Code
}
