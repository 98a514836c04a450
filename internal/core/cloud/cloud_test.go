package cloud

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		code string
	}{
		{"missing provider", Config{}, "MISSING_PROVIDER"},
		{"unknown provider", Config{Provider: "gcs"}, "INVALID_PROVIDER"},
		{"local without dir", Config{Provider: "local"}, "MISSING_LOCAL_DIR"},
		{"azure without account", Config{Provider: "azure", Azure: AzureConfig{ContainerName: "receipts"}}, "MISSING_AZURE_ACCOUNT"},
		{"azure without key", Config{Provider: "azure", Azure: AzureConfig{StorageAccountName: "acct", ContainerName: "receipts"}}, "MISSING_AZURE_KEY"},
		{"azure without container", Config{Provider: "azure", Azure: AzureConfig{ConnectionString: "x"}}, "MISSING_AZURE_CONTAINER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.cfg)
			var cerr *CloudError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.code, cerr.Code)
		})
	}

	assert.NoError(t, ValidateConfig(Config{Provider: "LOCAL", Local: LocalConfig{Dir: "/tmp/x"}}))
}

func TestValidKey(t *testing.T) {
	assert.NoError(t, validKey("receipts/2025/02/abc.json"))
	assert.ErrorIs(t, validKey(""), ErrInvalidKey)
	assert.ErrorIs(t, validKey("/etc/passwd"), ErrInvalidKey)
	assert.ErrorIs(t, validKey("receipts/../../secret"), ErrInvalidKey)
}

func TestLocalProvider_RoundTrip(t *testing.T) {
	ctx := context.Background()
	p, err := NewProvider(Config{Provider: "local", Local: LocalConfig{Dir: t.TempDir()}})
	require.NoError(t, err)
	assert.Equal(t, "local", p.Name())

	info, err := p.Put(ctx, &Object{Key: "orders/a.json", ContentType: "application/json", Content: []byte(`{"a":1}`)})
	require.NoError(t, err)
	assert.Equal(t, "orders/a.json", info.Key)
	assert.Equal(t, int64(7), info.Size)

	_, err = p.Put(ctx, &Object{Key: "orders/b.json", Content: []byte(`{}`)})
	require.NoError(t, err)
	_, err = p.Put(ctx, &Object{Key: "other/c.json", Content: []byte(`{}`)})
	require.NoError(t, err)

	data, err := p.Get(ctx, "orders/a.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	objects, err := p.List(ctx, "orders/")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "orders/a.json", objects[0].Key)
	assert.Equal(t, "orders/b.json", objects[1].Key)

	require.NoError(t, p.Delete(ctx, "orders/a.json"))
	require.NoError(t, p.Delete(ctx, "orders/a.json"))

	_, err = p.Get(ctx, "orders/a.json")
	assert.True(t, errors.Is(err, ErrObjectNotFound))
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	_, err := NewProvider(Config{Provider: "azure"})
	assert.Error(t, err)
}

func TestAzureUploadOptions(t *testing.T) {
	opts := uploadOptions(&Object{
		Key:         "orders/a.json",
		ContentType: "application/json",
		Metadata:    map[string]string{"session": "s1"},
	})
	require.NotNil(t, opts.HTTPHeaders)
	require.NotNil(t, opts.HTTPHeaders.BlobContentType)
	assert.Equal(t, "application/json", *opts.HTTPHeaders.BlobContentType)
	require.Contains(t, opts.Metadata, "session")
	assert.Equal(t, "s1", *opts.Metadata["session"])

	bare := uploadOptions(&Object{Key: "orders/b.json"})
	assert.Nil(t, bare.HTTPHeaders)
	assert.Empty(t, bare.Metadata)
}
