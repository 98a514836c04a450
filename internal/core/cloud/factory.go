package cloud

import (
	"fmt"
	"strings"

	"github.com/PocketPalCo/voicecart/config"
)

// NewProvider creates a new cloud storage provider based on the configuration
func NewProvider(cfg Config) (Provider, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	switch strings.ToLower(cfg.Provider) {
	case "local":
		return NewLocalProvider(cfg.Local)
	case "azure":
		return NewAzureProvider(cfg.Azure)
	default:
		return nil, ErrProviderNotFound
	}
}

// FromAppConfig maps the archive settings of the application config.
func FromAppConfig(cfg config.CloudConfig) Config {
	return Config{
		Provider: cfg.Provider,
		Local: LocalConfig{
			Dir: cfg.Local.Dir,
		},
		Azure: AzureConfig{
			StorageAccountName: cfg.Azure.StorageAccountName,
			StorageAccountKey:  cfg.Azure.StorageAccountKey,
			ConnectionString:   cfg.Azure.ConnectionString,
			ContainerName:      cfg.Azure.ContainerName,
			BaseURL:            cfg.Azure.BaseURL,
		},
	}
}

// ValidateConfig validates the cloud provider configuration
func ValidateConfig(cfg Config) error {
	if cfg.Provider == "" {
		return &CloudError{
			Code:    "MISSING_PROVIDER",
			Message: "cloud provider must be specified",
		}
	}

	provider := strings.ToLower(cfg.Provider)

	switch provider {
	case "local":
		return ValidateLocalConfig(cfg.Local)
	case "azure":
		return ValidateAzureConfig(cfg.Azure)
	default:
		return &CloudError{
			Code:    "INVALID_PROVIDER",
			Message: fmt.Sprintf("unsupported cloud provider: %s", provider),
		}
	}
}

func ValidateLocalConfig(cfg LocalConfig) error {
	if strings.TrimSpace(cfg.Dir) == "" {
		return &CloudError{
			Code:    "MISSING_LOCAL_DIR",
			Message: "archive directory is required for the local provider",
		}
	}
	return nil
}

// ValidateAzureConfig validates Azure Blob Storage configuration
func ValidateAzureConfig(cfg AzureConfig) error {
	if cfg.ConnectionString == "" {
		if cfg.StorageAccountName == "" {
			return &CloudError{
				Code:    "MISSING_AZURE_ACCOUNT",
				Message: "Azure storage account name or connection string is required",
			}
		}
		if cfg.StorageAccountKey == "" {
			return &CloudError{
				Code:    "MISSING_AZURE_KEY",
				Message: "Azure storage account key is required when not using connection string",
			}
		}
	}

	if cfg.ContainerName == "" {
		return &CloudError{
			Code:    "MISSING_AZURE_CONTAINER",
			Message: "Azure blob container name is required",
		}
	}

	return nil
}

// validKey rejects keys that are empty or would escape the store root.
func validKey(key string) error {
	if strings.TrimSpace(key) == "" || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}
