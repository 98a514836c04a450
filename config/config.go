package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
)

type Config struct {
	Environment       string `mapstructure:"VCS_ENVIRONMENT"`
	ServerName        string `mapstructure:"VCS_SERVER_NAME"`
	ServerAddress     string `mapstructure:"VCS_SERVER_BIND_ADDR"`
	ServerReadTimeout int16  `mapstructure:"VCS_SERVER_READ_TIMEOUT"`
	LogFormat         string `mapstructure:"VCS_LOG_FORMAT"` // text or json
	LogLevel          string `mapstructure:"VCS_LOG_LEVEL"`  // debug, info, warn, error
	LogExport         bool   `mapstructure:"VCS_LOG_EXPORT"` // also ship logs over OTLP
	RateLimitMax      int    `mapstructure:"VCS_RATE_LIMIT_MAX"`
	RateLimitWindow   int    `mapstructure:"VCS_RATE_LIMIT_WINDOW"`

	DbHost           string `mapstructure:"VCS_DB_HOST"`
	DbPort           int16  `mapstructure:"VCS_DB_PORT"`
	DbSSLMode        string `mapstructure:"VCS_DB_SSL"`
	DbUser           string `mapstructure:"VCS_DB_USER"`
	DbPassword       string `mapstructure:"VCS_DB_PASSWORD"`
	DbDatabaseName   string `mapstructure:"VCS_DB_DATABASE"`
	DbMaxConnections int    `mapstructure:"VCS_DB_MAX_CONNECTIONS"`

	// Redis
	RedisHost    string `mapstructure:"VCS_REDIS_HOST"`
	RedisPort    int16  `mapstructure:"VCS_REDIS_PORT"`
	RedisDb      int    `mapstructure:"VCS_REDIS_DB"`
	RedisUser    string `mapstructure:"VCS_REDIS_USER"`
	RedisPass    string `mapstructure:"VCS_REDIS_PASS"`
	RedisChannel string `mapstructure:"VCS_REDIS_CHANNEL"`

	// RabbitMQ
	AmqpHost  string `mapstructure:"VCS_AMQP_HOST"`
	AmqpPort  int    `mapstructure:"VCS_AMQP_PORT"`
	AmqpUser  string `mapstructure:"VCS_AMQP_USER"`
	AmqpPass  string `mapstructure:"VCS_AMQP_PASS"`
	AmqpQueue string `mapstructure:"VCS_AMQP_QUEUE"`

	OtlpEndpoint   string `mapstructure:"VCS_OTLP_ENDPOINT"`
	JaegerEndpoint string `mapstructure:"VCS_JAEGER_ENDPOINT"`

	// Catalog
	CatalogSource string `mapstructure:"VCS_CATALOG_SOURCE"` // builtin, file or postgres
	CatalogFile   string `mapstructure:"VCS_CATALOG_FILE"`
	FallbackPrice int    `mapstructure:"VCS_FALLBACK_PRICE"`
	Currency      string `mapstructure:"VCS_CURRENCY"`

	// Sessions
	FeedProvider          string `mapstructure:"VCS_FEED_PROVIDER"` // none, redis or amqp
	SessionLockAfterOrder bool   `mapstructure:"VCS_SESSION_LOCK_AFTER_ORDER"`

	// Receipt archive
	ArchiveProvider              string `mapstructure:"VCS_ARCHIVE_PROVIDER"` // none, local or azure
	ArchiveDir                   string `mapstructure:"VCS_ARCHIVE_DIR"`
	AzureStorageConnectionString string `mapstructure:"VCS_AZURE_STORAGE_CONNECTION_STRING"`
	AzureStorageAccountName      string `mapstructure:"VCS_AZURE_STORAGE_ACCOUNT_NAME"`
	AzureStorageAccountKey       string `mapstructure:"VCS_AZURE_STORAGE_ACCOUNT_KEY"`
	AzureStorageContainerName    string `mapstructure:"VCS_AZURE_STORAGE_CONTAINER_NAME"`
	AzureStorageBaseURL          string `mapstructure:"VCS_AZURE_STORAGE_BASE_URL"`
}

// DefaultConfig generates a config with sane defaults.
func DefaultConfig() Config {
	return Config{
		Environment:       "local",
		ServerName:        "voicecart",
		ServerAddress:     "0.0.0.0:3001",
		ServerReadTimeout: 60,
		LogFormat:         "text",
		LogLevel:          "info",
		LogExport:         false,
		RateLimitMax:      100,
		RateLimitWindow:   30,

		DbHost:           "localhost",
		DbPort:           5432,
		DbSSLMode:        "disable",
		DbUser:           "postgres",
		DbPassword:       "postgres",
		DbDatabaseName:   "voicecart",
		DbMaxConnections: 20,

		// Redis
		RedisHost:    "localhost",
		RedisPort:    6379,
		RedisDb:      0,
		RedisUser:    "",
		RedisPass:    "",
		RedisChannel: "assistant.messages",

		// RabbitMQ
		AmqpHost:  "localhost",
		AmqpPort:  5672,
		AmqpUser:  "guest",
		AmqpPass:  "guest",
		AmqpQueue: "assistant.messages",

		OtlpEndpoint:   "localhost:4317",
		JaegerEndpoint: "http://localhost:14268/api/traces",

		CatalogSource: "builtin",
		CatalogFile:   "",
		FallbackPrice: 50,
		Currency:      "INR",

		FeedProvider:          "none",
		SessionLockAfterOrder: false,

		ArchiveProvider:           "local",
		ArchiveDir:                "orders",
		AzureStorageContainerName: "orders",
	}
}

// LoadConfig will attempt to load a configuration from the default file location and fallback to environment variables.
func LoadConfig() (Config, error) {
	envFile := os.Getenv("VCS_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}

	var cfg Config
	var err error

	if _, err = os.Stat(envFile); errors.Is(err, os.ErrNotExist) {
		cfg, err = ConfigFromEnvironment()
	} else {
		cfg, err = ConfigFromFile(envFile)
	}

	return cfg, err
}

// ConfigFromEnvironment will look for the specified configuration from environment variables
func ConfigFromEnvironment() (config Config, err error) {
	config = DefaultConfig()
	viper.SetDefault("VCS_ENVIRONMENT", config.Environment)
	viper.SetDefault("VCS_SERVER_NAME", config.ServerName)
	viper.SetDefault("VCS_SERVER_BIND_ADDR", config.ServerAddress)
	viper.SetDefault("VCS_SERVER_READ_TIMEOUT", config.ServerReadTimeout)
	viper.SetDefault("VCS_LOG_LEVEL", config.LogLevel)
	viper.SetDefault("VCS_LOG_FORMAT", config.LogFormat)
	viper.SetDefault("VCS_LOG_EXPORT", config.LogExport)
	viper.SetDefault("VCS_RATE_LIMIT_MAX", config.RateLimitMax)
	viper.SetDefault("VCS_RATE_LIMIT_WINDOW", config.RateLimitWindow)
	viper.SetDefault("VCS_DB_HOST", config.DbHost)
	viper.SetDefault("VCS_DB_PORT", config.DbPort)
	viper.SetDefault("VCS_DB_SSL", config.DbSSLMode)
	viper.SetDefault("VCS_DB_USER", config.DbUser)
	viper.SetDefault("VCS_DB_PASSWORD", config.DbPassword)
	viper.SetDefault("VCS_DB_DATABASE", config.DbDatabaseName)
	viper.SetDefault("VCS_DB_MAX_CONNECTIONS", config.DbMaxConnections)
	viper.SetDefault("VCS_REDIS_HOST", config.RedisHost)
	viper.SetDefault("VCS_REDIS_PORT", config.RedisPort)
	viper.SetDefault("VCS_REDIS_DB", config.RedisDb)
	viper.SetDefault("VCS_REDIS_USER", config.RedisUser)
	viper.SetDefault("VCS_REDIS_PASS", config.RedisPass)
	viper.SetDefault("VCS_REDIS_CHANNEL", config.RedisChannel)
	viper.SetDefault("VCS_AMQP_HOST", config.AmqpHost)
	viper.SetDefault("VCS_AMQP_PORT", config.AmqpPort)
	viper.SetDefault("VCS_AMQP_USER", config.AmqpUser)
	viper.SetDefault("VCS_AMQP_PASS", config.AmqpPass)
	viper.SetDefault("VCS_AMQP_QUEUE", config.AmqpQueue)
	viper.SetDefault("VCS_OTLP_ENDPOINT", config.OtlpEndpoint)
	viper.SetDefault("VCS_JAEGER_ENDPOINT", config.JaegerEndpoint)
	viper.SetDefault("VCS_CATALOG_SOURCE", config.CatalogSource)
	viper.SetDefault("VCS_CATALOG_FILE", config.CatalogFile)
	viper.SetDefault("VCS_FALLBACK_PRICE", config.FallbackPrice)
	viper.SetDefault("VCS_CURRENCY", config.Currency)
	viper.SetDefault("VCS_FEED_PROVIDER", config.FeedProvider)
	viper.SetDefault("VCS_SESSION_LOCK_AFTER_ORDER", config.SessionLockAfterOrder)
	viper.SetDefault("VCS_ARCHIVE_PROVIDER", config.ArchiveProvider)
	viper.SetDefault("VCS_ARCHIVE_DIR", config.ArchiveDir)
	viper.SetDefault("VCS_AZURE_STORAGE_CONNECTION_STRING", config.AzureStorageConnectionString)
	viper.SetDefault("VCS_AZURE_STORAGE_ACCOUNT_NAME", config.AzureStorageAccountName)
	viper.SetDefault("VCS_AZURE_STORAGE_ACCOUNT_KEY", config.AzureStorageAccountKey)
	viper.SetDefault("VCS_AZURE_STORAGE_CONTAINER_NAME", config.AzureStorageContainerName)
	viper.SetDefault("VCS_AZURE_STORAGE_BASE_URL", config.AzureStorageBaseURL)

	// Override config values with environment variables
	viper.AutomaticEnv()
	err = viper.Unmarshal(&config)
	return
}

// ConfigFromFile will look for the specified configuration file in the current directory and initialize
// a Config from it. Values provided by environment variables will override ones found in
// the file.
func ConfigFromFile(f string) (config Config, err error) {
	if config, err = ConfigFromEnvironment(); err != nil {
		return
	}

	viper.AddConfigPath(".")
	viper.SetConfigFile(f)
	viper.SetConfigType("env")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)

	return
}

// Fiber initializes and returns a Fiber config based on server config values.
// See https://docs.gofiber.io/api/fiber#config
func (c Config) Fiber() fiber.Config {
	return fiber.Config{
		AppName:     c.ServerName,
		ReadTimeout: time.Second * time.Duration(c.ServerReadTimeout),
		BodyLimit:   1024 * 1024, // 1MB
	}
}

// DbConnectionString generates a connection string for the database based on config values.
func (c Config) DbConnectionString() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%d/%s?sslmode=%s", c.DbUser, url.QueryEscape(c.DbPassword), c.DbHost, c.DbPort, c.DbDatabaseName, c.DbSSLMode)
}

// RedisAddr is host:port for the redis client.
func (c Config) RedisAddr() string {
	return net.JoinHostPort(c.RedisHost, strconv.Itoa(int(c.RedisPort)))
}

// AmqpURL builds the broker URL from its parts.
func (c Config) AmqpURL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.AmqpUser, c.AmqpPass),
		Host:   net.JoinHostPort(c.AmqpHost, strconv.Itoa(c.AmqpPort)),
		Path:   "/",
	}
	return u.String()
}

// GetSlogLevel converts the string log level to slog.Level.
func (c Config) GetSlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo // default fallback
	}
}

// CurrencySymbol is how prices are printed for Currency.
func (c Config) CurrencySymbol() string {
	switch strings.ToUpper(c.Currency) {
	case "INR", "":
		return "₹"
	case "USD":
		return "$"
	case "EUR":
		return "€"
	default:
		return strings.ToUpper(c.Currency) + " "
	}
}

// GetCloudConfig converts config values to the receipt archive storage configuration.
func (c Config) GetCloudConfig() CloudConfig {
	return CloudConfig{
		Provider: c.ArchiveProvider,
		Local: LocalCloudConfig{
			Dir: c.ArchiveDir,
		},
		Azure: AzureCloudConfig{
			StorageAccountName: c.AzureStorageAccountName,
			StorageAccountKey:  c.AzureStorageAccountKey,
			ConnectionString:   c.AzureStorageConnectionString,
			ContainerName:      c.AzureStorageContainerName,
			BaseURL:            c.AzureStorageBaseURL,
		},
	}
}

// CloudConfig holds cloud storage configuration
type CloudConfig struct {
	Provider string
	Local    LocalCloudConfig
	Azure    AzureCloudConfig
}

// LocalCloudConfig holds the directory used by the local archive provider
type LocalCloudConfig struct {
	Dir string
}

// AzureCloudConfig holds Azure Blob Storage specific configuration
type AzureCloudConfig struct {
	StorageAccountName string
	StorageAccountKey  string
	ConnectionString   string
	ContainerName      string
	BaseURL            string
}
