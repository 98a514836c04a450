// Package commands implements cartctl, the operator CLI for replaying assistant
// transcripts, checking prices and managing the catalog and message feed.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/PocketPalCo/voicecart/config"
	"github.com/PocketPalCo/voicecart/internal/core/catalog"
	"github.com/PocketPalCo/voicecart/internal/infra/postgres"
	"github.com/PocketPalCo/voicecart/pkg/logger"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	cfg     config.Config
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "cartctl",
	Short: "Inspect and drive the voice cart reconciliation engine",
	Long: `cartctl replays assistant transcripts through a cart engine, resolves catalog
prices, seeds the catalog table and publishes messages onto the feed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if verbose {
			cfg.LogLevel = "debug"
		} else if strings.EqualFold(cfg.LogLevel, "info") {
			cfg.LogLevel = "warn"
		}
		slog.SetDefault(logger.NewLogger(cfg))

		if noColor {
			color.NoColor = true
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// openCatalog loads the configured catalog, connecting to postgres only when the
// catalog lives there. The returned func releases the connection.
func openCatalog(ctx context.Context) (*catalog.Catalog, func(), error) {
	if !strings.EqualFold(cfg.CatalogSource, "postgres") {
		c, err := catalog.Open(ctx, cfg, nil, slog.Default())
		return c, func() {}, err
	}

	pool, err := postgres.Init(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	c, err := catalog.Open(ctx, cfg, pool, slog.Default())
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return c, pool.Close, nil
}
