package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PocketPalCo/voicecart/config"
)

var ErrNoDatabase = errors.New("catalog source postgres needs a database connection")

// Open builds the catalog named by cfg.CatalogSource. db is only consulted for the
// postgres source and may be nil otherwise.
func Open(ctx context.Context, cfg config.Config, db Querier, logger *slog.Logger) (*Catalog, error) {
	switch strings.ToLower(cfg.CatalogSource) {
	case "", "builtin":
		return New(DefaultEntries(), cfg.FallbackPrice), nil
	case "file":
		return LoadFile(cfg.CatalogFile, cfg.FallbackPrice)
	case "postgres":
		if db == nil {
			return nil, ErrNoDatabase
		}
		return NewPostgresSource(db, logger).Load(ctx, cfg.FallbackPrice)
	default:
		return nil, fmt.Errorf("unsupported catalog source: %s", cfg.CatalogSource)
	}
}
