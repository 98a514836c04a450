package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("catalog-service")

// Querier is the subset of pgxpool.Pool (and telemetry.InstrumentedPool) the
// postgres source needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresSource loads the price table from the catalog_items table.
type PostgresSource struct {
	db     Querier
	logger *slog.Logger
}

func NewPostgresSource(db Querier, logger *slog.Logger) *PostgresSource {
	return &PostgresSource{
		db:     db,
		logger: logger,
	}
}

// Load reads every catalog row ordered by its declared position.
func (s *PostgresSource) Load(ctx context.Context, fallback int) (*Catalog, error) {
	ctx, span := tracer.Start(ctx, "catalog.Load")
	defer span.End()

	query := `
		SELECT name, price
		FROM catalog_items
		ORDER BY position, name
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query catalog items: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.Price); err != nil {
			s.logger.Error("Failed to scan catalog row", "error", err)
			continue
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating catalog items: %w", err)
	}

	if len(entries) == 0 {
		return nil, ErrEmptyCatalog
	}

	s.logger.Debug("Loaded catalog from database", "count", len(entries))
	return New(entries, fallback), nil
}

const createCatalogTable = `
	CREATE TABLE IF NOT EXISTS catalog_items (
		name     TEXT PRIMARY KEY,
		price    INTEGER NOT NULL CHECK (price >= 0),
		position INTEGER NOT NULL
	)
`

// Seed creates catalog_items if needed and upserts entries, recording their slice
// order as position so Load returns them in the same order. The whole seed runs in
// one transaction; a failed row leaves the table as it was.
func (s *PostgresSource) Seed(ctx context.Context, entries []Entry) error {
	ctx, span := tracer.Start(ctx, "catalog.Seed")
	defer span.End()

	query := `
		INSERT INTO catalog_items (name, price, position)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET price = EXCLUDED.price, position = EXCLUDED.position
	`

	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, createCatalogTable); err != nil {
			return fmt.Errorf("failed to create catalog table: %w", err)
		}
		for i, e := range entries {
			if _, err := tx.Exec(ctx, query, normalize(e.Name), e.Price, i); err != nil {
				return fmt.Errorf("failed to seed catalog item %q: %w", e.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	s.logger.Info("Seeded catalog", "count", len(entries))
	return nil
}
