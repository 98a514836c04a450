// Package receipts archives placed orders as JSON documents in a cloud.Provider.
package receipts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PocketPalCo/voicecart/internal/core/cloud"
	"github.com/PocketPalCo/voicecart/internal/core/session"
	"github.com/PocketPalCo/voicecart/pkg/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("receipts-service")

const keyPrefix = "orders/"

type Service struct {
	provider cloud.Provider
	currency string
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(provider cloud.Provider, currency string, logger *slog.Logger) *Service {
	return &Service{
		provider: provider,
		currency: currency,
		logger:   logger.With("component", "receipts-service", "provider", provider.Name()),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// OrderPlaced archives the snapshot taken when a session's order was placed.
func (s *Service) OrderPlaced(ctx context.Context, sessionID string, snap session.Snapshot) error {
	_, err := s.Archive(ctx, sessionID, snap)
	return err
}

// Archive writes a receipt for snap and returns it.
func (s *Service) Archive(ctx context.Context, sessionID string, snap session.Snapshot) (*Receipt, error) {
	ctx, span := tracer.Start(ctx, "receipts.Archive")
	defer span.End()

	receipt := &Receipt{
		ID:        uuid.New(),
		OrderID:   snap.Order.OrderID,
		SessionID: sessionID,
		Items:     snap.Items,
		Total:     snap.Total,
		Currency:  s.currency,
		Status:    StatusReceived,
		PlacedAt:  s.now(),
	}

	data, err := json.MarshalIndent(receipt, "", "  ")
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to encode receipt: %w", err)
	}

	key := Key(receipt)
	span.SetAttributes(attribute.String("receipt.key", key))

	_, err = s.provider.Put(ctx, &cloud.Object{
		Key:         key,
		ContentType: "application/json",
		Content:     data,
		Metadata: map[string]string{
			"session_id": sessionID,
			"order_id":   receipt.OrderID,
			"status":     receipt.Status,
		},
	})
	if err != nil {
		span.RecordError(err)
		telemetry.ArchiveErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", s.provider.Name())))
		s.logger.Error("Failed to archive receipt",
			"session_id", sessionID,
			"order_id", receipt.OrderID,
			"error", err)
		return nil, fmt.Errorf("failed to store receipt: %w", err)
	}

	s.logger.Info("Archived receipt",
		"session_id", sessionID,
		"order_id", receipt.OrderID,
		"key", key,
		"total", receipt.Total)

	return receipt, nil
}

// Get loads the receipt stored for orderID in sessionID.
func (s *Service) Get(ctx context.Context, sessionID, orderID string) (*Receipt, error) {
	ctx, span := tracer.Start(ctx, "receipts.Get")
	defer span.End()

	data, err := s.provider.Get(ctx, key(sessionID, orderID))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load receipt %s: %w", orderID, err)
	}

	var receipt Receipt
	if err := json.Unmarshal(data, &receipt); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to decode receipt %s: %w", orderID, err)
	}
	return &receipt, nil
}

// Delete purges the receipt stored for orderID in sessionID. A missing receipt is
// reported as cloud.ErrObjectNotFound.
func (s *Service) Delete(ctx context.Context, sessionID, orderID string) error {
	ctx, span := tracer.Start(ctx, "receipts.Delete")
	defer span.End()

	k := key(sessionID, orderID)
	span.SetAttributes(attribute.String("receipt.key", k))

	if _, err := s.provider.Get(ctx, k); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to find receipt %s: %w", orderID, err)
	}
	if err := s.provider.Delete(ctx, k); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete receipt %s: %w", orderID, err)
	}

	s.logger.Info("Deleted receipt", "session_id", sessionID, "order_id", orderID, "key", k)
	return nil
}

// List returns the archived receipts, oldest key first.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	ctx, span := tracer.Start(ctx, "receipts.List")
	defer span.End()

	objects, err := s.provider.List(ctx, keyPrefix)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}

	summaries := make([]Summary, 0, len(objects))
	for _, obj := range objects {
		summaries = append(summaries, Summary{
			Key:       obj.Key,
			Size:      obj.Size,
			UpdatedAt: obj.LastModified,
		})
	}
	return summaries, nil
}

// Key is where a receipt is stored: under its session, by order id when the
// assistant gave one, otherwise by receipt id.
func Key(r *Receipt) string {
	id := strings.TrimSpace(r.OrderID)
	if id == "" {
		id = r.ID.String()
	}
	return key(r.SessionID, id)
}

func key(sessionID, orderID string) string {
	return keyPrefix + keySegment(sessionID) + "/order_" + keySegment(orderID) + ".json"
}

// keySegment keeps ids usable as a single path segment.
func keySegment(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}
