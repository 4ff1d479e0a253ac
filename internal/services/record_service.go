// Package services orchestrates record mutations across the local store and
// the optional AMQP change fanout.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/docstore"
)

// RecordService wraps a docstore.Store and announces every successful
// mutation on the fanout channel. A nil AMQP client disables fanout; the
// store keeps working on its own.
type RecordService struct {
	store      docstore.Store
	amqpClient *amqp.Client
}

func NewRecordService(store docstore.Store, amqpClient *amqp.Client) *RecordService {
	return &RecordService{
		store:      store,
		amqpClient: amqpClient,
	}
}

var _ docstore.Store = (*RecordService)(nil)

// Create saves the record locally first, then publishes the change.
func (s *RecordService) Create(ctx context.Context, path docstore.CollectionPath, rec core.Record) (core.Record, error) {
	created, err := s.store.Create(ctx, path, rec)
	if err != nil {
		return core.Record{}, fmt.Errorf("save record: %w", err)
	}

	// Fanout is best-effort: the record is already saved locally.
	if err := s.publish(ctx, amqp.NewCreatedMessage(path.String(), created)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish created change",
			"record_id", created.ID, "error", err)
	}
	return created, nil
}

func (s *RecordService) DeleteOne(ctx context.Context, path docstore.CollectionPath, id string) error {
	if err := s.store.DeleteOne(ctx, path, id); err != nil {
		return err
	}
	if err := s.publish(ctx, amqp.NewDeletedMessage(path.String(), id)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish deleted change",
			"record_id", id, "error", err)
	}
	return nil
}

func (s *RecordService) BatchDelete(ctx context.Context, path docstore.CollectionPath, ids []string) error {
	if err := s.store.BatchDelete(ctx, path, ids); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := s.publish(ctx, amqp.NewClearedMessage(path.String(), ids)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish cleared change",
			"count", len(ids), "error", err)
	}
	return nil
}

func (s *RecordService) ListAll(ctx context.Context, path docstore.CollectionPath) ([]core.Record, error) {
	return s.store.ListAll(ctx, path)
}

func (s *RecordService) Subscribe(path docstore.CollectionPath) *docstore.Subscription {
	return s.store.Subscribe(path)
}

func (s *RecordService) Refresh(ctx context.Context, path docstore.CollectionPath) error {
	return s.store.Refresh(ctx, path)
}

func (s *RecordService) publish(ctx context.Context, msg *amqp.RecordChangeMessage) error {
	if s.amqpClient == nil {
		return nil
	}
	return s.amqpClient.PublishRecordChange(ctx, msg)
}

// Close closes both the store and the AMQP connection.
func (s *RecordService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close record service: %v", errs)
	}
	return nil
}
