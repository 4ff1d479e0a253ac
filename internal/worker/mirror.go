// Package worker replays record-change messages into a replica store,
// keeping an off-process mirror of every user collection.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tally/internal/amqp"
	"tally/internal/docstore"
	"tally/internal/docstore/sqlite"
)

// Mirror consumes the change stream and applies it to a replica database.
// Replays are idempotent: applying the same message twice is harmless.
type Mirror struct {
	replica *sqlite.Store
}

func NewMirror(replica *sqlite.Store) *Mirror {
	return &Mirror{replica: replica}
}

// HandleChange applies a single record-change message to the replica.
func (m *Mirror) HandleChange(ctx context.Context, msg *amqp.RecordChangeMessage) error {
	path, err := docstore.ParseCollectionPath(msg.Path)
	if err != nil {
		return fmt.Errorf("mirror change: %w", err)
	}

	switch msg.Kind {
	case amqp.ChangeCreated:
		if msg.Record == nil {
			return fmt.Errorf("mirror change: created message without record")
		}
		rec, err := msg.Record.ToRecord()
		if err != nil {
			return fmt.Errorf("mirror change: %w", err)
		}
		if err := m.replica.Put(ctx, path, rec); err != nil {
			return fmt.Errorf("mirror create %s: %w", rec.ID, err)
		}
		slog.InfoContext(ctx, "Mirrored record create",
			"record_id", rec.ID, "collection", path.String())
		return nil

	case amqp.ChangeDeleted, amqp.ChangeCleared:
		for _, id := range msg.IDs {
			if err := m.replica.DeleteOne(ctx, path, id); err != nil {
				// Already absent means the delete was applied before.
				if errors.Is(err, docstore.ErrNotFound) {
					slog.WarnContext(ctx, "Record already absent in replica",
						"record_id", id, "collection", path.String())
					continue
				}
				return fmt.Errorf("mirror delete %s: %w", id, err)
			}
		}
		slog.InfoContext(ctx, "Mirrored record deletes",
			"kind", msg.Kind, "count", len(msg.IDs), "collection", path.String())
		return nil
	}

	return fmt.Errorf("mirror change: unknown kind %q", msg.Kind)
}
