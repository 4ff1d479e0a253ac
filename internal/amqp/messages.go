package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"tally/internal/core"
)

type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeDeleted ChangeKind = "deleted"
	ChangeCleared ChangeKind = "cleared"
)

// WireRecord is the record shape that crosses the fanout channel. Amount is
// a fixed two-decimal string.
type WireRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Amount    string    `json:"amount"`
	Category  string    `json:"category"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
}

func WireFromRecord(rec core.Record) WireRecord {
	return WireRecord{
		ID:        rec.ID,
		Name:      rec.Name,
		Amount:    rec.Amount.Format(),
		Category:  string(rec.Category),
		Date:      rec.Date,
		CreatedAt: rec.CreatedAt,
	}
}

func (w WireRecord) ToRecord() (core.Record, error) {
	amount, err := core.ParseAmount(w.Amount)
	if err != nil {
		return core.Record{}, fmt.Errorf("wire record %s: %w", w.ID, err)
	}
	return core.Record{
		ID:        w.ID,
		Name:      w.Name,
		Amount:    amount,
		Category:  core.Category(w.Category),
		Date:      w.Date,
		CreatedAt: w.CreatedAt,
	}, nil
}

// RecordChangeMessage announces one mutation of a user's expense collection.
// Created changes carry the full record; deleted and cleared carry the ids.
type RecordChangeMessage struct {
	Kind      ChangeKind  `json:"kind"`
	Path      string      `json:"path"`
	Record    *WireRecord `json:"record,omitempty"`
	IDs       []string    `json:"ids,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewCreatedMessage(path string, rec core.Record) *RecordChangeMessage {
	wire := WireFromRecord(rec)
	return &RecordChangeMessage{
		Kind:      ChangeCreated,
		Path:      path,
		Record:    &wire,
		Timestamp: time.Now(),
	}
}

func NewDeletedMessage(path, id string) *RecordChangeMessage {
	return &RecordChangeMessage{
		Kind:      ChangeDeleted,
		Path:      path,
		IDs:       []string{id},
		Timestamp: time.Now(),
	}
}

func NewClearedMessage(path string, ids []string) *RecordChangeMessage {
	return &RecordChangeMessage{
		Kind:      ChangeCleared,
		Path:      path,
		IDs:       ids,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RecordChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordChangeMessageFromJSON creates a message from JSON bytes
func RecordChangeMessageFromJSON(data []byte) (*RecordChangeMessage, error) {
	var msg RecordChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Kind {
	case ChangeCreated, ChangeDeleted, ChangeCleared:
	default:
		return nil, fmt.Errorf("unknown change kind %q", msg.Kind)
	}
	return &msg, nil
}
