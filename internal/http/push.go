package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/olahol/melody"
)

// Websocket frames are tiny event names; the client reacts by re-fetching
// the matching UI partial.
var (
	eventRecords = []byte(`{"event":"records"}`)
	eventStatus  = []byte(`{"event":"status"}`)
)

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.HandleRequest(w, r); err != nil {
		slog.WarnContext(r.Context(), "Websocket upgrade failed", "error", err)
	}
}

// StartPush fans ledger snapshots and status changes out to every connected
// websocket session. It blocks until ctx is cancelled.
func (s *Server) StartPush(ctx context.Context) error {
	// A fresh session starts from current state
	s.ws.HandleConnect(func(sess *melody.Session) {
		if err := sess.Write(eventRecords); err != nil {
			slog.Debug("Initial websocket write failed", "error", err)
		}
	})

	snapshots := s.ledger.Snapshots()
	changes := s.statusSrc.Changes()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-snapshots:
			if !ok {
				snapshots = nil
				continue
			}
			if err := s.ws.Broadcast(eventRecords); err != nil {
				slog.Warn("Broadcast failed", "event", "records", "error", err)
			}
		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			if err := s.ws.Broadcast(eventStatus); err != nil {
				slog.Warn("Broadcast failed", "event", "status", "error", err)
			}
		}
	}
}
