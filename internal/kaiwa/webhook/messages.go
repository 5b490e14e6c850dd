package webhook

import (
	"errors"
	"io"
	"net/http"

	"github.com/bdobrica/Kaiwa/common/dispatch"
	"github.com/bdobrica/Kaiwa/internal/kaiwa/observability"
)

// readBody reads the capped request body, answering 413 or 400 itself when
// it cannot.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

// handleMessages classifies one messaging delivery. A batch that cannot be
// parsed or fails validation is answered with 400 and never reaches the
// EventHandler.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := observability.WithTrace(ctx)

	body, ok := readBody(w, r)
	if !ok {
		return
	}

	events := s.classifier.Classify(body)
	if len(events) == 1 && events[0].IsError() && events[0].Activity == nil {
		log.Warn("webhook: activity batch rejected", "err", events[0].Error)
		s.recordEvents(r, events)
		http.Error(w, events[0].Error, http.StatusBadRequest)
		return
	}

	for _, ev := range events {
		observability.EventsClassifiedTotal.WithLabelValues(string(ev.Kind)).Inc()
		if ev.IsError() {
			log.Warn("webhook: activity dropped", "source", ev.Source, "err", ev.Error)
		}
	}
	log.Debug("webhook: activities classified", "events", len(events))
	s.recordEvents(r, events)

	if err := s.events.HandleEvents(ctx, events); err != nil {
		log.Error("webhook: event handler failed", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) recordEvents(r *http.Request, events []dispatch.Event) {
	if s.journal == nil {
		return
	}
	ctx := r.Context()
	if err := s.journal.RecordEvents(ctx, traceID(ctx), events); err != nil {
		observability.WithTrace(ctx).Error("webhook: journal write failed", "err", err)
	}
}
