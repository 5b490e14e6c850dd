package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bdobrica/Kaiwa/common/dispatch"
)

// EventEntry is one journaled event.
type EventEntry struct {
	ID         string
	TraceID    string
	Seq        int
	Kind       dispatch.Kind
	Source     string
	From       string
	To         string
	ReplyTo    string
	Error      string
	EventJSON  string
	ReceivedAt time.Time
}

// CallbackEntry is one journaled calling webhook body.
type CallbackEntry struct {
	ID         string
	TraceID    string
	Kind       string
	CallID     string
	Body       string
	ReceivedAt time.Time
}

// journalRecord is what gets stored in event_json: the classified event plus
// the activity it came from.
type journalRecord struct {
	dispatch.Event
	Activity any `json:"activity,omitempty"`
}

// RecordEvents stores every event of one delivery in a single transaction,
// keeping their order.
func (s *Store) RecordEvents(ctx context.Context, traceID string, events []dispatch.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin event journal transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now().UTC()
	for i, ev := range events {
		rec := journalRecord{Event: ev}
		if ev.Activity != nil {
			rec.Activity = ev.Activity
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal event %d: %w", i, err)
		}
		body, err := s.seal(string(data))
		if err != nil {
			return fmt.Errorf("failed to seal event %d: %w", i, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO events (id, trace_id, seq, kind, source, from_id, to_id, reply_to, activity_ts, error, event_json, received_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, uuid.NewString(), traceID, i, string(ev.Kind), nullString(string(ev.Source)),
			nullString(ev.From), nullString(ev.To), nullString(ev.ReplyTo), nullString(ev.Time),
			nullString(ev.Error), body, now)
		if err != nil {
			return fmt.Errorf("failed to journal event %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit event journal: %w", err)
	}
	return nil
}

// RecordCallback stores one calling webhook body.
func (s *Store) RecordCallback(ctx context.Context, traceID, kind, callID string, body []byte) error {
	sealed, err := s.seal(string(body))
	if err != nil {
		return fmt.Errorf("failed to seal callback: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO callbacks (id, trace_id, kind, call_id, body, received_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), traceID, kind, nullString(callID), sealed, s.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to journal callback: %w", err)
	}
	return nil
}

// EventsByTrace returns the events of one delivery in classification order.
func (s *Store) EventsByTrace(ctx context.Context, traceID string) ([]*EventEntry, error) {
	return s.queryEvents(ctx, `
		SELECT id, trace_id, seq, kind, source, from_id, to_id, reply_to, error, event_json, received_at
		FROM events WHERE trace_id = ? ORDER BY seq
	`, traceID)
}

// RecentEvents returns the newest events first. limit <= 0 means 100.
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]*EventEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.queryEvents(ctx, `
		SELECT id, trace_id, seq, kind, source, from_id, to_id, reply_to, error, event_json, received_at
		FROM events ORDER BY received_at DESC, seq DESC LIMIT ?
	`, limit)
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]*EventEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []*EventEntry
	for rows.Next() {
		var (
			e                                  EventEntry
			kind                               string
			source, from, to, replyTo, errText sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.TraceID, &e.Seq, &kind, &source, &from, &to, &replyTo,
			&errText, &e.EventJSON, &e.ReceivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Kind = dispatch.Kind(kind)
		e.Source = source.String
		e.From = from.String
		e.To = to.String
		e.ReplyTo = replyTo.String
		e.Error = errText.String
		if e.EventJSON, err = s.open(e.EventJSON); err != nil {
			return nil, fmt.Errorf("failed to open event %s: %w", e.ID, err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// CallbacksForCall returns the bodies journaled for one call, oldest first.
func (s *Store) CallbacksForCall(ctx context.Context, callID string) ([]*CallbackEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trace_id, kind, call_id, body, received_at
		FROM callbacks WHERE call_id = ? ORDER BY received_at, rowid
	`, callID)
	if err != nil {
		return nil, fmt.Errorf("failed to query callbacks: %w", err)
	}
	defer rows.Close()

	var out []*CallbackEntry
	for rows.Next() {
		var (
			c    CallbackEntry
			call sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.TraceID, &c.Kind, &call, &c.Body, &c.ReceivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan callback: %w", err)
		}
		c.CallID = call.String
		if c.Body, err = s.open(c.Body); err != nil {
			return nil, fmt.Errorf("failed to open callback %s: %w", c.ID, err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// Counts holds the journal totals reported on the status endpoint.
type Counts struct {
	Events    int64                   `json:"events"`
	Errors    int64                   `json:"errors"`
	Callbacks int64                   `json:"callbacks"`
	ByKind    map[dispatch.Kind]int64 `json:"by_kind"`
}

// Counts returns journal totals.
func (s *Store) Counts(ctx context.Context) (*Counts, error) {
	c := &Counts{ByKind: make(map[dispatch.Kind]int64)}
	rows, err := s.db.QueryContext(ctx, "SELECT kind, COUNT(*) FROM events GROUP BY kind")
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			kind string
			n    int64
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		c.ByKind[dispatch.Kind(kind)] = n
		c.Events += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	c.Errors = c.ByKind[dispatch.KindError]

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM callbacks").Scan(&c.Callbacks); err != nil {
		return nil, fmt.Errorf("failed to count callbacks: %w", err)
	}
	return c, nil
}
