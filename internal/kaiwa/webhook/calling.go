package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/bdobrica/Kaiwa/common/spec/calling"
	"github.com/bdobrica/Kaiwa/common/spec/rules"
	"github.com/bdobrica/Kaiwa/common/spec/schema"
	"github.com/bdobrica/Kaiwa/common/trace"
	"github.com/bdobrica/Kaiwa/internal/kaiwa/observability"
)

// Multipart part names of a callback carrying a recording.
const (
	partConversationResult = "conversationResult"
	partRecordedAudio      = "recordedAudio"
)

func traceID(ctx context.Context) string { return trace.FromContext(ctx) }

// handleCall answers an incoming call with the CallHandler's workflow.
func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := observability.WithTrace(ctx)

	body, ok := readBody(w, r)
	if !ok {
		return
	}
	src, err := decodeObject(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	conv, err := calling.NewConversation(src)
	if err == nil {
		err = rules.Check(conv)
	}
	if err != nil {
		log.Warn("webhook: conversation rejected", "err", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.recordCallback(ctx, "call", conv.ID, body)

	log.Info("webhook: incoming call", "call_id", deref(conv.ID), "state", derefState(conv.CallState))
	wf, err := s.calls.HandleCall(ctx, conv)
	if err != nil {
		log.Error("webhook: call handler failed", "call_id", deref(conv.ID), "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if wf == nil {
		log.Error("webhook: call handler returned no workflow", "call_id", deref(conv.ID))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	s.writeWorkflow(ctx, w, wf)
}

// handleCallback delivers an operation outcome or a notification. Callbacks
// carrying a recording arrive as multipart/form-data.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := observability.WithTrace(ctx)

	body, ok := readBody(w, r)
	if !ok {
		return
	}
	doc, audio, err := splitCallback(r.Header.Get("Content-Type"), body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	src, err := decodeObject(doc)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, isResult := src["operationOutcome"]; isResult {
		res, err := calling.NewConversationResult(src)
		if err == nil {
			err = rules.Check(res)
		}
		if err != nil {
			log.Warn("webhook: conversation result rejected", "err", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		res.RecordedAudio = audio
		s.recordCallback(ctx, "result", res.ID, doc)

		wf, err := s.calls.HandleResult(ctx, res)
		if err != nil {
			log.Error("webhook: result handler failed", "call_id", deref(res.ID), "err", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if wf == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		s.writeWorkflow(ctx, w, wf)
		return
	}

	n, err := calling.NewNotification(src)
	if err == nil {
		err = rules.Check(n)
	}
	if err != nil {
		log.Warn("webhook: notification rejected", "err", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.recordCallback(ctx, "notification", n.Header().ID, doc)
	if err := s.calls.HandleNotification(ctx, n); err != nil {
		log.Error("webhook: notification handler failed", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeWorkflow refuses to send a workflow the platform would reject.
func (s *Server) writeWorkflow(ctx context.Context, w http.ResponseWriter, wf *calling.Workflow) {
	log := observability.WithTrace(ctx)
	if err := rules.Check(wf); err != nil {
		log.Error("webhook: handler produced an invalid workflow", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	data, err := json.Marshal(wf)
	if err == nil {
		err = schema.ValidateJSON(schema.Workflow, data)
	}
	if err != nil {
		log.Error("webhook: workflow encoding failed", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) recordCallback(ctx context.Context, kind string, callID *string, body []byte) {
	if s.journal == nil {
		return
	}
	if err := s.journal.RecordCallback(ctx, traceID(ctx), kind, deref(callID), body); err != nil {
		observability.WithTrace(ctx).Error("webhook: journal write failed", "err", err)
	}
}

func decodeObject(data []byte) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return rules.AsObject(v)
}

// splitCallback returns the JSON document of a callback and, for multipart
// bodies, the recorded audio.
func splitCallback(contentType string, body []byte) ([]byte, []byte, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return body, nil, nil
	}
	mr := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	var doc, audio []byte
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("invalid multipart body: %w", err)
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid multipart body: %w", err)
		}
		switch part.FormName() {
		case partConversationResult:
			doc = data
		case partRecordedAudio:
			audio = data
		}
	}
	if doc == nil {
		return nil, nil, fmt.Errorf("multipart body has no %q part", partConversationResult)
	}
	return doc, audio, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefState(s *calling.CallState) string {
	if s == nil {
		return ""
	}
	return string(*s)
}
