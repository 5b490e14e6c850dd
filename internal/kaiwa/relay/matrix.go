package relay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/bdobrica/Kaiwa/common/dispatch"
)

// MatrixConfig holds the Matrix connection parameters of the operator room.
type MatrixConfig struct {
	Homeserver  string
	UserID      string
	AccessToken string
	RoomID      string
}

// roomClient is the part of *mautrix.Client the sink uses.
type roomClient interface {
	JoinRoomByID(ctx context.Context, roomID id.RoomID) (*mautrix.RespJoinRoom, error)
	SendMessageEvent(ctx context.Context, roomID id.RoomID, eventType event.Type, contentJSON interface{}, extra ...mautrix.ReqSendEvent) (*mautrix.RespSendEvent, error)
}

// MatrixSink posts one m.notice per delivery to an operator room.
type MatrixSink struct {
	mxc  roomClient
	room id.RoomID
}

// NewMatrixSink creates a Matrix client for cfg. It does not contact the
// homeserver until Join or Deliver is called.
func NewMatrixSink(cfg MatrixConfig) (*MatrixSink, error) {
	if cfg.RoomID == "" {
		return nil, fmt.Errorf("matrix sink: room id is required")
	}
	mxc, err := mautrix.NewClient(cfg.Homeserver, id.UserID(cfg.UserID), cfg.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("create matrix client: %w", err)
	}
	return newMatrixSink(mxc, cfg.RoomID), nil
}

func newMatrixSink(mxc roomClient, room string) *MatrixSink {
	return &MatrixSink{mxc: mxc, room: id.RoomID(room)}
}

// Name implements Sink.
func (s *MatrixSink) Name() string { return "matrix" }

// Join joins the operator room. Failures are logged only, since the bot may
// already be a member.
func (s *MatrixSink) Join(ctx context.Context) {
	if _, err := s.mxc.JoinRoomByID(ctx, s.room); err != nil {
		slog.Info("relay: join room result", "room", s.room, "err", err)
	}
}

// Deliver implements Sink.
func (s *MatrixSink) Deliver(ctx context.Context, traceID string, events []dispatch.Event) error {
	plain, html := render(traceID, events)
	content := event.MessageEventContent{
		MsgType:       event.MsgNotice,
		Body:          plain,
		Format:        event.FormatHTML,
		FormattedBody: html,
	}
	if _, err := s.mxc.SendMessageEvent(ctx, s.room, event.EventMessage, content); err != nil {
		return fmt.Errorf("send matrix notice: %w", err)
	}
	return nil
}

// Close implements Sink.
func (s *MatrixSink) Close() error { return nil }

func render(traceID string, events []dispatch.Event) (string, string) {
	var plain, html strings.Builder
	fmt.Fprintf(&plain, "[%s] %d event(s)\n", traceID, len(events))
	fmt.Fprintf(&html, "<p><code>%s</code> %d event(s)</p><ul>", escape(traceID), len(events))
	for _, ev := range events {
		line := Summary(ev)
		plain.WriteString("• " + line + "\n")
		html.WriteString("<li>" + escape(line) + "</li>")
	}
	html.WriteString("</ul>")
	return strings.TrimRight(plain.String(), "\n"), html.String()
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string { return htmlEscaper.Replace(s) }
