package handler

import (
	"encoding/json"
	stdErrors "errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/meetscribe/meetscribe/errors"
	"github.com/meetscribe/meetscribe/internal/adapter/dto/ws"
	"github.com/meetscribe/meetscribe/internal/usecase/session"
)

// WS handles the recording WebSocket endpoint. Each connection owns at
// most one recording session; binary frames carry raw audio, text frames
// carry JSON commands.
type WS struct {
	manager  *session.Manager
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new recording WebSocket handler
func NewWSHandler(manager *session.Manager, logger *zap.Logger) *WS {
	return &WS{
		manager: manager,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// connPusher serializes writes to a single WebSocket connection.
// gorilla/websocket allows only one concurrent writer, and pushes arrive
// from both the session loop and the handler itself.
type connPusher struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (p *connPusher) Push(v interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.WriteJSON(v)
}

// Handle upgrades GET /ws and runs the connection read loop until the
// client disconnects.
func (h *WS) Handle(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return err
	}

	connID := uuid.NewString()
	pusher := &connPusher{conn: conn}

	h.logger.Info("client connected",
		zap.String("conn_id", connID),
		zap.String("remote_addr", conn.RemoteAddr().String()),
	)

	defer func() {
		h.manager.Remove(connID)
		conn.Close()
		h.logger.Info("client disconnected", zap.String("conn_id", connID))
	}()

	if err := pusher.Push(ws.StatusMessage{Type: ws.TypeStatus, Status: ws.StatusConnected}); err != nil {
		return nil
	}

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("websocket read failed",
					zap.String("conn_id", connID),
					zap.Error(err),
				)
			}
			return nil
		}

		switch msgType {
		case websocket.BinaryMessage:
			if s := h.manager.Get(connID); s != nil {
				s.HandleAudio(data)
			}
		case websocket.TextMessage:
			h.dispatch(c, connID, data, pusher)
		}
	}
}

// dispatch routes one client command. Command failures are pushed back to
// the client; they never tear down the connection.
func (h *WS) dispatch(c echo.Context, connID string, data []byte, pusher *connPusher) {
	var cmd ws.Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		h.logger.Warn("malformed client command",
			zap.String("conn_id", connID),
			zap.Error(err),
		)
		h.pushError(pusher, errors.ErrInvalidPayload())
		return
	}

	switch cmd.Type {
	case ws.TypeStartRecording:
		s, err := h.manager.StartRecording(c.Request().Context(), connID, cmd.MeetingID, cmd.Title, pusher)
		if err != nil {
			h.logger.Error("failed to start recording",
				zap.String("conn_id", connID),
				zap.Error(err),
			)
			h.pushError(pusher, err)
			return
		}
		h.logger.Info("recording started",
			zap.String("conn_id", connID),
			zap.String("meeting_id", s.ID().String()),
		)
	case ws.TypeStopRecording:
		s := h.manager.Get(connID)
		if s == nil {
			h.pushError(pusher, errors.ErrSessionNotFound())
			return
		}
		s.Stop()
	default:
		h.logger.Warn("unknown command type",
			zap.String("conn_id", connID),
			zap.String("command", cmd.Type),
		)
		h.pushError(pusher, errors.ErrInvalidPayload())
	}
}

func (h *WS) pushError(pusher *connPusher, err error) {
	msg := "Failed to process message"
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) && appErr.Message != "" {
		msg = appErr.Message
	}
	if pushErr := pusher.Push(ws.ErrorMessage{Type: ws.TypeError, Error: msg}); pushErr != nil {
		h.logger.Debug("failed to push error to client", zap.Error(pushErr))
	}
}
