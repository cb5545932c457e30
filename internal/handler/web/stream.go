package web

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"EarnView/internal/dashboard"
	xhttp "EarnView/pkg/http"
	applogger "EarnView/pkg/logger"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = pongWait * 9 / 10
	maxClientFrame  = 4096
	msgRender       = "render"
	msgError        = "error"
	msgSelect       = "select"
	msgRefreshModel = "refresh_status"
	msgReload       = "reload"
)

type clientMessage struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol,omitempty"`
}

type serverMessage struct {
	Type  string `json:"type"`
	HTML  string `json:"html,omitempty"`
	Error string `json:"error,omitempty"`
}

// Stream pushes a fresh render after every session change and applies the
// client's select and refresh messages. Only this goroutine writes to conn.
func (h *Handler) Stream(c echo.Context) error {
	s, err := h.session(c.QueryParam("session"))
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", applogger.Error(err))
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, unsubscribe, err := s.Subscribe(ctx)
	if err != nil {
		return nil
	}
	defer unsubscribe()

	log := h.logger.With(applogger.String("session", s.ID()))
	log.Debug("stream opened")
	defer log.Debug("stream closed")

	replies := make(chan serverMessage, 1)
	go h.readLoop(ctx, cancel, conn, s, replies)

	if err := h.push(ctx, conn, s); err != nil {
		return nil
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-updates:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"))
				return nil
			}
			if err := h.push(ctx, conn, s); err != nil {
				return nil
			}
		case msg := <-replies:
			if err := write(conn, msg); err != nil {
				return nil
			}
		case <-ticker.C:
			if _, ok := h.sessions.Get(s.ID()); !ok {
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}

func (h *Handler) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, s *dashboard.Session, replies chan<- serverMessage) {
	defer cancel()
	conn.SetReadLimit(maxClientFrame)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read", applogger.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var m clientMessage
		if err := json.Unmarshal(b, &m); err != nil {
			continue
		}
		switch m.Type {
		case msgSelect:
			err = s.Select(ctx, m.Symbol)
		case msgRefreshModel:
			err = s.RefreshStatus(ctx)
		case msgReload:
			err = s.Reload(ctx)
		default:
			continue
		}
		if err != nil {
			select {
			case replies <- serverMessage{Type: msgError, Error: err.Error()}:
			default:
			}
		}
	}
}

func (h *Handler) push(ctx context.Context, conn *websocket.Conn, s *dashboard.Session) error {
	page, err := h.view(ctx, s)
	if err != nil {
		return err
	}
	html, err := h.renderer.Fragment(page)
	if err != nil {
		h.logger.Error("render fragment", applogger.Error(err))
		return err
	}
	return write(conn, serverMessage{Type: msgRender, HTML: html})
}

func write(conn *websocket.Conn, msg serverMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}
