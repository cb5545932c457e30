// Package web serves the dashboard page, its live stream and the session
// endpoints.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"EarnView/internal/dashboard"
	"EarnView/internal/view"
	xhttp "EarnView/pkg/http"
	applogger "EarnView/pkg/logger"
)

const (
	wsPath      = "/ws"
	viewTimeout = 5 * time.Second
)

// Sessions is the session registry the handler needs.
type Sessions interface {
	Create() (*dashboard.Session, error)
	Get(id string) (*dashboard.Session, bool)
	Len() int
}

// SelectRequest selects a symbol on a session.
type SelectRequest struct {
	Symbol string `json:"symbol" form:"symbol" validate:"required,max=10"`
}

// Handler serves the dashboard.
type Handler struct {
	logger   *applogger.Logger
	sessions Sessions
	renderer *Renderer
	upgrader websocket.Upgrader
}

func NewHandler(logger *applogger.Logger, sessions Sessions, renderer *Renderer) *Handler {
	return &Handler{
		logger:   logger,
		sessions: sessions,
		renderer: renderer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
		},
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.Renderer = h.renderer
	e.StaticFS("/static", StaticFS())
	e.GET("/", h.Page)
	e.GET("/healthz", h.Health)
	e.GET(wsPath, h.Stream)

	g := e.Group("/sessions/:id")
	g.POST("/select", h.Select)
	g.POST("/reload", h.Reload)
	g.GET("/view", h.View)
	g.GET("/fragment", h.Fragment)
}

// Page mounts a new session and renders the whole document.
func (h *Handler) Page(c echo.Context) error {
	s, err := h.sessions.Create()
	if err != nil {
		h.logger.Error("create session", applogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	page, err := h.view(c.Request().Context(), s)
	if err != nil {
		return h.sessionError(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.Render(http.StatusOK, "page", pageData{SessionID: s.ID(), WSPath: wsPath, Page: page})
}

func (h *Handler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"status":   "ok",
		"sessions": h.sessions.Len(),
	})
}

// Select changes the selected symbol and returns the resulting view.
func (h *Handler) Select(c echo.Context) error {
	s, err := h.session(c.Param("id"))
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	req := &SelectRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()
	if err := s.Select(ctx, req.Symbol); err != nil {
		return h.sessionError(c, err)
	}
	page, err := h.view(ctx, s)
	if err != nil {
		return h.sessionError(c, err)
	}
	return xhttp.AcceptedResponse(c, page)
}

// Reload refetches the upcoming list, the model status and the selected
// history, and returns the resulting view.
func (h *Handler) Reload(c echo.Context) error {
	s, err := h.session(c.Param("id"))
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	ctx := c.Request().Context()
	if err := s.Reload(ctx); err != nil {
		return h.sessionError(c, err)
	}
	page, err := h.view(ctx, s)
	if err != nil {
		return h.sessionError(c, err)
	}
	return xhttp.AcceptedResponse(c, page)
}

// View returns the current page as JSON.
func (h *Handler) View(c echo.Context) error {
	s, err := h.session(c.Param("id"))
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	page, err := h.view(c.Request().Context(), s)
	if err != nil {
		return h.sessionError(c, err)
	}
	return xhttp.SuccessResponse(c, page)
}

// Fragment returns the swappable HTML for clients without a socket.
func (h *Handler) Fragment(c echo.Context) error {
	s, err := h.session(c.Param("id"))
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	page, err := h.view(c.Request().Context(), s)
	if err != nil {
		return h.sessionError(c, err)
	}
	html, err := h.renderer.Fragment(page)
	if err != nil {
		h.logger.Error("render fragment", applogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return c.HTML(http.StatusOK, html)
}

func (h *Handler) session(id string) (*dashboard.Session, error) {
	if id == "" {
		return nil, xhttp.BadRequestError("session id is required")
	}
	s, ok := h.sessions.Get(id)
	if !ok {
		return nil, xhttp.NotFoundErrorf("session %q not found", id)
	}
	return s, nil
}

func (h *Handler) view(ctx context.Context, s *dashboard.Session) (view.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, viewTimeout)
	defer cancel()
	return s.View(ctx)
}

func (h *Handler) sessionError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, dashboard.ErrSessionClosed):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("session closed"))
	case errors.Is(err, dashboard.ErrEmptySymbol):
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	default:
		h.logger.Error("session request", applogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
}
