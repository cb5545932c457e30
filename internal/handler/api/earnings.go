// Package api exposes the backend calls as JSON endpoints.
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	models "EarnView/internal/domain/models"
	domrepo "EarnView/internal/domain/repository"
	"EarnView/internal/service/earningsapi"
	"EarnView/internal/service/ratelimit"
	xhttp "EarnView/pkg/http"
	applogger "EarnView/pkg/logger"
)

// EarningsHandler proxies the earnings and prediction endpoints.
type EarningsHandler struct {
	logger  *applogger.Logger
	backend domrepo.Backend
	limiter ratelimit.Limiter
}

func NewEarningsHandler(logger *applogger.Logger, backend domrepo.Backend, limiter ratelimit.Limiter) *EarningsHandler {
	return &EarningsHandler{logger: logger, backend: backend, limiter: limiter}
}

func (h *EarningsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/earnings/upcoming", h.Upcoming)
	g.GET("/earnings/history/:symbol", h.History)
	g.GET("/earnings/symbols", h.Symbols)
	g.GET("/predictions/model/status", h.ModelStatus)
	g.POST("/predictions/predict", h.Predict, h.rateLimited)
	g.POST("/predictions/model/retrain", h.Retrain, h.rateLimited)
}

func (h *EarningsHandler) Upcoming(c echo.Context) error {
	res, err := h.backend.Upcoming(c.Request().Context())
	if err != nil {
		return h.upstream(c, earningsapi.OpUpcoming, err)
	}
	if res == nil {
		res = []models.UpcomingEarnings{}
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *EarningsHandler) History(c echo.Context) error {
	symbol := strings.TrimSpace(c.Param("symbol"))
	if symbol == "" || len(symbol) > 10 {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("invalid symbol"))
	}
	res, err := h.backend.History(c.Request().Context(), symbol)
	if err != nil {
		return h.upstream(c, earningsapi.OpHistory, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *EarningsHandler) Symbols(c echo.Context) error {
	res, err := h.backend.Symbols(c.Request().Context())
	if err != nil {
		return h.upstream(c, earningsapi.OpSymbols, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *EarningsHandler) ModelStatus(c echo.Context) error {
	res, err := h.backend.ModelStatus(c.Request().Context())
	if err != nil {
		return h.upstream(c, earningsapi.OpStatus, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *EarningsHandler) Predict(c echo.Context) error {
	req := &models.PredictionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.backend.Predict(c.Request().Context(), *req)
	if err != nil {
		return h.upstream(c, earningsapi.OpPredict, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *EarningsHandler) Retrain(c echo.Context) error {
	res, err := h.backend.Retrain(c.Request().Context())
	if err != nil {
		return h.upstream(c, earningsapi.OpRetrain, err)
	}
	return xhttp.AcceptedResponse(c, res)
}

// rateLimited rejects over-quota clients. A limiter failure lets the request
// through.
func (h *EarningsHandler) rateLimited(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.limiter == nil {
			return next(c)
		}
		ok, err := h.limiter.Allow(c.Request().Context(), c.RealIP())
		if err != nil {
			h.logger.Warn("rate limiter unavailable", applogger.Error(err))
			return next(c)
		}
		if !ok {
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many requests, slow down"))
		}
		return next(c)
	}
}

func (h *EarningsHandler) upstream(c echo.Context, op string, err error) error {
	h.logger.Error("backend call failed", applogger.String("op", op), applogger.Error(err))
	var se *xhttp.StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("resource not found upstream").WithError(err))
	}
	return xhttp.AppErrorResponse(c, xhttp.UpstreamErrorf("%s request failed", op).WithError(err))
}
