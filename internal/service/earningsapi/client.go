package earningsapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"EarnView/internal/domain/models"
	domrepo "EarnView/internal/domain/repository"
	xhttp "EarnView/pkg/http"
	applogger "EarnView/pkg/logger"

	"golang.org/x/sync/singleflight"
)

// ErrFetchFailed is the single failure condition of every call. Callers
// test for it with errors.Is and never look deeper.
var ErrFetchFailed = errors.New("fetch failed")

const (
	OpUpcoming = "upcoming"
	OpHistory  = "history"
	OpSymbols  = "symbols"
	OpPredict  = "predict"
	OpStatus   = "model_status"
	OpRetrain  = "retrain"
)

// FetchError records which call failed and why.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrFetchFailed, e.Op, e.Err)
}

func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }

func (e *FetchError) Unwrap() error { return e.Err }

// Client talks to the earnings/model API. Identical GETs that overlap in
// time share one outbound request.
type Client struct {
	baseURL string
	http    *xhttp.Client
	group   singleflight.Group
	metrics domrepo.Metrics
	logger  *applogger.Logger
}

// Option configures Client.
type Option func(*Client)

// WithMetrics records per-operation latency and errors.
func WithMetrics(m domrepo.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New builds a client for baseURL, which is fixed for the client's life.
func New(baseURL string, hc *xhttp.Client, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		logger:  applogger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Upcoming lists upcoming earnings in backend order.
func (c *Client) Upcoming(ctx context.Context) ([]models.UpcomingEarnings, error) {
	var out []models.UpcomingEarnings
	v, err := c.shared(ctx, OpUpcoming, "/api/earnings/upcoming", &out)
	if err != nil {
		return nil, err
	}
	return *(v.(*[]models.UpcomingEarnings)), nil
}

// History returns the history of one symbol, newest first.
func (c *Client) History(ctx context.Context, symbol string) (models.EarningsHistoryResponse, error) {
	var out models.EarningsHistoryResponse
	v, err := c.shared(ctx, OpHistory, "/api/earnings/history/"+url.PathEscape(symbol), &out)
	if err != nil {
		return models.EarningsHistoryResponse{}, err
	}
	return *(v.(*models.EarningsHistoryResponse)), nil
}

// Symbols lists symbols that have history.
func (c *Client) Symbols(ctx context.Context) (models.SymbolList, error) {
	var out models.SymbolList
	v, err := c.shared(ctx, OpSymbols, "/api/earnings/symbols", &out)
	if err != nil {
		return models.SymbolList{}, err
	}
	return *(v.(*models.SymbolList)), nil
}

// ModelStatus returns the model snapshot.
func (c *Client) ModelStatus(ctx context.Context) (models.ModelStatus, error) {
	var out models.ModelStatus
	v, err := c.shared(ctx, OpStatus, "/api/predictions/model/status", &out)
	if err != nil {
		return models.ModelStatus{}, err
	}
	return *(v.(*models.ModelStatus)), nil
}

// Predict submits a one-shot prediction. POSTs are never shared.
func (c *Client) Predict(ctx context.Context, req models.PredictionRequest) (models.PredictionResult, error) {
	var out models.PredictionResult
	if err := c.do(ctx, OpPredict, xhttp.MethodPost, "/api/predictions/predict", req, &out); err != nil {
		return models.PredictionResult{}, err
	}
	return out, nil
}

// Retrain asks the backend to retrain its model.
func (c *Client) Retrain(ctx context.Context) (models.RetrainAck, error) {
	var out models.RetrainAck
	if err := c.do(ctx, OpRetrain, xhttp.MethodPost, "/api/predictions/model/retrain", nil, &out); err != nil {
		return models.RetrainAck{}, err
	}
	return out, nil
}

// shared runs a GET through the singleflight group keyed on path. The shared
// call is detached from the first caller's cancellation so one caller leaving
// does not fail the others; the client timeout still bounds it.
func (c *Client) shared(ctx context.Context, op, path string, dest interface{}) (interface{}, error) {
	v, err, _ := c.group.Do(path, func() (interface{}, error) {
		if err := c.do(context.WithoutCancel(ctx), op, xhttp.MethodGet, path, nil, dest); err != nil {
			return nil, err
		}
		return dest, nil
	})
	return v, err
}

func (c *Client) do(ctx context.Context, op, method, path string, body, dest interface{}) error {
	start := time.Now()
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: method,
		URL:    c.baseURL + path,
		Body:   body,
	}, dest)
	elapsed := time.Since(start)

	if c.metrics != nil {
		c.metrics.RecordFetch(op, elapsed.Seconds(), err)
	}
	if err != nil {
		c.logger.Warn("earnings api call failed",
			applogger.String("op", op),
			applogger.String("path", path),
			applogger.Duration("duration_ms", elapsed),
			applogger.Error(err),
		)
		return &FetchError{Op: op, Err: err}
	}
	c.logger.Debug("earnings api call",
		applogger.String("op", op),
		applogger.String("path", path),
		applogger.Duration("duration_ms", elapsed),
	)
	return nil
}

var _ domrepo.Backend = (*Client)(nil)
