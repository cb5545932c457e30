package repository

import (
	"context"

	"EarnView/internal/domain/models"
)

// EarningsSource is the external earnings pipeline as seen by the dashboard.
type EarningsSource interface {
	Upcoming(ctx context.Context) ([]models.UpcomingEarnings, error)
	History(ctx context.Context, symbol string) (models.EarningsHistoryResponse, error)
	Symbols(ctx context.Context) (models.SymbolList, error)
}

// PredictionService is the external prediction model.
type PredictionService interface {
	Predict(ctx context.Context, req models.PredictionRequest) (models.PredictionResult, error)
	ModelStatus(ctx context.Context) (models.ModelStatus, error)
	Retrain(ctx context.Context) (models.RetrainAck, error)
}

// Backend is everything the dashboard calls over HTTP.
type Backend interface {
	EarningsSource
	PredictionService
}

// Metrics records dashboard-side observations.
type Metrics interface {
	RecordFetch(op string, seconds float64, err error)
	RecordStaleDiscard(op string)
	SetLiveSessions(n int)
}
