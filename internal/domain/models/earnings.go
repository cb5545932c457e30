package models

// Every percentage field is plain percent: 5.2 means 5.2%, never 0.052.

// UpcomingEarnings is one company's next earnings event.
type UpcomingEarnings struct {
	Symbol           string   `json:"symbol"`
	EarningsDate     string   `json:"earnings_date"`
	CurrentPrice     float64  `json:"current_price"`
	IVProxy          float64  `json:"iv_proxy"`
	PredictedGapPct  *float64 `json:"predicted_gap_pct,omitempty"`
	OpportunityScore *float64 `json:"opportunity_score,omitempty"`
}

// HistoricalEarningsData is one past earnings event for a symbol.
type HistoricalEarningsData struct {
	Symbol             string   `json:"symbol"`
	EarningsDate       string   `json:"earnings_date"`
	PrevClose          float64  `json:"prev_close"`
	PostOpen           float64  `json:"post_open"`
	OvernightGapPct    float64  `json:"overnight_gap_pct"`
	FiveDayRealizedVol float64  `json:"five_day_realized_vol"`
	IVProxy            float64  `json:"iv_proxy"`
	Momentum20D        float64  `json:"momentum_20d"`
	BetaMarket         float64  `json:"beta_market"`
	PastSurprise       *float64 `json:"past_surprise,omitempty"`
}

// EarningsHistoryResponse carries a symbol's history, newest first.
type EarningsHistoryResponse struct {
	Symbol         string                   `json:"symbol"`
	HistoricalData []HistoricalEarningsData `json:"historical_data"`
}

// SymbolList is the known-symbols envelope.
type SymbolList struct {
	Symbols []string `json:"symbols"`
	Count   int      `json:"count"`
}

// PredictionRequest asks the model for a one-shot prediction. Optional
// fields override the features the backend would otherwise derive.
type PredictionRequest struct {
	Symbol       string   `json:"symbol" validate:"required,max=10"`
	EarningsDate string   `json:"earnings_date" validate:"required,datetime=2006-01-02"`
	IVProxy      *float64 `json:"iv_proxy,omitempty" validate:"omitempty,gte=0"`
	CurrentPrice *float64 `json:"current_price,omitempty" validate:"omitempty,gt=0"`
	Momentum20D  *float64 `json:"momentum_20d,omitempty" default:"0"`
	BetaMarket   *float64 `json:"beta_market,omitempty" default:"1"`
}

// PredictionResult is the model's answer for one symbol.
type PredictionResult struct {
	Symbol           string  `json:"symbol"`
	EarningsDate     string  `json:"earnings_date"`
	PredictedGapPct  float64 `json:"predicted_gap_pct"`
	IVProxy          float64 `json:"iv_proxy"`
	OpportunityScore float64 `json:"opportunity_score"`
}

// ModelPerformance holds optional evaluation metrics.
type ModelPerformance struct {
	MAE *float64 `json:"mae,omitempty"`
	R2  *float64 `json:"r2,omitempty"`
}

// ModelStatus is a read-only snapshot of the external model. Only Available
// is meaningful when it is false.
type ModelStatus struct {
	Available    bool              `json:"available"`
	TrainingDate string            `json:"training_date,omitempty"`
	FeatureCount int               `json:"feature_count,omitempty"`
	Performance  *ModelPerformance `json:"performance,omitempty"`
	Message      string            `json:"message,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// RetrainAck is the backend's acknowledgement of a retrain request.
type RetrainAck struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
