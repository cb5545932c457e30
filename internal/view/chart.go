package view

import (
	"fmt"

	"EarnView/internal/domain/models"
	"EarnView/internal/query"
	"EarnView/pkg/util"
)

const monthLabelLayout = "Jan 2006"

// SeriesPoint is one event on the time-series chart.
type SeriesPoint struct {
	Label       string  `json:"date"`
	IVProxy     float64 `json:"iv_proxy"`
	RealizedVol float64 `json:"realized_vol"`
	ActualMove  float64 `json:"actual_move"`
}

// PairPoint is one event on the scatter chart.
type PairPoint struct {
	IVProxy    float64 `json:"iv_proxy"`
	ActualMove float64 `json:"actual_move"`
	Label      string  `json:"date"`
}

// Summary holds the arithmetic means over a history.
type Summary struct {
	AvgIVProxy     float64 `json:"avg_iv_proxy"`
	AvgRealizedVol float64 `json:"avg_realized_vol"`
	AvgActualMove  float64 `json:"avg_actual_move"`
}

// Stat is one labelled summary cell.
type Stat struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Stats lists the summary cells in display order.
func (s Summary) Stats() []Stat {
	return []Stat{
		{Label: "Average IV Proxy", Value: Percent(s.AvgIVProxy)},
		{Label: "Average Realized Vol", Value: Percent(s.AvgRealizedVol)},
		{Label: "Average Actual Move", Value: Percent(s.AvgActualMove)},
	}
}

// ReferenceLine is the y = x diagonal of the scatter chart.
var ReferenceLine = [2]PairPoint{
	{IVProxy: 0, ActualMove: 0},
	{IVProxy: 50, ActualMove: 50},
}

const (
	ReferenceLineName = "Perfect Prediction"
	SelectPrompt      = "Select a Stock to View Chart"
	SelectHint        = "Click on any stock symbol in the table to view its historical IV vs RV analysis"
)

// ChronologicalSeries returns a new oldest-first series. records is newest
// first and is never modified; fetched slices may be shared.
func ChronologicalSeries(records []models.HistoricalEarningsData) []SeriesPoint {
	out := make([]SeriesPoint, len(records))
	for i, r := range records {
		out[len(records)-1-i] = SeriesPoint{
			Label:       util.FormatDateDefault(r.EarningsDate, monthLabelLayout),
			IVProxy:     r.IVProxy,
			RealizedVol: r.FiveDayRealizedVol,
			ActualMove:  abs(r.OvernightGapPct),
		}
	}
	return out
}

// PairwiseSeries keeps the input order.
func PairwiseSeries(records []models.HistoricalEarningsData) []PairPoint {
	out := make([]PairPoint, 0, len(records))
	for _, r := range records {
		out = append(out, PairPoint{
			IVProxy:    r.IVProxy,
			ActualMove: abs(r.OvernightGapPct),
			Label:      util.FormatDateDefault(r.EarningsDate, monthLabelLayout),
		})
	}
	return out
}

// Summarize averages a non-empty history. The bool is false for an empty one.
func Summarize(records []models.HistoricalEarningsData) (Summary, bool) {
	if len(records) == 0 {
		return Summary{}, false
	}
	var s Summary
	for _, r := range records {
		s.AvgIVProxy += r.IVProxy
		s.AvgRealizedVol += r.FiveDayRealizedVol
		s.AvgActualMove += abs(r.OvernightGapPct)
	}
	n := float64(len(records))
	s.AvgIVProxy /= n
	s.AvgRealizedVol /= n
	s.AvgActualMove /= n
	return s, true
}

// Chart is the analysis panel for the selected symbol.
type Chart struct {
	Symbol       string        `json:"symbol,omitempty"`
	Status       Status        `json:"status"`
	Title        string        `json:"title,omitempty"`
	TrendTitle   string        `json:"trend_title,omitempty"`
	ScatterTitle string        `json:"scatter_title,omitempty"`
	Message      string        `json:"message,omitempty"`
	Hint         string        `json:"hint,omitempty"`
	Series       []SeriesPoint `json:"series,omitempty"`
	Pairs        []PairPoint   `json:"pairs,omitempty"`
	Summary      *Summary      `json:"summary,omitempty"`
	Lines        *LinePlot     `json:"-"`
	Scatter      *ScatterPlot  `json:"-"`
}

// NoSelection is the panel shown before any symbol is chosen.
func NoSelection() Chart {
	return Chart{Status: StatusIdle, Message: SelectPrompt, Hint: SelectHint}
}

// BuildChart renders the panel for symbol from its history query.
func BuildChart(symbol string, st query.State[models.EarningsHistoryResponse]) Chart {
	title := fmt.Sprintf("%s - IV vs RV Analysis", symbol)
	return query.Match(st,
		func() Chart { return Chart{Symbol: symbol, Status: StatusLoading, Title: title} },
		func(error) Chart {
			return Chart{
				Symbol:  symbol,
				Title:   title,
				Status:  StatusFailed,
				Message: fmt.Sprintf("Failed to load historical data for %s", symbol),
			}
		},
		func(resp models.EarningsHistoryResponse) Chart {
			records := resp.HistoricalData
			summary, ok := Summarize(records)
			if !ok {
				return Chart{
					Symbol:  symbol,
					Title:   title,
					Status:  StatusEmpty,
					Message: fmt.Sprintf("No historical data available for %s", symbol),
				}
			}
			series := ChronologicalSeries(records)
			pairs := PairwiseSeries(records)
			return Chart{
				Symbol:       symbol,
				Status:       StatusReady,
				Title:        title,
				TrendTitle:   fmt.Sprintf("%s - Historical IV vs RV Trends", symbol),
				ScatterTitle: "IV Proxy vs Actual Move Scatter Plot",
				Series:       series,
				Pairs:        pairs,
				Summary:      &summary,
				Lines:        NewLinePlot(series),
				Scatter:      NewScatterPlot(pairs),
			}
		},
	)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
