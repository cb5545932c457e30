package view

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EarnView/internal/domain/models"
	"EarnView/internal/query"
)

func f64(v float64) *float64 { return &v }

func TestFormatPercent(t *testing.T) {
	cases := []struct {
		in   *float64
		want string
	}{
		{nil, "-"},
		{f64(12.34), "12.3%"},
		{f64(7), "7.0%"},
		{f64(0), "0.0%"},
		{f64(math.Copysign(0, -1)), "0.0%"},
		{f64(-0.04), "-0.0%"},
		{f64(1.25), "1.3%"},
		{f64(-1.25), "-1.3%"},
		{f64(1.15), "1.1%"},
		{f64(0.15), "0.1%"},
		{f64(4.35), "4.3%"},
		{f64(-4.35), "-4.3%"},
		{f64(9.96), "10.0%"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatPercent(c.in))
	}
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$100.00", FormatCurrency(100))
	assert.Equal(t, "$1234.50", FormatCurrency(1234.5))
	assert.Equal(t, "$0.01", FormatCurrency(0.005))
	assert.Equal(t, "$8.35", FormatCurrency(8.345))
	assert.Equal(t, "$1.00", FormatCurrency(0.999))
	assert.Equal(t, "$2.67", FormatCurrency(2.675))
}

func TestClassifyBoundaries(t *testing.T) {
	assert.Equal(t, BadgeNone, Classify(nil))
	assert.Equal(t, BadgeNeutral, Classify(f64(5)))
	assert.Equal(t, BadgeOverpriced, Classify(f64(5.01)))
	assert.Equal(t, BadgeNeutral, Classify(f64(-5)))
	assert.Equal(t, BadgeUnderpriced, Classify(f64(-5.01)))
	assert.Equal(t, BadgeNeutral, Classify(f64(0)))
}

func TestBuildTableRow(t *testing.T) {
	table := BuildTable([]models.UpcomingEarnings{
		{Symbol: "ABC", EarningsDate: "2024-01-25", CurrentPrice: 100, IVProxy: 12.34, OpportunityScore: f64(7)},
		{Symbol: "XYZ", EarningsDate: "soon", CurrentPrice: 9.5, IVProxy: 3, PredictedGapPct: f64(-2.26)},
	})
	require.Len(t, table.Rows, 2)
	assert.Empty(t, table.EmptyMessage)

	abc := table.Rows[0]
	assert.Equal(t, "ABC", abc.Symbol)
	assert.Equal(t, "Jan 25, 2024", abc.EarningsDate)
	assert.Equal(t, "$100.00", abc.CurrentPrice)
	assert.Equal(t, "12.3%", abc.IVProxy)
	assert.Equal(t, "-", abc.PredictedMove)
	assert.Equal(t, BadgeOverpriced, abc.Badge)
	assert.Equal(t, "7.0%", abc.Score)

	xyz := table.Rows[1]
	assert.Equal(t, "soon", xyz.EarningsDate)
	assert.Equal(t, "-2.3%", xyz.PredictedMove)
	assert.Equal(t, BadgeNone, xyz.Badge)
	assert.Equal(t, "-", xyz.Score)
}

func TestBuildUpcomingStates(t *testing.T) {
	assert.Equal(t, StatusLoading, BuildUpcoming(query.Pending[[]models.UpcomingEarnings]()).Status)

	failed := BuildUpcoming(query.Failed[[]models.UpcomingEarnings](errors.New("boom")))
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, UpcomingFailMessage, failed.Message)

	empty := BuildUpcoming(query.Succeeded([]models.UpcomingEarnings{}))
	assert.Equal(t, StatusEmpty, empty.Status)
	assert.Equal(t, NoUpcomingMessage, empty.Message)

	ready := BuildUpcoming(query.Succeeded([]models.UpcomingEarnings{{Symbol: "ABC"}}))
	assert.Equal(t, StatusReady, ready.Status)
	require.NotNil(t, ready.Table)
	assert.Len(t, ready.Table.Rows, 1)
}

func history() []models.HistoricalEarningsData {
	return []models.HistoricalEarningsData{
		{EarningsDate: "2024-04-25", IVProxy: 20, FiveDayRealizedVol: 12, OvernightGapPct: 6},
		{EarningsDate: "2024-01-25", IVProxy: 10, FiveDayRealizedVol: 8, OvernightGapPct: -4},
	}
}

func TestChronologicalSeriesReversesCopy(t *testing.T) {
	records := history()
	series := ChronologicalSeries(records)
	require.Len(t, series, 2)
	assert.Equal(t, "Jan 2024", series[0].Label)
	assert.Equal(t, 4.0, series[0].ActualMove)
	assert.Equal(t, "Apr 2024", series[1].Label)
	assert.Equal(t, "2024-04-25", records[0].EarningsDate, "input must not be reordered")
}

func TestPairwiseSeriesKeepsOrder(t *testing.T) {
	pairs := PairwiseSeries(history())
	require.Len(t, pairs, 2)
	assert.Equal(t, 20.0, pairs[0].IVProxy)
	assert.Equal(t, 4.0, pairs[1].ActualMove)
}

func TestSummarize(t *testing.T) {
	s, ok := Summarize(history())
	require.True(t, ok)
	assert.InDelta(t, 15, s.AvgIVProxy, 1e-9)
	assert.InDelta(t, 10, s.AvgRealizedVol, 1e-9)
	assert.InDelta(t, 5, s.AvgActualMove, 1e-9)
	assert.Equal(t, []Stat{
		{Label: "Average IV Proxy", Value: "15.0%"},
		{Label: "Average Realized Vol", Value: "10.0%"},
		{Label: "Average Actual Move", Value: "5.0%"},
	}, s.Stats())

	_, ok = Summarize(nil)
	assert.False(t, ok)
}

func TestBuildChartStates(t *testing.T) {
	loading := BuildChart("AAPL", query.Pending[models.EarningsHistoryResponse]())
	assert.Equal(t, StatusLoading, loading.Status)
	assert.Equal(t, "AAPL - IV vs RV Analysis", loading.Title)

	failed := BuildChart("AAPL", query.Failed[models.EarningsHistoryResponse](errors.New("x")))
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, "Failed to load historical data for AAPL", failed.Message)

	empty := BuildChart("AAPL", query.Succeeded(models.EarningsHistoryResponse{Symbol: "AAPL"}))
	assert.Equal(t, StatusEmpty, empty.Status)
	assert.Equal(t, "No historical data available for AAPL", empty.Message)
	assert.Nil(t, empty.Summary)

	ready := BuildChart("AAPL", query.Succeeded(models.EarningsHistoryResponse{Symbol: "AAPL", HistoricalData: history()}))
	assert.Equal(t, StatusReady, ready.Status)
	assert.Equal(t, "AAPL - IV vs RV Analysis", ready.Title)
	assert.Equal(t, "AAPL - Historical IV vs RV Trends", ready.TrendTitle)
	require.NotNil(t, ready.Lines)
	require.NotNil(t, ready.Scatter)
	assert.Len(t, ready.Lines.Lines, 3)
	assert.Len(t, ready.Scatter.Dots, 2)
}

func TestScatterDomainContainsReferenceLine(t *testing.T) {
	plot := NewScatterPlot([]PairPoint{{IVProxy: 10, ActualMove: 3}})
	ref := plot.Reference.Points
	require.Len(t, ref, 2)
	assert.True(t, plot.Reference.Dashed)
	assert.Equal(t, ReferenceLineName, plot.Reference.Name)
	assert.InDelta(t, plot.Left, ref[0].X, 1e-9)
	assert.InDelta(t, plot.Bottom, ref[0].Y, 1e-9)
	assert.InDelta(t, plot.Right, ref[1].X, 1e-9)
	assert.InDelta(t, plot.Top, ref[1].Y, 1e-9)

	wide := NewScatterPlot([]PairPoint{{IVProxy: 80, ActualMove: 3}})
	assert.Less(t, wide.Reference.Points[1].X, wide.Right)
}

func TestLinePlotSinglePointIsCentred(t *testing.T) {
	plot := NewLinePlot([]SeriesPoint{{Label: "Jan 2024", IVProxy: 4}})
	require.Len(t, plot.Lines[0].Points, 1)
	assert.InDelta(t, (plot.Left+plot.Right)/2, plot.Lines[0].Points[0].X, 1e-9)
	assert.NotEmpty(t, plot.Lines[0].Path())
}

func TestNiceCeil(t *testing.T) {
	assert.Equal(t, 50.0, niceCeil(50))
	assert.Equal(t, 50.0, niceCeil(37))
	assert.Equal(t, 5.0, niceCeil(4.2))
	assert.Equal(t, 100.0, niceCeil(51))
	assert.Equal(t, 0.0, niceCeil(0))
}

func TestBuildModelPanel(t *testing.T) {
	assert.Equal(t, ModelLoading, BuildModelPanel(query.Pending[models.ModelStatus]()).State)

	failed := BuildModelPanel(query.Failed[models.ModelStatus](errors.New("x")))
	assert.Equal(t, "Model Status: Error", failed.Headline)

	unavailable := BuildModelPanel(query.Succeeded(models.ModelStatus{Available: false, FeatureCount: 9}))
	assert.Equal(t, ModelUnavailable, unavailable.State)
	assert.Equal(t, "Run data pipeline and train model to enable predictions", unavailable.Hint)
	assert.Empty(t, unavailable.Features)

	active := BuildModelPanel(query.Succeeded(models.ModelStatus{
		Available:    true,
		TrainingDate: "2024-03-15T10:00:00",
		FeatureCount: 12,
		Performance:  &models.ModelPerformance{MAE: f64(2.3456), R2: f64(0)},
	}))
	assert.Equal(t, ModelActive, active.State)
	assert.Equal(t, "03/15/2024", active.Trained)
	assert.Equal(t, "12", active.Features)
	assert.True(t, active.HasMetrics)
	assert.Equal(t, "2.346%", active.MAE)
	assert.Equal(t, "N/A", active.R2)

	noDate := BuildModelPanel(query.Succeeded(models.ModelStatus{Available: true}))
	assert.Equal(t, "Unknown", noDate.Trained)
	assert.False(t, noDate.HasMetrics)
}

func TestBuildPageWithoutSelection(t *testing.T) {
	page := BuildPage(PageInput{SessionID: "s1"})
	assert.Equal(t, StatusIdle, page.Chart.Status)
	assert.Equal(t, SelectPrompt, page.Chart.Message)
	assert.Equal(t, StatusLoading, page.Upcoming.Status)
	assert.Equal(t, ModelLoading, page.Model.State)
}

func TestDocumentedExamples(t *testing.T) {
	assert.Equal(t, "5.0%", FormatPercent(f64(5)))
	assert.Equal(t, "-3.1%", FormatPercent(f64(-3.14159)))

	records := []models.HistoricalEarningsData{
		{EarningsDate: "2024-07-25", IVProxy: 10},
		{EarningsDate: "2024-04-25", IVProxy: 20},
		{EarningsDate: "2024-01-25", IVProxy: 30},
	}
	series := ChronologicalSeries(records)
	assert.Equal(t, []string{"Jan 2024", "Apr 2024", "Jul 2024"},
		[]string{series[0].Label, series[1].Label, series[2].Label})

	s, ok := Summarize(records)
	require.True(t, ok)
	assert.Equal(t, "20.0%", s.Stats()[0].Value)

	table := BuildTable([]models.UpcomingEarnings{
		{Symbol: "ABC", EarningsDate: "2024-03-01", CurrentPrice: 100.00, IVProxy: 12.34, OpportunityScore: f64(7.0)},
	})
	require.Len(t, table.Rows, 1)
	row := table.Rows[0]
	assert.Equal(t, []string{"ABC", "$100.00", "12.3%", "Overpriced", "7.0%"},
		[]string{row.Symbol, row.CurrentPrice, row.IVProxy, string(row.Badge), row.Score})
}
