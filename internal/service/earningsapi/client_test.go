package earningsapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"EarnView/internal/domain/models"
	xhttp "EarnView/pkg/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMetrics struct {
	mu     sync.Mutex
	ops    []string
	errors int
}

func (m *recordingMetrics) RecordFetch(op string, _ float64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, op)
	if err != nil {
		m.errors++
	}
}
func (m *recordingMetrics) RecordStaleDiscard(string) {}
func (m *recordingMetrics) SetLiveSessions(int)       {}

func newTestClient(t *testing.T, h http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", xhttp.NewClient(xhttp.WithTimeout(2*time.Second)), opts...)
}

func TestUpcomingDecodesWireFields(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/earnings/upcoming", r.URL.Path)
		_, _ = io.WriteString(w, `[{"symbol":"ABC","earnings_date":"2024-03-01","current_price":100.0,"iv_proxy":12.34,"opportunity_score":7.0}]`)
	}))

	got, err := c.Upcoming(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ABC", got[0].Symbol)
	assert.Equal(t, "2024-03-01", got[0].EarningsDate)
	assert.InDelta(t, 12.34, got[0].IVProxy, 1e-9)
	assert.Nil(t, got[0].PredictedGapPct)
	require.NotNil(t, got[0].OpportunityScore)
	assert.InDelta(t, 7.0, *got[0].OpportunityScore, 1e-9)
}

func TestHistoryEscapesSymbol(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/earnings/history/BRK.B%2FX", r.URL.EscapedPath())
		_, _ = io.WriteString(w, `{"symbol":"BRK.B/X","historical_data":[{"symbol":"BRK.B/X","earnings_date":"2024-01-01","overnight_gap_pct":-2.5,"five_day_realized_vol":3.1,"iv_proxy":4.2}]}`)
	}))

	got, err := c.History(context.Background(), "BRK.B/X")
	require.NoError(t, err)
	require.Len(t, got.HistoricalData, 1)
	assert.InDelta(t, -2.5, got.HistoricalData[0].OvernightGapPct, 1e-9)
}

func TestFailuresCollapseToFetchFailed(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"404": func(w http.ResponseWriter, r *http.Request) { http.Error(w, "unknown symbol", http.StatusNotFound) },
		"500": func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
		"bad json": func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"symbol":`)
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			m := &recordingMetrics{}
			c := newTestClient(t, h, WithMetrics(m))
			_, err := c.History(context.Background(), "ZZZ")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrFetchFailed))

			var fe *FetchError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, OpHistory, fe.Op)
			assert.Equal(t, 1, m.errors)
		})
	}
}

func TestPredictPostsRequest(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/predictions/predict", r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"symbol":"ABC","earnings_date":"2024-03-01"}`, string(b))
		_, _ = io.WriteString(w, `{"symbol":"ABC","earnings_date":"2024-03-01","predicted_gap_pct":4.0,"iv_proxy":11.0,"opportunity_score":7.0}`)
	}))

	got, err := c.Predict(context.Background(), models.PredictionRequest{Symbol: "ABC", EarningsDate: "2024-03-01"})
	require.NoError(t, err)
	assert.InDelta(t, 7.0, got.OpportunityScore, 1e-9)
}

func TestModelStatusAndRetrain(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/predictions/model/status", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"available":true,"training_date":"2024-05-01T10:00:00","feature_count":12,"performance":{"mae":2.345,"r2":0.41}}`)
	})
	mux.HandleFunc("/api/predictions/model/retrain", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		_, _ = io.WriteString(w, `{"success":true,"message":"Model retrained successfully"}`)
	})
	c := newTestClient(t, mux)

	st, err := c.ModelStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Available)
	assert.Equal(t, 12, st.FeatureCount)
	require.NotNil(t, st.Performance)
	require.NotNil(t, st.Performance.MAE)
	assert.InDelta(t, 2.345, *st.Performance.MAE, 1e-9)

	ack, err := c.Retrain(context.Background())
	require.NoError(t, err)
	assert.True(t, ack.Success)
}

func TestIdenticalInFlightGetsShareOneRequest(t *testing.T) {
	var hits int32
	release := make(chan struct{})
	arrived := make(chan struct{}, 1)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		arrived <- struct{}{}
		<-release
		_, _ = io.WriteString(w, `{"symbols":["AAPL","MSFT"],"count":2}`)
	}))

	var wg sync.WaitGroup
	results := make([]models.SymbolList, 2)
	call := func(i int) {
		defer wg.Done()
		v, err := c.Symbols(context.Background())
		assert.NoError(t, err)
		results[i] = v
	}

	wg.Add(2)
	go call(0)
	<-arrived
	go call(1)
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
	assert.Equal(t, 2, results[0].Count)
	assert.Equal(t, 2, results[1].Count)
}
