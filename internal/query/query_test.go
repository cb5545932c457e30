package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedFetcher holds every request until the test releases it.
type gatedFetcher struct {
	gates map[string]chan struct{}
	errs  map[string]error
}

func newGatedFetcher(keys ...string) *gatedFetcher {
	g := &gatedFetcher{gates: map[string]chan struct{}{}, errs: map[string]error{}}
	for _, k := range keys {
		g.gates[k] = make(chan struct{})
	}
	return g
}

func (g *gatedFetcher) fetch(ctx context.Context, key string) (string, error) {
	select {
	case <-g.gates[key]:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if err := g.errs[key]; err != nil {
		return "", err
	}
	return "history of " + key, nil
}

func (g *gatedFetcher) release(key string) { close(g.gates[key]) }

func receive[K comparable, T any](t *testing.T, ch <-chan Result[K, T]) Result[K, T] {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result")
		return Result[K, T]{}
	}
}

func TestStateMatchIsExhaustive(t *testing.T) {
	name := func(s State[int]) string {
		return Match(s,
			func() string { return "pending" },
			func(err error) string { return "failed:" + err.Error() },
			func(v int) string { return "ok" },
		)
	}
	assert.Equal(t, "pending", name(Pending[int]()))
	assert.Equal(t, "pending", name(State[int]{}))
	assert.Equal(t, "failed:boom", name(Failed[int](errors.New("boom"))))
	assert.Equal(t, "ok", name(Succeeded(1)))

	v, ok := Succeeded(42).Data()
	assert.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Nil(t, Succeeded(1).Err())
	_, ok = Failed[int](errors.New("x")).Data()
	assert.False(t, ok)
}

func TestStaleResponseForPreviousKeyIsDiscarded(t *testing.T) {
	g := newGatedFetcher("AAPL", "MSFT")
	results := make(chan Result[string, string], 2)
	q := NewKeyed[string, string](g.fetch, func(r Result[string, string]) { results <- r })

	q.Start(context.Background(), "AAPL")
	q.Start(context.Background(), "MSFT")
	assert.Equal(t, KindPending, q.State().Kind())

	g.release("AAPL")
	stale := receive(t, results)
	assert.Equal(t, "AAPL", stale.Key)
	assert.False(t, q.Accept(stale))
	assert.Equal(t, KindPending, q.State().Kind())

	g.release("MSFT")
	fresh := receive(t, results)
	require.True(t, q.Accept(fresh))
	data, ok := q.State().Data()
	require.True(t, ok)
	assert.Equal(t, "history of MSFT", data)

	key, started := q.Active()
	assert.True(t, started)
	assert.Equal(t, "MSFT", key)
}

func TestRestartSameKeySupersedesOlderGeneration(t *testing.T) {
	g := newGatedFetcher("AAPL")
	results := make(chan Result[string, string], 2)
	q := NewKeyed[string, string](g.fetch, func(r Result[string, string]) { results <- r })

	q.Start(context.Background(), "AAPL")
	first := q.gen
	q.Start(context.Background(), "AAPL")

	g.release("AAPL")
	a, b := receive(t, results), receive(t, results)
	if a.Gen != first {
		a, b = b, a
	}
	assert.False(t, q.Accept(a))
	assert.True(t, q.Accept(b))
}

func TestFailureIsTerminal(t *testing.T) {
	g := newGatedFetcher("ZZZ")
	g.errs["ZZZ"] = errors.New("404")
	results := make(chan Result[string, string], 1)
	q := NewKeyed[string, string](g.fetch, func(r Result[string, string]) { results <- r })

	q.Start(context.Background(), "ZZZ")
	g.release("ZZZ")
	require.True(t, q.Accept(receive(t, results)))

	assert.Equal(t, KindFailed, q.State().Kind())
	assert.EqualError(t, q.State().Err(), "404")

	select {
	case r := <-results:
		t.Fatalf("unexpected retry result %+v", r)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAcceptBeforeStartIsRejected(t *testing.T) {
	q := NewKeyed[string, string](func(context.Context, string) (string, error) { return "", nil }, func(Result[string, string]) {})
	assert.False(t, q.Accept(Result[string, string]{Key: "", Gen: 0, State: Succeeded("x")}))
	_, started := q.Active()
	assert.False(t, started)
}

func TestSingleRunSupersedesInFlight(t *testing.T) {
	release := make(chan struct{})
	results := make(chan Result[struct{}, int], 2)
	s := NewSingle[int](func(ctx context.Context) (int, error) {
		<-release
		return 7, nil
	}, func(r Result[struct{}, int]) { results <- r })

	s.Run(context.Background())
	s.Run(context.Background())
	close(release)

	accepted := 0
	for i := 0; i < 2; i++ {
		if s.Accept(receive(t, results)) {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted)
	v, ok := s.State().Data()
	assert.True(t, ok)
	assert.Equal(t, 7, v)
}
