package query

import "context"

// Fetcher performs exactly one request for key.
type Fetcher[K comparable, T any] func(ctx context.Context, key K) (T, error)

// Result is a settled state tagged with the key and generation it was
// requested under.
type Result[K comparable, T any] struct {
	Key   K
	Gen   uint64
	State State[T]
}

// Keyed tracks the active key of one query. Start launches the fetch on its
// own goroutine and the tagged result is handed to the sink; the owner feeds
// it back through Accept, which drops results for anything but the latest
// Start. Keyed is not safe for concurrent use: Start, Accept and State belong
// to a single owning goroutine. Only the sink runs elsewhere.
type Keyed[K comparable, T any] struct {
	fetch  Fetcher[K, T]
	sink   func(Result[K, T])
	active K
	gen    uint64
	state  State[T]
}

// NewKeyed returns a query with no active key.
func NewKeyed[K comparable, T any](fetch Fetcher[K, T], sink func(Result[K, T])) *Keyed[K, T] {
	return &Keyed[K, T]{fetch: fetch, sink: sink}
}

// Start makes key active, resets the state to Pending and issues one fetch.
// A result from an earlier Start, even for the same key, is stale from here on.
func (q *Keyed[K, T]) Start(ctx context.Context, key K) {
	q.gen++
	q.active = key
	q.state = Pending[T]()

	gen := q.gen
	go func() {
		v, err := q.fetch(ctx, key)
		q.sink(Result[K, T]{Key: key, Gen: gen, State: FromResult(v, err)})
	}()
}

// Accept applies r when it belongs to the active key and latest generation.
// It reports whether r was applied; false means r was stale and discarded.
func (q *Keyed[K, T]) Accept(r Result[K, T]) bool {
	if q.gen == 0 || r.Gen != q.gen || r.Key != q.active {
		return false
	}
	if r.State.Kind() == KindPending {
		return false
	}
	q.state = r.State
	return true
}

// Active returns the active key and whether any Start has happened.
func (q *Keyed[K, T]) Active() (K, bool) { return q.active, q.gen > 0 }

// State is the state of the active key.
func (q *Keyed[K, T]) State() State[T] { return q.state }

// Single is a Keyed query without a parameter, such as the upcoming list.
type Single[T any] struct {
	*Keyed[struct{}, T]
}

// NewSingle wraps fetch as a keyless query.
func NewSingle[T any](fetch func(ctx context.Context) (T, error), sink func(Result[struct{}, T])) Single[T] {
	return Single[T]{NewKeyed[struct{}, T](func(ctx context.Context, _ struct{}) (T, error) { return fetch(ctx) }, sink)}
}

// Run issues a fresh fetch, superseding any in flight.
func (s Single[T]) Run(ctx context.Context) { s.Start(ctx, struct{}{}) }
