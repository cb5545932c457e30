// Package query models one outbound fetch per query key as an explicit
// Pending / Failed / Succeeded value and guards against stale responses.
package query

import "fmt"

// Kind discriminates State.
type Kind int

const (
	KindPending Kind = iota
	KindFailed
	KindSucceeded
)

func (k Kind) String() string {
	switch k {
	case KindPending:
		return "pending"
	case KindFailed:
		return "failed"
	case KindSucceeded:
		return "succeeded"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// State is exactly one of Pending, Failed(err) or Succeeded(data). The zero
// value is Pending.
type State[T any] struct {
	kind Kind
	data T
	err  error
}

// Pending is the state before any response has arrived.
func Pending[T any]() State[T] { return State[T]{kind: KindPending} }

// Failed carries the error of a terminal failure.
func Failed[T any](err error) State[T] { return State[T]{kind: KindFailed, err: err} }

// Succeeded carries typed data.
func Succeeded[T any](data T) State[T] { return State[T]{kind: KindSucceeded, data: data} }

// Kind reports which variant s is.
func (s State[T]) Kind() Kind { return s.kind }

// Data returns the payload and true only for Succeeded.
func (s State[T]) Data() (T, bool) { return s.data, s.kind == KindSucceeded }

// Err returns the error of a Failed state, nil otherwise.
func (s State[T]) Err() error {
	if s.kind != KindFailed {
		return nil
	}
	return s.err
}

// Match dispatches on the variant. Every branch must be supplied.
func Match[T, R any](s State[T], pending func() R, failed func(error) R, succeeded func(T) R) R {
	switch s.kind {
	case KindFailed:
		return failed(s.err)
	case KindSucceeded:
		return succeeded(s.data)
	default:
		return pending()
	}
}

// FromResult folds a (value, error) pair into a settled state.
func FromResult[T any](v T, err error) State[T] {
	if err != nil {
		return Failed[T](err)
	}
	return Succeeded(v)
}
