package places

import (
	"errors"
	"fmt"
)

// ErrProviderUnavailable tags a provider call that failed outright, as opposed
// to one that simply found nothing.
var ErrProviderUnavailable = errors.New("place provider unavailable")

// Status of a provider lookup.
type Status int

const (
	StatusNotFound Status = iota
	StatusFound
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusFailed:
		return "failed"
	default:
		return "not_found"
	}
}

// Result distinguishes found, not found and failed lookups so callers decide
// explicitly where a failure is downgraded.
type Result[T any] struct {
	Status Status
	Value  *T
	Err    error
}

func Found[T any](v *T) Result[T] {
	return Result[T]{Status: StatusFound, Value: v}
}

func NotFound[T any]() Result[T] {
	return Result[T]{Status: StatusNotFound}
}

func Failed[T any](provider string, err error) Result[T] {
	return Result[T]{Status: StatusFailed, Err: fmt.Errorf("%s: %w: %w", provider, ErrProviderUnavailable, err)}
}

// OrNil downgrades any non-found result to no data.
func (r Result[T]) OrNil() *T {
	if r.Status != StatusFound {
		return nil
	}
	return r.Value
}
