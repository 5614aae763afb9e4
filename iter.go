package desim

import (
	"context"
	"errors"
	"io"
)

// Iterator is a pull-based iterator used by History and the persistence
// adapters.
type Iterator[T any] struct {
	nextFunc func(ctx context.Context) (T, error)
	current  T
	err      error
	done     bool
}

// NewIteratorFunc creates an iterator from a function producing the next
// item. The function returns io.EOF when the iterator is finished.
func NewIteratorFunc[T any](nextFunc func(ctx context.Context) (T, error)) *Iterator[T] {
	return &Iterator[T]{nextFunc: nextFunc}
}

// NewSliceIterator creates an iterator over a fixed slice.
func NewSliceIterator[T any](items []T) *Iterator[T] {
	index := 0
	return NewIteratorFunc(func(ctx context.Context) (T, error) {
		var zero T
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		if index >= len(items) {
			return zero, io.EOF
		}
		item := items[index]
		index++
		return item, nil
	})
}

// Next advances the iterator. Returns false when the iterator is exhausted
// or an error occurred.
func (it *Iterator[T]) Next(ctx context.Context) bool {
	if it.done || it.err != nil {
		return false
	}
	v, err := it.nextFunc(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			it.done = true
		} else {
			it.err = err
		}
		return false
	}
	it.current = v
	return true
}

// Value returns the current item.
func (it *Iterator[T]) Value() T {
	return it.current
}

// Err returns the error that stopped iteration, if any. A clean end of
// iteration is not an error.
func (it *Iterator[T]) Err() error {
	return it.err
}

// All consumes the iterator and returns the remaining items.
func (it *Iterator[T]) All(ctx context.Context) ([]T, error) {
	var results []T
	for it.Next(ctx) {
		results = append(results, it.Value())
	}
	return results, it.Err()
}
