package pipeline

import (
	"context"
	"iter"
)

// Pipeline is a lazy stream of T. Nothing runs until Collect or ForEach
// ranges over it, and every range starts the chain afresh.
type Pipeline[T any] struct {
	seq func(ctx context.Context) iter.Seq2[T, error]
}

// FromSlice streams items in order.
func FromSlice[T any](items []T) *Pipeline[T] {
	return &Pipeline[T]{seq: func(context.Context) iter.Seq2[T, error] {
		return func(yield func(T, error) bool) {
			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}
		}
	}}
}

// All ranges over p. A failed step yields its error once and ends the
// stream; a cancelled ctx yields ctx.Err() before the next value.
func (p *Pipeline[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for v, err := range p.seq(ctx) {
			if err == nil {
				err = ctx.Err()
			}
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Collect gathers every value. On error it returns the values produced
// before the failure.
func Collect[T any](ctx context.Context, p *Pipeline[T]) ([]T, error) {
	var out []T
	for v, err := range p.All(ctx) {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ForEach hands every value to fn, stopping at the first error.
func ForEach[T any](ctx context.Context, p *Pipeline[T], fn func(context.Context, T) error) error {
	for v, err := range p.All(ctx) {
		if err != nil {
			return err
		}
		if err := fn(ctx, v); err != nil {
			return err
		}
	}
	return nil
}
