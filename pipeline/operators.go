package pipeline

import (
	"context"
	"iter"
)

// Map applies fn to each value. The first error ends the stream.
func Map[I, O any](p *Pipeline[I], fn func(context.Context, I) (O, error)) *Pipeline[O] {
	return &Pipeline[O]{seq: func(ctx context.Context) iter.Seq2[O, error] {
		return func(yield func(O, error) bool) {
			for v, err := range p.All(ctx) {
				var out O
				if err == nil {
					out, err = fn(ctx, v)
				}
				if !yield(out, err) || err != nil {
					return
				}
			}
		}
	}}
}

// Tap runs fn on each value and passes it through unchanged.
func Tap[T any](p *Pipeline[T], fn func(context.Context, T) error) *Pipeline[T] {
	return Map(p, func(ctx context.Context, v T) (T, error) {
		if err := fn(ctx, v); err != nil {
			var zero T
			return zero, err
		}
		return v, nil
	})
}

// Batch groups values into slices of up to size elements; only the last may
// be shorter. size <= 0 is treated as 1.
func Batch[T any](p *Pipeline[T], size int) *Pipeline[[]T] {
	size = max(size, 1)
	return &Pipeline[[]T]{seq: func(ctx context.Context) iter.Seq2[[]T, error] {
		return func(yield func([]T, error) bool) {
			batch := make([]T, 0, size)
			for v, err := range p.All(ctx) {
				if err != nil {
					yield(nil, err)
					return
				}
				batch = append(batch, v)
				if len(batch) == size {
					if !yield(batch, nil) {
						return
					}
					batch = make([]T, 0, size)
				}
			}
			if len(batch) > 0 {
				yield(batch, nil)
			}
		}
	}}
}
