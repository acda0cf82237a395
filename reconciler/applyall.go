package reconciler

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ApplyAll reconciles several desired resources with at most limit concurrent
// invocations (limit <= 0 means unbounded). Results align with the input by
// index. The first error cancels outstanding work and is returned; results of
// invocations that completed before the cancellation are kept.
func (r *Reconciler) ApplyAll(ctx context.Context, desireds []Desired, limit int) ([]Result, error) {
	results := make([]Result, len(desireds))

	group, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		group.SetLimit(limit)
	}
	for idx, desired := range desireds {
		group.Go(func() error {
			result, err := r.Apply(ctx, desired)
			results[idx] = result
			return err
		})
	}

	return results, group.Wait()
}
