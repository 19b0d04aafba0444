// Package chain resolves snapshot blocks for scoring runs.
package chain

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"tdh-engine/internal/domain"
)

// BlockResolver maps a target time to the block snapshot a run is
// anchored to.
type BlockResolver interface {
	// BlockAtTime returns the last block mined at or before ts
	// (Unix milliseconds).
	BlockAtTime(ctx context.Context, ts int64) (domain.Snapshot, error)
}

// StaticResolver returns a fixed snapshot. Used when the snapshot block
// is supplied by the operator instead of a chain endpoint.
type StaticResolver struct {
	Snapshot domain.Snapshot
}

func (r StaticResolver) BlockAtTime(_ context.Context, _ int64) (domain.Snapshot, error) {
	return r.Snapshot, nil
}

var _ BlockResolver = StaticResolver{}

// RetryResolver wraps a resolver with exponential backoff. Chain
// endpoints are the one external dependency of a run; transient failures
// should not abort an hour of computation.
type RetryResolver struct {
	Inner      BlockResolver
	MaxElapsed time.Duration
}

// NewRetryResolver wraps inner with a 30s retry budget.
func NewRetryResolver(inner BlockResolver) *RetryResolver {
	return &RetryResolver{Inner: inner, MaxElapsed: 30 * time.Second}
}

func (r *RetryResolver) BlockAtTime(ctx context.Context, ts int64) (domain.Snapshot, error) {
	var snap domain.Snapshot

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = r.MaxElapsed

	op := func() error {
		var err error
		snap, err = r.Inner.BlockAtTime(ctx, ts)
		return err
	}
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return domain.Snapshot{}, err
	}
	return snap, nil
}

var _ BlockResolver = (*RetryResolver)(nil)
