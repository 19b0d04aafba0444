package chain

import (
	"context"
	"errors"
	"testing"
	"time"

	"tdh-engine/internal/domain"
)

type flakyResolver struct {
	failures int
	calls    int
}

func (r *flakyResolver) BlockAtTime(_ context.Context, _ int64) (domain.Snapshot, error) {
	r.calls++
	if r.calls <= r.failures {
		return domain.Snapshot{}, errors.New("rpc unavailable")
	}
	return domain.Snapshot{Block: 100, Timestamp: 1000}, nil
}

func TestRetryResolver_RecoversFromTransientFailures(t *testing.T) {
	inner := &flakyResolver{failures: 2}
	r := &RetryResolver{Inner: inner, MaxElapsed: 5 * time.Second}

	snap, err := r.BlockAtTime(context.Background(), 1000)
	if err != nil {
		t.Fatalf("BlockAtTime failed: %v", err)
	}
	if snap.Block != 100 {
		t.Errorf("block = %d, want 100", snap.Block)
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}

func TestRetryResolver_GivesUpAfterBudget(t *testing.T) {
	inner := &flakyResolver{failures: 1000}
	r := &RetryResolver{Inner: inner, MaxElapsed: 100 * time.Millisecond}

	if _, err := r.BlockAtTime(context.Background(), 1000); err == nil {
		t.Fatal("expected error after retry budget exhausted")
	}
}

func TestStaticResolver(t *testing.T) {
	r := StaticResolver{Snapshot: domain.Snapshot{Block: 42, Timestamp: 4200}}
	snap, err := r.BlockAtTime(context.Background(), 9999)
	if err != nil {
		t.Fatalf("BlockAtTime failed: %v", err)
	}
	if snap.Block != 42 || snap.Timestamp != 4200 {
		t.Errorf("snapshot = %+v", snap)
	}
}
