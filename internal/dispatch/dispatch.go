// Package dispatch implements the claim dispatcher: the policy layer on
// top of store.TryClaimField (strategy + freshness + check-level + size
// selection) plus the pre-claim queue that hides its tail latency.
package dispatch

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rawblock/nicefield/internal/partition"
	"github.com/rawblock/nicefield/internal/queue"
	"github.com/rawblock/nicefield/internal/store"
	"github.com/rawblock/nicefield/pkg/models"
)

// ClaimDurationHours bounds how long a claim holds a field before the
// dispatcher considers it stale and eligible to reissue.
const ClaimDurationHours = 6

// Dispatcher wraps the store with the HTTP-facing claim policy: each
// request computes strategy and max check level via biased random choice so
// the fleet self-balances between fresh-field progress and re-verification.
type Dispatcher struct {
	st    *store.Store
	queue *queue.NiceonlyQueue
}

func New(st *store.Store) *Dispatcher {
	d := &Dispatcher{st: st}
	d.queue = queue.New(d.ClaimNiceonlyDirect)
	return d
}

// ClaimNiceonly serves GET /claim/niceonly from the pre-claim queue.
func (d *Dispatcher) ClaimNiceonly(ctx context.Context) (*models.Field, error) {
	return d.queue.Pop(ctx), nil
}

// QueueDepth exposes the pre-claim queue's current depth for health/metrics.
func (d *Dispatcher) QueueDepth() int { return d.queue.Depth() }

// ChoosePolicy implements the 80/20 biased randoms: 80% Next / 20% Random
// strategy, 80% max_cl=1 / 20% max_cl=2.
func ChoosePolicy() (models.FieldClaimStrategy, uint8) {
	strategy := models.StrategyNext
	if rand.Float64() < 0.20 {
		strategy = models.StrategyRandom
	}
	maxCL := uint8(1)
	if rand.Float64() < 0.20 {
		maxCL = 2
	}
	return strategy, maxCL
}

// ClaimDetailed claims a field for a detailed-mode worker under the
// standard biased policy.
func (d *Dispatcher) ClaimDetailed(ctx context.Context) (*models.Field, error) {
	strategy, maxCL := ChoosePolicy()
	maxStale := time.Now().Add(-ClaimDurationHours * time.Hour)
	return d.st.TryClaimField(ctx, strategy, maxStale, maxCL, partition.DefaultFieldSize)
}

// ClaimNiceonlyDirect is the low-level call the pre-claim queue uses to bulk-refill:
// a direct niceonly claim with the hot-path check_level = 0 predicate.
func (d *Dispatcher) ClaimNiceonlyDirect(ctx context.Context) (*models.Field, error) {
	maxStale := time.Now().Add(-ClaimDurationHours * time.Hour)
	return d.st.TryClaimField(ctx, models.StrategyNext, maxStale, 0, partition.DefaultFieldSize)
}
