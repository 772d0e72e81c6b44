// Package queue implements the pre-claim queue: the only non-database
// shared state in the coordinator, a single-producer / many-consumer
// in-memory deque that hides the claim dispatcher's tail latency for the
// hot niceonly path.
package queue

import (
	"context"
	"sync"

	"github.com/rawblock/nicefield/pkg/models"
	"github.com/rs/zerolog/log"
)

// RefillThreshold is the depth that triggers a bulk refill of RefillAmount
// fields.
const (
	RefillThreshold = 10
	RefillAmount    = 100
)

// ClaimFunc claims one niceonly-eligible field directly from the store
// using the hot-path check_level = 0 predicate.
type ClaimFunc func(ctx context.Context) (*models.Field, error)

// NiceonlyQueue buffers pre-claimed fields, topped up RefillAmount at a time
// whenever its depth is at or below RefillThreshold, so a worker's
// GET /claim/niceonly is typically served in O(1) from memory instead of
// blocking on a database round trip.
type NiceonlyQueue struct {
	mu    sync.Mutex
	items []*models.Field
	claim ClaimFunc
}

// New builds an empty queue backed by claim for its bulk refills.
func New(claim ClaimFunc) *NiceonlyQueue {
	return &NiceonlyQueue{claim: claim}
}

// Depth returns the queue's current buffered length.
func (q *NiceonlyQueue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Pop serves the next field, refilling first if the queue has run low.
// The refill's database calls happen with the mutex dropped: read length,
// drop mutex, perform bulk claim, re-acquire mutex, extend.
// Refill errors are logged and never surfaced: a failed refill just means
// Pop may return nil and the worker retries.
func (q *NiceonlyQueue) Pop(ctx context.Context) *models.Field {
	q.mu.Lock()
	depth := len(q.items)
	q.mu.Unlock()

	if depth <= RefillThreshold {
		fresh, err := q.bulkClaim(ctx, RefillAmount)
		if err != nil {
			log.Error().Err(err).Msg("pre-claim queue refill failed")
		}
		if len(fresh) > 0 {
			q.mu.Lock()
			q.items = append(q.items, fresh...)
			q.mu.Unlock()
		}
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	f := q.items[0]
	q.items = q.items[1:]
	return f
}

// bulkClaim issues up to n direct claims against the store. It stops early
// on the first nil (no more eligible fields) or error.
func (q *NiceonlyQueue) bulkClaim(ctx context.Context, n int) ([]*models.Field, error) {
	out := make([]*models.Field, 0, n)
	for i := 0; i < n; i++ {
		f, err := q.claim(ctx)
		if err != nil {
			return out, err
		}
		if f == nil {
			break
		}
		out = append(out, f)
	}
	return out, nil
}
