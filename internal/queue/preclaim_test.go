package queue

import (
	"context"
	"math/big"
	"testing"

	"github.com/rawblock/nicefield/pkg/models"
)

func fakeClaimer(n int) ClaimFunc {
	i := 0
	return func(ctx context.Context) (*models.Field, error) {
		if i >= n {
			return nil, nil
		}
		i++
		id := int64(i)
		return &models.Field{FieldID: id, RangeSize: big.NewInt(1).String()}, nil
	}
}

func TestPopRefillsAndServes(t *testing.T) {
	q := New(fakeClaimer(RefillAmount))
	f := q.Pop(context.Background())
	if f == nil {
		t.Fatalf("Pop returned nil after refill should have populated the queue")
	}
	if f.FieldID != 1 {
		t.Errorf("Pop returned field %d, want the first claimed field (1)", f.FieldID)
	}
}

func TestPopExhaustsThenReturnsNil(t *testing.T) {
	q := New(fakeClaimer(3))
	var got []int64
	for i := 0; i < 5; i++ {
		f := q.Pop(context.Background())
		if f == nil {
			break
		}
		got = append(got, f.FieldID)
	}
	if len(got) != 3 {
		t.Fatalf("got %d fields, want exactly 3 before exhaustion", len(got))
	}
	if q.Pop(context.Background()) != nil {
		t.Errorf("Pop should return nil once the source is exhausted")
	}
}

func TestDepthReflectsBufferedCount(t *testing.T) {
	q := New(fakeClaimer(RefillAmount))
	q.Pop(context.Background())
	if q.Depth() != RefillAmount-1 {
		t.Errorf("Depth() = %d, want %d after one Pop following a full refill", q.Depth(), RefillAmount-1)
	}
}

func TestPopTriggersMultipleRefillsAsSupplyAllows(t *testing.T) {
	// With a source deep enough to outlast one refill batch, draining past
	// RefillAmount items proves a second bulk refill fired automatically
	// once depth dropped to RefillThreshold.
	q := New(fakeClaimer(1000))
	for i := 0; i < RefillAmount+5; i++ {
		if q.Pop(context.Background()) == nil {
			t.Fatalf("unexpected nil at pop %d before exhausting the fake source", i)
		}
	}
}
