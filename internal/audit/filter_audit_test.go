package audit

import (
	"math/big"
	"testing"
)

func TestAuditOneAgreesOnKnownNiceRange(t *testing.T) {
	res := auditOne(1, big.NewInt(47), big.NewInt(100), 10)
	if res.Diverged {
		t.Errorf("filter cascade diverged from ground truth over [47,100) base 10: filtered=%d ground_truth=%d",
			res.FilteredCount, res.GroundTruthCount)
	}
	if res.GroundTruthCount != 1 {
		t.Errorf("ground truth count = %d, want 1 (only 69 is nice in base 10 over this range)", res.GroundTruthCount)
	}
}

func TestAuditOneAgreesOverWiderRange(t *testing.T) {
	res := auditOne(2, big.NewInt(1), big.NewInt(5000), 10)
	if res.Diverged {
		t.Errorf("filter cascade diverged from ground truth over [1,5000) base 10: filtered=%d ground_truth=%d",
			res.FilteredCount, res.GroundTruthCount)
	}
}

func TestAuditOneEmptyRange(t *testing.T) {
	res := auditOne(3, big.NewInt(10), big.NewInt(10), 10)
	if res.Diverged || res.FilteredCount != 0 || res.GroundTruthCount != 0 {
		t.Errorf("empty range should agree trivially with zero counts, got %+v", res)
	}
}
