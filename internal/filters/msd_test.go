package filters

import (
	"math/big"
	"testing"
)

func TestHasDuplicateMSDPrefixEarlyExit(t *testing.T) {
	// b=10, [3163, 3165). 3163^2=10004569, 3164^2=10010896 share the
	// MSD prefix [1,0,0], which has a repeated 0 -- the whole interval is
	// provably empty without running the kernel.
	lo := big.NewInt(3163)
	hi := big.NewInt(3165)
	if !HasDuplicateMSDPrefix(lo, hi, 10) {
		t.Fatalf("HasDuplicateMSDPrefix([3163,3165), 10) = false, want true")
	}
}

func TestHasDuplicateMSDPrefixSingleElementNotSkippable(t *testing.T) {
	lo := big.NewInt(69)
	hi := big.NewInt(70)
	if HasDuplicateMSDPrefix(lo, hi, 10) {
		t.Errorf("a single-element range must never be reported skippable")
	}
}

func TestSubdivideMSDStaysWithinBounds(t *testing.T) {
	// Every surviving sub-interval from SubdivideMSD must be a subset of
	// [lo, hi); together with the rejected intervals they partition it.
	// We check the weaker but still meaningful property that every
	// returned sub-interval lies within bounds and is non-empty.
	lo := big.NewInt(47)
	hi := big.NewInt(1000)
	ranges := SubdivideMSD(lo, hi, 10)
	for _, r := range ranges {
		if r.Lo.Cmp(lo) < 0 || r.Hi.Cmp(hi) > 0 {
			t.Errorf("sub-range [%s, %s) escapes bounds [%s, %s)", r.Lo, r.Hi, lo, hi)
		}
		if r.Lo.Cmp(r.Hi) >= 0 {
			t.Errorf("sub-range [%s, %s) is not nonempty", r.Lo, r.Hi)
		}
	}
}

func TestSubdivideMSDNeverDropsTheKnownNiceNumber(t *testing.T) {
	// 69 must survive subdivision for base 10 -- none of the sub-intervals
	// that contain it may be eliminated by the MSD filter, since 69 is
	// known nice.
	lo := big.NewInt(47)
	hi := big.NewInt(100)
	ranges := SubdivideMSD(lo, hi, 10)
	n := big.NewInt(69)
	found := false
	for _, r := range ranges {
		if n.Cmp(r.Lo) >= 0 && n.Cmp(r.Hi) < 0 {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("69 was eliminated by MSD subdivision over [47,100) base 10")
	}
}
