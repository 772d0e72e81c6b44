package filters

import (
	"math/big"

	"github.com/rawblock/nicefield/internal/numeric"
)

// MSD recursive-subdivision tuning constants. MSDMinRangeSize is the point
// below which subdividing further costs more than it saves.
const (
	MSDMaxDepth         = 10
	MSDSubdivisionFactor = 4
	MSDMinRangeSize     = 1000
)

func hasDuplicateDigits(digits []uint32, base uint32) bool {
	seen := make([]bool, base)
	for _, d := range digits {
		if seen[d] {
			return true
		}
		seen[d] = true
	}
	return false
}

func hasOverlappingDigits(a, b []uint32, base uint32) bool {
	seen := make([]bool, base)
	for _, d := range a {
		seen[d] = true
	}
	for _, d := range b {
		if seen[d] {
			return true
		}
	}
	return false
}

func commonPrefix(a, b []uint32) []uint32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}

// HasDuplicateMSDPrefix implements the MSD prefix filter: for a half-open
// range [lo, hi) whose endpoints' squares (and cubes) share equal digit
// length, it finds the longest shared most-significant-digit prefix of
// lo^2 and (hi-1)^2, and likewise for cubes. If either prefix repeats a
// digit, or the two prefixes overlap in any digit, the whole range is
// provably empty of nice numbers: every n in the range inherits that
// collision in its high-order digits.
//
// Ranges whose endpoints differ in digit length, or that hold a single
// element, are conservatively reported as not skippable — the shared-prefix
// argument does not apply.
func HasDuplicateMSDPrefix(lo, hiExclusive *big.Int, base uint32) bool {
	size := new(big.Int).Sub(hiExclusive, lo)
	if size.Cmp(big.NewInt(1)) <= 0 {
		return false
	}
	hi := new(big.Int).Sub(hiExclusive, big.NewInt(1))

	loSq := new(big.Int).Mul(lo, lo)
	hiSq := new(big.Int).Mul(hi, hi)
	loSqDigits := numeric.DigitsDesc(loSq, base)
	hiSqDigits := numeric.DigitsDesc(hiSq, base)
	if len(loSqDigits) != len(hiSqDigits) {
		return false
	}

	loCube := new(big.Int).Mul(loSq, lo)
	hiCube := new(big.Int).Mul(hiSq, hi)
	loCubeDigits := numeric.DigitsDesc(loCube, base)
	hiCubeDigits := numeric.DigitsDesc(hiCube, base)
	if len(loCubeDigits) != len(hiCubeDigits) {
		return false
	}

	sqPrefix := commonPrefix(loSqDigits, hiSqDigits)
	cubePrefix := commonPrefix(loCubeDigits, hiCubeDigits)

	if hasDuplicateDigits(sqPrefix, base) {
		return true
	}
	if hasDuplicateDigits(cubePrefix, base) {
		return true
	}
	return hasOverlappingDigits(sqPrefix, cubePrefix, base)
}

// Range is a half-open sub-interval surviving MSD subdivision.
type Range struct {
	Lo, Hi *big.Int
}

// SubdivideMSD recursively splits [lo, hi) by MSDSubdivisionFactor up to
// MSDMaxDepth (or down to MSDMinRangeSize, whichever comes first),
// discarding any sub-interval HasDuplicateMSDPrefix proves empty, and
// returns the surviving sub-intervals for CRT stride iteration.
func SubdivideMSD(lo, hi *big.Int, base uint32) []Range {
	return subdivide(lo, hi, base, 0)
}

func subdivide(lo, hi *big.Int, base uint32, depth int) []Range {
	if HasDuplicateMSDPrefix(lo, hi, base) {
		return nil
	}
	size := new(big.Int).Sub(hi, lo)
	if depth >= MSDMaxDepth || size.Cmp(big.NewInt(MSDMinRangeSize)) <= 0 {
		return []Range{{Lo: lo, Hi: hi}}
	}

	step := new(big.Int).Div(size, big.NewInt(MSDSubdivisionFactor))
	if step.Sign() == 0 {
		return []Range{{Lo: lo, Hi: hi}}
	}

	var result []Range
	cur := new(big.Int).Set(lo)
	for i := 0; i < MSDSubdivisionFactor; i++ {
		var next *big.Int
		if i == MSDSubdivisionFactor-1 {
			next = new(big.Int).Set(hi)
		} else {
			next = new(big.Int).Add(cur, step)
			if next.Cmp(hi) > 0 {
				next = new(big.Int).Set(hi)
			}
		}
		if cur.Cmp(next) < 0 {
			result = append(result, subdivide(cur, next, base, depth+1)...)
		}
		cur = next
	}
	return result
}
