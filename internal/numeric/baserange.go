package numeric

import "math/big"

// lengthBase returns the number of base-b digits of x (x > 0).
func lengthBase(x *big.Int, base uint32) int64 {
	b := big.NewInt(int64(base))
	t := new(big.Int).Set(x)
	var n int64
	for t.Sign() > 0 {
		t.Div(t, b)
		n++
	}
	if n == 0 {
		return 1
	}
	return n
}

// lengthSum returns len_b(n^2) + len_b(n^3), the quantity whose equality to
// b is the only condition under which a nice number for base b can exist
// (niceness requires zero digit repeats, so the total digit count across
// n^2 and n^3 must equal b exactly). lengthSum is non-decreasing in n since
// digit length is non-decreasing as n grows, which is what makes the set of
// n achieving lengthSum(n,b) == b a single contiguous interval (possibly
// empty) rather than a scattered set.
func lengthSum(n *big.Int, base uint32) int64 {
	sq := new(big.Int).Mul(n, n)
	cube := new(big.Int).Mul(sq, n)
	return lengthBase(sq, base) + lengthBase(cube, base)
}

// smallestWithLengthSumAtLeast finds the smallest n >= 1 such that
// lengthSum(n, base) >= target, via galloping search (to find an upper
// bound cheaply for bases whose range sits far out) followed by binary
// search. lengthSum's monotonicity is what makes this well defined.
func smallestWithLengthSumAtLeast(base uint32, target int64) *big.Int {
	one := big.NewInt(1)
	lo := big.NewInt(1)
	if lengthSum(lo, base) >= target {
		return lo
	}
	hi := big.NewInt(2)
	for lengthSum(hi, base) < target {
		hi = new(big.Int).Lsh(hi, 1)
	}
	// binary search in (lo, hi] for smallest n with lengthSum(n) >= target
	for new(big.Int).Sub(hi, lo).Cmp(one) > 0 {
		mid := new(big.Int).Add(lo, hi)
		mid.Rsh(mid, 1)
		if lengthSum(mid, base) >= target {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi
}

// BaseRange is the half-open interval [Start, End) of n for which a nice
// number in base b could possibly exist, i.e. the unique (if any) interval
// where len_b(n^2)+len_b(n^3) == b. Empty is true when no such n exists,
// which the original derivation (case analysis on b mod 5) identifies as
// the b ≡ 1 (mod 5) case — here it falls out directly from the monotonicity
// argument instead of a ported closed form (see DESIGN.md).
type BaseRange struct {
	Start *big.Int
	End   *big.Int
	Empty bool
}

// DeriveBaseRange computes the valid search interval for base b.
func DeriveBaseRange(base uint32) BaseRange {
	start := smallestWithLengthSumAtLeast(base, int64(base))
	if lengthSum(start, base) != int64(base) {
		return BaseRange{Start: start, End: start, Empty: true}
	}
	end := smallestWithLengthSumAtLeast(base, int64(base)+1)
	return BaseRange{Start: start, End: end, Empty: false}
}
