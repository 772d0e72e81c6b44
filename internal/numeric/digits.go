// Package numeric implements the arbitrary-precision digit arithmetic that
// every filter and kernel in this search ultimately bottoms out on: base-b
// digit extraction of n^2 and n^3, and the per-base valid range derivation.
package numeric

import "math/big"

// MaxSupportedBaseCPU mirrors the original source's MAX_SUPPORTED_BASE_NORMAL:
// n^3 stays under 2^256 through base 97 on the CPU (bignum) kernel.
const MaxSupportedBaseCPU = 97

// MaxSupportedBaseGPU is lower: the u256 GPU kernel has no bignum runtime, so
// its working registers are fixed at 256 bits with no headroom past base 69.
const MaxSupportedBaseGPU = 69

// NearMissCutoffPercent is the near-miss threshold from the original source.
const NearMissCutoffPercent = 0.9

// markAllDigits streams the base-b digits of x into seen, setting every
// digit position encountered regardless of collisions. Used by the detailed
// (full distribution) path, which must count every bucket rather than bail
// out on the first repeat.
func markAllDigits(x *big.Int, base uint32, seen []bool) {
	b := big.NewInt(int64(base))
	t := new(big.Int).Set(x)
	mod := new(big.Int)
	for t.Sign() > 0 {
		t.DivMod(t, b, mod)
		seen[mod.Int64()] = true
	}
}

// markDigitsNoCollision streams the base-b digits of x into seen, reporting
// false at the first digit that was already set. This is the ground-truth
// path: niceness requires zero repeats across n^2 and n^3 combined.
func markDigitsNoCollision(x *big.Int, base uint32, seen []bool) bool {
	b := big.NewInt(int64(base))
	t := new(big.Int).Set(x)
	mod := new(big.Int)
	for t.Sign() > 0 {
		t.DivMod(t, b, mod)
		d := mod.Int64()
		if seen[d] {
			return false
		}
		seen[d] = true
	}
	return true
}

// IsNice is the ground truth: n is nice in base b iff digits_b(n^2) and
// digits_b(n^3), taken together, cover every digit of b exactly once. This
// is the only path that must be taken unconditionally — every filter in
// package filters is a sound fast skip around it, never a replacement.
func IsNice(n *big.Int, base uint32) bool {
	seen := make([]bool, base)
	sq := new(big.Int).Mul(n, n)
	if !markDigitsNoCollision(sq, base, seen) {
		return false
	}
	cube := new(big.Int).Mul(sq, n)
	if !markDigitsNoCollision(cube, base, seen) {
		return false
	}
	for _, v := range seen {
		if !v {
			return false
		}
	}
	return true
}

// NumUniques returns |digits_b(n^2) ∪ digits_b(n^3)|, the distance-to-nice
// measure used by the detailed kernel. Unlike IsNice it never bails early.
func NumUniques(n *big.Int, base uint32) uint32 {
	seen := make([]bool, base)
	sq := new(big.Int).Mul(n, n)
	markAllDigits(sq, base, seen)
	cube := new(big.Int).Mul(sq, n)
	markAllDigits(cube, base, seen)
	var count uint32
	for _, v := range seen {
		if v {
			count++
		}
	}
	return count
}

// DigitsDesc returns the base-b digits of x, most significant first. Used
// only by the MSD prefix filter, which needs positional comparison rather
// than a membership set.
func DigitsDesc(x *big.Int, base uint32) []uint32 {
	if x.Sign() == 0 {
		return []uint32{0}
	}
	b := big.NewInt(int64(base))
	t := new(big.Int).Set(x)
	mod := new(big.Int)
	var digits []uint32
	for t.Sign() > 0 {
		t.DivMod(t, b, mod)
		digits = append(digits, uint32(mod.Int64()))
	}
	// reverse to most-significant-first
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	return digits
}
