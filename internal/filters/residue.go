// Package filters implements the sound, niceonly-only skip filters that sit
// in front of the ground-truth kernel in package numeric: the residue
// filter, the LSD filter, the MSD prefix filter, and the CRT stride table
// that composes the first two into jump-to-next-valid iteration.
//
// Every filter here only ever rejects: a range or candidate it lets through
// is not guaranteed nice, but one it rejects is guaranteed to contain zero
// nice numbers. None of this is valid in detailed mode, which must count
// every num_uniques bucket and therefore cannot discard low-uniqueness
// candidates.
package filters

// ResidueFilter precomputes, for base b, the set of valid residues of n
// modulo (b-1): those r for which a nice n ≡ r (mod b-1) is not ruled out
// by the digit-sum invariant.
//
// For any base-b integer x, digit-sum_b(x) ≡ x (mod b-1) ("casting out
// b-1s"). A nice n has digit-sum(n^2) + digit-sum(n^3) equal to the sum of
// every digit 0..b-1 exactly once, i.e. b(b-1)/2. So a necessary condition
// is n^2 + n^3 ≡ b(b-1)/2 (mod b-1); ResidueFilter returns, indexed by
// r = n mod (b-1), whether that congruence can hold.
func ResidueFilter(base uint32) []bool {
	m := uint64(base - 1)
	target := (uint64(base) * uint64(base-1) / 2) % m
	valid := make([]bool, m)
	for r := uint64(0); r < m; r++ {
		val := (r*r + r*r*r) % m
		valid[r] = val == target
	}
	return valid
}

// ValidLSDs returns, for each possible last digit d of n (the single-digit
// LSD filter), whether d can possibly be the last digit of a nice n: reject
// d where the last digit of n^2 and the last digit of n^3 coincide, since
// that forces an immediate collision in the low-order digit.
func ValidLSDs(base uint32) []bool {
	valid := make([]bool, base)
	for d := uint32(0); d < base; d++ {
		sq := (d * d) % base
		cube := (sq * d) % base
		valid[d] = sq != cube
	}
	return valid
}

// ValidLSDsK generalises ValidLSDs to the last k digits of n (mod b^k): a
// residue r in [0, b^k) is valid iff the low k digits of r^2 and r^3, taken
// together, contain no repeated digit.
func ValidLSDsK(base uint32, k int) []bool {
	m := uint64(1)
	for i := 0; i < k; i++ {
		m *= uint64(base)
	}
	valid := make([]bool, m)
	for r := uint64(0); r < m; r++ {
		sq := (r * r) % m
		cube := (sq * r) % m
		seen := make([]bool, base)
		ok := true
		t := sq
		for i := 0; i < k && ok; i++ {
			d := t % uint64(base)
			if seen[d] {
				ok = false
				break
			}
			seen[d] = true
			t /= uint64(base)
		}
		if ok {
			t2 := cube
			for i := 0; i < k && ok; i++ {
				d := t2 % uint64(base)
				if seen[d] {
					ok = false
					break
				}
				seen[d] = true
				t2 /= uint64(base)
			}
		}
		valid[r] = ok
	}
	return valid
}
