package store

import "math/rand/v2"

// mathRandInt63n returns a pseudorandom int64 in [0, n). Used only for the
// Random claim strategy's pivot choice, which is a load-balancing decision,
// not a security boundary.
func mathRandInt63n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	return rand.Int64N(n)
}
