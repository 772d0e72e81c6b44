// Package kernel implements the per-range processors: the detailed
// full-distribution scan and the filtered niceonly fast path, both built on
// top of package numeric's ground truth and package filters' sound skips.
package kernel

import (
	"math/big"

	"github.com/rawblock/nicefield/internal/filters"
	"github.com/rawblock/nicefield/internal/numeric"
)

// strideDigitsK is the number of low digits folded into the CRT stride
// table's LSD component. Small enough that b^k stays cheap to enumerate up
// to the largest supported base, large enough to meaningfully thin the
// candidate set before the stride walk.
const strideDigitsK = 3

// DistributionBucket is one (num_uniques -> count) pair.
type DistributionBucket struct {
	NumUniques uint32
	Count      uint64
}

// NearMiss is a candidate strictly above the near-miss cutoff
// (num_uniques > floor(base * NearMissCutoffPercent)).
type NearMiss struct {
	Number     *big.Int
	NumUniques uint32
}

// DetailedResult is the output of ProcessDetailed: a full distribution over
// [lo, hi) plus the near-miss list, the superset from which niceonly's
// output (num_uniques == base) is drawn.
type DetailedResult struct {
	Distribution []DistributionBucket
	NearMisses   []NearMiss
}

// ProcessDetailed computes num_uniques(n, base) for every n in [lo, hi)
// using the straight-line kernel only — none of the niceonly filters are
// sound here, since they would discard information about low-uniqueness
// buckets that detailed mode is required to report.
func ProcessDetailed(lo, hi *big.Int, base uint32) DetailedResult {
	counts := make(map[uint32]uint64, base)
	cutoff := uint32(float64(base) * numeric.NearMissCutoffPercent)

	var nearMisses []NearMiss
	n := new(big.Int).Set(lo)
	one := big.NewInt(1)
	for n.Cmp(hi) < 0 {
		u := numeric.NumUniques(n, base)
		counts[u]++
		if u > cutoff {
			nearMisses = append(nearMisses, NearMiss{Number: new(big.Int).Set(n), NumUniques: u})
		}
		n = new(big.Int).Add(n, one)
	}

	dist := make([]DistributionBucket, 0, base)
	for u := uint32(1); u <= base; u++ {
		dist = append(dist, DistributionBucket{NumUniques: u, Count: counts[u]})
	}
	return DetailedResult{Distribution: dist, NearMisses: nearMisses}
}

// ProcessNiceonly returns every n in [lo, hi) with num_uniques(n,base) ==
// base, using the full filter cascade: MSD subdivision first eliminates
// provably-empty sub-intervals, then each surviving sub-interval is walked
// via the CRT stride table (residue filter ⨯ k-digit LSD filter), with
// get_is_nice as the final, unconditional ground-truth check on every
// stride survivor.
func ProcessNiceonly(lo, hi *big.Int, base uint32) []*big.Int {
	table := filters.NewStrideTable(base, strideDigitsK)

	var nice []*big.Int
	for _, r := range filters.SubdivideMSD(lo, hi, base) {
		table.Iterate(r.Lo, r.Hi, func(n *big.Int) {
			if numeric.IsNice(n, base) {
				nice = append(nice, new(big.Int).Set(n))
			}
		})
	}
	return nice
}
