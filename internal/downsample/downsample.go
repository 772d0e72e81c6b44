// Package downsample implements periodic aggregation of canon submissions
// into per-chunk and per-base distribution summaries.
package downsample

import (
	"math"
	"math/big"
	"sort"

	"github.com/rawblock/nicefield/pkg/models"
)

// CutoffPercent: below this fraction of a chunk/base's range checked at
// detailed level, the rolled up distribution/numbers/niceness fields are
// cleared rather than published from a statistically thin sample.
const CutoffPercent = 0.5

// Stats is the rolled-up summary written to a chunk or base row.
type Stats struct {
	MinimumCL       uint8
	CheckedNiceonly *big.Int
	CheckedDetailed *big.Int
	NicenessMean    float64
	NicenessStdev   float64
	Distribution    []models.DistributionBucket
	Numbers         []models.NiceNumber
}

// Compute aggregates one chunk's (or one base's) canon submissions into a
// Stats record. rangeSize, minimumCL, checkedNiceonly and checkedDetailed
// come from a cheap SUM/MIN over the fields table; canonSubs are the
// detailed submissions referenced by field.canon_submission_id within
// that chunk's (or base's) range.
func Compute(base uint32, rangeSize *big.Int, minimumCL uint8, checkedNiceonly, checkedDetailed *big.Int, canonSubs []models.Submission) Stats {
	stats := Stats{
		MinimumCL:       minimumCL,
		CheckedNiceonly: checkedNiceonly,
		CheckedDetailed: checkedDetailed,
	}

	if rangeSize.Sign() <= 0 {
		return stats
	}
	coverage, _ := new(big.Rat).SetFrac(checkedDetailed, rangeSize).Float64()
	if coverage <= CutoffPercent {
		return stats
	}

	counts := make(map[uint32]uint64)
	var numbers []models.NiceNumber
	for _, sub := range canonSubs {
		for _, b := range sub.Distribution {
			counts[b.NumUniques] += b.Count
		}
		numbers = append(numbers, sub.Numbers...)
	}

	dist := make([]models.DistributionBucket, 0, base)
	for u := uint32(1); u <= base; u++ {
		if c := counts[u]; c > 0 {
			dist = append(dist, models.DistributionBucket{NumUniques: u, Count: c})
		}
	}
	sort.Slice(dist, func(i, j int) bool { return dist[i].NumUniques < dist[j].NumUniques })
	stats.Distribution = dist
	stats.Numbers = numbers

	var totalCount uint64
	var weightedNiceness float64
	for _, b := range dist {
		niceness := float64(b.NumUniques) / float64(base)
		weightedNiceness += niceness * float64(b.Count)
		totalCount += b.Count
	}
	if totalCount == 0 {
		return stats
	}
	mean := weightedNiceness / float64(totalCount)

	var variance float64
	for _, b := range dist {
		niceness := float64(b.NumUniques) / float64(base)
		d := niceness - mean
		variance += d * d * float64(b.Count)
	}
	variance /= float64(totalCount)

	stats.NicenessMean = mean
	stats.NicenessStdev = math.Sqrt(variance)
	return stats
}
