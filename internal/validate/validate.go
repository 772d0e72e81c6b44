// Package validate verifies a submitted distribution/numbers payload
// against the claimed field before it is accepted into the store. The
// validator writes nothing itself — a passing result is just a
// models.Submission ready for store.InsertSubmission; the consensus engine
// is the only thing that subsequently writes to the field row.
package validate

import (
	"math/big"

	"github.com/rawblock/nicefield/internal/apierr"
	"github.com/rawblock/nicefield/internal/numeric"
	"github.com/rawblock/nicefield/pkg/models"
)

// Request is the worker's submit payload, already decoded off the wire.
type Request struct {
	Username      string
	ClientVersion string
	Numbers       []models.NiceNumber
	Distribution  []models.DistributionBucket // nil for niceonly submissions
}

// Submission validates req against claim and field and, on success,
// returns the models.Submission ready to insert. On failure it returns a
// tagged apierr.Error citing the specific invariant violated, surfaced
// verbatim to the client so the worker can log which check it failed.
func Submission(field models.Field, claim models.Claim, req Request) (models.Submission, *apierr.Error) {
	sub := models.Submission{
		ClaimID:       claim.ClaimID,
		FieldID:       claim.FieldID,
		SearchMode:    claim.SearchMode,
		Username:      req.Username,
		ClientVersion: req.ClientVersion,
		Numbers:       req.Numbers,
		Distribution:  req.Distribution,
	}

	switch claim.SearchMode {
	case models.SearchModeNiceonly:
		// Honor system: niceonly results are trusted and inserted as-is.
		// Soundness of the filter cascade that produced them is instead
		// audited out of band — see internal/audit.
		return sub, nil

	case models.SearchModeDetailed:
		if req.Distribution == nil {
			return models.Submission{}, apierr.Unprocessablef("detailed submission is missing a distribution")
		}

		rangeSize, ok := new(big.Int).SetString(field.RangeSize, 10)
		if !ok {
			return models.Submission{}, apierr.Internalf("field range_size is not a valid integer")
		}

		var distTotal big.Int
		for _, b := range req.Distribution {
			distTotal.Add(&distTotal, new(big.Int).SetUint64(b.Count))
		}
		if distTotal.Cmp(rangeSize) != 0 {
			return models.Submission{}, apierr.Unprocessablef("distribution counts do not sum to the field's range size")
		}

		cutoff := uint32(float64(field.Base) * numeric.NearMissCutoffPercent)

		numbersByUniques := make(map[uint32]int, len(req.Numbers))
		for _, n := range req.Numbers {
			numbersByUniques[n.NumUniques]++
		}

		var expectedNumbersTotal uint64
		for _, b := range req.Distribution {
			if b.NumUniques <= cutoff {
				continue
			}
			expectedNumbersTotal += b.Count
			if uint64(numbersByUniques[b.NumUniques]) != b.Count {
				return models.Submission{}, apierr.Unprocessablef("near-miss count for num_uniques above cutoff does not match submitted numbers")
			}
		}
		if uint64(len(req.Numbers)) != expectedNumbersTotal {
			return models.Submission{}, apierr.Unprocessablef("total submitted numbers does not match the sum of above-cutoff distribution buckets")
		}

		for _, n := range req.Numbers {
			num, ok := new(big.Int).SetString(n.Number, 10)
			if !ok {
				return models.Submission{}, apierr.BadRequestf("submitted number is not a valid decimal integer: " + n.Number)
			}
			actual := numeric.NumUniques(num, field.Base)
			if actual != n.NumUniques {
				return models.Submission{}, apierr.Unprocessablef("recomputed num_uniques does not match submitted value for number " + n.Number)
			}
		}

		return sub, nil

	default:
		return models.Submission{}, apierr.BadRequestf("unknown search mode on claim")
	}
}
