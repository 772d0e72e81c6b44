// Package audit implements the filter-soundness audit: a background job
// that periodically re-runs the unfiltered ground-truth kernel against a
// sample of recently-claimed niceonly fields and records any divergence
// from the filtered fast path. Any divergence here is a correctness bug in
// the filter cascade, never a tuning signal to act on.
package audit

import (
	"context"
	"math/big"

	"github.com/rawblock/nicefield/internal/kernel"
	"github.com/rawblock/nicefield/internal/metrics"
	"github.com/rawblock/nicefield/internal/numeric"
	"github.com/rawblock/nicefield/internal/store"
	"github.com/rs/zerolog/log"
)

// maxAuditRangeSize caps how wide a sampled field's range the audit will
// linearly re-walk with the unfiltered kernel per run, so one audit pass
// cannot block the scheduler for a full 10^9-wide field.
var maxAuditRangeSize = big.NewInt(2_000_000)

// Runner periodically samples recently-claimed niceonly fields and checks
// the filter cascade's output against numeric.IsNice run unconditionally
// over the same range.
type Runner struct {
	st *store.Store
}

func NewRunner(st *store.Store) *Runner { return &Runner{st: st} }

// Result is one field's audit outcome.
type Result struct {
	FieldID          int64
	Diverged         bool
	FilteredCount    int
	GroundTruthCount int
}

// RunSample audits up to sampleSize recently-claimed niceonly fields,
// persisting each outcome and returning the set for the caller to log.
func (r *Runner) RunSample(ctx context.Context, sampleSize int) ([]Result, error) {
	fields, err := r.st.ListRecentNiceonlyFieldSample(ctx, sampleSize)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(fields))
	for _, f := range fields {
		lo, okLo := new(big.Int).SetString(f.RangeStart, 10)
		hi, okHi := new(big.Int).SetString(f.RangeEnd, 10)
		if !okLo || !okHi {
			continue
		}
		size := new(big.Int).Sub(hi, lo)
		if size.Cmp(maxAuditRangeSize) > 0 {
			hi = new(big.Int).Add(lo, maxAuditRangeSize)
		}

		res := auditOne(f.FieldID, lo, hi, f.Base)
		if err := r.st.InsertFilterAuditResult(ctx, f.FieldID, res.Diverged, res.FilteredCount, res.GroundTruthCount); err != nil {
			log.Error().Err(err).Int64("field_id", f.FieldID).Msg("failed to persist filter audit result")
		}
		if res.Diverged {
			metrics.FilterAuditDivergences.Inc()
			log.Error().Int64("field_id", f.FieldID).Uint32("base", f.Base).
				Int("filtered", res.FilteredCount).Int("ground_truth", res.GroundTruthCount).
				Msg("filter cascade diverged from ground truth")
		}
		results = append(results, res)
	}
	return results, nil
}

func auditOne(fieldID int64, lo, hi *big.Int, base uint32) Result {
	filtered := kernel.ProcessNiceonly(lo, hi, base)

	groundTruthCount := 0
	n := new(big.Int).Set(lo)
	one := big.NewInt(1)
	for n.Cmp(hi) < 0 {
		if numeric.IsNice(n, base) {
			groundTruthCount++
		}
		n = new(big.Int).Add(n, one)
	}

	return Result{
		FieldID:          fieldID,
		Diverged:         len(filtered) != groundTruthCount,
		FilteredCount:    len(filtered),
		GroundTruthCount: groundTruthCount,
	}
}
