// Package scheduler implements the background daemon: a process that runs
// the consensus engine and downsampling roll-up across all bases on a
// fixed interval, rather than synchronously on request, plus the
// filter-soundness audit.
package scheduler

import (
	"context"
	"encoding/json"
	"math/big"
	"reflect"
	"time"

	"github.com/rawblock/nicefield/internal/audit"
	"github.com/rawblock/nicefield/internal/consensus"
	"github.com/rawblock/nicefield/internal/downsample"
	"github.com/rawblock/nicefield/internal/metrics"
	"github.com/rawblock/nicefield/internal/store"
	"github.com/rawblock/nicefield/pkg/models"
	"github.com/rs/zerolog/log"
)

func distributionJSON(d []models.DistributionBucket) []byte {
	if d == nil {
		return []byte("null")
	}
	b, _ := json.Marshal(d)
	return b
}

func numbersJSON(n []models.NiceNumber) []byte {
	b, _ := json.Marshal(n)
	return b
}

func distributionMap(d []models.DistributionBucket) map[uint32]uint64 {
	if len(d) == 0 {
		return nil
	}
	m := make(map[uint32]uint64, len(d))
	for _, b := range d {
		m[b.NumUniques] = b.Count
	}
	return m
}

func numbersMap(n []models.NiceNumber) map[string]uint32 {
	if len(n) == 0 {
		return nil
	}
	m := make(map[string]uint32, len(n))
	for _, x := range n {
		m[x.Number] = x.NumUniques
	}
	return m
}

// rollupUnchanged reports whether a freshly computed downsample.Stats would
// write back exactly what a chunk/base row already holds, so the roll-up can
// skip the UPDATE on a sweep that found nothing new.
func rollupUnchanged(fresh downsample.Stats, storedNiceonly, storedDetailed string, storedMinimumCL uint8, storedMean, storedStdev float64, storedDist map[uint32]uint64, storedNumbers map[string]uint32) bool {
	if fresh.MinimumCL != storedMinimumCL || fresh.NicenessMean != storedMean || fresh.NicenessStdev != storedStdev {
		return false
	}
	niceonly, ok1 := new(big.Int).SetString(storedNiceonly, 10)
	detailed, ok2 := new(big.Int).SetString(storedDetailed, 10)
	if !ok1 || !ok2 || fresh.CheckedNiceonly.Cmp(niceonly) != 0 || fresh.CheckedDetailed.Cmp(detailed) != 0 {
		return false
	}
	return reflect.DeepEqual(distributionMap(fresh.Distribution), storedDist) &&
		reflect.DeepEqual(numbersMap(fresh.Numbers), storedNumbers)
}

// Runner owns the interval sweeps. Consensus and downsampling per field/
// chunk/base are each idempotent, so a run that overlaps the previous one
// (a slow database, a burst of submissions) is safe to retry rather than
// skip.
type Runner struct {
	st        *store.Store
	auditRun  *audit.Runner
	sweep     time.Duration
	auditSize int
}

func NewRunner(st *store.Store, sweepInterval time.Duration, auditSampleSize int) *Runner {
	return &Runner{st: st, auditRun: audit.NewRunner(st), sweep: sweepInterval, auditSize: auditSampleSize}
}

// Run blocks, executing one sweep immediately and then every sweep
// interval, until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	r.runOnce(ctx)
	ticker := time.NewTicker(r.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Runner) runOnce(ctx context.Context) {
	log.Info().Msg("scheduler sweep starting")
	if err := r.RunConsensusSweep(ctx); err != nil {
		log.Error().Err(err).Msg("consensus sweep failed")
	}
	if err := r.RunDownsampleSweep(ctx); err != nil {
		log.Error().Err(err).Msg("downsample sweep failed")
	}
	if _, err := r.auditRun.RunSample(ctx, r.auditSize); err != nil {
		log.Error().Err(err).Msg("filter audit sweep failed")
	}
	log.Info().Msg("scheduler sweep complete")
}

// RunConsensusSweep runs the consensus engine over every field that has at
// least one qualified detailed submission.
func (r *Runner) RunConsensusSweep(ctx context.Context) error {
	fieldIDs, err := r.st.ListFieldIDsWithDetailedSubmissions(ctx)
	if err != nil {
		return err
	}
	for _, id := range fieldIDs {
		if err := r.RunConsensusForField(ctx, id); err != nil {
			log.Error().Err(err).Int64("field_id", id).Msg("consensus run failed, skipping field")
		}
	}
	return nil
}

// RunConsensusForField runs consensus for a single field and writes back
// its canon_submission_id/check_level if they changed.
func (r *Runner) RunConsensusForField(ctx context.Context, fieldID int64) error {
	field, err := r.st.GetFieldByID(ctx, fieldID)
	if err != nil {
		return err
	}
	subs, err := r.st.GetQualifiedDetailedSubmissions(ctx, fieldID)
	if err != nil {
		return err
	}

	result := consensus.Run(consensus.Input{
		CurrentCanonID:    field.CanonSubmissionID,
		CurrentCheckLevel: field.CheckLevel,
		Submissions:       subs,
	})
	metrics.ConsensusRuns.Inc()

	if result.Flag != nil {
		metrics.ConsensusFlagsTotal.Inc()
		return r.st.InsertConsensusFlag(ctx, fieldID, result.Flag.Reason, result.Flag.GroupSize)
	}
	if !result.Changed {
		return nil
	}

	var canonID *int64
	if result.Canon != nil {
		id := result.Canon.SubmissionID
		canonID = &id
	}
	return r.st.UpdateFieldCanonAndCL(ctx, fieldID, canonID, result.NewCheckLevel)
}

// RunDownsampleSweep runs the downsampling roll-up over every chunk of
// every base, then each base.
func (r *Runner) RunDownsampleSweep(ctx context.Context) error {
	bases, err := r.st.ListBases(ctx)
	if err != nil {
		return err
	}
	for _, b := range bases {
		if err := r.RunDownsampleForBase(ctx, b.Base); err != nil {
			log.Error().Err(err).Uint32("base", b.Base).Msg("downsample run failed, skipping base")
		}
	}
	return nil
}

// RunDownsampleForBase rolls up every chunk of a base, then the base itself.
func (r *Runner) RunDownsampleForBase(ctx context.Context, base uint32) error {
	chunkStats, err := r.st.GetChunkStatsBatch(ctx, base)
	if err != nil {
		return err
	}
	chunkRanges, err := r.st.ListChunksForBase(ctx, base)
	if err != nil {
		return err
	}
	rangeByID := make(map[int64]store.ChunkRange, len(chunkRanges))
	for _, cr := range chunkRanges {
		rangeByID[cr.ChunkID] = cr
	}

	for _, cs := range chunkStats {
		cr, ok := rangeByID[cs.ChunkID]
		if !ok {
			continue
		}
		rangeStart, _ := new(big.Int).SetString(cr.RangeStart, 10)
		rangeEnd, _ := new(big.Int).SetString(cr.RangeEnd, 10)
		if rangeStart == nil || rangeEnd == nil {
			continue
		}
		rangeSize := new(big.Int).Sub(rangeEnd, rangeStart)

		canonSubs, err := r.st.GetCanonSubmissionsForChunk(ctx, cs.ChunkID)
		if err != nil {
			return err
		}
		stats := downsample.Compute(base, rangeSize, cs.MinimumCL, cs.CheckedNiceonly, cs.CheckedDetailed, canonSubs)

		storedChunk, err := r.st.GetChunk(ctx, cs.ChunkID)
		if err != nil {
			return err
		}
		if rollupUnchanged(stats, storedChunk.CheckedNiceonly, storedChunk.CheckedDetailed, storedChunk.MinimumCL,
			storedChunk.NicenessMean, storedChunk.NicenessStdev, storedChunk.Distribution, storedChunk.Numbers) {
			continue
		}

		if err := r.st.UpsertChunkStats(ctx, cs.ChunkID, store.RollupStats{
			CheckedNiceonly:  stats.CheckedNiceonly,
			CheckedDetailed:  stats.CheckedDetailed,
			MinimumCL:        stats.MinimumCL,
			NicenessMean:     stats.NicenessMean,
			NicenessStdev:    stats.NicenessStdev,
			DistributionJSON: distributionJSON(stats.Distribution),
			NumbersJSON:      numbersJSON(stats.Numbers),
		}); err != nil {
			return err
		}
		metrics.DownsampleRuns.WithLabelValues("chunk").Inc()
	}

	baseRow, err := r.st.GetBase(ctx, base)
	if err != nil {
		return err
	}
	rangeStart, _ := new(big.Int).SetString(baseRow.RangeStart, 10)
	rangeEnd, _ := new(big.Int).SetString(baseRow.RangeEnd, 10)
	if rangeStart == nil || rangeEnd == nil {
		return nil
	}
	rangeSize := new(big.Int).Sub(rangeEnd, rangeStart)

	minimumCL, checkedNiceonlyStr, checkedDetailedStr, err := r.st.GetBaseAggregate(ctx, base)
	if err != nil {
		return err
	}
	checkedNiceonly, _ := new(big.Int).SetString(checkedNiceonlyStr, 10)
	checkedDetailed, _ := new(big.Int).SetString(checkedDetailedStr, 10)

	canonSubs, err := r.st.GetCanonSubmissionsForBase(ctx, base)
	if err != nil {
		return err
	}
	stats := downsample.Compute(base, rangeSize, minimumCL, checkedNiceonly, checkedDetailed, canonSubs)
	if rollupUnchanged(stats, baseRow.CheckedNiceonly, baseRow.CheckedDetailed, baseRow.MinimumCL,
		baseRow.NicenessMean, baseRow.NicenessStdev, baseRow.Distribution, baseRow.Numbers) {
		return nil
	}
	if err := r.st.UpsertBaseStats(ctx, base, store.RollupStats{
		CheckedNiceonly:  stats.CheckedNiceonly,
		CheckedDetailed:  stats.CheckedDetailed,
		MinimumCL:        stats.MinimumCL,
		NicenessMean:     stats.NicenessMean,
		NicenessStdev:    stats.NicenessStdev,
		DistributionJSON: distributionJSON(stats.Distribution),
		NumbersJSON:      numbersJSON(stats.Numbers),
	}); err != nil {
		return err
	}
	metrics.DownsampleRuns.WithLabelValues("base").Inc()
	return nil
}
