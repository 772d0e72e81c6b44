// Package store is the persistence façade: typed upserts and range queries
// over bases, chunks, fields, claims and submissions, backed by pgx/v5.
package store

import (
	"context"
	_ "embed"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rawblock/nicefield/internal/partition"
	"github.com/rawblock/nicefield/pkg/models"
)

//go:embed schema.sql
var schemaSQL string

// Store wraps a pgx connection pool. The coordinator owns every persistent
// entity; Claim and Submission rows are immutable once inserted.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pooled connection to Postgres and verifies it with a ping.
func Connect(ctx context.Context, connStr string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// InitSchema applies the embedded schema. Safe to run repeatedly: every
// statement is IF NOT EXISTS.
func (s *Store) InitSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	return err
}

// InsertFields bulk-inserts a base's generated fields in batches of 10,000
// rows: each row is its own INSERT, and each batch is sent as one pgx.Batch
// round trip.
func (s *Store) InsertFields(ctx context.Context, base uint32, sizes []partition.FieldSize) error {
	const chunkSize = 10000
	for start := 0; start < len(sizes); start += chunkSize {
		end := start + chunkSize
		if end > len(sizes) {
			end = len(sizes)
		}
		batch := &pgx.Batch{}
		for _, f := range sizes[start:end] {
			batch.Queue(
				`INSERT INTO fields (base_id, range_start, range_end, range_size, check_level, prioritize)
				 VALUES ($1, $2, $3, $4, 0, false)`,
				base, f.RangeStart.String(), f.RangeEnd.String(), f.RangeSize.String(),
			)
		}
		br := s.pool.SendBatch(ctx, batch)
		if err := br.Close(); err != nil {
			return fmt.Errorf("insert fields batch: %w", err)
		}
	}
	return nil
}

// GetMaxFieldID assumes ids are contiguous and monotonically increasing.
func (s *Store) GetMaxFieldID(ctx context.Context) (int64, error) {
	var maxID *int64
	err := s.pool.QueryRow(ctx, `SELECT MAX(id) FROM fields`).Scan(&maxID)
	if err != nil {
		return 0, err
	}
	if maxID == nil {
		return 0, nil
	}
	return *maxID, nil
}

func scanField(row pgx.Row) (models.Field, error) {
	var f models.Field
	var chunkID *int64
	var canonID *int64
	var lastClaim *time.Time
	err := row.Scan(&f.FieldID, &f.Base, &chunkID, &f.RangeStart, &f.RangeEnd, &f.RangeSize,
		&lastClaim, &canonID, &f.CheckLevel, &f.Prioritize)
	f.ChunkID = chunkID
	f.CanonSubmissionID = canonID
	f.LastClaimTime = lastClaim
	return f, err
}

const fieldColumns = `id, base_id, chunk_id, range_start, range_end, range_size, last_claim_time, canon_submission_id, check_level, prioritize`

// GetFieldByID loads a single field row.
func (s *Store) GetFieldByID(ctx context.Context, id int64) (models.Field, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+fieldColumns+` FROM fields WHERE id = $1`, id)
	return scanField(row)
}

// TryClaimField is the claim dispatcher's sole database primitive:
// find-and-lock the next eligible row, in one statement, so two concurrent
// claimers can never receive the same field.
//
// The check_level = 0 special case (rather than check_level <= $2) matters
// once the fields table is large: it lets Postgres use a partial index on
// (id) WHERE check_level = 0 for nice-only claims instead of scanning
// through every already-checked row ahead of the first untouched one. This
// is a correctness-equivalent rewrite, not an optimization that changes
// results.
func (s *Store) TryClaimField(ctx context.Context, strategy models.FieldClaimStrategy, maxStaleBefore time.Time, maxCheckLevel uint8, maxSize *big.Int) (*models.Field, error) {
	checkLevelPredicate := "check_level <= $2"
	if maxCheckLevel == 0 {
		checkLevelPredicate = "check_level = 0"
	}

	claimNext := func(ctx context.Context, pivot *int64) (*models.Field, error) {
		var query string
		args := []any{maxStaleBefore, maxCheckLevel, maxSize.String()}
		if pivot != nil {
			query = fmt.Sprintf(`WITH candidate AS (
				SELECT id FROM fields
				WHERE id >= $4
				  AND COALESCE(last_claim_time, 'epoch'::timestamptz) <= $1
				  AND %s
				  AND range_size <= $3
				ORDER BY id ASC
				FOR UPDATE SKIP LOCKED
				LIMIT 1
			)
			UPDATE fields f SET last_claim_time = NOW()
			FROM candidate WHERE f.id = candidate.id
			RETURNING f.%s;`, checkLevelPredicate, fieldColumns)
			args = append(args, *pivot)
		} else {
			query = fmt.Sprintf(`WITH candidate AS (
				SELECT id FROM fields
				WHERE COALESCE(last_claim_time, 'epoch'::timestamptz) <= $1
				  AND %s
				  AND range_size <= $3
				ORDER BY id ASC
				FOR UPDATE SKIP LOCKED
				LIMIT 1
			)
			UPDATE fields f SET last_claim_time = NOW()
			FROM candidate WHERE f.id = candidate.id
			RETURNING f.%s;`, checkLevelPredicate, fieldColumns)
		}

		row := s.pool.QueryRow(ctx, query, args...)
		f, err := scanField(row)
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &f, nil
	}

	switch strategy {
	case models.StrategyNext:
		return claimNext(ctx, nil)
	case models.StrategyRandom:
		maxID, err := s.GetMaxFieldID(ctx)
		if err != nil || maxID == 0 {
			return claimNext(ctx, nil)
		}
		pivot := randomPivot(maxID)
		f, err := claimNext(ctx, &pivot)
		if err != nil {
			return nil, err
		}
		if f != nil {
			return f, nil
		}
		// wraparound: claim from the beginning
		return claimNext(ctx, nil)
	default:
		return nil, fmt.Errorf("unknown claim strategy %v", strategy)
	}
}

// UpdateFieldCanonAndCL is the only path that mutates a field's
// canon_submission_id / check_level — written exclusively by the consensus
// engine.
func (s *Store) UpdateFieldCanonAndCL(ctx context.Context, fieldID int64, submissionID *int64, checkLevel uint8) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE fields SET canon_submission_id = $2, check_level = $3 WHERE id = $1`,
		fieldID, submissionID, checkLevel)
	return err
}

// InsertClaim appends an immutable claim record and mints the public,
// non-sequential id handed to the worker on the wire; claim_id is never
// the internal sequential id.
func (s *Store) InsertClaim(ctx context.Context, fieldID int64, mode models.SearchMode, userIP string) (models.Claim, error) {
	publicID := uuid.New()
	var id int64
	var claimTime time.Time
	err := s.pool.QueryRow(ctx,
		`INSERT INTO claims (public_id, field_id, search_mode, claim_time, user_ip) VALUES ($1, $2, $3, NOW(), $4) RETURNING id, claim_time`,
		publicID, fieldID, string(mode), userIP).Scan(&id, &claimTime)
	if err != nil {
		return models.Claim{}, err
	}
	return models.Claim{
		ClaimID:    id,
		PublicID:   publicID,
		FieldID:    fieldID,
		SearchMode: mode,
		ClaimTime:  claimTime,
		UserIP:     userIP,
	}, nil
}

// InsertSubmission appends an immutable submission record.
func (s *Store) InsertSubmission(ctx context.Context, sub models.Submission) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO submissions (claim_id, field_id, search_mode, submit_time, elapsed_secs, username, user_ip, client_version, disqualified, numbers, distribution)
		 VALUES ($1, $2, $3, NOW(), $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		sub.ClaimID, sub.FieldID, string(sub.SearchMode), sub.ElapsedSecs, sub.Username, sub.UserIP,
		sub.ClientVersion, sub.Disqualified, numbersToJSON(sub.Numbers), distributionToJSON(sub.Distribution)).Scan(&id)
	return id, err
}

// GetQualifiedDetailedSubmissions returns a field's qualified, detailed
// submissions — the consensus engine's sole input.
func (s *Store) GetQualifiedDetailedSubmissions(ctx context.Context, fieldID int64) ([]models.Submission, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, claim_id, field_id, search_mode, submit_time, elapsed_secs, username, user_ip, client_version, disqualified, numbers, distribution
		 FROM submissions WHERE field_id = $1 AND search_mode = 'detailed' AND disqualified = false
		 ORDER BY submit_time ASC`, fieldID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []models.Submission
	for rows.Next() {
		var sub models.Submission
		var mode string
		var numbersJSON, distJSON []byte
		if err := rows.Scan(&sub.SubmissionID, &sub.ClaimID, &sub.FieldID, &mode, &sub.SubmitTime,
			&sub.ElapsedSecs, &sub.Username, &sub.UserIP, &sub.ClientVersion, &sub.Disqualified,
			&numbersJSON, &distJSON); err != nil {
			return nil, err
		}
		sub.SearchMode = models.SearchMode(mode)
		sub.Numbers = numbersFromJSON(numbersJSON)
		sub.Distribution = distributionFromJSON(distJSON)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// ChunkStats is the batch aggregate used by the downsampling roll-up.
type ChunkStats struct {
	ChunkID         int64
	MinimumCL       uint8
	CheckedNiceonly *big.Int
	CheckedDetailed *big.Int
}

// GetChunkStatsBatch computes per-chunk check-level coverage for a base in
// a single query rather than one round trip per chunk.
func (s *Store) GetChunkStatsBatch(ctx context.Context, base uint32) ([]ChunkStats, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT chunk_id, MIN(check_level) AS minimum_cl,
		       COALESCE(SUM(CASE WHEN check_level >= 1 THEN range_size ELSE 0 END), 0) AS checked_niceonly,
		       COALESCE(SUM(CASE WHEN check_level >= 2 THEN range_size ELSE 0 END), 0) AS checked_detailed
		FROM fields WHERE base_id = $1 AND chunk_id IS NOT NULL
		GROUP BY chunk_id ORDER BY chunk_id`, base)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChunkStats
	for rows.Next() {
		var cs ChunkStats
		var niceonlyStr, detailedStr string
		if err := rows.Scan(&cs.ChunkID, &cs.MinimumCL, &niceonlyStr, &detailedStr); err != nil {
			return nil, err
		}
		cs.CheckedNiceonly, _ = new(big.Int).SetString(niceonlyStr, 10)
		cs.CheckedDetailed, _ = new(big.Int).SetString(detailedStr, 10)
		out = append(out, cs)
	}
	return out, rows.Err()
}

// UpsertChunkStats writes a chunk's rolled-up summary, used by downsampling.
func (s *Store) UpsertChunkStats(ctx context.Context, chunkID int64, stats RollupStats) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE chunks SET checked_niceonly = $2, checked_detailed = $3, minimum_cl = $4,
		                   niceness_mean = $5, niceness_stdev = $6, distribution = $7, numbers = $8
		WHERE id = $1`,
		chunkID, stats.CheckedNiceonly.String(), stats.CheckedDetailed.String(), stats.MinimumCL,
		stats.NicenessMean, stats.NicenessStdev, stats.DistributionJSON, stats.NumbersJSON)
	return err
}

// UpsertBaseStats writes a base's rolled-up summary, used by downsampling.
func (s *Store) UpsertBaseStats(ctx context.Context, base uint32, stats RollupStats) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE bases SET checked_niceonly = $2, checked_detailed = $3, minimum_cl = $4,
		                  niceness_mean = $5, niceness_stdev = $6, distribution = $7, numbers = $8
		WHERE base_id = $1`,
		base, stats.CheckedNiceonly.String(), stats.CheckedDetailed.String(), stats.MinimumCL,
		stats.NicenessMean, stats.NicenessStdev, stats.DistributionJSON, stats.NumbersJSON)
	return err
}

// RollupStats is the shared shape written to both chunk and base rows.
type RollupStats struct {
	CheckedNiceonly, CheckedDetailed *big.Int
	MinimumCL                        uint8
	NicenessMean, NicenessStdev      float64
	DistributionJSON, NumbersJSON    []byte
}

func randomPivot(maxID int64) int64 {
	// crypto/rand would be needless overhead for a load-balancing pivot
	// that is not security sensitive.
	return 1 + mathRandInt63n(maxID)
}
