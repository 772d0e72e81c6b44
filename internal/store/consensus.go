package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rawblock/nicefield/pkg/models"
)

const claimColumns = `id, public_id, field_id, search_mode, claim_time, user_ip`

func scanClaim(row scanner) (models.Claim, error) {
	var c models.Claim
	var mode string
	err := row.Scan(&c.ClaimID, &c.PublicID, &c.FieldID, &mode, &c.ClaimTime, &c.UserIP)
	c.SearchMode = models.SearchMode(mode)
	return c, err
}

// GetClaimByID loads a single claim row by internal id.
func (s *Store) GetClaimByID(ctx context.Context, id int64) (models.Claim, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+claimColumns+` FROM claims WHERE id = $1`, id)
	return scanClaim(row)
}

// GetClaimByPublicID loads a claim by the non-sequential id handed to
// workers on the wire — the submission validator's lookup path for a
// POST /submit request's claim_id.
func (s *Store) GetClaimByPublicID(ctx context.Context, publicID uuid.UUID) (models.Claim, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+claimColumns+` FROM claims WHERE public_id = $1`, publicID)
	return scanClaim(row)
}

// ListFieldIDsWithDetailedSubmissions returns every distinct field id that
// has at least one qualified detailed submission — the background
// scheduler's consensus sweep runs across exactly this set.
func (s *Store) ListFieldIDsWithDetailedSubmissions(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT field_id FROM submissions
		WHERE search_mode = 'detailed' AND disqualified = false
		ORDER BY field_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// InsertConsensusFlag records an unresolved tie for operator review
// (SPEC_FULL supplemented feature: flagged consensus ties). One row per
// field: flagging an already-flagged field overwrites its reason, group size
// and flagged_at and marks it unresolved again, rather than accumulating
// duplicate rows.
func (s *Store) InsertConsensusFlag(ctx context.Context, fieldID int64, reason string, groupSize int) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO consensus_flags (field_id, reason, group_size)
		VALUES ($1, $2, $3)
		ON CONFLICT (field_id) DO UPDATE SET reason = $2, group_size = $3, flagged_at = NOW(), resolved = false`,
		fieldID, reason, groupSize)
	return err
}

// ConsensusFlag is a field flagged by a tied consensus run, pending
// operator review.
type ConsensusFlag struct {
	FieldID   int64
	Reason    string
	GroupSize int
	FlaggedAt time.Time
	Resolved  bool
}

// ListUnresolvedConsensusFlags backs the admin review endpoint
// (GET /api/v1/consensus/flags).
func (s *Store) ListUnresolvedConsensusFlags(ctx context.Context) ([]ConsensusFlag, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT field_id, reason, group_size, flagged_at, resolved
		FROM consensus_flags WHERE resolved = false ORDER BY flagged_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ConsensusFlag
	for rows.Next() {
		var f ConsensusFlag
		if err := rows.Scan(&f.FieldID, &f.Reason, &f.GroupSize, &f.FlaggedAt, &f.Resolved); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ResolveConsensusFlag marks a flagged field reviewed (POST
// /api/v1/consensus/flags/:field_id/resolve).
func (s *Store) ResolveConsensusFlag(ctx context.Context, fieldID int64) error {
	_, err := s.pool.Exec(ctx, `UPDATE consensus_flags SET resolved = true WHERE field_id = $1`, fieldID)
	return err
}

// GetCanonSubmissionsForChunk returns the detailed submissions referenced
// by canon_submission_id across every field of a chunk — the downsampling
// roll-up's chunk-level input.
func (s *Store) GetCanonSubmissionsForChunk(ctx context.Context, chunkID int64) ([]models.Submission, error) {
	return s.queryCanonSubmissions(ctx, `
		SELECT su.id, su.claim_id, su.field_id, su.search_mode, su.submit_time, su.elapsed_secs,
		       su.username, su.user_ip, su.client_version, su.disqualified, su.numbers, su.distribution
		FROM submissions su
		JOIN fields f ON f.canon_submission_id = su.id
		WHERE f.chunk_id = $1`, chunkID)
}

// GetCanonSubmissionsForBase is the same query scoped to a whole base —
// the downsampling roll-up's base-level input.
func (s *Store) GetCanonSubmissionsForBase(ctx context.Context, base uint32) ([]models.Submission, error) {
	return s.queryCanonSubmissions(ctx, `
		SELECT su.id, su.claim_id, su.field_id, su.search_mode, su.submit_time, su.elapsed_secs,
		       su.username, su.user_ip, su.client_version, su.disqualified, su.numbers, su.distribution
		FROM submissions su
		JOIN fields f ON f.canon_submission_id = su.id
		WHERE f.base_id = $1`, base)
}

func (s *Store) queryCanonSubmissions(ctx context.Context, query string, arg any) ([]models.Submission, error) {
	rows, err := s.pool.Query(ctx, query, arg)
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
