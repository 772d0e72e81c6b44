package store

import (
	"context"

	"github.com/rawblock/nicefield/pkg/models"
)

// ListRecentNiceonlyFieldSample returns up to limit recently-claimed
// niceonly fields, the population the filter-soundness audit (SPEC_FULL
// supplemented feature) periodically re-checks against the unfiltered
// ground truth kernel.
func (s *Store) ListRecentNiceonlyFieldSample(ctx context.Context, limit int) ([]models.Field, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+fieldColumns+` FROM fields
		WHERE check_level >= 1 AND last_claim_time IS NOT NULL
		ORDER BY last_claim_time DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Field
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// InsertFilterAuditResult records one audit run's outcome against a field.
func (s *Store) InsertFilterAuditResult(ctx context.Context, fieldID int64, diverged bool, filteredCount, groundTruthCount int) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO filter_audit_results (field_id, diverged, filtered_count, ground_truth_count)
		VALUES ($1, $2, $3, $4)`,
		fieldID, diverged, filteredCount, groundTruthCount)
	return err
}
