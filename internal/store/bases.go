package store

import (
	"context"

	"github.com/rawblock/nicefield/pkg/models"
)

// InsertBase seeds a base row ahead of partitioning it into chunks/fields
// (cmd/admin's `partition` subcommand).
func (s *Store) InsertBase(ctx context.Context, base uint32, rangeStart, rangeEnd, rangeSize string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO bases (base_id, range_start, range_end, range_size)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (base_id) DO UPDATE SET range_start = $2, range_end = $3, range_size = $4`,
		base, rangeStart, rangeEnd, rangeSize)
	return err
}

func scanBase(row scanner) (models.Base, error) {
	var b models.Base
	var distJSON, numJSON []byte
	var mean, stdev *float64
	err := row.Scan(&b.Base, &b.RangeStart, &b.RangeEnd, &b.RangeSize, &b.CheckedNiceonly,
		&b.CheckedDetailed, &b.MinimumCL, &mean, &stdev, &distJSON, &numJSON)
	if mean != nil {
		b.NicenessMean = *mean
	}
	if stdev != nil {
		b.NicenessStdev = *stdev
	}
	b.Distribution = distributionMapFromJSON(distJSON)
	b.Numbers = numbersMapFromJSON(numJSON)
	return b, err
}

const baseColumns = `base_id, range_start, range_end, range_size, checked_niceonly, checked_detailed, minimum_cl, niceness_mean, niceness_stdev, distribution, numbers`

// GetBase loads a single base row.
func (s *Store) GetBase(ctx context.Context, base uint32) (models.Base, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+baseColumns+` FROM bases WHERE base_id = $1`, base)
	return scanBase(row)
}

// ListBases returns every base row, used by the background scheduler to
// sweep consensus/downsampling across the whole search.
func (s *Store) ListBases(ctx context.Context) ([]models.Base, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+baseColumns+` FROM bases ORDER BY base_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Base
	for rows.Next() {
		b, err := scanBase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetBaseAggregate computes the whole-base equivalent of GetChunkStatsBatch:
// check-level coverage summed across every field of the base, used by the
// downsampling roll-up's base-level pass.
func (s *Store) GetBaseAggregate(ctx context.Context, base uint32) (minimumCL uint8, checkedNiceonly, checkedDetailed string, err error) {
	err = s.pool.QueryRow(ctx, `
		SELECT COALESCE(MIN(check_level), 0),
		       COALESCE(SUM(CASE WHEN check_level >= 1 THEN range_size ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN check_level >= 2 THEN range_size ELSE 0 END), 0)
		FROM fields WHERE base_id = $1`, base).Scan(&minimumCL, &checkedNiceonly, &checkedDetailed)
	return
}

// Base-level rolled-up stats are written by UpsertBaseStats (postgres.go),
// the counterpart of UpsertChunkStats.

// scanner is the common subset of pgx.Row/pgx.Rows used by the scan
// helpers in this package.
type scanner interface {
	Scan(dest ...any) error
}
