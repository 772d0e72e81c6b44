package store

import (
	"context"
	"fmt"

	"github.com/rawblock/nicefield/internal/partition"
	"github.com/rawblock/nicefield/pkg/models"
)

// InsertChunks bulk-inserts a base's chunk rows from the field-index bounds
// partition.GroupFieldsIntoChunks produced, translating each bound into the
// contiguous [range_start, range_end) it covers. Returns the new chunk ids
// in the same order as bounds.
func (s *Store) InsertChunks(ctx context.Context, base uint32, bounds []partition.ChunkBounds, fields []partition.FieldSize) ([]int64, error) {
	ids := make([]int64, len(bounds))
	for i, cb := range bounds {
		rangeStart := fields[cb.StartIdx].RangeStart
		rangeEnd := fields[cb.EndIdx-1].RangeEnd
		err := s.pool.QueryRow(ctx,
			`INSERT INTO chunks (base_id, range_start, range_end) VALUES ($1, $2, $3) RETURNING id`,
			base, rangeStart.String(), rangeEnd.String()).Scan(&ids[i])
		if err != nil {
			return nil, fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}
	return ids, nil
}

// ChunkRange is a chunk's containment bounds, the unit ReassignFieldsToChunks
// matches fields against.
type ChunkRange struct {
	ChunkID               int64
	RangeStart, RangeEnd string
}

// ListChunksForBase returns every chunk row of a base, ordered by range.
func (s *Store) ListChunksForBase(ctx context.Context, base uint32) ([]ChunkRange, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, range_start, range_end FROM chunks WHERE base_id = $1 ORDER BY range_start`, base)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChunkRange
	for rows.Next() {
		var cr ChunkRange
		if err := rows.Scan(&cr.ChunkID, &cr.RangeStart, &cr.RangeEnd); err != nil {
			return nil, err
		}
		out = append(out, cr)
	}
	return out, rows.Err()
}

const chunkStatsColumns = `id, base_id, range_start, range_end, checked_niceonly, checked_detailed, minimum_cl, niceness_mean, niceness_stdev, distribution, numbers`

func scanChunk(row scanner) (models.Chunk, error) {
	var c models.Chunk
	var distJSON, numJSON []byte
	var mean, stdev *float64
	err := row.Scan(&c.ChunkID, &c.Base, &c.RangeStart, &c.RangeEnd, &c.CheckedNiceonly,
		&c.CheckedDetailed, &c.MinimumCL, &mean, &stdev, &distJSON, &numJSON)
	if mean != nil {
		c.NicenessMean = *mean
	}
	if stdev != nil {
		c.NicenessStdev = *stdev
	}
	c.Distribution = distributionMapFromJSON(distJSON)
	c.Numbers = numbersMapFromJSON(numJSON)
	return c, err
}

// GetChunk loads a single chunk's currently stored rolled-up summary, the
// downsampling roll-up's point of comparison before deciding whether a
// recomputed summary actually changed anything worth writing.
func (s *Store) GetChunk(ctx context.Context, chunkID int64) (models.Chunk, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+chunkStatsColumns+` FROM chunks WHERE id = $1`, chunkID)
	return scanChunk(row)
}

// ReassignFieldsToChunks sets each field's chunk_id to the unique chunk
// whose range contains it: a single relational update keyed on
// [range_start, range_end], run after a base's fields and chunks have both
// been inserted. The two containment tables are denormalised for query
// speed, so chunk_id is a materialised join key that must be rebuilt this
// way any time chunks are (re)computed for a base.
func (s *Store) ReassignFieldsToChunks(ctx context.Context, base uint32) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE fields f SET chunk_id = c.id
		FROM chunks c
		WHERE f.base_id = $1 AND c.base_id = $1
		  AND f.range_start >= c.range_start AND f.range_start < c.range_end`, base)
	return err
}
