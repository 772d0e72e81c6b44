// Package partition implements splitting a base's valid range into
// fixed-size fields, and grouping fields into analytics chunks.
package partition

import "math/big"

// DefaultFieldSize is the default field width.
var DefaultFieldSize = big.NewInt(1_000_000_000)

// TargetNumChunks bounds the number of chunks per base.
const TargetNumChunks = 100

// FieldSize is one contiguous sub-range destined to become a Field row.
type FieldSize struct {
	RangeStart *big.Int
	RangeEnd   *big.Int
	RangeSize  *big.Int
}

// BreakRangeIntoFields produces contiguous FieldSize records covering
// [lo, hi); every field but possibly the last has width size, the last is
// the residual.
func BreakRangeIntoFields(lo, hi, size *big.Int) []FieldSize {
	if lo.Cmp(hi) >= 0 {
		return nil
	}
	var fields []FieldSize
	cur := new(big.Int).Set(lo)
	for cur.Cmp(hi) < 0 {
		end := new(big.Int).Add(cur, size)
		if end.Cmp(hi) > 0 {
			end = new(big.Int).Set(hi)
		}
		fields = append(fields, FieldSize{
			RangeStart: new(big.Int).Set(cur),
			RangeEnd:   end,
			RangeSize:  new(big.Int).Sub(end, cur),
		})
		cur = end
	}
	return fields
}

// ChunkBounds is a contiguous chunk's field index range, [StartIdx, EndIdx).
type ChunkBounds struct {
	StartIdx, EndIdx int
}

// GroupFieldsIntoChunks produces at most TargetNumChunks contiguous chunks
// covering the same fields, preserving field order. Chunk width is
// ceil(len(fields) / TargetNumChunks) fields.
func GroupFieldsIntoChunks(numFields int) []ChunkBounds {
	if numFields == 0 {
		return nil
	}
	perChunk := (numFields + TargetNumChunks - 1) / TargetNumChunks
	if perChunk < 1 {
		perChunk = 1
	}
	var chunks []ChunkBounds
	for start := 0; start < numFields; start += perChunk {
		end := start + perChunk
		if end > numFields {
			end = numFields
		}
		chunks = append(chunks, ChunkBounds{StartIdx: start, EndIdx: end})
	}
	return chunks
}
