package filters

import (
	"math/big"
	"sort"
)

// StrideTable composes the residue filter (mod b-1) and the k-digit LSD
// filter (mod b^k) into a single combined modulus M = (b-1)*b^k. b-1 and b
// share no common factor (consecutive integers), so b-1 and b^k are
// coprime and the Chinese Remainder Theorem applies: a residue mod M is
// valid iff its reduction mod (b-1) is residue-filter-valid AND its
// reduction mod b^k is LSD-filter-valid.
//
// Once built, iteration never needs another modulo: GapTable[i] gives the
// distance from ValidResidues[i] to the next valid residue, wrapping around
// the cycle, so stepping through a range is pure addition.
type StrideTable struct {
	Modulus       uint64
	ValidResidues []uint64 // strictly increasing
	GapTable      []uint64 // GapTable[i] + ValidResidues[i] == ValidResidues[i+1] (mod Modulus)
}

// NewStrideTable builds the stride table for base b with k low digits of
// precision in the LSD component.
func NewStrideTable(base uint32, k int) *StrideTable {
	bm1 := uint64(base - 1)
	bk := uint64(1)
	for i := 0; i < k; i++ {
		bk *= uint64(base)
	}
	m := bm1 * bk

	residueValid := ResidueFilter(base)
	lsdValid := ValidLSDsK(base, k)

	var valid []uint64
	for r := uint64(0); r < m; r++ {
		if residueValid[r%bm1] && lsdValid[r%bk] {
			valid = append(valid, r)
		}
	}

	gaps := make([]uint64, len(valid))
	for i := range valid {
		if i+1 < len(valid) {
			gaps[i] = valid[i+1] - valid[i]
		} else {
			gaps[i] = m - valid[i] + valid[0]
		}
	}

	return &StrideTable{Modulus: m, ValidResidues: valid, GapTable: gaps}
}

// firstValidIndexAtOrAfter returns the index into ValidResidues of the
// smallest valid residue >= r, or -1 if none (caller wraps).
func (st *StrideTable) firstValidIndexAtOrAfter(r uint64) int {
	idx := sort.Search(len(st.ValidResidues), func(i int) bool {
		return st.ValidResidues[i] >= r
	})
	if idx == len(st.ValidResidues) {
		return -1
	}
	return idx
}

// Iterate walks [lo, hiExclusive) calling process on every n whose residue
// mod Modulus is in ValidResidues — every candidate that might be nice —
// stepping purely via the gap table after the initial alignment.
func (st *StrideTable) Iterate(lo, hiExclusive *big.Int, process func(n *big.Int)) {
	if len(st.ValidResidues) == 0 {
		return
	}
	m := new(big.Int).SetUint64(st.Modulus)
	rBig := new(big.Int).Mod(lo, m)
	r := rBig.Uint64()

	idx := st.firstValidIndexAtOrAfter(r)
	var n *big.Int
	if idx == -1 {
		offset := new(big.Int).Sub(m, rBig)
		offset.Add(offset, new(big.Int).SetUint64(st.ValidResidues[0]))
		n = new(big.Int).Add(lo, offset)
		idx = 0
	} else {
		offset := st.ValidResidues[idx] - r
		n = new(big.Int).Add(lo, new(big.Int).SetUint64(offset))
	}

	for n.Cmp(hiExclusive) < 0 {
		process(n)
		gap := new(big.Int).SetUint64(st.GapTable[idx])
		n = new(big.Int).Add(n, gap)
		idx = (idx + 1) % len(st.ValidResidues)
	}
}
