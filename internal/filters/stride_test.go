package filters

import (
	"math/big"
	"testing"
)

func TestStrideTableGapsSumToModulus(t *testing.T) {
	// sum(gap_table) must equal M.
	st := NewStrideTable(10, 2)
	var total uint64
	for _, g := range st.GapTable {
		total += g
	}
	if total != st.Modulus {
		t.Errorf("sum(GapTable) = %d, want Modulus = %d", total, st.Modulus)
	}
}

func TestStrideTableValidResiduesStrictlySorted(t *testing.T) {
	st := NewStrideTable(10, 2)
	for i := 1; i < len(st.ValidResidues); i++ {
		if st.ValidResidues[i] <= st.ValidResidues[i-1] {
			t.Fatalf("ValidResidues not strictly increasing at index %d: %d <= %d",
				i, st.ValidResidues[i], st.ValidResidues[i-1])
		}
	}
}

func TestStrideTableIteratePassesResidueAndLSDPredicates(t *testing.T) {
	base := uint32(10)
	k := 2
	st := NewStrideTable(base, k)
	residueValid := ResidueFilter(base)
	bm1 := uint64(base - 1)
	bk := uint64(1)
	for i := 0; i < k; i++ {
		bk *= uint64(base)
	}
	lsdValid := ValidLSDsK(base, k)

	lo := big.NewInt(47)
	hi := big.NewInt(10000)
	var count int
	st.Iterate(lo, hi, func(n *big.Int) {
		count++
		nm := new(big.Int).Mod(n, big.NewInt(int64(bm1))).Int64()
		nk := new(big.Int).Mod(n, big.NewInt(int64(bk))).Int64()
		if !residueValid[nm] {
			t.Errorf("n=%s failed residue filter (residue %d)", n, nm)
		}
		if !lsdValid[nk] {
			t.Errorf("n=%s failed LSD filter (residue %d)", n, nk)
		}
	})
	if count == 0 {
		t.Fatalf("Iterate produced zero candidates over a wide range")
	}
}

func TestStrideTableIterateCoversKnownNiceNumber(t *testing.T) {
	st := NewStrideTable(10, 2)
	lo := big.NewInt(47)
	hi := big.NewInt(100)
	found := false
	st.Iterate(lo, hi, func(n *big.Int) {
		if n.Cmp(big.NewInt(69)) == 0 {
			found = true
		}
	})
	if !found {
		t.Fatalf("stride iteration over [47,100) base 10 never visited 69")
	}
}
