package gpu

import (
	"math/big"
	"testing"
)

func TestProcessNiceonlyHardwareFindsCanonicalNice(t *testing.T) {
	lo := big.NewInt(47)
	hi := big.NewInt(100)
	results := ProcessNiceonlyHardware(lo, hi, 10)

	found := false
	for _, r := range results {
		if r.Number.Cmp(big.NewInt(69)) == 0 {
			found = true
		}
	}
	if !found {
		t.Errorf("CPU fallback missed 69 in [47,100) base 10, got %v", results)
	}
}

func TestProcessNiceonlyHardwareEmptyRange(t *testing.T) {
	lo := big.NewInt(50)
	hi := big.NewInt(50)
	if results := ProcessNiceonlyHardware(lo, hi, 10); len(results) != 0 {
		t.Errorf("empty range should yield no results, got %d", len(results))
	}
}
