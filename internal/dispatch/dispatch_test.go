package dispatch

import (
	"testing"

	"github.com/rawblock/nicefield/pkg/models"
)

func TestChoosePolicyStaysWithinDefinedValues(t *testing.T) {
	for i := 0; i < 200; i++ {
		strategy, maxCL := ChoosePolicy()
		if strategy != models.StrategyNext && strategy != models.StrategyRandom {
			t.Fatalf("ChoosePolicy returned unknown strategy %q", strategy)
		}
		if maxCL != 1 && maxCL != 2 {
			t.Fatalf("ChoosePolicy returned unknown max check level %d", maxCL)
		}
	}
}

func TestChoosePolicyIsBiasedTowardNextAndMaxCLOne(t *testing.T) {
	const trials = 4000
	var randomCount, maxCLTwoCount int
	for i := 0; i < trials; i++ {
		strategy, maxCL := ChoosePolicy()
		if strategy == models.StrategyRandom {
			randomCount++
		}
		if maxCL == 2 {
			maxCLTwoCount++
		}
	}
	// Both minority outcomes should land near 20% of trials; allow a wide
	// band since this is a statistical check, not an exact one.
	if frac := float64(randomCount) / trials; frac < 0.12 || frac > 0.30 {
		t.Errorf("random-strategy fraction = %.3f, want roughly 0.20", frac)
	}
	if frac := float64(maxCLTwoCount) / trials; frac < 0.12 || frac > 0.30 {
		t.Errorf("max_cl=2 fraction = %.3f, want roughly 0.20", frac)
	}
}
