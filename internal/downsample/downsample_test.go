package downsample

import (
	"math/big"
	"testing"

	"github.com/rawblock/nicefield/pkg/models"
)

func TestComputeClearsBelowCutoff(t *testing.T) {
	rangeSize := big.NewInt(1000)
	checkedDetailed := big.NewInt(100) // 10% coverage, below CutoffPercent
	stats := Compute(10, rangeSize, 1, big.NewInt(500), checkedDetailed, []models.Submission{
		{Distribution: []models.DistributionBucket{{NumUniques: 10, Count: 1}}},
	})
	if stats.Distribution != nil {
		t.Errorf("distribution should be cleared below coverage cutoff, got %v", stats.Distribution)
	}
	if stats.Numbers != nil {
		t.Errorf("numbers should be cleared below coverage cutoff, got %v", stats.Numbers)
	}
}

func TestComputePublishesAboveCutoff(t *testing.T) {
	rangeSize := big.NewInt(100)
	checkedDetailed := big.NewInt(90) // 90% coverage, above CutoffPercent
	subs := []models.Submission{
		{
			Distribution: []models.DistributionBucket{
				{NumUniques: 9, Count: 80},
				{NumUniques: 10, Count: 10},
			},
			Numbers: []models.NiceNumber{{Number: "69", NumUniques: 10}},
		},
	}
	stats := Compute(10, rangeSize, 2, big.NewInt(100), checkedDetailed, subs)

	if len(stats.Distribution) != 2 {
		t.Fatalf("got %d distribution buckets, want 2", len(stats.Distribution))
	}
	if stats.Distribution[0].NumUniques != 9 || stats.Distribution[0].Count != 80 {
		t.Errorf("bucket 0 = %v, want {9,80}", stats.Distribution[0])
	}
	if len(stats.Numbers) != 1 || stats.Numbers[0].Number != "69" {
		t.Errorf("numbers = %v, want [{69,10}]", stats.Numbers)
	}
	// mean = (9*80 + 10*10) / 90 / 10
	wantMean := (9.0*80 + 10.0*10) / 90.0 / 10.0
	if diff := stats.NicenessMean - wantMean; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("niceness mean = %v, want %v", stats.NicenessMean, wantMean)
	}
}

func TestComputeHandlesZeroRangeSize(t *testing.T) {
	stats := Compute(10, big.NewInt(0), 0, big.NewInt(0), big.NewInt(0), nil)
	if stats.Distribution != nil || stats.Numbers != nil {
		t.Errorf("zero range size should produce no distribution/numbers")
	}
}

func TestComputePreservesCoverageFieldsRegardless(t *testing.T) {
	rangeSize := big.NewInt(1000)
	stats := Compute(10, rangeSize, 3, big.NewInt(500), big.NewInt(100), nil)
	if stats.MinimumCL != 3 {
		t.Errorf("MinimumCL = %d, want 3 (passed through regardless of coverage cutoff)", stats.MinimumCL)
	}
	if stats.CheckedNiceonly.Cmp(big.NewInt(500)) != 0 {
		t.Errorf("CheckedNiceonly not passed through: %v", stats.CheckedNiceonly)
	}
}
