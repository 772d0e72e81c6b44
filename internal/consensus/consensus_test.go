package consensus

import (
	"testing"
	"time"

	"github.com/rawblock/nicefield/pkg/models"
)

func sub(id int64, submitTime time.Time, dist []models.DistributionBucket, nums []models.NiceNumber) models.Submission {
	return models.Submission{
		SubmissionID: id,
		SearchMode:   models.SearchModeDetailed,
		SubmitTime:   submitTime,
		Distribution: dist,
		Numbers:      nums,
	}
}

var baseTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestRunNoSubmissionsPreservesGroundTruth(t *testing.T) {
	result := Run(Input{CurrentCheckLevel: 1})
	if result.Canon != nil {
		t.Errorf("canon should be nil with zero submissions")
	}
	if result.NewCheckLevel != 1 {
		t.Errorf("check level = %d, want min(current,1) = 1", result.NewCheckLevel)
	}

	result2 := Run(Input{CurrentCheckLevel: 0})
	if result2.NewCheckLevel != 0 {
		t.Errorf("check level = %d, want 0", result2.NewCheckLevel)
	}
}

func TestRunSingleSubmissionBecomesCanon(t *testing.T) {
	s := sub(1, baseTime, []models.DistributionBucket{{NumUniques: 10, Count: 1}}, nil)
	result := Run(Input{Submissions: []models.Submission{s}})
	if result.Canon == nil || result.Canon.SubmissionID != 1 {
		t.Fatalf("canon = %v, want submission 1", result.Canon)
	}
	if result.NewCheckLevel != 2 {
		t.Errorf("check level = %d, want 2", result.NewCheckLevel)
	}
	if !result.Changed {
		t.Errorf("Changed should be true for a fresh canon")
	}
}

func TestRunMajorityGroupWins(t *testing.T) {
	dist := []models.DistributionBucket{{NumUniques: 10, Count: 1}}
	agreeing1 := sub(1, baseTime, dist, []models.NiceNumber{{Number: "69", NumUniques: 10}})
	agreeing2 := sub(2, baseTime.Add(time.Minute), dist, []models.NiceNumber{{Number: "69", NumUniques: 10}})
	minority := sub(3, baseTime, []models.DistributionBucket{{NumUniques: 9, Count: 1}}, nil)

	result := Run(Input{Submissions: []models.Submission{minority, agreeing1, agreeing2}})
	if result.Canon == nil {
		t.Fatalf("expected a canon to be elected")
	}
	if result.Canon.SubmissionID != 1 {
		t.Errorf("canon = submission %d, want 1 (earliest in the largest group)", result.Canon.SubmissionID)
	}
	if result.NewCheckLevel != 3 {
		t.Errorf("check level = %d, want 3 (|G*|+1 = 2+1)", result.NewCheckLevel)
	}
	if result.Flag != nil {
		t.Errorf("no tie expected, got flag %v", result.Flag)
	}
}

func TestRunTiedGroupsAbstainAndFlag(t *testing.T) {
	a := sub(1, baseTime, []models.DistributionBucket{{NumUniques: 10, Count: 1}}, nil)
	b := sub(2, baseTime, []models.DistributionBucket{{NumUniques: 9, Count: 1}}, nil)

	result := Run(Input{CurrentCheckLevel: 1, Submissions: []models.Submission{a, b}})
	if result.Canon != nil {
		t.Errorf("tied groups must not elect a canon, got %v", result.Canon)
	}
	if result.Flag == nil {
		t.Fatalf("tied groups must set a Flag")
	}
	if result.Flag.GroupSize != 1 {
		t.Errorf("flag group size = %d, want 1", result.Flag.GroupSize)
	}
	if result.NewCheckLevel != 1 {
		t.Errorf("check level must be unchanged on a tie, got %d", result.NewCheckLevel)
	}
	if result.Changed {
		t.Errorf("Changed must be false when abstaining on a tie")
	}
}

func TestRunIdempotent(t *testing.T) {
	// Running consensus twice on the resulting state must yield the same
	// (canon_id, check_level).
	dist := []models.DistributionBucket{{NumUniques: 10, Count: 1}}
	s1 := sub(1, baseTime, dist, nil)
	s2 := sub(2, baseTime.Add(time.Second), dist, nil)
	in := Input{Submissions: []models.Submission{s1, s2}}

	first := Run(in)
	in.CurrentCanonID = &first.Canon.SubmissionID
	in.CurrentCheckLevel = first.NewCheckLevel
	second := Run(in)

	if second.Canon.SubmissionID != first.Canon.SubmissionID {
		t.Errorf("canon changed across idempotent re-run: %d -> %d", first.Canon.SubmissionID, second.Canon.SubmissionID)
	}
	if second.NewCheckLevel != first.NewCheckLevel {
		t.Errorf("check level changed across idempotent re-run: %d -> %d", first.NewCheckLevel, second.NewCheckLevel)
	}
	if second.Changed {
		t.Errorf("re-running with already-applied state should report Changed=false")
	}
}

func TestCandidateKeyIgnoresZeroBucketsAndOrdering(t *testing.T) {
	a := sub(1, baseTime, []models.DistributionBucket{
		{NumUniques: 10, Count: 1}, {NumUniques: 5, Count: 0},
	}, []models.NiceNumber{{Number: "69", NumUniques: 10}})
	b := sub(2, baseTime, []models.DistributionBucket{
		{NumUniques: 10, Count: 1},
	}, []models.NiceNumber{{Number: "69", NumUniques: 10}})

	if CandidateKey(a) != CandidateKey(b) {
		t.Errorf("candidate keys differ despite agreeing on every nonzero bucket: %v vs %v", CandidateKey(a), CandidateKey(b))
	}
}

func TestCandidateKeySortsNumbersNumerically(t *testing.T) {
	a := sub(1, baseTime, nil, []models.NiceNumber{
		{Number: "100", NumUniques: 10}, {Number: "9", NumUniques: 10},
	})
	b := sub(2, baseTime, nil, []models.NiceNumber{
		{Number: "9", NumUniques: 10}, {Number: "100", NumUniques: 10},
	})
	if CandidateKey(a) != CandidateKey(b) {
		t.Errorf("candidate keys should be order-independent: %v vs %v", CandidateKey(a), CandidateKey(b))
	}
}
