// Package consensus groups a field's independently submitted detailed
// results, elects a canon, and advances the field's check level.
package consensus

import (
	"math/big"
	"sort"
	"strings"

	"github.com/rawblock/nicefield/pkg/models"
)

// Flag records that a field's submissions tied for the largest agreeing
// group and consensus could not pick a canon without guessing. The
// tie-break abstains and surfaces the field for operator review, rather
// than silently picking whichever group the grouping happened to visit
// first.
type Flag struct {
	Reason    string
	GroupSize int
}

// Result is the outcome of running consensus once over a field's submissions.
type Result struct {
	// Canon is the elected submission, or nil if none (zero or tied groups).
	Canon *models.Submission
	// NewCheckLevel is the field's check level after this run.
	NewCheckLevel uint8
	// Flag is set when a tie prevented a canon from being chosen.
	Flag *Flag
	// Changed reports whether (canon id, check level) differs from the
	// field's current values — callers use this to skip a no-op write.
	Changed bool
}

// Input bundles the field's current consensus state with the qualified,
// detailed submissions to run consensus over.
type Input struct {
	CurrentCanonID    *int64
	CurrentCheckLevel uint8
	Submissions       []models.Submission // search_mode=detailed, disqualified=false
}

// CandidateKey derives the grouping key for a submission: its sorted
// shrunk distribution and sorted shrunk numbers. "Shrunk" drops
// zero-count distribution buckets, since two submissions that agree on
// every nonzero bucket but differ only in how many explicit zero entries
// they sent are the same result.
func CandidateKey(sub models.Submission) models.CandidateKey {
	dist := make([]models.DistributionBucket, 0, len(sub.Distribution))
	for _, b := range sub.Distribution {
		if b.Count > 0 {
			dist = append(dist, b)
		}
	}
	sort.Slice(dist, func(i, j int) bool { return dist[i].NumUniques < dist[j].NumUniques })

	nums := make([]models.NiceNumber, len(sub.Numbers))
	copy(nums, sub.Numbers)
	sort.Slice(nums, func(i, j int) bool {
		a, _ := new(big.Int).SetString(nums[i].Number, 10)
		b, _ := new(big.Int).SetString(nums[j].Number, 10)
		if a == nil || b == nil {
			return nums[i].Number < nums[j].Number
		}
		return a.Cmp(b) < 0
	})

	var db, nb strings.Builder
	for _, d := range dist {
		db.WriteString(itoa(d.NumUniques))
		db.WriteByte(':')
		db.WriteString(utoa(d.Count))
		db.WriteByte(',')
	}
	for _, n := range nums {
		nb.WriteString(n.Number)
		nb.WriteByte(':')
		nb.WriteString(itoa(n.NumUniques))
		nb.WriteByte(',')
	}
	return models.CandidateKey{DistributionKey: db.String(), NumbersKey: nb.String()}
}

func itoa(u uint32) string { return big.NewInt(int64(u)).String() }
func utoa(u uint64) string { return new(big.Int).SetUint64(u).String() }

// Run implements the consensus rules:
//
//	|S| = 0: canon = none, new_check_level = min(current, 1)
//	|S| = 1: canon = the one submission, new_check_level = 2
//	|S| >= 2: group by CandidateKey; the unique largest group elects its
//	          earliest-submit_time member as canon and advances check_level
//	          to min(|G*|+1, 255). A tie for largest group abstains: no
//	          canon change, check level unchanged, and a Flag is returned.
//
// Run is pure and idempotent: calling it twice on the same Input (with
// CurrentCanonID/CurrentCheckLevel updated to the first call's result)
// yields the same Result again.
func Run(in Input) Result {
	switch len(in.Submissions) {
	case 0:
		newCL := in.CurrentCheckLevel
		if newCL > 1 {
			newCL = 1
		}
		return Result{
			NewCheckLevel: newCL,
			Changed:       in.CurrentCanonID != nil || in.CurrentCheckLevel != newCL,
		}
	case 1:
		sub := in.Submissions[0]
		changed := in.CurrentCheckLevel != 2 || in.CurrentCanonID == nil || *in.CurrentCanonID != sub.SubmissionID
		return Result{Canon: &sub, NewCheckLevel: 2, Changed: changed}
	}

	groups := make(map[models.CandidateKey][]models.Submission)
	var order []models.CandidateKey
	for _, sub := range in.Submissions {
		k := CandidateKey(sub)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], sub)
	}

	largest := 0
	for _, k := range order {
		if n := len(groups[k]); n > largest {
			largest = n
		}
	}
	var winners []models.CandidateKey
	for _, k := range order {
		if len(groups[k]) == largest {
			winners = append(winners, k)
		}
	}

	if len(winners) != 1 {
		return Result{
			NewCheckLevel: in.CurrentCheckLevel,
			Flag:          &Flag{Reason: "tied largest agreement group", GroupSize: largest},
			Changed:       false,
		}
	}

	group := groups[winners[0]]
	canon := group[0]
	for _, sub := range group[1:] {
		if sub.SubmitTime.Before(canon.SubmitTime) {
			canon = sub
		}
	}
	newCL := largest + 1
	if newCL > 255 {
		newCL = 255
	}
	changed := in.CurrentCheckLevel != uint8(newCL) || in.CurrentCanonID == nil || *in.CurrentCanonID != canon.SubmissionID
	return Result{Canon: &canon, NewCheckLevel: uint8(newCL), Changed: changed}
}
