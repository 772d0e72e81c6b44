package store

import (
	"encoding/json"

	"github.com/rawblock/nicefield/pkg/models"
)

// Stats columns on base/chunk use the same JSON shape as submissions'
// distribution/numbers, for round-trip simplicity.

func numbersToJSON(n []models.NiceNumber) []byte {
	b, _ := json.Marshal(n)
	return b
}

func numbersFromJSON(b []byte) []models.NiceNumber {
	if len(b) == 0 {
		return nil
	}
	var n []models.NiceNumber
	_ = json.Unmarshal(b, &n)
	return n
}

func distributionToJSON(d []models.DistributionBucket) []byte {
	if d == nil {
		return []byte("null")
	}
	b, _ := json.Marshal(d)
	return b
}

func distributionFromJSON(b []byte) []models.DistributionBucket {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	var d []models.DistributionBucket
	_ = json.Unmarshal(b, &d)
	return d
}

// distributionMapToJSON / distributionMapFromJSON round-trip a base/chunk's
// cached distribution, stored as the same [{num_uniques,count}] shape as a
// submission's distribution for round-trip simplicity, but kept
// in memory as map[uint32]uint64 since base/chunk stats are looked up by
// bucket rather than iterated in submit order.
func distributionMapToJSON(m map[uint32]uint64) []byte {
	if m == nil {
		return []byte("null")
	}
	buckets := make([]models.DistributionBucket, 0, len(m))
	for u, c := range m {
		buckets = append(buckets, models.DistributionBucket{NumUniques: u, Count: c})
	}
	b, _ := json.Marshal(buckets)
	return b
}

func distributionMapFromJSON(b []byte) map[uint32]uint64 {
	buckets := distributionFromJSON(b)
	if buckets == nil {
		return nil
	}
	m := make(map[uint32]uint64, len(buckets))
	for _, bucket := range buckets {
		m[bucket.NumUniques] = bucket.Count
	}
	return m
}

func numbersMapToJSON(m map[string]uint32) []byte {
	if m == nil {
		return []byte("null")
	}
	nums := make([]models.NiceNumber, 0, len(m))
	for n, u := range m {
		nums = append(nums, models.NiceNumber{Number: n, NumUniques: u})
	}
	b, _ := json.Marshal(nums)
	return b
}

func numbersMapFromJSON(b []byte) map[string]uint32 {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	var nums []models.NiceNumber
	_ = json.Unmarshal(b, &nums)
	m := make(map[string]uint32, len(nums))
	for _, n := range nums {
		m[n.Number] = n.NumUniques
	}
	return m
}
