// Package models holds the wire- and storage-level shapes shared across the
// coordinator: bases, chunks, fields, claims and submissions.
package models

import (
	"time"

	"github.com/google/uuid"
)

// SearchMode distinguishes the two kernel modes a claim can be issued for.
type SearchMode string

const (
	SearchModeDetailed SearchMode = "detailed"
	SearchModeNiceonly  SearchMode = "niceonly"
)

// FieldClaimStrategy selects how the dispatcher picks the next eligible row.
type FieldClaimStrategy int

const (
	StrategyNext FieldClaimStrategy = iota
	StrategyRandom
)

// Base is one numeric base's top-level search range and cached rollup stats.
type Base struct {
	Base            uint32
	RangeStart      string // decimal string; may exceed 2^63
	RangeEnd        string
	RangeSize       string
	CheckedNiceonly string
	CheckedDetailed string
	MinimumCL       uint8
	NicenessMean    float64
	NicenessStdev   float64
	Distribution    map[uint32]uint64 // num_uniques -> count
	Numbers         map[string]uint32 // number (decimal) -> num_uniques
}

// Chunk is a contiguous group of fields inside a base, same cached-stats shape as Base.
type Chunk struct {
	ChunkID         int64
	Base            uint32
	RangeStart      string
	RangeEnd        string
	CheckedNiceonly string
	CheckedDetailed string
	MinimumCL       uint8
	NicenessMean    float64
	NicenessStdev   float64
	Distribution    map[uint32]uint64
	Numbers         map[string]uint32
}

// Field is a contiguous sub-range of a base, the unit of work handed to a worker.
type Field struct {
	FieldID            int64
	Base               uint32
	ChunkID            *int64
	RangeStart         string
	RangeEnd           string
	RangeSize          string
	LastClaimTime      *time.Time
	CanonSubmissionID  *int64
	CheckLevel         uint8
	Prioritize         bool
}

// Claim is an append-only record of an issued work assignment. PublicID is
// the non-sequential id handed to workers on the wire; ClaimID is the
// internal sequential id, never exposed.
type Claim struct {
	ClaimID    int64
	PublicID   uuid.UUID
	FieldID    int64
	SearchMode SearchMode
	ClaimTime  time.Time
	UserIP     string
}

// NiceNumber is one (number, num_uniques) pair strictly above the near-miss cutoff.
type NiceNumber struct {
	Number     string `json:"number"`
	NumUniques uint32 `json:"num_uniques"`
}

// DistributionBucket is one (num_uniques -> count) pair of a detailed submission.
type DistributionBucket struct {
	NumUniques uint32 `json:"num_uniques"`
	Count      uint64 `json:"count"`
}

// Submission is an append-only record of a returned result for a claim.
type Submission struct {
	SubmissionID  int64
	ClaimID       int64
	FieldID       int64
	SearchMode    SearchMode
	SubmitTime    time.Time
	ElapsedSecs   float64
	Username      string
	UserIP        string
	ClientVersion string
	Disqualified  bool
	Numbers       []NiceNumber
	Distribution  []DistributionBucket // present iff SearchMode == detailed
}

// CandidateKey is the derived grouping key used purely by consensus: the
// sorted-shrunk distribution and sorted-shrunk numbers of a submission. Two
// submissions collide iff their candidate keys are equal.
type CandidateKey struct {
	DistributionKey string
	NumbersKey      string
}
