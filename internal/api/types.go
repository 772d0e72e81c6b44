package api

import "github.com/rawblock/nicefield/pkg/models"

// ClaimResponse is the wire shape for GET /claim, /claim/detailed,
// /claim/niceonly. Range fields are decimal strings so they round-trip
// through JSON without precision loss.
type ClaimResponse struct {
	ClaimID    string `json:"claim_id"`
	Base       uint32 `json:"base"`
	RangeStart string `json:"range_start"`
	RangeEnd   string `json:"range_end"`
	RangeSize  string `json:"range_size"`
}

// ValidateClaimResponse extends ClaimResponse with the coordinator's own
// expected results, for workers that opt into a consistency check against
// their local kernel (GET /claim/validate).
type ValidateClaimResponse struct {
	ClaimResponse
	ExpectedNiceNumbers []models.NiceNumber `json:"expected_nice_numbers"`
}

// SubmitRequest is the worker's POST /submit body.
type SubmitRequest struct {
	ClaimID            string                      `json:"claim_id"`
	Username            string                     `json:"username"`
	ClientVersion       string                     `json:"client_version"`
	UniqueDistribution  []models.DistributionBucket `json:"unique_distribution,omitempty"`
	NiceNumbers         []models.NiceNumber         `json:"nice_numbers"`
}

// errorResponse is the typed error body every non-2xx response returns.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
