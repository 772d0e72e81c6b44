// Package gpu dispatches the niceonly kernel to CUDA when built with the
// 'cuda' tag, and falls back to the CPU filter cascade otherwise. The
// worker decides CPU vs GPU; the coordinator that issues and accepts
// fields is unaware of which path produced a submission — the wire
// schema is identical either way.
package gpu

import "math/big"

// BatchSize is the maximum number of candidates offloaded to a single CUDA
// launch. CUDA has no u128/u256 runtime, so each batch's [lo, hi) boundary
// is staged as a pair of uint256 host values and split further into the
// 64-bit limbs the kernel bindings expect.
const BatchSize = 50_000_000

// ThreadsPerBlock is the CUDA launch configuration per batch.
const ThreadsPerBlock = 256

// NiceResult is one nice number found by a GPU batch, staged back from the
// device as a 256-bit integer before being narrowed to big.Int on return.
type NiceResult struct {
	Number *big.Int
}
