//go:build !cuda

package gpu

import (
	"math/big"

	"github.com/rawblock/nicefield/internal/kernel"
	"github.com/rs/zerolog/log"
)

// ProcessNiceonlyHardware is the CPU fallback loaded when the binary was
// built without the 'cuda' tag. It runs the identical candidate set through
// the same filter cascade as the GPU path would, just on the host.
func ProcessNiceonlyHardware(lo, hi *big.Int, base uint32) []NiceResult {
	log.Debug().Msg("GPU acceleration not compiled in; running niceonly kernel on CPU")
	nums := kernel.ProcessNiceonly(lo, hi, base)
	out := make([]NiceResult, len(nums))
	for i, n := range nums {
		out[i] = NiceResult{Number: n}
	}
	return out
}
