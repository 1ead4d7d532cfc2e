package ahe

import (
	"math"
	"math/big"

	"github.com/ALTree/bigfloat"
	"github.com/tuneinsight/lattigo/v5/utils/bignum"
)

const noisePrec = 128

// NoiseCeiling returns Delta/2, the noise magnitude at which decryption
// stops being correct.
func (params Parameters) NoiseCeiling() uint64 {
	return params.delta / 2
}

// WrapError returns Q - P*Delta, the error added each time a sum of
// plaintexts wraps around P.
func (params Parameters) WrapError() uint64 {
	return params.q - params.p*params.delta
}

// MaxAdditions returns how many fresh ciphertexts can be summed while the
// worst-case noise, k*(NoiseBound + WrapError), stays under NoiseCeiling.
// The guarantee is not enforced; past it decryption may silently wrap.
func (params Parameters) MaxAdditions() uint64 {
	perTerm := params.bound + params.WrapError()
	if perTerm == 0 {
		return math.MaxUint64
	}
	return (params.NoiseCeiling() - 1) / perTerm
}

// NoiseBudgetBits returns log2(NoiseCeiling/|noise|), the number of bits of
// headroom left before decryption fails. Zero noise is treated as 1.
func NoiseBudgetBits(params Parameters, noise int64) float64 {
	magnitude := uint64(noise)
	if noise < 0 {
		magnitude = uint64(-noise)
	}
	if magnitude == 0 {
		magnitude = 1
	}

	ceiling := new(big.Float).SetPrec(noisePrec).SetInt(bignum.NewInt(params.NoiseCeiling()))
	ratio := new(big.Float).SetPrec(noisePrec).Quo(ceiling, new(big.Float).SetPrec(noisePrec).SetInt(bignum.NewInt(magnitude)))

	log2 := bigfloat.Log(new(big.Float).SetPrec(noisePrec).SetInt64(2))
	bits := bigfloat.Log(ratio)
	bits.Quo(bits, log2)

	f, _ := bits.Float64()
	return f
}
