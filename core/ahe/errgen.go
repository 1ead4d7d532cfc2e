package ahe

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"

	"github.com/tuneinsight/lattigo/v5/utils/sampling"
)

// UniformSampler draws integers uniformly from [0, bound) by masked
// rejection sampling over the bytes of a PRNG.
type UniformSampler struct {
	prng sampling.PRNG
	buf  [8]byte
}

func NewUniformSampler(prng sampling.PRNG) *UniformSampler {
	return &UniformSampler{prng: prng}
}

func (us *UniformSampler) Uint64() (uint64, error) {
	if _, err := us.prng.Read(us.buf[:]); err != nil {
		return 0, fmt.Errorf("reading randomness: %w", err)
	}
	return binary.LittleEndian.Uint64(us.buf[:]), nil
}

// Sample returns a value in [0, bound). bound must be positive.
func (us *UniformSampler) Sample(bound uint64) (uint64, error) {
	if bound == 1 {
		return 0, nil
	}
	mask := uint64(1)<<bits.Len64(bound-1) - 1
	for {
		v, err := us.Uint64()
		if err != nil {
			return 0, err
		}
		if v &= mask; v < bound {
			return v, nil
		}
	}
}

// Read fills out with values in [0, bound).
func (us *UniformSampler) Read(bound uint64, out []uint64) error {
	for i := range out {
		v, err := us.Sample(bound)
		if err != nil {
			return err
		}
		out[i] = v
	}
	return nil
}

// ErrGen samples rounded Gaussian errors of standard deviation stdev,
// rejecting samples whose magnitude exceeds bound.
type ErrGen struct {
	stdev   float64
	bound   uint64
	uniform *UniformSampler
}

func NewErrorGenerator(stdev float64, bound uint64, prng sampling.PRNG) *ErrGen {
	return &ErrGen{stdev: stdev, bound: bound, uniform: NewUniformSampler(prng)}
}

func (erg *ErrGen) GenErr() (int64, error) {
	if erg.stdev == 0 {
		return 0, nil
	}
	for {
		// Box-Muller over two uniforms in (0, 1].
		u1, err := erg.unitFloat()
		if err != nil {
			return 0, err
		}
		u2, err := erg.unitFloat()
		if err != nil {
			return 0, err
		}
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
		e := int64(math.Round(z * erg.stdev))
		if e <= int64(erg.bound) && e >= -int64(erg.bound) {
			return e, nil
		}
	}
}

func (erg *ErrGen) unitFloat() (float64, error) {
	v, err := erg.uniform.Uint64()
	if err != nil {
		return 0, err
	}
	return float64(v>>11+1) / (1 << 53), nil
}
