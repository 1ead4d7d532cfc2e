// Package ahe implements a small additive homomorphic encryption scheme over
// vectors of 2N coefficients modulo Q.
package ahe

import (
	"fmt"
	"math"

	"github.com/tuneinsight/lattigo/v5/ring"
)

// MaxModulus is the largest supported ciphertext modulus. Two reduced
// coefficients always sum below 2^64 under this bound.
const MaxModulus uint64 = 1 << 63

// DefaultParametersLiteral is the canonical parameter set.
var DefaultParametersLiteral = ParametersLiteral{
	N:  32,
	P:  65537,
	Q:  1 << 58,
	Xe: ring.DiscreteGaussian{Sigma: 3.19, Bound: 19.14},
}

// ParametersLiteral is the user-facing description of a parameter set.
// A zero Xe.Bound defaults to 6*Xe.Sigma.
type ParametersLiteral struct {
	N  int    // polynomial degree, ciphertexts have 2N coefficients
	P  uint64 // plaintext modulus
	Q  uint64 // ciphertext modulus
	Xe ring.DiscreteGaussian
}

type Parameters struct {
	n     int
	p     uint64
	q     uint64
	delta uint64
	sigma float64
	bound uint64
}

func NewParameters(lit ParametersLiteral) (params Parameters, err error) {
	switch {
	case lit.N < 1:
		return params, fmt.Errorf("invalid parameters: N=%d must be positive", lit.N)
	case lit.P < 2:
		return params, fmt.Errorf("invalid parameters: P=%d must be at least 2", lit.P)
	case lit.Q <= lit.P:
		return params, fmt.Errorf("invalid parameters: Q=%d must exceed P=%d", lit.Q, lit.P)
	case lit.Q > MaxModulus:
		return params, fmt.Errorf("invalid parameters: Q=%d exceeds 2^63", lit.Q)
	case lit.Xe.Sigma < 0 || math.IsNaN(lit.Xe.Sigma):
		return params, fmt.Errorf("invalid parameters: sigma=%v must be non-negative", lit.Xe.Sigma)
	}

	delta := lit.Q / lit.P
	if delta < 4 {
		return params, fmt.Errorf("invalid parameters: scaling factor Q/P=%d is too small", delta)
	}

	bound := lit.Xe.Bound
	if bound == 0 {
		bound = 6 * lit.Xe.Sigma
	}
	if bound < 0 || bound >= float64(delta/4) {
		return params, fmt.Errorf("invalid parameters: noise bound %v must be in [0, %d)", bound, delta/4)
	}

	return Parameters{
		n:     lit.N,
		p:     lit.P,
		q:     lit.Q,
		delta: delta,
		sigma: lit.Xe.Sigma,
		bound: uint64(math.Ceil(bound)),
	}, nil
}

// NewParametersFromLiteral is an alias of NewParameters that panics on error.
// It is meant for package-level variables and tests.
func NewParametersFromLiteral(lit ParametersLiteral) Parameters {
	params, err := NewParameters(lit)
	if err != nil {
		panic(err)
	}
	return params
}

func (params Parameters) N() int {
	return params.n
}

func (params Parameters) P() uint64 {
	return params.p
}

func (params Parameters) Q() uint64 {
	return params.q
}

// Delta returns the scaling factor floor(Q/P).
func (params Parameters) Delta() uint64 {
	return params.delta
}

func (params Parameters) Sigma() float64 {
	return params.sigma
}

// NoiseBound returns the largest magnitude of a fresh encryption error.
func (params Parameters) NoiseBound() uint64 {
	return params.bound
}

// CiphertextLen returns the number of coefficients of a ciphertext, 2N.
func (params Parameters) CiphertextLen() int {
	return 2 * params.n
}

// SerializedLen returns the byte size of a serialized ciphertext, 16N.
func (params Parameters) SerializedLen() int {
	return 8 * params.CiphertextLen()
}

func (params Parameters) ParametersLiteral() ParametersLiteral {
	return ParametersLiteral{
		N:  params.n,
		P:  params.p,
		Q:  params.q,
		Xe: ring.DiscreteGaussian{Sigma: params.sigma, Bound: float64(params.bound)},
	}
}

func (params Parameters) Equal(other Parameters) bool {
	return params == other
}

func (params Parameters) String() string {
	return fmt.Sprintf("N=%d/P=%d/Q=%d/sigma=%.2f", params.n, params.p, params.q, params.sigma)
}
