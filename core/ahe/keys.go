package ahe

import (
	"golang.org/x/exp/slices"
)

// SecretKey holds N coefficients in [0, P). It never leaves its owner.
type SecretKey struct {
	Value []uint64
}

// PublicKey holds N coefficients in [0, Q).
type PublicKey struct {
	Value []uint64
}

func NewSecretKey(params Parameters) *SecretKey {
	return &SecretKey{Value: make([]uint64, params.N())}
}

func NewPublicKey(params Parameters) *PublicKey {
	return &PublicKey{Value: make([]uint64, params.N())}
}

func (sk *SecretKey) CopyNew() *SecretKey {
	return &SecretKey{Value: slices.Clone(sk.Value)}
}

func (sk *SecretKey) Equal(other *SecretKey) bool {
	return slices.Equal(sk.Value, other.Value)
}

func (pk *PublicKey) CopyNew() *PublicKey {
	return &PublicKey{Value: slices.Clone(pk.Value)}
}

func (pk *PublicKey) Equal(other *PublicKey) bool {
	return slices.Equal(pk.Value, other.Value)
}
