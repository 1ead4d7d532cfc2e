package ahe

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v5/utils/sampling"
)

type KeyGenerator struct {
	params  Parameters
	uniform *UniformSampler
}

// NewKeyGenerator creates a KeyGenerator drawing from prng. Production
// callers must use a PRNG keyed from a secure source, e.g. sampling.NewPRNG.
func NewKeyGenerator(params Parameters, prng sampling.PRNG) *KeyGenerator {
	return &KeyGenerator{
		params:  params,
		uniform: NewUniformSampler(prng),
	}
}

// GenSecretKeyNew samples N coefficients uniformly in [0, P).
func (kgen KeyGenerator) GenSecretKeyNew() (sk *SecretKey, err error) {
	sk = NewSecretKey(kgen.params)
	if err = kgen.uniform.Read(kgen.params.P(), sk.Value); err != nil {
		return nil, fmt.Errorf("%w: secret key: %w", ErrKeyGeneration, err)
	}
	return sk, nil
}

// GenPublicKeyNew samples N coefficients uniformly in [0, Q).
func (kgen KeyGenerator) GenPublicKeyNew() (pk *PublicKey, err error) {
	pk = NewPublicKey(kgen.params)
	if err = kgen.uniform.Read(kgen.params.Q(), pk.Value); err != nil {
		return nil, fmt.Errorf("%w: public key: %w", ErrKeyGeneration, err)
	}
	return pk, nil
}

// GenKeyPairNew samples both keys, each coefficient independently.
func (kgen KeyGenerator) GenKeyPairNew() (pk *PublicKey, sk *SecretKey, err error) {
	if sk, err = kgen.GenSecretKeyNew(); err != nil {
		return nil, nil, err
	}
	if pk, err = kgen.GenPublicKeyNew(); err != nil {
		return nil, nil, err
	}
	return pk, sk, nil
}
