package ahe

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v5/utils/sampling"
)

// Encryptor produces fresh ciphertexts under a secret key. Only the key
// holder encrypts; evaluators work on ciphertexts without any key.
type Encryptor struct {
	params  Parameters
	sk      *SecretKey
	encoder *Encoder
	uniform *UniformSampler
	errgen  *ErrGen
}

func NewEncryptor(params Parameters, sk *SecretKey, prng sampling.PRNG) *Encryptor {
	return &Encryptor{
		params:  params,
		sk:      sk,
		encoder: NewEncoder(params),
		uniform: NewUniformSampler(prng),
		errgen:  NewErrorGenerator(params.Sigma(), params.NoiseBound(), prng),
	}
}

// EncryptNew encrypts m in [0, P).
func (enc Encryptor) EncryptNew(m uint64) (ct *Ciphertext, err error) {
	params := enc.params
	if m >= params.P() {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidPlaintext, m, params.P())
	}
	if len(enc.sk.Value) != params.N() {
		return nil, fmt.Errorf("%w: %w", ErrEncryption, &LengthMismatchError{Expected: params.N(), Actual: len(enc.sk.Value)})
	}

	ct = NewCiphertext(params)

	// mask and padding are independent uniform values in [0, Q)
	if err = enc.uniform.Read(params.Q(), ct.Value[1:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncryption, err)
	}

	e, err := enc.errgen.GenErr()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncryption, err)
	}

	// b = Delta*m + e + <a, s>
	ct.Value[0] = addMod(enc.encoder.Encode(m, e), innerProduct(ct.Mask(params), enc.sk.Value, params.Q()), params.Q())

	return ct, nil
}
