package ahe

import (
	"fmt"
)

type Decryptor struct {
	params  Parameters
	sk      *SecretKey
	decoder *Decoder
}

func NewDecryptor(params Parameters, sk *SecretKey) *Decryptor {
	return &Decryptor{
		params:  params,
		sk:      sk,
		decoder: NewDecoder(params),
	}
}

// Phase returns b - <a, s> mod Q, i.e. Delta*m + e.
func (dec Decryptor) Phase(ct *Ciphertext) (uint64, error) {
	params := dec.params
	if ct == nil {
		return 0, fmt.Errorf("%w: nil ciphertext", ErrDecryption)
	}
	if ct.Len() != params.CiphertextLen() {
		return 0, fmt.Errorf("%w: %w", ErrDecryption, &LengthMismatchError{Expected: params.CiphertextLen(), Actual: ct.Len()})
	}
	if len(dec.sk.Value) != params.N() {
		return 0, fmt.Errorf("%w: secret key has %d coefficients, want %d", ErrDecryption, len(dec.sk.Value), params.N())
	}
	return subMod(ct.Body(), innerProduct(ct.Mask(params), dec.sk.Value, params.Q()), params.Q()), nil
}

// DecryptNew returns the plaintext of ct, or ErrNoiseOverflow when the phase
// does not round into [0, P).
func (dec Decryptor) DecryptNew(ct *Ciphertext) (uint64, error) {
	m, _, err := dec.DecryptWithNoise(ct)
	return m, err
}

// Noise returns the signed error carried by ct.
func (dec Decryptor) Noise(ct *Ciphertext) (int64, error) {
	_, e, err := dec.DecryptWithNoise(ct)
	return e, err
}

// DecryptWithNoise returns both the plaintext and the signed error of ct.
func (dec Decryptor) DecryptWithNoise(ct *Ciphertext) (m uint64, e int64, err error) {
	v, err := dec.Phase(ct)
	if err != nil {
		return 0, 0, err
	}
	return dec.decoder.Decode(v)
}
