package ahe

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPlaintext = errors.New("plaintext out of range")
	ErrLengthMismatch   = errors.New("ciphertext length mismatch")
	ErrKeyGeneration    = errors.New("key generation failed")
	ErrEncryption       = errors.New("encryption failed")
	ErrDecryption       = errors.New("decryption failed")

	// ErrNoiseOverflow reports a phase that does not round to a value in
	// [0, P). Noise past Delta/2 that wraps to a legitimate value cannot be
	// detected from the ciphertext alone.
	ErrNoiseOverflow = errors.New("noise overflow")
)

// LengthMismatchError is returned when a ciphertext or its serialization
// does not have the length required by the parameters.
type LengthMismatchError struct {
	Expected int
	Actual   int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %d, got %d", ErrLengthMismatch, e.Expected, e.Actual)
}

func (e *LengthMismatchError) Is(target error) bool {
	return target == ErrLengthMismatch
}
