package challenger

import (
	"errors"
	"fmt"
)

var (
	ErrReceiptInvalid     = errors.New("receipt invalid")
	ErrArithmeticMismatch = errors.New("arithmetic mismatch")
	ErrExecutorFailed     = errors.New("executor failed")
	ErrInvalidState       = errors.New("invalid challenger state")
	ErrEmptyChallenge     = errors.New("challenge has no plaintexts")
	ErrNoResults          = errors.New("no result ciphertexts")

	// ErrNoiseOverflowSuspected is returned when a decrypted value cannot be
	// a legitimate tally of the challenge, which is how noise past the
	// correctness bound shows up once it has wrapped.
	ErrNoiseOverflowSuspected = errors.New("noise overflow suspected")
)

// VerificationError locates a failure on a specific result ciphertext.
type VerificationError struct {
	Index int
	Err   error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("result %d: %v", e.Index, e.Err)
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

type ArithmeticMismatchError struct {
	Expected uint64
	Actual   uint64
}

func (e *ArithmeticMismatchError) Error() string {
	return fmt.Sprintf("%s: expected sum %d, got %d", ErrArithmeticMismatch, e.Expected, e.Actual)
}

func (e *ArithmeticMismatchError) Is(target error) bool {
	return target == ErrArithmeticMismatch
}
