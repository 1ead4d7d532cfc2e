package challenger

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/exp/constraints"

	"github.com/cryptlab/ahe-challenger/core/ahe"
)

func sum[T constraints.Integer](values []T) (s T) {
	for _, v := range values {
		s += v
	}
	return
}

// VerifyResult checks an executor's answer to challenge.
//
// The receipt is checked first, against the program identity and the result
// ciphertexts, and nothing is decrypted when it is invalid. Result
// ciphertexts are then deserialized and decrypted in order, stopping at the
// first failure. Finally the sum of the decrypted results must equal the sum
// of the challenge plaintexts.
//
// Once a round is Verified or Failed its outcome is fixed: later calls for
// the same challenge return a copy of it until a new challenge is created.
func (c *Challenger) VerifyResult(challenge *Challenge, rcpt []byte, results [][]byte) *VerificationResult {
	if res := c.checkRound(challenge); res != nil {
		return res
	}

	res := &VerificationResult{}
	testID := challenge.Metadata.TestID

	if !c.verifier.VerifyReceipt(rcpt, c.program, results) {
		res.Err = ErrReceiptInvalid
		res.Log = append(res.Log, "RECEIPT_INVALID")
		return c.finish(res, zap.String("testID", testID))
	}
	res.Log = append(res.Log, fmt.Sprintf("receipt valid for program %s", c.program))

	if len(results) == 0 {
		res.Err = ErrNoResults
		res.Log = append(res.Log, "NO_RESULTS")
		return c.finish(res, zap.String("testID", testID))
	}

	maxTally := challenge.Metadata.MaxTally()
	decrypted := make([]uint64, 0, len(results))
	noise := make([]int64, 0, len(results))

	for i, data := range results {
		ct, err := ahe.DeserializeCiphertext(c.params, data)
		if err != nil {
			return c.fail(res, i, err, testID)
		}

		m, e, err := c.decryptor.DecryptWithNoise(ct)
		if err != nil {
			if errors.Is(err, ahe.ErrNoiseOverflow) {
				err = fmt.Errorf("%w: %w", ErrNoiseOverflowSuspected, err)
			}
			return c.fail(res, i, err, testID)
		}

		if m > maxTally {
			return c.fail(res, i, fmt.Errorf("%w: decrypted %d exceeds largest tally %d", ErrNoiseOverflowSuspected, m, maxTally), testID)
		}

		decrypted = append(decrypted, m)
		noise = append(noise, e)
		res.Log = append(res.Log, fmt.Sprintf("result %d: decrypted to %d", i+1, m))
	}

	res.DecryptedResults = decrypted
	res.Noise = noise

	expected := sum(challenge.Metadata.ChallengePlaintexts)
	actual := sum(decrypted)

	if expected != actual {
		res.Err = &ArithmeticMismatchError{Expected: expected, Actual: actual}
		res.Log = append(res.Log, fmt.Sprintf("ARITHMETIC_MISMATCH: expected sum %d, got %d", expected, actual))
		return c.finish(res, zap.String("testID", testID))
	}

	res.Success = true
	res.Log = append(res.Log, fmt.Sprintf("sum check passed: %d = %d", expected, actual))
	res.Log = append(res.Log, "homomorphic addition verified")
	return c.finish(res, zap.String("testID", testID))
}

func (c *Challenger) fail(res *VerificationResult, index int, err error, testID string) *VerificationResult {
	res.Err = &VerificationError{Index: index, Err: err}
	res.Log = append(res.Log, fmt.Sprintf("result %d: %v", index+1, err))
	return c.finish(res, zap.String("testID", testID), zap.Int("index", index))
}

// checkRound returns the answer for a challenge that cannot be verified
// now: the settled outcome of a closed round, or an error. It returns nil
// when challenge is the open round.
func (c *Challenger) checkRound(challenge *Challenge) *VerificationResult {
	if challenge == nil {
		return &VerificationResult{Err: ErrEmptyChallenge, Log: []string{"EMPTY_CHALLENGE"}}
	}
	if challenge == c.current && c.outcome != nil {
		c.appendLog("round %q already settled: %s", challenge.Metadata.TestID, c.outcome)
		return c.outcome.CopyNew()
	}
	if !c.state.canVerify() || challenge != c.current {
		return &VerificationResult{
			Err: fmt.Errorf("%w: cannot verify challenge %q in state %s", ErrInvalidState, challenge.Metadata.TestID, c.state),
			Log: []string{"INVALID_STATE"},
		}
	}
	return nil
}

// finish closes the round with res.
func (c *Challenger) finish(res *VerificationResult, fields ...zap.Field) *VerificationResult {
	c.state = res.State()
	c.outcome = res.CopyNew()
	if res.Success {
		c.logger.Info("result verified", append(fields, zap.Int("results", len(res.DecryptedResults)))...)
		c.appendLog("verified %d results", len(res.DecryptedResults))
	} else {
		c.logger.Warn("result rejected", append(fields, zap.Error(res.Err))...)
		c.appendLog("rejected: %v", res.Err)
	}
	return res
}

// RecordExecutorFailure closes the round of challenge as failed when the
// executor returned no result.
func (c *Challenger) RecordExecutorFailure(challenge *Challenge, cause error) *VerificationResult {
	if res := c.checkRound(challenge); res != nil {
		return res
	}
	res := &VerificationResult{
		Err: fmt.Errorf("%w: %w", ErrExecutorFailed, cause),
		Log: []string{"EXECUTOR_FAILED"},
	}
	return c.finish(res, zap.String("testID", challenge.Metadata.TestID))
}
