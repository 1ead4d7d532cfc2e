// Package session drives repeated challenge rounds between a Challenger and
// an Executor and aggregates their outcomes.
package session

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/cryptlab/ahe-challenger/core/ahe"
	"github.com/cryptlab/ahe-challenger/protocol/challenger"
)

// DefaultTimeout bounds a single executor call.
const DefaultTimeout = 30 * time.Second

// Round is the record of one challenge round.
type Round struct {
	Index    int
	TestID   string
	Count    int
	Result   *challenger.VerificationResult
	Duration time.Duration
}

type Runner struct {
	challenger *challenger.Challenger
	executor   challenger.Executor
	timeout    time.Duration
	logger     *zap.Logger

	rounds []*Round
}

// NewRunner returns a Runner. A non-positive timeout selects DefaultTimeout.
func NewRunner(c *challenger.Challenger, exec challenger.Executor, timeout time.Duration, logger *zap.Logger) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		challenger: c,
		executor:   exec,
		timeout:    timeout,
		logger:     logger,
	}
}

// Run executes one round of count challenge plaintexts. The returned error
// only reports a round that could not be set up; protocol failures are
// carried by Round.Result.
func (r *Runner) Run(ctx context.Context, testID string, count int) (*Round, error) {
	start := time.Now()

	ch, err := r.challenger.CreateChallenge(testID, count)
	if err != nil {
		return nil, fmt.Errorf("creating challenge %q: %w", testID, err)
	}
	payload, err := r.challenger.Dispatch(ch)
	if err != nil {
		return nil, fmt.Errorf("dispatching challenge %q: %w", testID, err)
	}

	round := &Round{Index: len(r.rounds), TestID: testID, Count: count}

	out, err := r.execute(ctx, payload)
	if err != nil {
		r.logger.Warn("executor failed", zap.String("testID", testID), zap.Error(err))
		round.Result = r.challenger.RecordExecutorFailure(ch, err)
	} else {
		round.Result = r.challenger.VerifyResult(ch, out.Receipt, out.ResultCiphertexts)
	}
	round.Duration = time.Since(start)

	r.rounds = append(r.rounds, round)
	r.logger.Info("round complete",
		zap.Int("round", round.Index),
		zap.String("testID", testID),
		zap.Bool("success", round.Result.Success),
		zap.Duration("duration", round.Duration),
	)
	return round, nil
}

func (r *Runner) execute(ctx context.Context, payload *challenger.Payload) (*challenger.ExecutionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, err := r.executor.Execute(ctx, payload)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("executor returned no result")
	}
	return out, nil
}

// RunAll executes rounds rounds named testID-0, testID-1, ... and stops at
// the first setup error or context cancellation.
func (r *Runner) RunAll(ctx context.Context, testID string, rounds, count int) error {
	for i := 0; i < rounds; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := r.Run(ctx, fmt.Sprintf("%s-%d", testID, i), count); err != nil {
			return err
		}
	}
	return nil
}

// Rounds returns the history of completed rounds.
func (r *Runner) Rounds() []*Round {
	return slices.Clone(r.rounds)
}

type Summary struct {
	Rounds int `json:"rounds"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`

	// noise statistics over the magnitude of every decrypted result
	NoiseMean   float64 `json:"noise_mean"`
	NoiseMax    float64 `json:"noise_max"`
	NoiseStdDev float64 `json:"noise_std_dev"`

	// BudgetBits is the noise budget left at the worst observed noise.
	BudgetBits float64 `json:"budget_bits"`

	// Failures maps a failed round's index to its error.
	Failures map[int]string `json:"failures,omitempty"`
}

func (r *Runner) Summary() (s Summary) {
	s.Rounds = len(r.rounds)

	var noise stats.Float64Data
	for _, round := range r.rounds {
		if round.Result.Success {
			s.Passed++
		} else {
			s.Failed++
			if s.Failures == nil {
				s.Failures = map[int]string{}
			}
			s.Failures[round.Index] = round.Result.Err.Error()
		}
		for _, e := range round.Result.Noise {
			noise = append(noise, math.Abs(float64(e)))
		}
	}

	params := r.challenger.Parameters()
	if noise.Len() == 0 {
		s.BudgetBits = ahe.NoiseBudgetBits(params, 0)
		return
	}

	// errors are only returned for empty input
	s.NoiseMean, _ = noise.Mean()
	s.NoiseMax, _ = noise.Max()
	s.NoiseStdDev, _ = noise.StandardDeviation()
	s.BudgetBits = ahe.NoiseBudgetBits(params, int64(s.NoiseMax))
	return
}
