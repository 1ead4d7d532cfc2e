// Package executor provides an in-process executor that tallies a challenge
// payload homomorphically, without any key material.
package executor

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cryptlab/ahe-challenger/core/ahe"
	"github.com/cryptlab/ahe-challenger/protocol/challenger"
	"github.com/cryptlab/ahe-challenger/protocol/receipt"
)

var (
	ErrUnsupportedOperation = errors.New("unsupported operation")
	// ErrProgramMismatch reports a payload whose declared operations are not
	// the program the sealer attests to.
	ErrProgramMismatch = errors.New("declared operations do not match the sealed program")
)

// Local runs the declared operations over the payload ciphertexts and seals
// the emitted tallies.
type Local struct {
	sealer      *receipt.Sealer
	logger      *zap.Logger
	programName string
}

type Option func(*Local)

// WithProgramName sets the name hashed with the declared operations. It must
// match the name the challenger was configured with.
func WithProgramName(name string) Option {
	return func(l *Local) { l.programName = name }
}

func NewLocal(sealer *receipt.Sealer, logger *zap.Logger, opts ...Option) *Local {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Local{sealer: sealer, logger: logger, programName: challenger.DefaultProgramName}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Local) checkProgram(ops []challenger.Operation) error {
	for i, op := range ops {
		switch op {
		case challenger.OpHomomorphicAdd, challenger.OpEmitTally:
		default:
			return fmt.Errorf("operation %d: %w: %q", i, ErrUnsupportedOperation, op)
		}
	}
	if challenger.ProgramIDFor(l.programName, ops) != l.sealer.Program() {
		return fmt.Errorf("%w: %s", ErrProgramMismatch, l.sealer.Program())
	}
	return nil
}

// Execute implements challenger.Executor.
func (l *Local) Execute(ctx context.Context, payload *challenger.Payload) (*challenger.ExecutionResult, error) {
	if payload == nil {
		return nil, fmt.Errorf("nil payload")
	}

	params, err := payload.Parameters.Scheme()
	if err != nil {
		return nil, fmt.Errorf("payload parameters: %w", err)
	}

	if err := l.checkProgram(payload.Operations); err != nil {
		return nil, err
	}

	inputs := make([]*ahe.Ciphertext, len(payload.Ciphertexts))
	for i, data := range payload.Ciphertexts {
		if inputs[i], err = ahe.DeserializeCiphertext(params, data); err != nil {
			return nil, fmt.Errorf("ciphertext %d: %w", i, err)
		}
	}

	eval := ahe.NewEvaluator(params)
	acc := ahe.NewCiphertext(params)

	var results [][]byte
	for _, op := range payload.Operations {
		switch op {
		case challenger.OpHomomorphicAdd:
			for i, ct := range inputs {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				if err := eval.Add(acc, ct, acc); err != nil {
					return nil, fmt.Errorf("ciphertext %d: %w", i, err)
				}
			}
		case challenger.OpEmitTally:
			results = append(results, ahe.SerializeCiphertext(acc))
		}
	}

	rcpt, err := l.sealer.Seal(results)
	if err != nil {
		return nil, fmt.Errorf("sealing receipt: %w", err)
	}

	l.logger.Debug("payload executed",
		zap.Int("ciphertexts", len(payload.Ciphertexts)),
		zap.Int("results", len(results)),
		zap.Stringer("program", l.sealer.Program()),
	)

	return &challenger.ExecutionResult{Receipt: rcpt, ResultCiphertexts: results}, nil
}
