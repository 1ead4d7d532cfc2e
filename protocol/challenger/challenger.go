// Package challenger implements the key-holding side of the verification
// protocol. A Challenger issues encrypted challenges to an untrusted
// executor and checks the returned tallies by decryption. Its secret key
// never leaves the instance.
package challenger

import (
	"fmt"
	"time"

	"github.com/tuneinsight/lattigo/v5/utils/sampling"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/cryptlab/ahe-challenger/core/ahe"
	"github.com/cryptlab/ahe-challenger/protocol/receipt"
)

// DefaultDomain is the number of vote options, plaintexts are drawn from
// {0, 1, 2}.
const DefaultDomain = 3

type plaintextDecryptor interface {
	DecryptWithNoise(ct *ahe.Ciphertext) (uint64, int64, error)
}

type options struct {
	prng        sampling.PRNG
	logger      *zap.Logger
	programName string
	operations  []Operation
	domain      uint64
	now         func() time.Time
}

type Option func(*options)

// WithPRNG sets the randomness source used for keys, plaintext sampling and
// encryption. It defaults to sampling.NewPRNG, keyed from crypto/rand.
func WithPRNG(prng sampling.PRNG) Option {
	return func(o *options) { o.prng = prng }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithProgram sets the program name and declared operation sequence the
// executor's receipt must attest to.
func WithProgram(name string, ops ...Operation) Option {
	return func(o *options) {
		o.programName = name
		o.operations = ops
	}
}

// WithDomain sets the number of values challenge plaintexts are drawn from.
func WithDomain(domain uint64) Option {
	return func(o *options) { o.domain = domain }
}

func withClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

type Challenger struct {
	params    ahe.Parameters
	pk        *ahe.PublicKey
	sk        *ahe.SecretKey
	encryptor *ahe.Encryptor
	decryptor plaintextDecryptor
	uniform   *ahe.UniformSampler

	verifier   ReceiptVerifier
	program    receipt.ProgramID
	operations []Operation
	domain     uint64

	logger *zap.Logger
	now    func() time.Time

	state State
	log   []string

	// current is the challenge of the open round and outcome its verdict
	// once the round is terminal.
	current *Challenge
	outcome *VerificationResult
}

// New generates a fresh keypair and returns a Challenger in state
// KeysGenerated.
func New(params ahe.Parameters, verifier ReceiptVerifier, opts ...Option) (*Challenger, error) {
	if verifier == nil {
		return nil, fmt.Errorf("challenger: nil receipt verifier")
	}

	o := options{
		logger:      zap.NewNop(),
		programName: DefaultProgramName,
		operations:  DefaultOperations,
		domain:      DefaultDomain,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.domain < 2 || o.domain > params.P() {
		return nil, fmt.Errorf("challenger: domain %d must be in [2, %d]", o.domain, params.P())
	}

	if o.prng == nil {
		var err error
		if o.prng, err = sampling.NewPRNG(); err != nil {
			return nil, fmt.Errorf("challenger: %w: %w", ahe.ErrKeyGeneration, err)
		}
	}

	pk, sk, err := ahe.NewKeyGenerator(params, o.prng).GenKeyPairNew()
	if err != nil {
		return nil, fmt.Errorf("challenger: %w", err)
	}

	c := &Challenger{
		params:     params,
		pk:         pk,
		sk:         sk,
		encryptor:  ahe.NewEncryptor(params, sk, o.prng),
		decryptor:  ahe.NewDecryptor(params, sk),
		uniform:    ahe.NewUniformSampler(o.prng),
		verifier:   verifier,
		program:    ProgramIDFor(o.programName, o.operations),
		operations: slices.Clone(o.operations),
		domain:     o.domain,
		logger:     o.logger,
		now:        o.now,
		state:      KeysGenerated,
	}

	c.logger.Info("challenger keys generated",
		zap.Stringer("params", params),
		zap.Stringer("program", c.program),
	)
	c.appendLog("keys generated (%s)", params)

	return c, nil
}

func (c *Challenger) Parameters() ahe.Parameters {
	return c.params
}

// PublicKey returns a copy of the public key.
func (c *Challenger) PublicKey() *ahe.PublicKey {
	return c.pk.CopyNew()
}

func (c *Challenger) ProgramID() receipt.ProgramID {
	return c.program
}

func (c *Challenger) Domain() uint64 {
	return c.domain
}

func (c *Challenger) State() State {
	return c.state
}

// Log returns a copy of the session log.
func (c *Challenger) Log() []string {
	return slices.Clone(c.log)
}

func (c *Challenger) appendLog(format string, args ...interface{}) {
	c.log = append(c.log, fmt.Sprintf(format, args...))
}

// CreateChallenge samples count plaintexts uniformly from [0, domain) and
// encrypts them.
func (c *Challenger) CreateChallenge(testID string, count int) (*Challenge, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: count %d", ErrEmptyChallenge, count)
	}
	plaintexts := make([]uint64, count)
	if err := c.uniform.Read(c.domain, plaintexts); err != nil {
		return nil, fmt.Errorf("sampling plaintexts: %w", err)
	}
	return c.CreateChallengeFromPlaintexts(testID, plaintexts)
}

// CreateChallengeFromPlaintexts encrypts caller-chosen plaintexts, each in
// [0, domain).
func (c *Challenger) CreateChallengeFromPlaintexts(testID string, plaintexts []uint64) (*Challenge, error) {
	if !c.state.canCreate() {
		return nil, fmt.Errorf("%w: cannot create a challenge in state %s", ErrInvalidState, c.state)
	}
	if len(plaintexts) == 0 {
		return nil, ErrEmptyChallenge
	}
	// an honest tally must not wrap around P
	if maxTally := uint64(len(plaintexts)) * (c.domain - 1); maxTally >= c.params.P() {
		return nil, fmt.Errorf("challenge of %d plaintexts can tally to %d, not below P=%d", len(plaintexts), maxTally, c.params.P())
	}

	ciphertexts := make([][]byte, len(plaintexts))
	for i, m := range plaintexts {
		if m >= c.domain {
			return nil, fmt.Errorf("plaintext %d: %w: %d not in [0, %d)", i, ahe.ErrInvalidPlaintext, m, c.domain)
		}
		ct, err := c.encryptor.EncryptNew(m)
		if err != nil {
			return nil, fmt.Errorf("plaintext %d: %w", i, err)
		}
		ciphertexts[i] = ahe.SerializeCiphertext(ct)
	}

	challenge := &Challenge{
		Parameters:  NewWireParameters(c.params),
		PublicKey:   slices.Clone(c.pk.Value),
		Ciphertexts: ciphertexts,
		Metadata: Metadata{
			TestID:              testID,
			ChallengePlaintexts: slices.Clone(plaintexts),
			ExpectedOperations:  slices.Clone(c.operations),
			Domain:              c.domain,
			CreatedAt:           c.now(),
		},
	}

	c.state = ChallengeCreated
	c.current = challenge
	c.outcome = nil
	c.logger.Info("challenge created",
		zap.String("testID", testID),
		zap.Int("ciphertexts", len(ciphertexts)),
	)
	c.appendLog("challenge %q created with %d ciphertexts", testID, len(ciphertexts))

	return challenge, nil
}

// Dispatch returns the payload to hand to the executor and moves the
// Challenger to AwaitingExecutorResult.
func (c *Challenger) Dispatch(challenge *Challenge) (*Payload, error) {
	if c.state != ChallengeCreated && c.state != AwaitingExecutorResult {
		return nil, fmt.Errorf("%w: cannot dispatch in state %s", ErrInvalidState, c.state)
	}
	if challenge == nil {
		return nil, ErrEmptyChallenge
	}
	if challenge != c.current {
		return nil, fmt.Errorf("%w: challenge %q is not the open round", ErrInvalidState, challenge.Metadata.TestID)
	}
	c.state = AwaitingExecutorResult
	c.logger.Debug("challenge dispatched", zap.String("testID", challenge.Metadata.TestID))
	c.appendLog("challenge %q dispatched", challenge.Metadata.TestID)
	return challenge.Payload(), nil
}
