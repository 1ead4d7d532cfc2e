package challenger

import (
	"context"
	"fmt"
	"time"

	"github.com/tuneinsight/lattigo/v5/ring"
	"golang.org/x/exp/slices"

	"github.com/cryptlab/ahe-challenger/core/ahe"
	"github.com/cryptlab/ahe-challenger/protocol/receipt"
)

// Operation names a step of the computation the executor declares.
type Operation string

const (
	OpHomomorphicAdd Operation = "HomomorphicAdd"
	OpEmitTally      Operation = "EmitTally"
)

// DefaultOperations is the declared sequence of the tally program.
var DefaultOperations = []Operation{OpHomomorphicAdd, OpEmitTally}

// DefaultProgramName is hashed with the declared operations into the
// expected program identity.
const DefaultProgramName = "ahe-tally/v1"

// ProgramIDFor returns the identity of program name running ops.
func ProgramIDFor(name string, ops []Operation) receipt.ProgramID {
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = string(op)
	}
	return receipt.NewProgramID(name, names...)
}

// Parameters is the wire form of the scheme parameters.
type Parameters struct {
	PlaintextModulus  uint64  `json:"plaintext_modulus"`
	CiphertextModulus uint64  `json:"ciphertext_modulus"`
	PolynomialDegree  int     `json:"polynomial_degree"`
	NoiseStdDev       float64 `json:"noise_std_dev"`
	NoiseBound        float64 `json:"noise_bound"`
}

func NewWireParameters(params ahe.Parameters) Parameters {
	return Parameters{
		PlaintextModulus:  params.P(),
		CiphertextModulus: params.Q(),
		PolynomialDegree:  params.N(),
		NoiseStdDev:       params.Sigma(),
		NoiseBound:        float64(params.NoiseBound()),
	}
}

// Scheme rebuilds the scheme parameters from their wire form.
func (p Parameters) Scheme() (ahe.Parameters, error) {
	return ahe.NewParameters(ahe.ParametersLiteral{
		N:  p.PolynomialDegree,
		P:  p.PlaintextModulus,
		Q:  p.CiphertextModulus,
		Xe: ring.DiscreteGaussian{Sigma: p.NoiseStdDev, Bound: p.NoiseBound},
	})
}

// Metadata stays with the challenger. It is never part of a Payload.
type Metadata struct {
	TestID              string
	ChallengePlaintexts []uint64
	ExpectedOperations  []Operation
	Domain              uint64
	CreatedAt           time.Time
}

// MaxTally returns the largest value any honest tally of the challenge can
// decrypt to.
func (m Metadata) MaxTally() uint64 {
	if m.Domain == 0 {
		return 0
	}
	return uint64(len(m.ChallengePlaintexts)) * (m.Domain - 1)
}

type Challenge struct {
	Parameters  Parameters
	PublicKey   []uint64
	Ciphertexts [][]byte
	Metadata    Metadata `json:"-"`
}

// Payload returns the executor-facing view of c.
func (c *Challenge) Payload() *Payload {
	ciphertexts := make([][]byte, len(c.Ciphertexts))
	for i := range c.Ciphertexts {
		ciphertexts[i] = slices.Clone(c.Ciphertexts[i])
	}
	return &Payload{
		Parameters:  c.Parameters,
		PublicKey:   slices.Clone(c.PublicKey),
		Ciphertexts: ciphertexts,
		Operations:  slices.Clone(c.Metadata.ExpectedOperations),
	}
}

// Payload is everything the untrusted executor receives.
type Payload struct {
	Parameters  Parameters  `json:"parameters"`
	PublicKey   []uint64    `json:"public_key"`
	Ciphertexts [][]byte    `json:"ciphertexts"`
	Operations  []Operation `json:"operations"`
}

type ExecutionResult struct {
	Receipt           []byte
	ResultCiphertexts [][]byte
}

// Executor runs the declared operations over a payload. It is untrusted.
type Executor interface {
	Execute(ctx context.Context, payload *Payload) (*ExecutionResult, error)
}

// ReceiptVerifier validates a receipt against the expected program identity
// and the result ciphertexts it must commit to. It is trusted and treated as
// a black box.
type ReceiptVerifier interface {
	VerifyReceipt(receipt []byte, program receipt.ProgramID, results [][]byte) bool
}

type VerificationResult struct {
	Success bool

	// DecryptedResults is nil unless every result ciphertext decrypted.
	DecryptedResults []uint64

	// Noise holds the measured error of each decrypted result.
	Noise []int64

	Err error
	Log []string
}

// State returns the terminal state the result corresponds to.
func (r *VerificationResult) State() State {
	if r.Success {
		return Verified
	}
	return Failed
}

func (r *VerificationResult) CopyNew() *VerificationResult {
	return &VerificationResult{
		Success:          r.Success,
		DecryptedResults: slices.Clone(r.DecryptedResults),
		Noise:            slices.Clone(r.Noise),
		Err:              r.Err,
		Log:              slices.Clone(r.Log),
	}
}

func (r *VerificationResult) String() string {
	if r.Success {
		return fmt.Sprintf("verified %d results", len(r.DecryptedResults))
	}
	return fmt.Sprintf("failed: %v", r.Err)
}
