// Package receipt provides program identities and a keyed-digest receipt
// format standing in for an attested execution environment. The sealer runs
// next to the executor; the verifier is the trusted side.
package receipt

import (
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"
)

const (
	digestSize = blake2b.Size256

	// Size is the length of a serialized receipt.
	Size = 3 * digestSize
)

var ErrMalformed = errors.New("malformed receipt")

// ProgramID identifies the program an executor claims to have run.
type ProgramID [digestSize]byte

// NewProgramID derives the identity of a program from its name and its
// declared operation sequence.
func NewProgramID(name string, ops ...string) ProgramID {
	h, _ := blake2b.New256(nil)
	writeField(h, []byte(name))
	for _, op := range ops {
		writeField(h, []byte(op))
	}
	var id ProgramID
	copy(id[:], h.Sum(nil))
	return id
}

func (id ProgramID) String() string {
	return hex.EncodeToString(id[:])
}

// Receipt is the parsed form of a serialized receipt:
// program || journal digest || seal.
type Receipt struct {
	Program ProgramID
	Journal [digestSize]byte
	Seal    [digestSize]byte
}

func (r *Receipt) MarshalBinary() ([]byte, error) {
	data := make([]byte, 0, Size)
	data = append(data, r.Program[:]...)
	data = append(data, r.Journal[:]...)
	data = append(data, r.Seal[:]...)
	return data, nil
}

func Parse(data []byte) (*Receipt, error) {
	if len(data) != Size {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrMalformed, Size, len(data))
	}
	r := new(Receipt)
	copy(r.Program[:], data[:digestSize])
	copy(r.Journal[:], data[digestSize:2*digestSize])
	copy(r.Seal[:], data[2*digestSize:])
	return r, nil
}

// JournalDigest commits to an ordered list of serialized results.
func JournalDigest(results [][]byte) (digest [digestSize]byte) {
	h, _ := blake2b.New256(nil)
	for _, res := range results {
		writeField(h, res)
	}
	copy(digest[:], h.Sum(nil))
	return
}

func seal(key []byte, program ProgramID, journal [digestSize]byte) (out [digestSize]byte, err error) {
	h, err := blake2b.New256(key)
	if err != nil {
		return out, err
	}
	h.Write(program[:])
	h.Write(journal[:])
	copy(out[:], h.Sum(nil))
	return out, nil
}

func writeField(w io.Writer, field []byte) {
	var size [8]byte
	binary.LittleEndian.PutUint64(size[:], uint64(len(field)))
	w.Write(size[:])
	w.Write(field)
}

// Sealer issues receipts for a fixed program.
type Sealer struct {
	key     []byte
	program ProgramID
}

// NewSealer returns a Sealer keyed with key, at most 64 bytes.
func NewSealer(key []byte, program ProgramID) (*Sealer, error) {
	if len(key) == 0 || len(key) > blake2b.Size {
		return nil, fmt.Errorf("invalid sealing key size %d", len(key))
	}
	return &Sealer{key: append([]byte(nil), key...), program: program}, nil
}

func (s *Sealer) Program() ProgramID {
	return s.program
}

// Seal returns a serialized receipt over results.
func (s *Sealer) Seal(results [][]byte) ([]byte, error) {
	r := &Receipt{Program: s.program, Journal: JournalDigest(results)}
	var err error
	if r.Seal, err = seal(s.key, r.Program, r.Journal); err != nil {
		return nil, err
	}
	return r.MarshalBinary()
}

// Verifier checks receipts produced by a Sealer sharing its key.
type Verifier struct {
	key []byte
}

func NewVerifier(key []byte) (*Verifier, error) {
	if len(key) == 0 || len(key) > blake2b.Size {
		return nil, fmt.Errorf("invalid sealing key size %d", len(key))
	}
	return &Verifier{key: append([]byte(nil), key...)}, nil
}

// VerifyReceipt reports whether data is a well-formed receipt for program
// carrying a valid seal over a journal that commits to results.
func (v *Verifier) VerifyReceipt(data []byte, program ProgramID, results [][]byte) bool {
	r, err := Parse(data)
	if err != nil {
		return false
	}
	want, err := seal(v.key, r.Program, r.Journal)
	if err != nil {
		return false
	}
	digest := JournalDigest(results)
	programOK := subtle.ConstantTimeCompare(r.Program[:], program[:])
	sealOK := subtle.ConstantTimeCompare(r.Seal[:], want[:])
	journalOK := subtle.ConstantTimeCompare(r.Journal[:], digest[:])
	return programOK&sealOK&journalOK == 1
}
