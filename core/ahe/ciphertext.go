package ahe

import (
	"encoding/binary"

	"golang.org/x/exp/slices"
)

// Ciphertext holds 2N coefficients modulo Q.
// Value[0] = Delta*m + e + <a, s>, Value[1:N+1] = a, Value[N+1:] is padding.
type Ciphertext struct {
	Value []uint64
}

func NewCiphertext(params Parameters) *Ciphertext {
	return &Ciphertext{Value: make([]uint64, params.CiphertextLen())}
}

// Body returns the signal coefficient.
func (ct *Ciphertext) Body() uint64 {
	return ct.Value[0]
}

// Mask returns the n coefficients paired with the secret key.
func (ct *Ciphertext) Mask(params Parameters) []uint64 {
	return ct.Value[1 : params.N()+1]
}

func (ct *Ciphertext) Len() int {
	return len(ct.Value)
}

func (ct *Ciphertext) CopyNew() *Ciphertext {
	return &Ciphertext{Value: slices.Clone(ct.Value)}
}

func (ct *Ciphertext) Equal(other *Ciphertext) bool {
	return slices.Equal(ct.Value, other.Value)
}

// BinarySize returns the size in bytes of the serialized ciphertext.
func (ct *Ciphertext) BinarySize() int {
	return 8 * len(ct.Value)
}

// MarshalBinary encodes the coefficients as little-endian uint64 words.
func (ct *Ciphertext) MarshalBinary() ([]byte, error) {
	data := make([]byte, ct.BinarySize())
	for i, c := range ct.Value {
		binary.LittleEndian.PutUint64(data[8*i:], c)
	}
	return data, nil
}

// UnmarshalBinary decodes data into ct. The receiver must already be sized,
// e.g. by NewCiphertext, and data must hold exactly 8 bytes per coefficient.
func (ct *Ciphertext) UnmarshalBinary(data []byte) error {
	if len(data) != ct.BinarySize() {
		return &LengthMismatchError{Expected: ct.BinarySize(), Actual: len(data)}
	}
	for i := range ct.Value {
		ct.Value[i] = binary.LittleEndian.Uint64(data[8*i:])
	}
	return nil
}

// DeserializeCiphertext decodes a serialized ciphertext of SerializedLen bytes.
func DeserializeCiphertext(params Parameters, data []byte) (*Ciphertext, error) {
	ct := NewCiphertext(params)
	if err := ct.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return ct, nil
}

// SerializeCiphertext is a convenience wrapper around MarshalBinary.
func SerializeCiphertext(ct *Ciphertext) []byte {
	data, _ := ct.MarshalBinary()
	return data
}
