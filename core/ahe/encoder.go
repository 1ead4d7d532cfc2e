package ahe

type Encoder struct {
	params Parameters
}

func NewEncoder(params Parameters) *Encoder {
	return &Encoder{params: params}
}

// Encode returns (Delta*m + e) mod Q. m must be in [0, P).
func (enc *Encoder) Encode(m uint64, e int64) uint64 {
	q := enc.params.Q()

	var err uint64
	if e >= 0 {
		err = uint64(e) % q
	} else {
		err = q - uint64(-e)%q
	}
	return addMod(m*enc.params.Delta(), err, q)
}
