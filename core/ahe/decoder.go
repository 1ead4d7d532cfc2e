package ahe

import "fmt"

type Decoder struct {
	params Parameters
}

func NewDecoder(params Parameters) *Decoder {
	return &Decoder{params: params}
}

// Decode rounds the phase v to the nearest multiple of Delta and returns the
// plaintext together with the signed distance to that multiple. A phase that
// rounds to P or above is reported as ErrNoiseOverflow.
func (dec *Decoder) Decode(v uint64) (m uint64, noise int64, err error) {
	q := dec.params.Q()
	delta := dec.params.Delta()

	// shifting by Delta/2 turns floor division into rounding and maps small
	// negative noise around zero (v close to Q) back onto 0
	shifted := addMod(v, delta/2, q)
	m = shifted / delta
	if m >= dec.params.P() {
		return 0, 0, fmt.Errorf("%w: phase %d rounds to %d", ErrNoiseOverflow, v, m)
	}
	noise = int64(shifted%delta) - int64(delta/2)
	return m, noise, nil
}
