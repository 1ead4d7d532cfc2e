package ahe

import "fmt"

// Evaluator performs homomorphic additions. It holds no key material.
type Evaluator struct {
	params Parameters
}

func NewEvaluator(params Parameters) *Evaluator {
	return &Evaluator{params: params}
}

// Add sets out = op0 + op1, coefficient-wise modulo Q. out may alias an operand.
func (eval Evaluator) Add(op0, op1, out *Ciphertext) error {
	n := eval.params.CiphertextLen()
	for _, ct := range []*Ciphertext{op0, op1, out} {
		if ct == nil {
			return fmt.Errorf("%w: nil ciphertext", ErrLengthMismatch)
		}
		if ct.Len() != n {
			return &LengthMismatchError{Expected: n, Actual: ct.Len()}
		}
	}

	q := eval.params.Q()
	for i := 0; i < n; i++ {
		out.Value[i] = addMod(op0.Value[i], op1.Value[i], q)
	}
	return nil
}

func (eval Evaluator) AddNew(op0, op1 *Ciphertext) (*Ciphertext, error) {
	out := NewCiphertext(eval.params)
	if err := eval.Add(op0, op1, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Sum folds cts into a single ciphertext. An empty input yields the
// trivial encryption of zero.
func (eval Evaluator) Sum(cts ...*Ciphertext) (*Ciphertext, error) {
	acc := NewCiphertext(eval.params)
	for i, ct := range cts {
		if err := eval.Add(acc, ct, acc); err != nil {
			return nil, fmt.Errorf("ciphertext %d: %w", i, err)
		}
	}
	return acc, nil
}
