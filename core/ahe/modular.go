package ahe

import "math/bits"

// addMod returns (a + b) mod q. Operands are reduced first; q <= 2^63
// guarantees the intermediate sum fits in 64 bits.
func addMod(a, b, q uint64) uint64 {
	s := a%q + b%q
	if s >= q {
		s -= q
	}
	return s
}

func subMod(a, b, q uint64) uint64 {
	a, b = a%q, b%q
	if a >= b {
		return a - b
	}
	return q - b + a
}

// mulMod returns a*b mod q using a 128-bit intermediate.
func mulMod(a, b, q uint64) uint64 {
	hi, lo := bits.Mul64(a%q, b%q)
	_, rem := bits.Div64(hi, lo, q)
	return rem
}

// innerProduct returns <a, s> mod q.
func innerProduct(a, s []uint64, q uint64) (acc uint64) {
	for i := range s {
		if s[i] != 0 {
			acc = addMod(acc, mulMod(a[i], s[i], q), q)
		}
	}
	return
}
