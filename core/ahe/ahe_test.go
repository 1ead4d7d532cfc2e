package ahe

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/montanaflynn/stats"
	"github.com/stretchr/testify/require"
	"github.com/tuneinsight/lattigo/v5/ring"
	"github.com/tuneinsight/lattigo/v5/utils/sampling"
)

var testParamsLiteral = []ParametersLiteral{
	{
		N:  8,
		P:  1024,
		Q:  1 << 40,
		Xe: ring.DiscreteGaussian{Sigma: 3.19},
	},
	DefaultParametersLiteral,
}

type testContext struct {
	params Parameters
	pk     *PublicKey
	sk     *SecretKey
	enc    *Encryptor
	dec    *Decryptor
	eval   *Evaluator
}

func newTestContext(t *testing.T, params Parameters, seed string) *testContext {
	prng, err := sampling.NewKeyedPRNG([]byte(seed))
	require.NoError(t, err)

	pk, sk, err := NewKeyGenerator(params, prng).GenKeyPairNew()
	require.NoError(t, err)

	return &testContext{
		params: params,
		pk:     pk,
		sk:     sk,
		enc:    NewEncryptor(params, sk, prng),
		dec:    NewDecryptor(params, sk),
		eval:   NewEvaluator(params),
	}
}

func testString(params Parameters, opname string) string {
	return fmt.Sprintf("%s/N=%d/P=%d/logQ=%d", opname, params.N(), params.P(), int(math.Ceil(math.Log2(float64(params.Q())))))
}

func TestAHE(t *testing.T) {
	for _, lit := range testParamsLiteral {
		params, err := NewParameters(lit)
		require.NoError(t, err)

		tc := newTestContext(t, params, "ahe-test")

		for _, testSet := range []func(tc *testContext, t *testing.T){
			testKeyGenerator,
			testEncryptDecrypt,
			testHomomorphicAdd,
			testSerialization,
			testNoise,
		} {
			testSet(tc, t)
		}
	}
}

func testKeyGenerator(tc *testContext, t *testing.T) {
	params := tc.params

	t.Run(testString(params, "KeyGenerator/Ranges"), func(t *testing.T) {
		require.Len(t, tc.sk.Value, params.N())
		require.Len(t, tc.pk.Value, params.N())
		for _, s := range tc.sk.Value {
			require.Less(t, s, params.P())
		}
		for _, a := range tc.pk.Value {
			require.Less(t, a, params.Q())
		}
	})

	t.Run(testString(params, "KeyGenerator/Independent"), func(t *testing.T) {
		prng0, err := sampling.NewPRNG()
		require.NoError(t, err)
		prng1, err := sampling.NewPRNG()
		require.NoError(t, err)

		pk0, sk0, err := NewKeyGenerator(params, prng0).GenKeyPairNew()
		require.NoError(t, err)
		pk1, sk1, err := NewKeyGenerator(params, prng1).GenKeyPairNew()
		require.NoError(t, err)

		require.False(t, pk0.Equal(pk1))
		require.False(t, sk0.Equal(sk1))
	})

	t.Run(testString(params, "KeyGenerator/SeededIsReproducible"), func(t *testing.T) {
		other := newTestContext(t, params, "ahe-test")
		require.True(t, tc.sk.Equal(other.sk))
		require.True(t, tc.pk.Equal(other.pk))
	})
}

func testEncryptDecrypt(tc *testContext, t *testing.T) {
	params := tc.params

	t.Run(testString(params, "Encrypt/Decrypt"), func(t *testing.T) {
		for _, m := range []uint64{0, 1, 2, params.P() / 2, params.P() - 1} {
			ct, err := tc.enc.EncryptNew(m)
			require.NoError(t, err)
			require.Equal(t, params.CiphertextLen(), ct.Len())

			have, err := tc.dec.DecryptNew(ct)
			require.NoError(t, err)
			require.Equal(t, m, have)
		}
	})

	t.Run(testString(params, "Encrypt/InvalidPlaintext"), func(t *testing.T) {
		_, err := tc.enc.EncryptNew(params.P())
		require.ErrorIs(t, err, ErrInvalidPlaintext)
	})

	t.Run(testString(params, "Encrypt/FreshRandomness"), func(t *testing.T) {
		ct0, err := tc.enc.EncryptNew(1)
		require.NoError(t, err)
		ct1, err := tc.enc.EncryptNew(1)
		require.NoError(t, err)
		require.False(t, ct0.Equal(ct1))
	})

	t.Run(testString(params, "Decrypt/KeyIndependence"), func(t *testing.T) {
		other := newTestContext(t, params, "unrelated-key")

		trials := 500
		var matches int
		for i := 0; i < trials; i++ {
			m := uint64(i) % params.P()
			ct, err := tc.enc.EncryptNew(m)
			require.NoError(t, err)

			// wrong key: either an overflow error or an unrelated value
			if have, err := other.dec.DecryptNew(ct); err == nil && have == m {
				matches++
			}
		}
		// chance level is trials/P, well under one match for P >= 1024
		require.LessOrEqual(t, matches, 5)
	})

	t.Run(testString(params, "Decrypt/Malformed"), func(t *testing.T) {
		_, err := tc.dec.DecryptNew(&Ciphertext{Value: make([]uint64, params.CiphertextLen()-1)})
		require.ErrorIs(t, err, ErrDecryption)
		require.ErrorIs(t, err, ErrLengthMismatch)

		_, err = tc.dec.DecryptNew(nil)
		require.ErrorIs(t, err, ErrDecryption)
	})
}

func testHomomorphicAdd(tc *testContext, t *testing.T) {
	params := tc.params

	t.Run(testString(params, "Evaluator/Add"), func(t *testing.T) {
		for _, pair := range [][2]uint64{{5, 3}, {100, 200}, {0, 0}, {params.P() - 1, 1}} {
			ct0, err := tc.enc.EncryptNew(pair[0])
			require.NoError(t, err)
			ct1, err := tc.enc.EncryptNew(pair[1])
			require.NoError(t, err)

			sum, err := tc.eval.AddNew(ct0, ct1)
			require.NoError(t, err)

			have, err := tc.dec.DecryptNew(sum)
			require.NoError(t, err)
			require.Equal(t, (pair[0]+pair[1])%params.P(), have)
		}
	})

	t.Run(testString(params, "Evaluator/AddInPlace"), func(t *testing.T) {
		ct, err := tc.enc.EncryptNew(7)
		require.NoError(t, err)
		require.NoError(t, tc.eval.Add(ct, ct, ct))

		have, err := tc.dec.DecryptNew(ct)
		require.NoError(t, err)
		require.Equal(t, uint64(14), have)
	})

	t.Run(testString(params, "Evaluator/Sum"), func(t *testing.T) {
		votes := []uint64{1, 0, 2, 2, 1, 0, 1}
		cts := make([]*Ciphertext, len(votes))
		var want uint64
		for i, v := range votes {
			var err error
			cts[i], err = tc.enc.EncryptNew(v)
			require.NoError(t, err)
			want += v
		}

		sum, err := tc.eval.Sum(cts...)
		require.NoError(t, err)

		have, err := tc.dec.DecryptNew(sum)
		require.NoError(t, err)
		require.Equal(t, want, have)
	})

	t.Run(testString(params, "Evaluator/LengthMismatch"), func(t *testing.T) {
		ct, err := tc.enc.EncryptNew(1)
		require.NoError(t, err)

		short := &Ciphertext{Value: make([]uint64, params.CiphertextLen()-2)}
		_, err = tc.eval.AddNew(ct, short)

		var lenErr *LengthMismatchError
		require.True(t, errors.As(err, &lenErr))
		require.Equal(t, params.CiphertextLen(), lenErr.Expected)
		require.Equal(t, params.CiphertextLen()-2, lenErr.Actual)
	})
}

func testSerialization(tc *testContext, t *testing.T) {
	params := tc.params

	t.Run(testString(params, "Serialization/RoundTrip"), func(t *testing.T) {
		ct, err := tc.enc.EncryptNew(42)
		require.NoError(t, err)

		data := SerializeCiphertext(ct)
		require.Len(t, data, 16*params.N())

		have, err := DeserializeCiphertext(params, data)
		require.NoError(t, err)
		if diff := cmp.Diff(ct, have); diff != "" {
			t.Fatalf("round trip mismatch (-want +have):\n%s", diff)
		}
	})

	t.Run(testString(params, "Serialization/LittleEndian"), func(t *testing.T) {
		ct := NewCiphertext(params)
		ct.Value[0] = 0x0102030405060708
		data := SerializeCiphertext(ct)
		require.Equal(t, []byte{8, 7, 6, 5, 4, 3, 2, 1}, data[:8])
	})

	t.Run(testString(params, "Serialization/LengthMismatch"), func(t *testing.T) {
		want := params.SerializedLen()
		for _, size := range []int{want - 1, want + 1, 0, 8} {
			_, err := DeserializeCiphertext(params, make([]byte, size))
			require.ErrorIs(t, err, ErrLengthMismatch)

			var lenErr *LengthMismatchError
			require.True(t, errors.As(err, &lenErr))
			require.Equal(t, want, lenErr.Expected)
			require.Equal(t, size, lenErr.Actual)
		}
	})
}

func testNoise(tc *testContext, t *testing.T) {
	params := tc.params

	t.Run(testString(params, "Noise/FreshDistribution"), func(t *testing.T) {
		samples := make([]float64, 1000)
		for i := range samples {
			ct, err := tc.enc.EncryptNew(uint64(i) % params.P())
			require.NoError(t, err)
			e, err := tc.dec.Noise(ct)
			require.NoError(t, err)
			require.LessOrEqual(t, math.Abs(float64(e)), float64(params.NoiseBound()))
			samples[i] = float64(e)
		}

		mean, err := stats.Mean(samples)
		require.NoError(t, err)
		stdev, err := stats.StandardDeviation(samples)
		require.NoError(t, err)

		require.Less(t, math.Abs(mean), 1.0)
		require.InDelta(t, params.Sigma(), stdev, 1.0)
	})

	t.Run(testString(params, "Noise/RepeatedAddition"), func(t *testing.T) {
		const k = 1000
		require.Greater(t, params.MaxAdditions(), uint64(k))

		acc := NewCiphertext(params)
		for i := 0; i < k; i++ {
			ct, err := tc.enc.EncryptNew(1)
			require.NoError(t, err)
			require.NoError(t, tc.eval.Add(acc, ct, acc))
		}

		have, err := tc.dec.DecryptNew(acc)
		require.NoError(t, err)
		require.Equal(t, uint64(k)%params.P(), have)

		e, err := tc.dec.Noise(acc)
		require.NoError(t, err)
		require.LessOrEqual(t, math.Abs(float64(e)), float64(k*(params.NoiseBound()+params.WrapError())))
	})

	t.Run(testString(params, "Noise/Budget"), func(t *testing.T) {
		ceiling := int64(params.NoiseCeiling())
		require.InDelta(t, 0, NoiseBudgetBits(params, ceiling), 1e-9)
		require.InDelta(t, 1, NoiseBudgetBits(params, -ceiling/2), 1e-6)
		require.Greater(t, NoiseBudgetBits(params, 0), NoiseBudgetBits(params, 10))
	})
}

func TestDecoderRounding(t *testing.T) {
	params := NewParametersFromLiteral(DefaultParametersLiteral)
	ecd := NewEncoder(params)
	dcd := NewDecoder(params)

	for _, tt := range []struct {
		m uint64
		e int64
	}{
		{0, -5},
		{0, 5},
		{7, -19},
		{params.P() - 1, 19},
		{params.P() - 1, -19},
	} {
		m, e, err := dcd.Decode(ecd.Encode(tt.m, tt.e))
		require.NoError(t, err)
		require.Equal(t, tt.m, m)
		require.Equal(t, tt.e, e)
	}

	// one step past the ceiling on the largest plaintext lands in the gap
	// between P*Delta and Q
	v := ecd.Encode(params.P()-1, int64(params.NoiseCeiling())+1)
	_, _, err := dcd.Decode(v)
	require.ErrorIs(t, err, ErrNoiseOverflow)
}

func TestParameters(t *testing.T) {
	params, err := NewParameters(DefaultParametersLiteral)
	require.NoError(t, err)
	require.Equal(t, 32, params.N())
	require.Equal(t, uint64(1<<58)/65537, params.Delta())
	require.Equal(t, 64, params.CiphertextLen())
	require.Equal(t, 512, params.SerializedLen())
	require.Equal(t, uint64(20), params.NoiseBound())
	require.True(t, params.Equal(NewParametersFromLiteral(params.ParametersLiteral())))

	lit := testParamsLiteral[0]
	params, err = NewParameters(lit)
	require.NoError(t, err)
	require.Equal(t, uint64(1<<30), params.Delta())
	require.Equal(t, uint64(0), params.WrapError())

	for name, bad := range map[string]ParametersLiteral{
		"ZeroN":       {N: 0, P: 1024, Q: 1 << 40},
		"SmallP":      {N: 8, P: 1, Q: 1 << 40},
		"QBelowP":     {N: 8, P: 1024, Q: 1000},
		"QTooLarge":   {N: 8, P: 1024, Q: MaxModulus + 1},
		"TinyDelta":   {N: 8, P: 1024, Q: 3000},
		"NegSigma":    {N: 8, P: 1024, Q: 1 << 40, Xe: ring.DiscreteGaussian{Sigma: -1}},
		"NoiseTooBig": {N: 8, P: 1024, Q: 1 << 20, Xe: ring.DiscreteGaussian{Sigma: 3.19, Bound: 1 << 10}},
	} {
		_, err := NewParameters(bad)
		require.Error(t, err, name)
	}
}
