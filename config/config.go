// Package config loads the YAML configuration of a challenge session.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tuneinsight/lattigo/v5/ring"
	"gopkg.in/yaml.v3"

	"github.com/cryptlab/ahe-challenger/core/ahe"
)

const (
	DefaultCount   = 5
	DefaultRounds  = 1
	DefaultDomain  = 3
	DefaultTestID  = "ahe-challenge"
	DefaultTimeout = 30 * time.Second
	DefaultLevel   = "info"
)

type Parameters struct {
	PolynomialDegree  int     `yaml:"polynomial_degree"`
	PlaintextModulus  uint64  `yaml:"plaintext_modulus"`
	CiphertextModulus uint64  `yaml:"ciphertext_modulus"`
	NoiseStdDev       float64 `yaml:"noise_std_dev"`
	NoiseBound        float64 `yaml:"noise_bound"`
}

type Challenge struct {
	Count  int    `yaml:"count"`
	Rounds int    `yaml:"rounds"`
	Domain uint64 `yaml:"domain"`
	TestID string `yaml:"test_id"`
}

type Executor struct {
	Timeout time.Duration `yaml:"timeout"`
}

type Log struct {
	Level string `yaml:"level"`
}

type Config struct {
	Parameters Parameters `yaml:"parameters"`
	Challenge  Challenge  `yaml:"challenge"`
	Executor   Executor   `yaml:"executor"`
	Log        Log        `yaml:"log"`
}

// Default returns the configuration used when no file is given. Its
// parameters are ahe.DefaultParametersLiteral.
func Default() Config {
	lit := ahe.DefaultParametersLiteral
	return Config{
		Parameters: Parameters{
			PolynomialDegree:  lit.N,
			PlaintextModulus:  lit.P,
			CiphertextModulus: lit.Q,
			NoiseStdDev:       lit.Xe.Sigma,
			NoiseBound:        lit.Xe.Bound,
		},
		Challenge: Challenge{
			Count:  DefaultCount,
			Rounds: DefaultRounds,
			Domain: DefaultDomain,
			TestID: DefaultTestID,
		},
		Executor: Executor{Timeout: DefaultTimeout},
		Log:      Log{Level: DefaultLevel},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Parse decodes data into cfg and validates the result. Unknown keys are
// rejected.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding config: %w", err)
	}
	return cfg.Validate()
}

// SchemeParameters returns the validated scheme parameters.
func (c Config) SchemeParameters() (ahe.Parameters, error) {
	return ahe.NewParameters(ahe.ParametersLiteral{
		N: c.Parameters.PolynomialDegree,
		P: c.Parameters.PlaintextModulus,
		Q: c.Parameters.CiphertextModulus,
		Xe: ring.DiscreteGaussian{
			Sigma: c.Parameters.NoiseStdDev,
			Bound: c.Parameters.NoiseBound,
		},
	})
}

func (c Config) Validate() error {
	params, err := c.SchemeParameters()
	if err != nil {
		return err
	}

	ch := c.Challenge
	switch {
	case ch.Count < 1:
		return fmt.Errorf("invalid config: challenge.count=%d must be positive", ch.Count)
	case ch.Rounds < 1:
		return fmt.Errorf("invalid config: challenge.rounds=%d must be positive", ch.Rounds)
	case ch.Domain < 2 || ch.Domain > params.P():
		return fmt.Errorf("invalid config: challenge.domain=%d must be in [2, %d]", ch.Domain, params.P())
	case uint64(ch.Count)*(ch.Domain-1) >= params.P():
		return fmt.Errorf("invalid config: %d plaintexts from domain %d can tally past P=%d", ch.Count, ch.Domain, params.P())
	case c.Executor.Timeout <= 0:
		return fmt.Errorf("invalid config: executor.timeout=%s must be positive", c.Executor.Timeout)
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}
