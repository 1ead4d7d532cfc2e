package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParamsCommand(t *testing.T) {
	out, err := execute(t, "params", "--log-level", "error")
	require.NoError(t, err)

	var report map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.EqualValues(t, 65537, report["plaintext_modulus"])
	require.EqualValues(t, 32, report["polynomial_degree"])
	require.EqualValues(t, 20, report["noise_bound"])
	require.EqualValues(t, 64513, report["wrap_error"])
	require.EqualValues(t, 512, report["ciphertext_bytes"])
}

func TestRunCommand(t *testing.T) {
	out, err := execute(t, "run", "--count", "6", "--rounds", "2", "--log-level", "error")
	require.NoError(t, err)
	require.Contains(t, out, "ahe-challenge-0: verified 1 results")
	require.Contains(t, out, "ahe-challenge-1: verified 1 results")
	require.Contains(t, out, `"passed": 2`)
}

func TestRunCommandInvalid(t *testing.T) {
	_, err := execute(t, "run", "--count", "0", "--log-level", "error")
	require.Error(t, err)
}
