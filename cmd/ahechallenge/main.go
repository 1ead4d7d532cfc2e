package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/tuneinsight/lattigo/v5/utils/sampling"
	"go.uber.org/zap"

	"github.com/cryptlab/ahe-challenger/config"
	"github.com/cryptlab/ahe-challenger/core/ahe"
	"github.com/cryptlab/ahe-challenger/protocol/challenger"
	"github.com/cryptlab/ahe-challenger/protocol/executor"
	"github.com/cryptlab/ahe-challenger/protocol/receipt"
	"github.com/cryptlab/ahe-challenger/protocol/session"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ahechallenge",
	Short: "Challenge an executor to add ciphertexts it cannot read",
	Long: `ahechallenge encrypts random votes, hands the ciphertexts to an executor,
and checks the returned tally by decryption.

The run command drives the configured rounds against an in-process executor.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run challenge rounds against the local executor",
	RunE:  runRounds,
}

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Print the scheme parameters and derived noise figures",
	RunE:  printParams,
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	runCmd.Flags().IntP("count", "n", 0, "Plaintexts per challenge")
	runCmd.Flags().IntP("rounds", "r", 0, "Number of challenge rounds")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(paramsCmd)
}

// loadConfig reads --config, or the defaults, and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()

	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	if f := cmd.Flags().Lookup("count"); f != nil && f.Changed {
		cfg.Challenge.Count, _ = cmd.Flags().GetInt("count")
	}
	if f := cmd.Flags().Lookup("rounds"); f != nil && f.Changed {
		cfg.Challenge.Rounds, _ = cmd.Flags().GetInt("rounds")
	}

	return cfg, cfg.Validate()
}

func runRounds(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	params, err := cfg.SchemeParameters()
	if err != nil {
		return err
	}

	prng, err := sampling.NewPRNG()
	if err != nil {
		return err
	}

	// the sealing key is shared by the local executor and the verifier only
	// for the lifetime of the process
	key := make([]byte, 32)
	if _, err := prng.Read(key); err != nil {
		return err
	}
	verifier, err := receipt.NewVerifier(key)
	if err != nil {
		return err
	}

	c, err := challenger.New(params, verifier,
		challenger.WithPRNG(prng),
		challenger.WithLogger(logger.Named("challenger")),
		challenger.WithDomain(cfg.Challenge.Domain),
	)
	if err != nil {
		return err
	}

	sealer, err := receipt.NewSealer(key, c.ProgramID())
	if err != nil {
		return err
	}
	exec := executor.NewLocal(sealer, logger.Named("executor"))

	runner := session.NewRunner(c, exec, cfg.Executor.Timeout, logger.Named("session"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := runner.RunAll(ctx, cfg.Challenge.TestID, cfg.Challenge.Rounds, cfg.Challenge.Count); err != nil {
		return err
	}

	for _, round := range runner.Rounds() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", round.TestID, round.Result, round.Duration)
	}

	summary := runner.Summary()
	logger.Info("session complete",
		zap.Int("rounds", summary.Rounds),
		zap.Int("passed", summary.Passed),
		zap.Int("failed", summary.Failed),
	)

	if err := writeJSON(cmd, summary); err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d rounds failed", summary.Failed, summary.Rounds)
	}
	return nil
}

type paramsReport struct {
	challenger.Parameters
	Delta           uint64  `json:"delta"`
	NoiseCeiling    uint64  `json:"noise_ceiling"`
	WrapError       uint64  `json:"wrap_error"`
	MaxAdditions    uint64  `json:"max_additions"`
	CiphertextBytes int     `json:"ciphertext_bytes"`
	FreshBudgetBits float64 `json:"fresh_budget_bits"`
}

func printParams(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	params, err := cfg.SchemeParameters()
	if err != nil {
		return err
	}

	return writeJSON(cmd, paramsReport{
		Parameters:      challenger.NewWireParameters(params),
		Delta:           params.Delta(),
		NoiseCeiling:    params.NoiseCeiling(),
		WrapError:       params.WrapError(),
		MaxAdditions:    params.MaxAdditions(),
		CiphertextBytes: params.SerializedLen(),
		FreshBudgetBits: ahe.NoiseBudgetBits(params, int64(params.NoiseBound())),
	})
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
