package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/irobf/pipeline"
	"github.com/wippyai/irobf/policy"
	"github.com/wippyai/irobf/rules"
)

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "irobf",
		Short: "Policy driven obfuscation for IR modules",
		Long: `irobf rewrites the functions of an IR module so they compute the same
results while being harder to analyse.

Which transforms run on which function is decided by merging a global
config file, command line flags, annotations on the function itself and a
rule file that matches function and unit names.

Transforms:
  bcf  bogus control flow: opaque predicates guarding dead block clones
  sub  instruction substitution for add, sub, and, or, xor`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log, err := newLogger(logLevel)
			if err != nil {
				return err
			}
			zap.ReplaceGlobals(log)
			policy.SetLogger(log)
			rules.SetLogger(log)
			pipeline.SetLogger(log)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newObfuscateCmd(),
		newExplainCmd(),
		newRunCmd(),
	)
	return root
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	return cfg.Build()
}
