package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/irobf"
	"github.com/wippyai/irobf/internal/watch"
	"github.com/wippyai/irobf/ir"
	"github.com/wippyai/irobf/irtext"
	"github.com/wippyai/irobf/stats"
)

type obfuscateFlags struct {
	policy *policyFlags
	output string
	verify bool
	stats  bool
	watch  bool
}

func newObfuscateCmd() *cobra.Command {
	f := &obfuscateFlags{}
	cmd := &cobra.Command{
		Use:   "obfuscate [flags] <input.ir>",
		Short: "Obfuscate an IR module",
		Long: `Parse an IR module, run the enabled transforms over it and print the
result. Use - as input to read standard input.

Obfuscation is on when --irobf is given, when any transform is enabled by
--enable or the config file, or when a config or rule file is named.

Examples:
  irobf obfuscate --enable sub demo.ir
  irobf obfuscate --enable bcf --level-bcf 100 --seed 7 -o out.ir demo.ir
  irobf obfuscate --rules demo.rules --stats -o out.ir demo.ir`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runObfuscate(cmd, f, args[0])
		},
	}
	f.policy = addPolicyFlags(cmd)
	cmd.Flags().StringVarP(&f.output, "output", "o", "-", "output file, - for standard output")
	cmd.Flags().BoolVar(&f.verify, "verify", true, "verify every rewritten function and undo failed rewrites")
	cmd.Flags().BoolVar(&f.stats, "stats", false, "print pass statistics to standard error")
	cmd.Flags().BoolVar(&f.watch, "watch", false, "re-run whenever the input, config or rule file changes")
	return cmd
}

func runObfuscate(cmd *cobra.Command, f *obfuscateFlags, input string) error {
	opts, err := f.policy.options(cmd)
	if err != nil {
		return err
	}
	opts.Verify = f.verify

	if err := obfuscateOnce(cmd, f, opts, input); err != nil {
		return err
	}
	if !f.watch {
		return nil
	}
	if input == "-" {
		return fmt.Errorf("--watch needs an input file")
	}

	w, err := watch.New([]string{input, opts.ConfigPath, opts.RulesPath}, 0, zap.L())
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	fmt.Fprintf(cmd.ErrOrStderr(), "watching %d files, press Ctrl+C to stop\n", len(w.Files()))
	return w.Run(ctx, func(path string) {
		if err := obfuscateOnce(cmd, f, opts, input); err != nil {
			zap.L().Error("obfuscation failed", zap.String("trigger", path), zap.Error(err))
		}
	})
}

func obfuscateOnce(cmd *cobra.Command, f *obfuscateFlags, opts irobf.Options, input string) error {
	m, err := readModule(cmd, input)
	if err != nil {
		return err
	}

	if f.stats {
		opts.Stats = stats.New()
	}
	o, warnings := irobf.New(opts)
	if warnings != nil {
		zap.L().Warn("configuration warnings", zap.Error(warnings))
	}
	changed, err := o.Run(m)
	if err != nil {
		return err
	}
	zap.L().Info("module processed", zap.String("unit", m.ID), zap.Bool("changed", changed))

	if err := writeModule(cmd, f.output, m); err != nil {
		return err
	}
	if f.stats {
		return printStats(cmd.ErrOrStderr(), opts.Stats)
	}
	return nil
}

func readModule(cmd *cobra.Command, input string) (*ir.Module, error) {
	if input != "-" {
		return irtext.ParseFile(input)
	}
	src, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return irtext.Parse(string(src))
}

func writeModule(cmd *cobra.Command, output string, m *ir.Module) error {
	if output == "-" || output == "" {
		return ir.Fprint(cmd.OutOrStdout(), m)
	}
	fh, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := ir.Fprint(fh, m); err != nil {
		fh.Close()
		return fmt.Errorf("write output: %w", err)
	}
	return fh.Close()
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
)

func printStats(w io.Writer, c *stats.Collector) error {
	samples, err := c.Snapshot()
	if err != nil {
		return err
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("METRIC", "LABELS", "VALUE").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, s := range samples {
		t.Row(s.Name, s.Label(), strconv.FormatFloat(s.Value, 'f', -1, 64))
	}
	_, err = fmt.Fprintln(w, t.Render())
	return err
}
