package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/irobf"
	"github.com/wippyai/irobf/ir"
	"github.com/wippyai/irobf/ir/interp"
	"github.com/wippyai/irobf/irtext"
)

type execution struct {
	result uint64
	trace  []interp.Event
	err    error
}

func (e execution) equal(o execution) bool {
	if (e.err == nil) != (o.err == nil) {
		return false
	}
	if e.err != nil {
		return e.err.Error() == o.err.Error()
	}
	return e.result == o.result && slices.EqualFunc(e.trace, o.trace, func(a, b interp.Event) bool {
		return a.Name == b.Name && a.Result == b.Result && slices.Equal(a.Args, b.Args)
	})
}

func newRunCmd() *cobra.Command {
	var (
		compare  bool
		maxSteps int
	)
	cmd := &cobra.Command{
		Use:   "run [flags] <input.ir> <function> [args...]",
		Short: "Interpret a function of an IR module",
		Long: `Run a function with the built-in interpreter and print its result and
the calls it made to declared functions. Declared functions return 0.
Arguments accept decimal, 0x hex, 0o octal and 0b binary.

With --compare the module is also obfuscated using the policy flags and
the two executions must agree.

Examples:
  irobf run demo.ir checksum 3 0x10
  irobf run --compare --enable bcf,sub --seed 1 demo.ir checksum 3 16`,
		Args: cobra.MinimumNArgs(2),
	}
	pf := addPolicyFlags(cmd)
	cmd.Flags().BoolVar(&compare, "compare", false, "compare against an obfuscated copy")
	cmd.Flags().IntVar(&maxSteps, "max-steps", interp.DefaultMaxSteps, "instruction budget per call")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		src, err := readSource(cmd, args[0])
		if err != nil {
			return err
		}
		name := args[1]
		callArgs, err := parseArgs(args[2:])
		if err != nil {
			return err
		}

		m, err := irtext.Parse(src)
		if err != nil {
			return err
		}
		plain := execute(m, name, callArgs, maxSteps)
		out := cmd.OutOrStdout()
		printExecution(out, plain)

		if !compare {
			return plain.err
		}

		opts, err := pf.options(cmd)
		if err != nil {
			return err
		}
		opts.Verify = true
		obf, err := irtext.Parse(src)
		if err != nil {
			return err
		}
		changed, err := irobf.Obfuscate(obf, opts)
		if err != nil {
			zap.L().Warn("obfuscation reported problems", zap.Error(err))
		}
		fmt.Fprintf(out, "\nobfuscated (changed=%t):\n", changed)
		got := execute(obf, name, callArgs, maxSteps)
		printExecution(out, got)

		if !plain.equal(got) {
			return fmt.Errorf("obfuscated %s behaves differently", name)
		}
		fmt.Fprintln(out, "\nexecutions match")
		return nil
	}
	return cmd
}

func readSource(cmd *cobra.Command, input string) (string, error) {
	if input == "-" {
		src, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(src), nil
	}
	src, err := os.ReadFile(input)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", input, err)
	}
	return string(src), nil
}

func parseArgs(args []string) ([]uint64, error) {
	out := make([]uint64, len(args))
	for i, a := range args {
		v, err := strconv.ParseUint(a, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

func execute(m *ir.Module, name string, args []uint64, maxSteps int) execution {
	host := make(map[string]interp.HostFunc)
	for _, f := range m.Functions {
		if f.IsDeclaration() {
			host[f.Name] = func([]uint64) (uint64, error) { return 0, nil }
		}
	}
	mc := interp.New(m, interp.Options{Host: host, MaxSteps: maxSteps})
	res, err := mc.Call(name, args...)
	return execution{result: res, trace: mc.Trace(), err: err}
}

func printExecution(w io.Writer, e execution) {
	for _, ev := range e.trace {
		args := make([]string, len(ev.Args))
		for i, a := range ev.Args {
			args[i] = strconv.FormatUint(a, 10)
		}
		fmt.Fprintf(w, "call %s(%s) = %d\n", ev.Name, strings.Join(args, ", "), ev.Result)
	}
	if e.err != nil {
		fmt.Fprintf(w, "error: %v\n", e.err)
		return
	}
	fmt.Fprintf(w, "result: %d\n", e.result)
}
