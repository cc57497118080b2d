package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/irobf"
	"github.com/wippyai/irobf/ir"
	"github.com/wippyai/irobf/policy"
)

func newExplainCmd() *cobra.Command {
	var (
		function    string
		interactive bool
	)
	cmd := &cobra.Command{
		Use:   "explain [flags] <input.ir>",
		Short: "Show how policy resolves for every function",
		Long: `Print, for every function of a module, the directive list built from its
annotations and matching rules, and the resulting enable and level of
each transform next to the global setting.

Examples:
  irobf explain --rules demo.rules demo.ir
  irobf explain --function crypto_mix demo.ir
  irobf explain -i --config irobf.yaml demo.ir`,
		Args: cobra.ExactArgs(1),
	}
	pf := addPolicyFlags(cmd)
	cmd.Flags().StringVar(&function, "function", "", "only explain the named function")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse functions interactively")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		opts, err := pf.options(cmd)
		if err != nil {
			return err
		}
		m, err := readModule(cmd, args[0])
		if err != nil {
			return err
		}
		resolver, warnings := irobf.LoadPolicy(opts)
		if warnings != nil {
			zap.L().Warn("configuration warnings", zap.Error(warnings))
		}

		funcs := m.Functions
		if function != "" {
			f := m.Function(function)
			if f == nil {
				return fmt.Errorf("function %q not found in %s", function, m.ID)
			}
			funcs = []*ir.Function{f}
		}

		if interactive {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("--interactive needs a terminal")
			}
			return runInteractive(m.ID, resolver, funcs)
		}
		return printExplanations(cmd.OutOrStdout(), resolver, funcs)
	}
	return cmd
}

func printExplanations(w io.Writer, r *policy.Resolver, funcs []*ir.Function) error {
	for i, f := range funcs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if _, err := fmt.Fprintln(w, renderExplanation(r.Explain(f))); err != nil {
			return err
		}
	}
	return nil
}

func renderExplanation(ex policy.Explanation) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(ex.Unit + "/" + ex.Function))
	b.WriteString("\n")
	if !ex.Eligible {
		b.WriteString(helpStyle.Render("declaration or available externally, never transformed"))
		b.WriteString("\n")
	}
	if len(ex.Directives) > 0 {
		b.WriteString("directives: ")
		b.WriteString(strings.Join(ex.Directives, " "))
		b.WriteString("\n")
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("KIND", "GLOBAL", "EFFECTIVE", "APPLIED").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, kr := range ex.Kinds {
		applied := make([]string, len(kr.Applied))
		for i, d := range kr.Applied {
			applied[i] = d.String()
		}
		t.Row(
			kr.Kind.String(),
			formatSetting(kr.Global.Enabled, kr.Global.Level),
			formatSetting(kr.Effective.Enabled, kr.Effective.Level),
			strings.Join(applied, " "),
		)
	}
	b.WriteString(t.Render())
	return b.String()
}

func formatSetting(enabled bool, level uint32) string {
	if enabled {
		return fmt.Sprintf("on %d", level)
	}
	return fmt.Sprintf("off %d", level)
}
