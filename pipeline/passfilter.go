package pipeline

import (
	"bufio"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/irobf/ir"
)

// PassFilterPath returns the pass filter file that accompanies a rule file.
func PassFilterPath(rulesPath string) string {
	return rulesPath + "-pass-filter.txt"
}

// writePassFilter appends the unit id and every function name of m to the
// pass filter file, giving rule authors a list to start from. Nothing is
// written unless the rule file exists. Failures are ignored.
//
//	# run 5b1f...
//	@=demo.c
//	=main
//	=helper
//	<blank>
func (p *Pipeline) writePassFilter(m *ir.Module, runID uuid.UUID) {
	if p.opts.RulesPath == "" {
		return
	}
	if _, err := os.Stat(p.opts.RulesPath); err != nil {
		return
	}
	path := PassFilterPath(p.opts.RulesPath)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		Logger().Debug("pass filter not written", zap.String("path", path), zap.Error(err))
		return
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	w.WriteString("# run " + runID.String() + "\n")
	w.WriteString("@=" + m.ID + "\n")
	for _, fn := range m.Functions {
		w.WriteString("=" + fn.Name + "\n")
	}
	w.WriteString("\n")
	if err := w.Flush(); err != nil {
		Logger().Debug("pass filter not written", zap.String("path", path), zap.Error(err))
	}
}
