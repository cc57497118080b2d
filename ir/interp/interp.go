// Package interp executes IR functions. It backs the equivalence checks
// for transforms and the run command of the CLI.
package interp

import (
	stderrors "errors"
	"fmt"

	"github.com/wippyai/irobf/errors"
	"github.com/wippyai/irobf/ir"
)

// DefaultMaxSteps bounds execution when Options.MaxSteps is zero.
const DefaultMaxSteps = 1 << 20

// HostFunc implements a declared function. Returning an *Unwind error
// transfers control to the unwind destination of an invoke.
type HostFunc func(args []uint64) (uint64, error)

// Unwind is returned by a host to raise an exception carrying Payload.
type Unwind struct {
	Payload uint64
}

func (u *Unwind) Error() string {
	return fmt.Sprintf("unwind with payload %d", u.Payload)
}

// Options configures a Machine.
type Options struct {
	Host     map[string]HostFunc
	MaxSteps int
}

// Event records one call into a host function.
type Event struct {
	Name   string
	Args   []uint64
	Result uint64
}

// Machine holds the global state of one module execution.
type Machine struct {
	mod     *ir.Module
	opts    Options
	globals map[*ir.Global]uint64
	visits  map[*ir.Block]int
	trace   []Event
	steps   int
}

// New creates a machine with globals set to their initial values.
func New(m *ir.Module, opts Options) *Machine {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	mc := &Machine{
		mod:     m,
		opts:    opts,
		globals: make(map[*ir.Global]uint64, len(m.Globals)),
		visits:  make(map[*ir.Block]int),
	}
	for _, g := range m.Globals {
		mc.globals[g] = g.Init
	}
	return mc
}

// Call runs the named function with the given arguments.
func (mc *Machine) Call(name string, args ...uint64) (uint64, error) {
	f := mc.mod.Function(name)
	if f == nil {
		return 0, errors.NotFound(errors.PhaseInterp, "function", name)
	}
	if len(args) != len(f.Params) {
		return 0, errors.New(errors.PhaseInterp, errors.KindInvalidData).
			Path(name).
			Detail("got %d arguments, want %d", len(args), len(f.Params)).
			Build()
	}
	masked := make([]uint64, len(args))
	for i, a := range args {
		masked[i] = a & f.Params[i].Typ.Mask()
	}
	return mc.call(f, masked)
}

// Trace returns the host calls made so far, in order.
func (mc *Machine) Trace() []Event { return mc.trace }

// Visits returns how many times b was entered.
func (mc *Machine) Visits(b *ir.Block) int { return mc.visits[b] }

// Global returns the current value of the named global.
func (mc *Machine) Global(name string) (uint64, bool) {
	g := mc.mod.Global(name)
	if g == nil {
		return 0, false
	}
	return mc.globals[g], true
}

// Steps returns the number of instructions executed.
func (mc *Machine) Steps() int { return mc.steps }

func (mc *Machine) call(f *ir.Function, args []uint64) (uint64, error) {
	if f.IsDeclaration() {
		host, ok := mc.opts.Host[f.Name]
		if !ok {
			return 0, errors.NotFound(errors.PhaseInterp, "host function", f.Name)
		}
		res, err := host(args)
		res &= f.Result.Mask()
		if err == nil {
			mc.trace = append(mc.trace, Event{Name: f.Name, Args: args, Result: res})
		}
		return res, err
	}

	fr := &frame{fn: f, vals: make(map[ir.Value]uint64)}
	for i, p := range f.Params {
		fr.vals[p] = args[i]
	}
	return mc.exec(fr)
}

type frame struct {
	fn      *ir.Function
	vals    map[ir.Value]uint64
	payload uint64
}

func (fr *frame) get(v ir.Value) uint64 {
	if c, ok := v.(*ir.Const); ok {
		return c.Bits
	}
	return fr.vals[v]
}

func (mc *Machine) exec(fr *frame) (uint64, error) {
	var prev *ir.Block
	cur := fr.fn.Entry()

	for {
		mc.visits[cur]++
		mc.enterPhis(fr, prev, cur)

		next, ret, done, err := mc.runBlock(fr, cur)
		if err != nil || done {
			return ret, err
		}
		prev, cur = cur, next
	}
}

// enterPhis evaluates the leading phis of b in parallel.
func (mc *Machine) enterPhis(fr *frame, pred, b *ir.Block) {
	n := b.FirstNonPhi()
	if n == 0 {
		return
	}
	incoming := make([]uint64, n)
	for i, in := range b.Instrs[:n] {
		incoming[i] = fr.get(in.Incoming(pred))
	}
	for i, in := range b.Instrs[:n] {
		fr.vals[in] = incoming[i]
	}
}

func (mc *Machine) runBlock(fr *frame, b *ir.Block) (next *ir.Block, ret uint64, done bool, err error) {
	for _, in := range b.Instrs[b.FirstNonPhi():] {
		mc.steps++
		if mc.steps > mc.opts.MaxSteps {
			return nil, 0, true, errors.New(errors.PhaseInterp, errors.KindStepLimit).
				Path(fr.fn.Name, b.Name).
				Detail("exceeded %d steps", mc.opts.MaxSteps).
				Build()
		}

		switch in.Op {
		case ir.OpBr:
			return in.Targets[0], 0, false, nil
		case ir.OpCondBr:
			if fr.get(in.Operands[0])&1 == 1 {
				return in.Targets[0], 0, false, nil
			}
			return in.Targets[1], 0, false, nil
		case ir.OpRet:
			if len(in.Operands) == 0 {
				return nil, 0, true, nil
			}
			return nil, fr.get(in.Operands[0]), true, nil
		case ir.OpUnreachable:
			return nil, 0, true, errors.Trap([]string{fr.fn.Name, b.Name}, "unreachable executed")
		case ir.OpInvoke:
			res, err := mc.call(in.Callee, mc.args(fr, in))
			var uw *Unwind
			if stderrors.As(err, &uw) {
				fr.payload = uw.Payload
				return in.Targets[1], 0, false, nil
			}
			if err != nil {
				return nil, 0, true, err
			}
			if in.HasResult() {
				fr.vals[in] = res
			}
			return in.Targets[0], 0, false, nil
		case ir.OpCall:
			res, err := mc.call(in.Callee, mc.args(fr, in))
			if err != nil {
				return nil, 0, true, err
			}
			if in.HasResult() {
				fr.vals[in] = res
			}
		case ir.OpLandingPad:
			fr.vals[in] = fr.payload & in.Typ.Mask()
		case ir.OpStore:
			g := in.Operands[1].(*ir.Global)
			mc.globals[g] = fr.get(in.Operands[0]) & g.Typ.Mask()
		case ir.OpLoad:
			fr.vals[in] = mc.globals[in.Operands[0].(*ir.Global)]
		default:
			v, err := Eval(in, fr.get)
			if err != nil {
				return nil, 0, true, errors.New(errors.PhaseInterp, errors.KindTrap).
					Path(fr.fn.Name, b.Name).
					Cause(err).
					Detail("%s trapped", in.Ref()).
					Build()
			}
			fr.vals[in] = v
		}
	}
	return nil, 0, true, errors.Malformed([]string{fr.fn.Name, b.Name}, "fell off the end of the block")
}

func (mc *Machine) args(fr *frame, in *ir.Instr) []uint64 {
	out := make([]uint64, len(in.Operands))
	for i, op := range in.Operands {
		out[i] = fr.get(op)
	}
	return out
}
