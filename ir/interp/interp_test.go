package interp

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/irobf/errors"
	"github.com/wippyai/irobf/ir"
)

func maxModule() *ir.Module {
	m := ir.NewModule("max.c")
	f := m.AddFunction(ir.NewFunction("max", ir.I32, &ir.Param{Name: "a", Typ: ir.I32}, &ir.Param{Name: "b", Typ: ir.I32}))
	entry, left, right, join := f.NewBlock("entry"), f.NewBlock("left"), f.NewBlock("right"), f.NewBlock("join")
	b := ir.NewBuilder(entry)
	b.CondBr(b.ICmp(ir.PredSGT, f.Params[0], f.Params[1]), left, right)
	ir.NewBuilder(left).Br(join)
	ir.NewBuilder(right).Br(join)
	jb := ir.NewBuilder(join)
	phi := jb.Phi(ir.I32)
	phi.AddIncoming(f.Params[0], left)
	phi.AddIncoming(f.Params[1], right)
	jb.Ret(phi)
	return m
}

// sumModule builds sum(n) = 0 + 1 + ... + (n-1) with a counter global
// incremented once per iteration.
func sumModule() *ir.Module {
	m := ir.NewModule("sum.c")
	ctr := m.AddGlobal("iterations", ir.I32, 0)
	f := m.AddFunction(ir.NewFunction("sum", ir.I32, &ir.Param{Name: "n", Typ: ir.I32}))
	entry, loop, exit := f.NewBlock("entry"), f.NewBlock("loop"), f.NewBlock("exit")

	eb := ir.NewBuilder(entry)
	eb.CondBr(eb.ICmp(ir.PredEQ, f.Params[0], ir.ConstInt(ir.I32, 0)), exit, loop)

	lb := ir.NewBuilder(loop)
	i := lb.Phi(ir.I32)
	acc := lb.Phi(ir.I32)
	nacc := lb.Add(acc, i)
	ni := lb.Add(i, ir.ConstInt(ir.I32, 1))
	lb.Store(lb.Add(lb.Load(ctr), ir.ConstInt(ir.I32, 1)), ctr)
	lb.CondBr(lb.ICmp(ir.PredULT, ni, f.Params[0]), loop, exit)
	i.AddIncoming(ir.ConstInt(ir.I32, 0), entry)
	i.AddIncoming(ni, loop)
	acc.AddIncoming(ir.ConstInt(ir.I32, 0), entry)
	acc.AddIncoming(nacc, loop)

	xb := ir.NewBuilder(exit)
	res := xb.Phi(ir.I32)
	res.AddIncoming(ir.ConstInt(ir.I32, 0), entry)
	res.AddIncoming(nacc, loop)
	xb.Ret(res)
	return m
}

func TestMachine_Max(t *testing.T) {
	tests := []struct {
		a, b uint64
		want uint64
	}{
		{1, 2, 2},
		{5, 3, 5},
		{0xffffffff, 0, 0}, // -1 < 0
		{0x80000000, 0x7fffffff, 0x7fffffff},
	}
	for _, tt := range tests {
		mc := New(maxModule(), Options{})
		got, err := mc.Call("max", tt.a, tt.b)
		if err != nil {
			t.Fatalf("max(%d, %d): %v", tt.a, tt.b, err)
		}
		if got != tt.want {
			t.Errorf("max(%#x, %#x) = %#x, want %#x", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestMachine_LoopAndGlobals(t *testing.T) {
	m := sumModule()
	if err := ir.VerifyModule(m); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	mc := New(m, Options{})
	got, err := mc.Call("sum", 5)
	if err != nil {
		t.Fatal(err)
	}
	if got != 10 {
		t.Errorf("sum(5) = %d, want 10", got)
	}
	if n, _ := mc.Global("iterations"); n != 5 {
		t.Errorf("iterations = %d, want 5", n)
	}
	if v := mc.Visits(m.Function("sum").Block("loop")); v != 5 {
		t.Errorf("loop visits = %d, want 5", v)
	}
}

func TestMachine_StepLimit(t *testing.T) {
	mc := New(sumModule(), Options{MaxSteps: 10})
	_, err := mc.Call("sum", 1000)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseInterp, Kind: errors.KindStepLimit}) {
		t.Fatalf("expected step limit error, got %v", err)
	}
}

func TestMachine_Traps(t *testing.T) {
	m := ir.NewModule("trap.c")
	f := m.AddFunction(ir.NewFunction("div", ir.I8, &ir.Param{Name: "a", Typ: ir.I8}, &ir.Param{Name: "b", Typ: ir.I8}))
	b := ir.NewBuilder(f.NewBlock("entry"))
	b.Ret(b.Binary(ir.OpSDiv, f.Params[0], f.Params[1]))

	tests := []struct {
		name  string
		a, b  uint64
		cause error
	}{
		{"divide by zero", 1, 0, ErrDivideByZero},
		{"overflow", 0x80, 0xff, ErrOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(m, Options{}).Call("div", tt.a, tt.b)
			if !stderrors.Is(err, tt.cause) {
				t.Errorf("got %v, want %v", err, tt.cause)
			}
		})
	}

	got, err := New(m, Options{}).Call("div", 0xf9, 2) // -7 / 2
	if err != nil || got != 0xfd {
		t.Errorf("div(-7, 2) = %#x, %v; want 0xfd", got, err)
	}
}

func TestMachine_HostCallsAndUnwind(t *testing.T) {
	m := ir.NewModule("eh.c")
	ext := m.AddFunction(ir.NewFunction("may_throw", ir.I32, &ir.Param{Name: "x", Typ: ir.I32}))
	log := m.AddFunction(ir.NewFunction("log", ir.Void, &ir.Param{Name: "x", Typ: ir.I32}))
	f := m.AddFunction(ir.NewFunction("guarded", ir.I32, &ir.Param{Name: "x", Typ: ir.I32}))
	entry, ok, lp := f.NewBlock("entry"), f.NewBlock("ok"), f.NewBlock("lpad")

	eb := ir.NewBuilder(entry)
	eb.Call(log, f.Params[0])
	r := eb.Invoke(ext, ok, lp, f.Params[0])
	ir.NewBuilder(ok).Ret(r)
	lb := ir.NewBuilder(lp)
	lb.Ret(lb.Add(lb.LandingPad(ir.I32), ir.ConstInt(ir.I32, 100)))

	if err := ir.VerifyModule(m); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	host := map[string]HostFunc{
		"log": func([]uint64) (uint64, error) { return 0, nil },
		"may_throw": func(args []uint64) (uint64, error) {
			if args[0] > 10 {
				return 0, &Unwind{Payload: args[0]}
			}
			return args[0] * 2, nil
		},
	}

	mc := New(m, Options{Host: host})
	if got, err := mc.Call("guarded", 3); err != nil || got != 6 {
		t.Errorf("guarded(3) = %d, %v; want 6", got, err)
	}
	if got, err := mc.Call("guarded", 20); err != nil || got != 120 {
		t.Errorf("guarded(20) = %d, %v; want 120", got, err)
	}
	trace := mc.Trace()
	if len(trace) != 3 || trace[0].Name != "log" || trace[1].Name != "may_throw" || trace[2].Name != "log" {
		t.Errorf("unexpected trace %+v", trace)
	}

	if _, err := New(m, Options{}).Call("guarded", 1); err == nil {
		t.Error("missing host should fail")
	}
}

func TestBinary(t *testing.T) {
	tests := []struct {
		op   ir.Opcode
		typ  ir.Type
		x, y uint64
		want uint64
	}{
		{ir.OpAdd, ir.I8, 0xff, 1, 0},
		{ir.OpSub, ir.I16, 0, 1, 0xffff},
		{ir.OpMul, ir.I32, 0x10000, 0x10000, 0},
		{ir.OpAnd, ir.I64, ^uint64(0), 0xf0, 0xf0},
		{ir.OpOr, ir.I1, 1, 0, 1},
		{ir.OpXor, ir.I8, 0xaa, 0xff, 0x55},
		{ir.OpURem, ir.I32, 7, 3, 1},
		{ir.OpSRem, ir.I8, 0xf9, 2, 0xff},
		{ir.OpShl, ir.I8, 0x81, 1, 0x02},
		{ir.OpLShr, ir.I8, 0x80, 7, 1},
		{ir.OpAShr, ir.I8, 0x80, 7, 0xff},
	}
	for _, tt := range tests {
		t.Run(tt.op.String()+"/"+tt.typ.String(), func(t *testing.T) {
			got, err := Binary(tt.op, tt.typ, tt.x, tt.y)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("%s %s %#x, %#x = %#x, want %#x", tt.op, tt.typ, tt.x, tt.y, got, tt.want)
			}
		})
	}

	if _, err := Binary(ir.OpShl, ir.I32, 1, 32); !stderrors.Is(err, ErrShift) {
		t.Errorf("oversized shift should trap, got %v", err)
	}
}

func TestCompare(t *testing.T) {
	if !Compare(ir.PredSLT, ir.I8, 0xff, 0) {
		t.Error("-1 <s 0")
	}
	if Compare(ir.PredULT, ir.I8, 0xff, 0) {
		t.Error("255 <u 0 is false")
	}
	if !Compare(ir.PredSGE, ir.I64, 5, 5) {
		t.Error("5 >=s 5")
	}
}
