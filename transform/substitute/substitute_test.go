package substitute

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/irobf/ir"
	"github.com/wippyai/irobf/ir/interp"
	"github.com/wippyai/irobf/irtext"
	"github.com/wippyai/irobf/pipeline"
	"github.com/wippyai/irobf/policy"
	"github.com/wippyai/irobf/stats"
)

var substituted = []ir.Opcode{ir.OpAdd, ir.OpSub, ir.OpAnd, ir.OpOr, ir.OpXor}

func boundaryValues(t ir.Type) []uint64 {
	bits := t.Bits()
	signBit := uint64(1) << (bits - 1)
	return []uint64{
		0,
		1,
		2,
		t.Mask(),              // -1
		signBit,               // signed min
		(signBit - 1),         // signed max
		t.Mask() - 1,          // -2
		0x5a5a5a5a5a5a5a5a & t.Mask(),
		0xdeadbeefcafebabe & t.Mask(),
	}
}

// buildVariant creates f(a, b) = variant v of a OP b.
func buildVariant(typ ir.Type, v Variant, r uint64) *ir.Module {
	m := ir.NewModule("variant")
	f := m.AddFunction(ir.NewFunction("f", typ,
		&ir.Param{Name: "a", Typ: typ},
		&ir.Param{Name: "b", Typ: typ}))
	b := ir.NewBuilder(f.NewBlock("entry"))
	b.Ret(Build(b, v, f.Params[0], f.Params[1], r))
	return m
}

func TestVariants_Catalog(t *testing.T) {
	assert.Len(t, Variants(ir.OpAdd), 4)
	assert.Len(t, Variants(ir.OpSub), 3)
	assert.Len(t, Variants(ir.OpAnd), 2)
	assert.Len(t, Variants(ir.OpOr), 2)
	assert.Len(t, Variants(ir.OpXor), 2)
	for _, op := range []ir.Opcode{ir.OpMul, ir.OpURem, ir.OpShl, ir.OpICmp} {
		assert.Empty(t, Variants(op), op.String())
	}

	seen := map[Variant]bool{}
	for _, op := range substituted {
		for _, v := range Variants(op) {
			assert.False(t, seen[v], "variant %s listed twice", v)
			seen[v] = true
			assert.NotEqual(t, "invalid", v.String())
		}
	}
	assert.Len(t, seen, int(numVariants))
}

func TestBuild_Equivalence(t *testing.T) {
	types := []ir.Type{ir.I1, ir.I8, ir.I16, ir.I32, ir.I64}
	randoms := []uint64{0, ^uint64(0), 0x0123456789abcdef}

	for _, op := range substituted {
		for _, v := range Variants(op) {
			t.Run(v.String(), func(t *testing.T) {
				for _, typ := range types {
					for _, r := range randoms {
						m := buildVariant(typ, v, r)
						require.NoError(t, ir.VerifyModule(m))
						mc := interp.New(m, interp.Options{})

						vals := boundaryValues(typ)
						for _, x := range vals {
							for _, y := range vals {
								want, err := interp.Binary(op, typ, x&typ.Mask(), y&typ.Mask())
								require.NoError(t, err)
								got, err := mc.Call("f", x, y)
								require.NoError(t, err)
								if got != want {
									t.Fatalf("%s %s r=%#x: f(%#x, %#x) = %#x, want %#x", v, typ, r, x, y, got, want)
								}
							}
						}
					}
				}
			})
		}
	}
}

const arith = `
(module "arith.c"
  (func $mix (param $a i32) (param $b i32) (param $c i32) (result i32)
    (block $entry
      (let $s (add i32 $a $b))
      (let $d (sub i32 $s $c))
      (let $n (and i32 $d $a))
      (let $o (or i32 $n $b))
      (let $x (xor i32 $o $s))
      (let $m (mul i32 $x 3))
      (ret $m))))
`

func newTransform(seed uint64, col *stats.Collector) *Transform {
	env := &pipeline.Env{Rand: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), Stats: col}
	return New(env).(*Transform)
}

func TestRunOnFunction_PreservesSemantics(t *testing.T) {
	grid := []uint64{0, 1, 7, 0x7fffffff, 0x80000000, 0xffffffff, 0x12345678}

	for _, level := range []uint32{0, 1, 2} {
		for seed := uint64(1); seed <= 4; seed++ {
			orig, err := irtext.Parse(arith)
			require.NoError(t, err)
			obf, err := irtext.Parse(arith)
			require.NoError(t, err)

			tr := newTransform(seed, nil)
			changed, err := tr.RunOnFunction(obf.Function("mix"), policy.Effective{Enabled: true, Level: level})
			require.NoError(t, err)
			require.True(t, changed)
			require.NoError(t, ir.VerifyModule(obf))

			want := interp.New(orig, interp.Options{})
			got := interp.New(obf, interp.Options{})
			for _, a := range grid {
				for _, b := range grid {
					for _, c := range []uint64{0, 5, 0xffffffff} {
						w, err := want.Call("mix", a, b, c)
						require.NoError(t, err)
						g, err := got.Call("mix", a, b, c)
						require.NoError(t, err)
						require.Equal(t, w, g, "level=%d seed=%d mix(%#x, %#x, %#x)", level, seed, a, b, c)
					}
				}
			}
		}
	}
}

func TestRunOnFunction_RemovesOriginals(t *testing.T) {
	m, err := irtext.Parse(arith)
	require.NoError(t, err)
	f := m.Function("mix")
	before := map[*ir.Instr]bool{}
	for _, in := range f.Instructions() {
		if len(Variants(in.Op)) > 0 {
			before[in] = true
		}
	}
	require.Len(t, before, 5)

	_, err = newTransform(3, nil).RunOnFunction(f, policy.Effective{Enabled: true})
	require.NoError(t, err)

	mul := 0
	for _, in := range f.Instructions() {
		assert.False(t, before[in], "original %s still present", in.Name)
		if in.Op == ir.OpMul {
			mul++
		}
	}
	assert.Equal(t, 1, mul, "mul is never substituted")
}

func TestRunOnFunction_SweepCount(t *testing.T) {
	m, err := irtext.Parse(arith)
	require.NoError(t, err)

	tr := newTransform(9, nil)
	var sweeps []int
	tr.onSweep = func(visited int) { sweeps = append(sweeps, visited) }

	_, err = tr.RunOnFunction(m.Function("mix"), policy.Effective{Enabled: true, Level: 3})
	require.NoError(t, err)
	require.Len(t, sweeps, 4)
	assert.Equal(t, 5, sweeps[0])
	for i := 1; i < len(sweeps); i++ {
		assert.Greater(t, sweeps[i], sweeps[i-1], "each sweep rewrites the output of the previous one")
	}
}

func TestRunOnFunction_NothingToRewrite(t *testing.T) {
	m, err := irtext.Parse(`
(module "m"
  (func $sq (param $a i64) (result i64)
    (block $entry
      (let $r (mul i64 $a $a))
      (ret $r))))`)
	require.NoError(t, err)

	tr := newTransform(1, nil)
	sweeps := 0
	tr.onSweep = func(int) { sweeps++ }
	changed, err := tr.RunOnFunction(m.Function("sq"), policy.Effective{Enabled: true, Level: 5})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, sweeps)
}

func TestRunOnFunction_Stats(t *testing.T) {
	m, err := irtext.Parse(arith)
	require.NoError(t, err)
	col := stats.New()

	_, err = newTransform(5, col).RunOnFunction(m.Function("mix"), policy.Effective{Enabled: true})
	require.NoError(t, err)

	samples, err := col.Snapshot()
	require.NoError(t, err)
	byOp := map[string]float64{}
	for _, s := range samples {
		if s.Name == "irobf_substitutions_total" {
			byOp[s.Labels["op"]] = s.Value
		}
	}
	assert.Equal(t, map[string]float64{"add": 1, "sub": 1, "and": 1, "or": 1, "xor": 1}, byOp)
}

func TestFactory(t *testing.T) {
	f := Factory()
	assert.Equal(t, policy.Substitution, f.Kind)
	assert.Equal(t, pipeline.ScopeFunction, f.Scope)
	tr := f.New(&pipeline.Env{Rand: rand.New(rand.NewPCG(1, 1))})
	assert.Equal(t, policy.Substitution, tr.Kind())
	assert.NoError(t, tr.Finalize())
}
