package irtext

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/wippyai/irobf/errors"
	"github.com/wippyai/irobf/ir"
)

const sample = `
;; exercise every instruction form
(module "sample.c"
  (global @seed i32 7)
  (global @flag i8 -1)
  (declare $may_throw (param $x i32) (result i32))
  (declare $log (param $x i32))
  (func $helper (param $a i32) (param $b i32) (result i32) (linkage internal)
    (annotate "+sub" "^sub = 3")
    (block $entry
      (let $s (add i32 $a $b (loc "sample.c" 3 10) (meta "dbg.value" $a)))
      (let $c (icmp slt i32 $s 10))
      (condbr $c $small $big))
    (block $small
      (let $w (zext i64 $s))
      (let $n (trunc i32 $w))
      (br $join))
    (block $big
      (let $r (invoke $may_throw $s (to $join2) (unwind $lpad))))
    (block $join2
      (br $join))
    (block $join
      (let $p (phi i32 ($n $small) ($r $join2)))
      (let $q (select i32 $c $p (i32 -1)))
      (store $q @seed)
      (call $log $q)
      (ret $q))
    (block $lpad
      (let $e (landingpad i32))
      (ret $e)))
  (func $external_copy (result i32) (linkage available_externally)
    (block $entry
      (let $v (load i32 @seed))
      (ret $v))))
`

func TestParse_Sample(t *testing.T) {
	m, err := Parse(sample)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.ID != "sample.c" {
		t.Errorf("ID = %q", m.ID)
	}
	if len(m.Globals) != 2 || m.Global("flag").Init != 0xff {
		t.Errorf("globals not parsed: %+v", m.Globals)
	}
	if err := ir.VerifyModule(m); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	h := m.Function("helper")
	if h.Linkage != ir.Internal {
		t.Errorf("linkage = %v", h.Linkage)
	}
	if len(h.Annotations) != 2 || h.Annotations[1] != "^sub = 3" {
		t.Errorf("annotations = %q", h.Annotations)
	}
	s := h.Entry().Instrs[0]
	if s.Loc == nil || s.Loc.Line != 3 || s.Loc.Col != 10 {
		t.Errorf("loc = %+v", s.Loc)
	}
	if v, ok := s.MetaValue("dbg.value"); !ok || v != h.Params[0] {
		t.Error("metadata operand not resolved")
	}
	c := h.Entry().Instrs[1]
	if k, ok := c.Operands[1].(*ir.Const); !ok || k.Typ != ir.I32 || k.Bits != 10 {
		t.Errorf("bare constant should take the compared type, got %v", c.Operands[1])
	}
	if !m.Function("may_throw").IsDeclaration() {
		t.Error("declare should produce a declaration")
	}
	if !m.Function("external_copy").IsAvailableExternally() {
		t.Error("linkage available_externally lost")
	}
}

func TestParse_RoundTrip(t *testing.T) {
	m := MustParse(sample)
	text := ir.Print(m)
	again, err := Parse(text)
	if err != nil {
		t.Fatalf("reparse printed module: %v\n%s", err, text)
	}
	if got := ir.Print(again); got != text {
		t.Errorf("round trip mismatch:\n%s\nwant:\n%s", got, text)
	}
}

func TestParse_AutoNamesUnboundResults(t *testing.T) {
	m := MustParse(`(module "u"
	  (declare $g (result i32))
	  (func $f (result i32)
	    (block $entry
	      (call $g)
	      (let $t (call $g))
	      (ret $t))))`)
	f := m.Function("f")
	first := f.Entry().Instrs[0]
	if first.Name == "" || first.Name == "t" {
		t.Errorf("unbound call result got name %q", first.Name)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		message string
	}{
		{"not a module", `(func $f)`, "expected (module"},
		{"unclosed", `(module "a"`, "unclosed"},
		{"trailing", `(module "a") x`, "after module"},
		{"unknown instruction", `(module "a" (func $f (block $b (frob))))`, "unknown instruction"},
		{"unknown value", `(module "a" (func $f (result i32) (block $b (ret $x))))`, "unknown value $x"},
		{"unknown block", `(module "a" (func $f (block $b (br $nowhere))))`, "unknown block"},
		{"duplicate name", `(module "a" (func $f (param $a i32) (block $a (unreachable))))`, "duplicate name"},
		{"untyped constant", `(module "a" (func $f (block $b (let $x (zext i64 5)) (unreachable))))`, "needs a type"},
		{"let on void", `(module "a" (global @g i32 0) (func $f (block $b (let $x (store (i32 1) @g)) (unreachable))))`, "produces no value"},
		{"wrong arity", `(module "a" (declare $g (param $x i32)) (func $f (block $b (call $g) (unreachable))))`, "want 1"},
		{"no blocks", `(module "a" (func $f))`, "has no blocks"},
		{"type mismatch", `(module "a" (func $f (param $a i64) (result i32) (block $b (ret $a))))`, "want i32"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("error %q does not contain %q", err, tt.message)
			}
			var e *errors.Error
			if !stderrors.As(err, &e) || e.Phase != errors.PhaseParse {
				t.Errorf("expected a parse-phase error, got %T", err)
			}
		})
	}
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile("/nonexistent/module.ir")
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseParse, Kind: errors.KindIO}) {
		t.Errorf("expected io error, got %v", err)
	}
}
