package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/irobf/ir"
	"github.com/wippyai/irobf/ir/interp"
	"github.com/wippyai/irobf/irtext"
)

const demo = `
(module "demo.c"
  (declare $log (param $v i32) (result i32))
  (func $checksum (param $a i32) (param $b i32) (result i32)
    (block $entry
      (let $x (xor i32 $a $b))
      (let $s (add i32 $x $a))
      (let $c (icmp ugt i32 $s 100))
      (condbr $c $big $small))
    (block $big
      (let $d (sub i32 $s 100))
      (let $l (call $log $d))
      (ret $d))
    (block $small
      (let $o (or i32 $s 1))
      (ret $o)))
  (func $crypto_mix (param $a i32) (result i32)
    (block $entry
      (let $r (and i32 $a 255))
      (ret $r))))
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestObfuscate_WritesOutput(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "demo.ir", demo)
	out := filepath.Join(dir, "out.ir")

	_, err := execCmd(t, "", "obfuscate",
		"--enable", "bcf,sub", "--level-bcf", "100", "--level-sub", "1", "--seed", "3",
		"-o", out, in)
	require.NoError(t, err)

	orig := irtext.MustParse(demo)
	obf, err := irtext.ParseFile(out)
	require.NoError(t, err)
	require.NoError(t, ir.VerifyModule(obf))
	assert.Greater(t, len(obf.Function("checksum").Blocks), len(orig.Function("checksum").Blocks))

	host := map[string]interp.HostFunc{
		"log": func(args []uint64) (uint64, error) { return args[0], nil },
	}
	for _, args := range [][]uint64{{3, 4}, {200, 1}, {0xffffffff, 0}} {
		want, err := interp.New(orig, interp.Options{Host: host}).Call("checksum", args...)
		require.NoError(t, err)
		got, err := interp.New(obf, interp.Options{Host: host}).Call("checksum", args...)
		require.NoError(t, err)
		assert.Equal(t, want, got, "checksum%v", args)
	}
}

func TestObfuscate_StdinInactive(t *testing.T) {
	out, err := execCmd(t, demo, "obfuscate", "-")
	require.NoError(t, err)
	assert.Equal(t, ir.Print(irtext.MustParse(demo)), out)
}

func TestObfuscate_Errors(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "demo.ir", demo)
	bad := writeFile(t, dir, "bad.ir", "(module \"x\" (func")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown transform", []string{"obfuscate", "--enable", "nope", in}, `unknown transform "nope"`},
		{"parse error", []string{"obfuscate", bad}, "parse"},
		{"missing file", []string{"obfuscate", filepath.Join(dir, "missing.ir")}, "missing.ir"},
		{"watch stdin", []string{"obfuscate", "--watch", "-"}, "--watch needs an input file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdin := ""
			if tt.name == "watch stdin" {
				stdin = demo
			}
			_, err := execCmd(t, stdin, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestExplain(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "demo.ir", demo)
	rulesPath := writeFile(t, dir, "demo.rules", "+sub,^sub=1:\ncrypto_.*\n")

	out, err := execCmd(t, "", "explain", "--rules", rulesPath, in)
	require.NoError(t, err)

	assert.Contains(t, out, "demo.c/log")
	assert.Contains(t, out, "never transformed")
	assert.Contains(t, out, "demo.c/checksum")
	assert.Contains(t, out, "demo.c/crypto_mix")
	assert.Contains(t, out, "directives: +sub,^sub=1:")
	assert.Contains(t, out, "^sub=1")
	assert.Contains(t, out, "on 1")
}

func TestExplain_RulesFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "demo.ir", demo)
	t.Setenv(envRules, writeFile(t, dir, "env.rules", "-bcf:\n=\n"))

	out, err := execCmd(t, "", "explain", "--function", "checksum", in)
	require.NoError(t, err)
	assert.Contains(t, out, "directives: -bcf:")
	assert.NotContains(t, out, "crypto_mix")
}

func TestExplain_UnknownFunction(t *testing.T) {
	in := writeFile(t, t.TempDir(), "demo.ir", demo)
	_, err := execCmd(t, "", "explain", "--function", "nope", in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `function "nope" not found`)
}

func TestRun(t *testing.T) {
	in := writeFile(t, t.TempDir(), "demo.ir", demo)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"small branch", []string{"3", "4"}, []string{"result: 11"}},
		{"big branch calls host", []string{"0xc8", "1"}, []string{"call log(301) = 0", "result: 301"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execCmd(t, "", append([]string{"run", in, "checksum"}, tt.args...)...)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestRun_Compare(t *testing.T) {
	in := writeFile(t, t.TempDir(), "demo.ir", demo)
	out, err := execCmd(t, "", "run", "--compare",
		"--enable", "bcf,sub", "--level-bcf", "100", "--level-sub", "2", "--seed", "11",
		in, "checksum", "200", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "obfuscated (changed=true)")
	assert.Contains(t, out, "executions match")
}

func TestRun_Errors(t *testing.T) {
	in := writeFile(t, t.TempDir(), "demo.ir", demo)

	_, err := execCmd(t, "", "run", in, "checksum", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "argument 1")

	_, err = execCmd(t, "", "run", in, "nope")
	require.Error(t, err)
}

func TestParseArgs(t *testing.T) {
	got, err := parseArgs([]string{"10", "0x10", "0o10", "0b10"})
	require.NoError(t, err)
	assert.Equal(t, []uint64{10, 16, 8, 2}, got)
}
