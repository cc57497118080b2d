// Package irobf is a policy driven obfuscation pipeline for a CFG based
// intermediate representation.
//
// Transforms rewrite functions so that they compute exactly what they
// computed before while being harder to read. Which transforms run on
// which function, and how aggressively, is decided per function by merging
// a global configuration, annotations attached to the function, and a rule
// file matching function and unit names.
//
// # Architecture Overview
//
//	irobf/                  Options, DefaultRegistry, Obfuscate
//	├── ir/                 Module, Function, Block, Instr; builder, split,
//	│                       clone, verifier, printer
//	│   └── interp/         Reference interpreter used to check equivalence
//	├── irtext/             S-expression text format for modules
//	├── policy/             Kinds, global settings, directives, resolver
//	├── rules/              Rule file loader and name patterns
//	├── pipeline/           Transform registry, fixed order, atomic apply
//	├── transform/bogus/    Opaque predicates guarding dead block clones
//	├── transform/substitute/ Equivalent rewrites of add, sub, and, or, xor
//	├── stats/              Pass counters on a private Prometheus registry
//	├── errors/             Structured error types
//	└── cmd/irobf/          Command line tool
//
// # Quick Start
//
//	m, err := irtext.ParseFile("demo.ir")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	changed, err := irobf.Obfuscate(m, irobf.Options{
//	    Enable:    []policy.Kind{policy.Substitution},
//	    RulesPath: "demo.rules",
//	    Verify:    true,
//	})
//	if err != nil {
//	    log.Print(err) // configuration warnings, m is still processed
//	}
//	fmt.Print(ir.Print(m))
//
// # Directives
//
// Annotations and rule directives are free-form strings that mention
// transforms by short name:
//
//	+sub       enable instruction substitution
//	-bcf       disable bogus control flow, ignore everything after
//	^sub=3     sweep four times instead of once
//
// See package policy for the resolution order and package rules for the
// rule file format.
package irobf
