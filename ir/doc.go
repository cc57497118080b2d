// Package ir defines the control-flow-graph program form rewritten by the
// obfuscation transforms.
//
// A Module holds globals and functions. A Function is a list of basic
// blocks; every block ends in exactly one terminator. Values are in SSA
// form: each Instr that produces a result is itself a Value, and phi
// instructions merge values at join points.
//
// The package provides the mutation primitives transforms rely on:
//
//   - Builder inserts new instructions at a position in a block
//   - Block.SplitAt moves a suffix of a block into a fresh successor
//   - CloneBlock duplicates a block, remapping local value references,
//     debug locations and metadata to the copy
//   - Function.ReplaceAllUsesWith rewires users of a value
//   - Function.Snapshot and Function.Restore give transforms an undo point
//
// Verify checks structural well-formedness and SSA dominance, and Print
// renders a module in the text form read by package irtext.
package ir
