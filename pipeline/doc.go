// Package pipeline sequences obfuscation transforms over a compilation
// unit.
//
// Transforms register a Factory in a Registry. For every run the pipeline
// instantiates the planned transforms, drives them in the fixed Order,
// and finalizes each one exactly once. Function transforms see one
// function at a time together with its resolved policy; their rewrite is
// atomic because the pipeline snapshots the function first and restores it
// on error, panic, or (with Options.Verify) a failed verification.
package pipeline
