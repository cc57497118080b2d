// Package errors provides structured error types for the irobf toolchain.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries a location path (unit, function, block), an optional
// source line for text-format errors, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseVerify, errors.KindDominance).
//		Path("demo.c", "sum", "entry").
//		Detail("operand %s does not dominate its use", name).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnknownKey(errors.PhaseConfig, "bcff")
//	err := errors.Syntax(12, "expected ')'")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
