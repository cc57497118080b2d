// Package policy decides, per function and per transform kind, whether a
// transform runs and at what level.
//
// Three sources are merged. Global settings come from a config file and
// CLI flags and live in a Store. Inline annotations are attached to the
// function itself. Fired rules come from a rules.Store. Annotations and
// rule directives are free-form strings scanned for tokens:
//
//	+bcf       enable bogus control flow
//	-bcf       disable it and stop scanning
//	^bcf=80    set its level
//
// The Resolver is read-only; it can be shared by every transform of a run.
package policy
