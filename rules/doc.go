// Package rules loads function match rules and decides which rules fire
// for a function.
//
// A rule file is line oriented. A line ending in ':' (optionally followed
// by whitespace) opens a rule and is kept verbatim as the rule's directive
// string. The non-empty lines after it, up to the next directive line, are
// patterns. Lines starting with '#' are comments.
//
//	+sub,^sub=2,-fla:
//	crypto_.*
//	!crypto_selftest
//	@vendor/.*
//
// Pattern grammar, applied left to right:
//
//	@     the pattern targets the compilation unit identifier instead of
//	      the function name
//	!     the pattern excludes
//	=     wildcard: matches any target
//	else  a regular expression that must match the whole target
//
// A rule fires for a function when no exclusion pattern matches and at
// least one inclusion pattern matches.
package rules
