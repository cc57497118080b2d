// Package irtext reads the s-expression text form of IR modules.
//
// A module lists globals, declarations and function definitions:
//
//	(module "demo.c"
//	  (global @seed i32 7)
//	  (declare $log (param $x i32))
//	  (func $add (param $a i32) (param $b i32) (result i32)
//	    (annotate "+sub" "^sub=2")
//	    (block $entry
//	      (let $s (add i32 $a $b (loc "demo.c" 3 10)))
//	      (call $log $s)
//	      (ret $s))))
//
// Values are written $name (parameters and instruction results), @name
// (globals) or as constants. A bare number takes its type from context;
// (i64 -1) spells the type explicitly. Printing is provided by ir.Print
// and round-trips through Parse.
package irtext
