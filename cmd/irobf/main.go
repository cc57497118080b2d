// Command irobf obfuscates IR modules under a per-function policy.
//
// Usage:
//
//	# Substitute arithmetic in every function, write to out.ir
//	irobf obfuscate --enable sub --level-sub 2 -o out.ir demo.ir
//
//	# Let a rule file pick functions, re-run whenever an input changes
//	irobf obfuscate --rules demo.rules --watch -o out.ir demo.ir
//
//	# Show how the policy resolves for each function
//	irobf explain --config obf.json --rules demo.rules demo.ir
//	irobf explain -i --rules demo.rules demo.ir
//
//	# Execute a function, optionally checking the obfuscated form agrees
//	irobf run demo.ir checksum 3 4
//	irobf run --enable bcf,sub --compare demo.ir checksum 3 4
package main

func main() {
	Execute()
}
