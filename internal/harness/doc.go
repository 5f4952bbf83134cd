// Package harness runs golden-value acceptance checks against a mirror
// reflectivity source.
//
// # Suite Format
//
// Suites are defined in YAML files:
//
//	name: mirrors-default
//	description: "Reflectivity regression checks for the default mirror section"
//	section: default
//	scale: 10000
//	checks:
//	  - angle: 0.25
//	    energy: 1
//	    expected: 9721
//
// Each check queries the mirror at (angle, energy), multiplies the result by
// the suite scale, truncates toward zero, and compares the integer against
// the golden value. Suites are validated against an embedded CUE schema
// before strict YAML decoding.
//
// # Execution Model
//
// Run executes checks in order and stops at the first mismatch: later checks
// are never queried. The outcome is a structured Report; the harness never
// terminates the process. A failing query (as opposed to a mismatching
// value) aborts the run with an error, which callers surface separately from
// a golden-value failure.
//
// # Golden Files
//
// Reports serialize to canonical JSON (sorted keys, NFC-normalized strings)
// so runs are byte-for-byte reproducible, and tests compare them against
// goldie fixtures in testdata/golden.
package harness
