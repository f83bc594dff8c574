// Package dsl builds ad-hoc, named matchers.
//
// A matcher is declared once with a name and a declaration procedure, and
// instantiated at every use site with its expected values and an execution
// context. The procedure runs against each new instance and overrides any of
// the protocol methods:
//
//	beEven := dsl.Define("be_even", func(s *dsl.Scope) {
//	    s.Match(func(n int) bool { return n%2 == 0 })
//	})
//
//	m, _ := beEven(nil)
//	ok, _ := m.Matches(4) // true
//	msg, _ := m.FailureMessage() // "expected 4 to be even"
//
// Every protocol method resolves through the same chain: the wrapper installed
// by a registration operation (which records the actual value and applies the
// parameter-count rule), then the user's block,
// or the default implementation when nothing was declared. Calls to anything
// else are forwarded to the execution context, or fail with
// MethodNotUnderstoodError.
package dsl
