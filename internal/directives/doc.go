// Package directives resolves a declared build options literal into an
// immutable BuildDirectives value. Resolution is a pure, one-shot function:
// absent options take documented defaults and the only rejected input is an
// output mode outside the closed set of packaging strategies. The resolved
// value is read-only and may be shared across goroutines without locking.
package directives
