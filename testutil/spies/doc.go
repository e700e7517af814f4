// Package spies provides test doubles that capture logging, metrics, tracing, and mutation
// notification calls for inspection in tests.
package spies
