// Package fuzztests houses Go fuzz harnesses that exercise the front of the
// tracing pipeline (source -> document reader, source -> marker matcher) on
// arbitrary inputs. Its goal is to smoke test robustness: no panics, no
// stray error types, and no invariant violations on inputs that parse.
//
// The harnesses assert the contract the drivers rely on: every failure is a
// diag.SemanticError, and every success satisfies the structural checks in
// internal/testkit.
package fuzztests
