// Package diag defines the core diagnostic model shared by all pipeline phases.
//
// # Purpose
//
//   - Provide deterministic, serialisable data structures that capture findings
//     produced by the document reader, grammar validators and marker matcher.
//   - Offer a bounded container (Bag) that aggregates findings per file and
//     per run without coupling producers to storage or formatting layers.
//   - Carry the closed semantic error taxonomy as stable codes so tooling can
//     match on RNG/GRM/SPF identifiers instead of message text.
//
// # Scope
//
// Package diag does not perform any formatting, IO, CLI integration, or
// interactive behaviour. Rendering responsibilities live in internal/diagfmt,
// whereas orchestration lives in the driver layer.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//   - Message – human oriented text; keep it short and actionable.
//   - Hint – optional pointer at the likely cause.
//   - Example – optional well-formed input fragment, rendered verbatim.
//   - Primary span – the canonical source.Span pointing to the issue.
//   - Notes – optional secondary spans/messages for additional context.
//
// Notes should be used sparingly: each note must add new context (e.g. “range
// opened here”) rather than repeating the diagnostic message.
//
// # Semantic errors
//
// SemanticError wraps one Diagnostic together with a resolved source.Position
// so it can travel as a plain error value. PrintMessage renders the canonical
// multi-line report (title, location, optional hint and example). Codes in
// the 2000-4999 range form the closed semantic taxonomy; syntax and I/O
// failures are a separate class and never masquerade as semantic errors.
//
// # Emitting diagnostics
//
// Producers build findings with New or NewError and chain WithNote /
// WithHint / WithExample for secondary detail. Fatal findings travel as
// error values: Semantic wraps a Diagnostic into a *SemanticError, which
// the document reader and the marker matcher return through ordinary error
// plumbing. Drivers unwrap whatever reaches them and collect it into a Bag,
// which supports sorting, deduplication and merging across files.
//
// Keep the data model deterministic: any new fields should honour the
// package’s layering constraints and avoid side effects, so the CLI and
// future tooling can safely serialise diagnostics for caching and testing.
package diag
