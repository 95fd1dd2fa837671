// Package apiscan cross-references the API surface of a repository: the
// routes a router source binds to handler functions, the paths and methods
// documented in an OpenAPI object embedded as a literal in source, and the
// test files that exist alongside them.
//
// # Pipeline
//
// An [Analyzer] runs three independent extractors and merges their results
// into a [Report]:
//
//  1. Route bindings: a regular expression over the router source yields
//     (path, handler) pairs in source order. Later bindings of the same path
//     win; duplicates are reported as warnings.
//
//  2. Spec paths: the documentation source is searched for the declaration
//     of the OpenAPI constant, the balanced extent of its object literal is
//     found with a bracket-depth scanner, and the text is decoded by a
//     restricted literal parser built on tree-sitter. Nothing is evaluated.
//
//  3. Test inventory: the configured test roots are walked and files matching
//     the test patterns are collected, sorted, relative to the repository root.
//
// A missing router file, documentation file or test root contributes an
// empty result. A documentation file without the declaration fails with
// [*SpecNotFoundError]; a declaration whose literal cannot be decoded fails
// with [*SpecEvaluationError].
//
// # Usage
//
//	a, err := apiscan.New("path/to/repo")
//	if err != nil { ... }
//	report, err := a.Analyze(ctx)
//
// [Analyzer.CrossReference] joins the three results into a [Coverage] view,
// and [Analyzer.Check] runs Risor policy scripts against both.
package apiscan
