// Package metadata reads, patches and validates the project descriptor
// (package.json) at the root of a provisioned project. Patching rewrites a
// single top-level field while keeping key order and every other value
// verbatim; only whitespace is normalized to two-space indentation.
package metadata
