// Package sanitizer normalizes free text submitted through the portal before
// it is validated or forwarded to the tutoring API.
//
// All functions are idempotent and never fail: invalid input collapses to an
// empty string or empty slice.
//
// Normalization includes:
//   - Single-line text (subjects, search terms): collapse whitespace, trim
//   - Multi-line text (notes, feedback): trim, drop control characters, keep line breaks, cap length
//   - Slices: remove duplicates and empty values after normalization
//   - Numbers: clamp to valid ranges
package sanitizer
