// Package sanitizer normalises user-supplied booking and listing input before
// validation and storage.
//
// All functions are idempotent: applying them twice gives the same result.
// They never fail; input that cannot be normalised is returned in a form the
// validators will reject.
//
// Normalisation includes:
//   - Names: collapse whitespace, trim
//   - E-mail addresses: trim, lowercase
//   - Phone numbers: strip separators, E.164 when the number carries a
//     country code and is valid
//   - Free text: trim, drop control characters other than newlines and tabs
package sanitizer
