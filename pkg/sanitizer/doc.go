// Package sanitizer normalizes user input before validation and storage.
//
// All normalization functions are idempotent - applying them multiple times produces
// the same result. Functions handle invalid input gracefully by returning empty
// strings rather than errors, so the validator reports the field as missing or
// malformed.
//
// Normalization includes:
//   - Phone numbers: Convert to E.164 format (+[country][number]), national numbers
//     are read in the configured default region
//   - Strings: Collapse whitespace, trim leading/trailing spaces
//   - Emails: Trim and lowercase
//   - Identifiers: Trim and lowercase, keeping order and duplicates
package sanitizer
