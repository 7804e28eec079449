// Package id generates and checks the identifiers that appear in public
// share links.
//
// Generated IDs are 20 lowercase alphanumeric characters drawn from
// crypto/rand without modulo bias. Caller-chosen IDs are accepted when they
// are 1 to 36 characters of letters, digits, '.', '-' or '_' and do not start
// with a special character, so they stay safe in a URL path segment.
package id
