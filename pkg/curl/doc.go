// Package curl converts between request.Request values and cURL command lines.
//
// The package is made of four pure functions:
//
//   - Format renders a request as a multi-line cURL command.
//   - LooksLikeCurl is a cheap gate deciding whether pasted text is worth parsing.
//   - Parse extracts method, headers, body and URL from a cURL command. It is
//     best-effort and never fails; an empty URL in the result means nothing
//     useful was found.
//   - Import combines the gate and the parser and turns the two failure modes
//     into errors (ErrNotCurl, ErrNoURL).
//
// # Parsing
//
// Parse tokenizes the command with POSIX-like quoting rules (single quotes are
// literal, double quotes honour backslash escapes, backslash-newline is a line
// continuation) and then runs a fixed sequence of extraction passes over the
// token list. Each pass takes the remaining tokens and returns the value it
// found together with the tokens it did not consume:
//
//	method -> headers -> body -> url
//
// Shell variable expansion, command substitution and $'...' quoting are not
// supported.
//
// # Output quoting
//
// Format wraps values in single quotes without escaping. A URL, header or body
// containing a single quote therefore produces a command a shell will reject.
package curl
