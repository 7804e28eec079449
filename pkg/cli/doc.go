// Package cli implements the reqlab command line: cURL conversion, snippet
// generation and the HTTP API server.
package cli
