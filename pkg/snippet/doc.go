// Package snippet renders a request.Request as runnable client code.
//
// Each supported client idiom is a Generator registered under a Target:
//
//   - curl: shell command (see package curl)
//   - fetch: browser/Node fetch API
//   - axios: axios config-object call
//   - python: python-requests
//   - go: net/http
//   - nodejs: Node's built-in http/https modules
//
// All generators share the same rules: an empty URL produces "", only
// headers with both key and value are emitted (in order), and a body is
// emitted only for non-GET requests with a non-blank body. A body that parses
// as JSON is pretty-printed with two-space indentation; any other body is
// embedded as a string literal of the target language.
//
// Usage:
//
//	code, err := snippet.Generate(snippet.TargetPython, req)
package snippet
