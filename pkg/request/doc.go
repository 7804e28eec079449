// Package request defines the canonical in-memory model of an HTTP request
// shared by the cURL formatter, the cURL parser, the snippet generators and
// the persistence and proxy layers.
//
// A Request is a plain value. Helpers in this package never modify their
// receiver; anything that needs a changed copy calls Clone first.
//
// Header order is significant: it is the order headers are emitted in every
// generated command or snippet, and the order the cURL parser reports them
// in. Headers with an empty key or value are kept while a request is being
// edited but are skipped by ActiveHeaders.
package request
