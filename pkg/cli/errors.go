package cli

import "errors"

// Common CLI errors
var (
	ErrMissingURL = errors.New("a URL is required (argument or --file)")
	ErrNotCurl    = errors.New("input does not look like a curl command")
)
