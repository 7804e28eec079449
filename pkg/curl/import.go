package curl

import (
	"errors"

	"github.com/reqlab/reqlab/pkg/request"
)

// Import failure causes.
var (
	// ErrNotCurl means the input failed LooksLikeCurl.
	ErrNotCurl = errors.New("not a curl command")

	// ErrNoURL means the input parsed but no URL could be extracted.
	ErrNoURL = errors.New("could not extract a URL")
)

// FormatCurl names the only import format.
const FormatCurl = "curl"

// ImportError describes a rejected import. Cause is ErrNotCurl or ErrNoURL.
type ImportError struct {
	Format  string
	Message string
	Cause   error
}

func (e *ImportError) Error() string {
	msg := "import"
	if e.Format != "" {
		msg = e.Format + " " + msg
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ImportError) Unwrap() error {
	return e.Cause
}

// Import gates text through LooksLikeCurl and parses it. A result without a
// URL is discarded as a whole and reported as ErrNoURL.
func Import(text string) (*request.Request, error) {
	if !LooksLikeCurl(text) {
		return nil, &ImportError{Format: FormatCurl, Message: "input rejected", Cause: ErrNotCurl}
	}

	parsed := Parse(text)
	if parsed.URL == "" {
		return nil, &ImportError{Format: FormatCurl, Message: "nothing usable in command", Cause: ErrNoURL}
	}
	return parsed, nil
}

// ImportInto imports text and merges the result over current, keeping its
// display name. On error current is returned untouched together with the
// error, so callers can keep showing the state they already had.
func ImportInto(current *request.Request, text string) (*request.Request, error) {
	parsed, err := Import(text)
	if err != nil {
		return current, err
	}
	if current != nil {
		parsed.Name = current.Name
	}
	return parsed, nil
}
