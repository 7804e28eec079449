package id

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// Length is the size of a generated ID.
const Length = 20

// MaxLength bounds caller-chosen IDs.
const MaxLength = 36

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid id")

// New returns a random ID of Length characters.
func New() string {
	return random(Length)
}

// random returns n characters from alphabet. Bytes at or above the largest
// multiple of len(alphabet) are rejected so every character is equally likely.
func random(n int) string {
	const limit = 256 - 256%len(alphabet)

	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		_, _ = rand.Read(buf)
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out)
}

// Validate checks a caller-chosen ID.
func Validate(s string) error {
	if s == "" || len(s) > MaxLength {
		return fmt.Errorf("%w: length must be 1-%d", ErrInvalid, MaxLength)
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.' || c == '-' || c == '_':
			if i == 0 {
				return fmt.Errorf("%w: must start with a letter or digit", ErrInvalid)
			}
		default:
			return fmt.Errorf("%w: unexpected character %q", ErrInvalid, c)
		}
	}
	return nil
}
