package cli

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"github.com/reqlab/reqlab/pkg/curl"
	"github.com/reqlab/reqlab/pkg/request"
)

// isTerminal reports whether r is an interactive terminal.
var isTerminal = func(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// askTarget asks for a URL or a pasted cURL command.
var askTarget = func() (string, error) {
	var value string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("URL or cURL command?").
				Placeholder("https://api.example.com/users").
				Value(&value).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("a URL or cURL command is required")
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return value, nil
}

// promptRequest fills in the request interactively. A cURL command goes
// through the import gate; anything else is the URL for the request flags.
func promptRequest(rf *requestFlags) (*request.Request, error) {
	answer, err := askTarget()
	if err != nil {
		return nil, err
	}
	answer = strings.TrimSpace(answer)
	if curl.LooksLikeCurl(answer) {
		return curl.Import(answer)
	}
	return rf.build([]string{answer})
}
