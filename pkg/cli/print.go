package cli

import (
	"io"

	"github.com/reqlab/reqlab/pkg/cli/internal/output"
)

// printResult writes data as JSON when --json is set and otherwise calls
// textFn. In JSON mode nothing else may be written to w.
func printResult(w io.Writer, data any, textFn func()) error {
	if jsonOutput {
		return output.JSON(w, data)
	}
	textFn()
	return nil
}
