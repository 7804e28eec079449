package proxy

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ohler55/ojg/jp"
)

// ErrNotJSON is returned by Query when the response body was not JSON.
var ErrNotJSON = errors.New("response body is not JSON")

// Query evaluates a JSONPath expression against the response body and
// returns every match. No match is an empty result, not an error.
func (r *Result) Query(path string) ([]any, error) {
	expr, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("jsonpath %q: %w", path, err)
	}

	raw, ok := r.Data.(json.RawMessage)
	if !ok {
		return nil, ErrNotJSON
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return expr.Get(doc), nil
}
