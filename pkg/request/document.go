package request

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed request.schema.json
var documentSchema string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

// FieldError is one schema violation in a request document. Field uses dot
// notation ("headers.0.key"); it is empty for the document itself.
type FieldError struct {
	Field   string
	Message string
}

// DocumentError lists every violation found in a request document.
type DocumentError struct {
	Errors []FieldError
}

func (e *DocumentError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		if fe.Field == "" {
			parts[i] = fe.Message
		} else {
			parts[i] = fe.Field + ": " + fe.Message
		}
	}
	return "invalid request document: " + strings.Join(parts, "; ")
}

// DecodeDocument validates a JSON request document and decodes it. The method
// is normalized and an empty header list gets the placeholder row.
func DecodeDocument(data []byte) (*Request, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = compileSchema()
	})
	if schemaErr != nil {
		return nil, fmt.Errorf("compile request schema: %w", schemaErr)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			docErr := &DocumentError{}
			collectErrors(ve, docErr)
			return nil, docErr
		}
		return nil, err
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	req.Method = ParseMethod(string(req.Method))
	req.Headers = EnsurePlaceholder(req.Headers)
	return &req, nil
}

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("request.schema.json", strings.NewReader(documentSchema)); err != nil {
		return nil, err
	}
	return compiler.Compile("request.schema.json")
}

// collectErrors flattens the cause tree into its leaves.
func collectErrors(ve *jsonschema.ValidationError, out *DocumentError) {
	if len(ve.Causes) == 0 {
		field := strings.ReplaceAll(strings.TrimPrefix(ve.InstanceLocation, "/"), "/", ".")
		out.Errors = append(out.Errors, FieldError{Field: field, Message: ve.Message})
		return
	}
	for _, cause := range ve.Causes {
		collectErrors(cause, out)
	}
}
