// Package schema checks the shape of raw workflow documents before they are decoded.
package schema

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var (
	//go:embed workflow.schema.json
	workflowSchema string

	//go:embed visual.schema.json
	visualSchema string
)

// ErrInvalidDocument is matched by every *ValidationError.
var ErrInvalidDocument = errors.New("invalid document")

// ValidationError lists the schema violations of a document.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation errors: " + strings.Join(e.Violations, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidDocument
}

// Validator checks documents against a compiled schema.
type Validator struct {
	schema *gojsonschema.Schema
}

// New compiles a JSON schema.
func New(source string) (*Validator, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Validator{schema: compiled}, nil
}

// Workflow returns a validator for adjacency-form workflow documents.
func Workflow() *Validator {
	return mustNew(workflowSchema)
}

// Visual returns a validator for visual graph documents.
func Visual() *Validator {
	return mustNew(visualSchema)
}

func mustNew(source string) *Validator {
	validator, err := New(source)
	if err != nil {
		panic(err)
	}

	return validator
}

// Validate checks a raw JSON document. Malformed JSON and schema violations are both
// reported as a *ValidationError.
func (v *Validator) Validate(document []byte) error {
	return v.check(gojsonschema.NewBytesLoader(document))
}

// ValidateValue checks an already decoded value.
func (v *Validator) ValidateValue(value any) error {
	return v.check(gojsonschema.NewGoLoader(value))
}

func (v *Validator) check(loader gojsonschema.JSONLoader) error {
	result, err := v.schema.Validate(loader)
	if err != nil {
		return &ValidationError{Violations: []string{err.Error()}}
	}

	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}

	return &ValidationError{Violations: violations}
}
