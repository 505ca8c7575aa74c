// Package schema validates state documents against the embedded JSON
// Schema. This is diagnostic tooling for the doctor command; the hot read
// path in statestore never pays for schema validation.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/agentview/core/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed state.embedded.schema.json
var embeddedSchemaData []byte

// Validator validates state documents against the embedded JSON Schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator loads and compiles the embedded schema.
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("state.json", strings.NewReader(string(embeddedSchemaData))); err != nil {
		return nil, fmt.Errorf("failed to add embedded schema resource: %w", err)
	}

	schema, err := compiler.Compile("state.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile embedded schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// Validate checks raw state-document JSON against the schema.
func (v *Validator) Validate(data []byte) error {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(err, errors.ErrCodeStateInvalid, "state document is not valid JSON")
	}

	if err := v.schema.Validate(doc); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			var messages []string
			collectErrors(validationErr, &messages)
			return errors.New(errors.ErrCodeSchemaInvalid,
				fmt.Sprintf("schema validation failed:\n%s", strings.Join(messages, "\n")))
		}
		return errors.Wrap(err, errors.ErrCodeSchemaInvalid, "schema validation failed")
	}

	return nil
}

// ValidateFile validates the state document at path.
func (v *Validator) ValidateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.StateInvalid(path, err)
	}
	return v.Validate(data)
}

// collectErrors recursively flattens a validation error tree.
func collectErrors(err *jsonschema.ValidationError, messages *[]string) {
	if err.InstanceLocation != "" {
		*messages = append(*messages, fmt.Sprintf("- %s: %s", err.InstanceLocation, err.Message))
	}
	for _, cause := range err.Causes {
		collectErrors(cause, messages)
	}
}
