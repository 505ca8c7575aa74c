package schema

import (
	"encoding/json"

	"github.com/agentview/core/statestore"
	"github.com/invopop/jsonschema"
)

// GenerateStateSchema reflects the state document types into a JSON Schema.
// The checked-in state.embedded.schema.json is produced from this by
// tools/schema-generator; regenerate it whenever the document shape changes.
func GenerateStateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		// The writer is a separate program; reject fields we don't know
		// about so drift is caught by doctor instead of silently ignored.
		AllowAdditionalProperties: false,
		ExpandedStruct:            true,
		FieldNameTag:              "json",
	}

	schema := r.Reflect(&statestore.Document{})
	schema.Title = "Agentview State Document"
	schema.Description = "Versioned session-record document written by the external hook process."

	return json.MarshalIndent(schema, "", "  ")
}
