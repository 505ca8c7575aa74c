package errors

import "fmt"

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *Error {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *Error {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// StateInvalid creates an error for an unreadable or malformed state document
func StateInvalid(path string, err error) *Error {
	return Wrap(err, ErrCodeStateInvalid, fmt.Sprintf("state document unreadable: %s", path)).
		WithDetail("path", path)
}

// SchemaInvalid creates an error for a state document that fails schema validation
func SchemaInvalid(path string, err error) *Error {
	return Wrap(err, ErrCodeSchemaInvalid, fmt.Sprintf("state document failed schema validation: %s", path)).
		WithDetail("path", path)
}

// AuditLogInvalid creates an error for an unreadable hook event audit log
func AuditLogInvalid(path string, err error) *Error {
	return Wrap(err, ErrCodeAuditLogInvalid, fmt.Sprintf("audit log unreadable: %s", path)).
		WithDetail("path", path)
}

// InvalidInput creates an error for a bad caller-supplied value
func InvalidInput(reason string) *Error {
	return New(ErrCodeInvalidInput, reason)
}
