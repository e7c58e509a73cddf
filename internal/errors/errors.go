package errors

import (
	"fmt"
	"strings"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// ParseError indicates the document text is not well-formed YAML.
// Line is 1-based and zero when the position is unknown.
type ParseError struct {
	Line    int
	Message string
	Err     error
}

func (e ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Message)
	}
	return "parse error: " + e.Message
}

func (e ParseError) Unwrap() error {
	return e.Err
}

// DecryptionError indicates an envelope could not be opened: wrong master key,
// corrupted ciphertext, tampering, or an unsupported envelope version. The
// causes are deliberately indistinguishable to the caller.
type DecryptionError struct {
	Message string
	Err     error
}

func (e DecryptionError) Error() string {
	if e.Message == "" {
		return "decryption failed"
	}
	return "decryption failed: " + e.Message
}

func (e DecryptionError) Unwrap() error {
	return e.Err
}

// ShapeError indicates a caller passed a document or model violating the
// expected structural shape. Path is the dotted location of the offending field.
type ShapeError struct {
	Path    string
	Message string
}

func (e ShapeError) Error() string {
	if e.Path == "" {
		return "shape error: " + e.Message
	}
	return fmt.Sprintf("shape error at %s: %s", e.Path, e.Message)
}
