package origin

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownShape is returned when a payload matches none of the supported envelopes.
	ErrUnknownShape = errors.New("payload does not match any supported trigger envelope")
	// ErrInvalidBase64 is returned when a body flagged as base64 fails to decode.
	ErrInvalidBase64 = errors.New("body flagged as base64 is not valid base64")
	// ErrInvalidJSON is returned when the payload is not a JSON object.
	ErrInvalidJSON = errors.New("payload is not a JSON object")
)

// ParseError reports a structural problem with an incoming envelope.
// It is always fatal for the invocation.
type ParseError struct {
	// Origin is the detected origin, empty when detection itself failed.
	Origin Origin
	// Field is the envelope field at fault, if any.
	Field string
	// Err is one of the sentinel errors of this package, possibly wrapping a decoder error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	switch {
	case e.Origin != "" && e.Field != "":
		return fmt.Sprintf("parse %s envelope: %s: %v", e.Origin, e.Field, e.Err)
	case e.Origin != "":
		return fmt.Sprintf("parse %s envelope: %v", e.Origin, e.Err)
	default:
		return fmt.Sprintf("parse envelope: %v", e.Err)
	}
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err is, or wraps, a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
