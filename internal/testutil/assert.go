package testutil

import (
	stderrors "errors"
	"testing"

	"github.com/heavens/lambdahttp/pkg/lambdahttp/origin"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorType checks if the error is of a specific type using errors.Is.
func AssertErrorType(t *testing.T, err, target error, _ ...any) bool {
	t.Helper()
	if !stderrors.Is(err, target) {
		return assert.Fail(t, "Error type mismatch", "Expected error type %T, got %T", target, err)
	}
	return true
}

// AssertParseError checks that err is an *origin.ParseError wrapping target.
func AssertParseError(t *testing.T, err, target error, _ ...any) bool {
	t.Helper()
	var pe *origin.ParseError
	if !stderrors.As(err, &pe) {
		return assert.Fail(t, "Not a parse error", "Expected *origin.ParseError, got %T: %v", err, err)
	}
	return AssertErrorType(t, err, target)
}

// DecodeReply decodes a raw reply payload into the reply type of o.
func DecodeReply(t *testing.T, o origin.Origin, payload []byte) origin.Reply {
	t.Helper()

	reply, err := origin.ParseReply(o, payload)
	require.NoError(t, err)

	return reply
}
