package outcome_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brightleaf-data/sns-fanout/outcome"
)

func TestOkIsSuccessAndHasNoErrorKind(t *testing.T) {
	o := outcome.Ok("msg-id-1")
	assert.True(t, o.Success)
	assert.Equal(t, outcome.None, o.ErrorKind)
	assert.Equal(t, "msg-id-1", o.Value)
}

func TestFailCarriesKindDetailAndCause(t *testing.T) {
	cause := errors.New("boom")
	o := outcome.Fail[string](outcome.Throttling, "Request throttled", cause)
	assert.False(t, o.Success)
	assert.Equal(t, outcome.Throttling, o.ErrorKind)
	assert.Equal(t, "Request throttled", o.Detail)
	assert.ErrorIs(t, o.Unwrap(), cause)
}

func TestErrorKindStringIsStable(t *testing.T) {
	cases := map[outcome.ErrorKind]string{
		outcome.None:                 "None",
		outcome.InvalidInput:         "InvalidInput",
		outcome.AuthorizationFailure: "AuthorizationFailure",
		outcome.ResourceNotFound:     "ResourceNotFound",
		outcome.ServiceUnavailable:   "ServiceUnavailable",
		outcome.Throttling:           "Throttling",
		outcome.Unknown:              "Unknown",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
}
