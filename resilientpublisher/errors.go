package resilientpublisher

import (
	"context"
	"errors"

	"github.com/aws/smithy-go"

	"github.com/brightleaf-data/sns-fanout/outcome"
)

// categorized is the result of mapping a raw transport error (or an
// internal resilience-stack signal such as a timeout or an open circuit)
// onto the stable ErrorKind taxonomy.
type categorized struct {
	kind      outcome.ErrorKind
	detail    string
	retriable bool
}

// Sentinel signals produced internally by input validation and by the
// timeout and circuit-breaker layers. They never reach the transport; the
// retry layer treats the timeout and open-circuit signals as terminal.
var (
	errTimedOut     = errors.New("resilientpublisher: request timed out")
	errCircuitOpen  = errors.New("resilientpublisher: circuit breaker open")
	errInvalidInput = errors.New("resilientpublisher: message cannot be null or empty")
)

// smithy AWS SNS error codes this publisher recognizes. Anything else maps
// to Unknown.
const (
	codeInvalidParameter    = "InvalidParameterException"
	codeInvalidParameterVal = "InvalidParameterValueException"
	codeNotFound            = "NotFoundException"
	codeAuthorizationErr    = "AuthorizationErrorException"
	codeThrottled           = "ThrottledException"
	codeKMSThrottling       = "KMSThrottlingException"
	codeKMSDisabled         = "KMSDisabledException"
	codeKMSNotFound         = "KMSNotFoundException"
	codeKMSOptInRequired    = "KMSOptInRequired"
	codeInternalError       = "InternalErrorException"
)

// categorize maps a raw error from the transport (or a resilience-stack
// signal) onto ErrorKind, a detail prefix, and a retriability verdict.
// Transport throttling, KMS throttling, transport internal errors, and
// HTTP 500/503-shaped errors are retriable; everything else is terminal.
func categorize(err error) categorized {
	switch {
	case errors.Is(err, errInvalidInput):
		return categorized{kind: outcome.InvalidInput, detail: "Message cannot be null or empty", retriable: false}
	case errors.Is(err, errCircuitOpen):
		return categorized{kind: outcome.ServiceUnavailable, detail: "Circuit breaker open", retriable: false}
	case errors.Is(err, errTimedOut), errors.Is(err, context.DeadlineExceeded):
		return categorized{kind: outcome.ServiceUnavailable, detail: "Request timed out", retriable: false}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case codeInvalidParameter, codeInvalidParameterVal:
			return categorized{kind: outcome.InvalidInput, detail: "Invalid message format or attributes", retriable: false}
		case codeAuthorizationErr:
			return categorized{kind: outcome.AuthorizationFailure, detail: "Authorization failure", retriable: false}
		case codeNotFound:
			return categorized{kind: outcome.ResourceNotFound, detail: "Resource not found", retriable: false}
		case codeThrottled:
			return categorized{kind: outcome.Throttling, detail: "Request throttled", retriable: true}
		case codeKMSThrottling:
			return categorized{kind: outcome.Throttling, detail: "Request throttled", retriable: true}
		case codeInternalError:
			return categorized{kind: outcome.ServiceUnavailable, detail: "AWS internal error", retriable: true}
		case codeKMSDisabled, codeKMSNotFound, codeKMSOptInRequired:
			return categorized{kind: outcome.ServiceUnavailable, detail: "KMS configuration error", retriable: false}
		}
	}

	var httpErr interface{ HTTPStatusCode() int }
	if errors.As(err, &httpErr) {
		switch httpErr.HTTPStatusCode() {
		case 500, 503:
			return categorized{kind: outcome.ServiceUnavailable, detail: "AWS internal error", retriable: true}
		}
	}

	return categorized{kind: outcome.Unknown, detail: "Unexpected error", retriable: false}
}
