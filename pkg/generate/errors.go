package generate

import (
	"errors"
	"fmt"
)

// Kind classifies a failed run.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNotFound means the input could not be found or held no sequence.
	KindNotFound
	// KindUnauthorized means the service rejected the API key (401/403).
	KindUnauthorized
	// KindRemote is any other non-2xx response.
	KindRemote
	// KindTransport means the request never completed.
	KindTransport
	// KindMalformedResponse means the body was not the expected JSON.
	KindMalformedResponse
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindRemote:
		return "remote_error"
	case KindTransport:
		return "transport_error"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// Error is returned by Client implementations and the run layer.
// Status and Body are set for KindUnauthorized and KindRemote.
type Error struct {
	Kind   Kind
	Status int
	Body   string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindUnknown
}
