package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed backend call.
type ErrorKind int

const (
	// KindTransport means no response reached the client.
	KindTransport ErrorKind = iota
	// KindStatus means the backend answered with a non-2xx status.
	KindStatus
	// KindMalformed means a 2xx body was undecodable or lacked its envelope
	// key.
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// FetchError is the uniform error returned by every backend call.
type FetchError struct {
	Kind       ErrorKind
	Op         string
	StatusCode int
	// Message is the server-supplied detail, when present.
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindStatus:
		if e.Message != "" {
			return fmt.Sprintf("%s: %d %s: %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode), e.Message)
		}
		return fmt.Sprintf("%s: %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
	case KindMalformed:
		return fmt.Sprintf("%s: malformed response: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// Unauthorized reports a 401 or 403 answer.
func (e *FetchError) Unauthorized() bool {
	return e.Kind == KindStatus && (e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// Validation reports a client error other than an authorization failure.
func (e *FetchError) Validation() bool {
	return e.Kind == KindStatus && e.StatusCode >= 400 && e.StatusCode < 500 && !e.Unauthorized()
}

// AsFetchError unwraps err into a FetchError.
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// IsUnauthorized reports whether err is a 401/403 from the backend.
func IsUnauthorized(err error) bool {
	fe, ok := AsFetchError(err)
	return ok && fe.Unauthorized()
}

// IsMalformed reports whether err is a malformed-payload failure.
func IsMalformed(err error) bool {
	fe, ok := AsFetchError(err)
	return ok && fe.Kind == KindMalformed
}
