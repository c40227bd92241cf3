package backend

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedResponse means the body was not a recognizable envelope,
	// most importantly when the "success" key is missing.
	ErrMalformedResponse = errors.New("malformed response from server")
	ErrUnexpectedStatus  = errors.New("unexpected response status")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrTransport         = errors.New("transport failure")
)

// GenericFailureMessage is shown for every failure the server did not explain.
const GenericFailureMessage = "Could not reach the analysis service. Please check your connection and try again."

// APIError is a failure reported by the backend itself.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
	// Missing is set when the envelope carried an error but no success key.
	Missing bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s failed (status %d): %s", e.Op, e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	return e.Missing && target == ErrMalformedResponse
}

// UserMessage turns any client error into text fit for the user: backend
// messages verbatim, everything else generic.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	if errors.Is(err, ErrInvalidRequest) {
		return err.Error()
	}
	return GenericFailureMessage
}

// Remote reports whether err came from talking to the backend, as opposed to
// a local precondition.
func Remote(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) ||
		errors.Is(err, ErrTransport) ||
		errors.Is(err, ErrMalformedResponse) ||
		errors.Is(err, ErrUnexpectedStatus)
}
