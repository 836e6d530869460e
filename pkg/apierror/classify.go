package apierror

import (
	"encoding/json"
	"errors"

	"github.com/hashicorp-forge/cmaclient/pkg/transport"
)

// errorBody is the error document returned by the API.
//
//	{"sys": {"type": "Error", "id": "VersionMismatch"}, "message": "...", "requestId": "..."}
type errorBody struct {
	Sys struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"sys"`
	Message   string          `json:"message"`
	RequestID string          `json:"requestId"`
	Details   json.RawMessage `json:"details"`
}

// FromTransport classifies an error returned by a transport.Doer for op.
// Non-2xx responses become *Error wrapping a status sentinel; timeouts wrap
// ErrTimeout; any other cause is kept as Err so errors.Is against it still
// works. A nil err returns nil.
func FromTransport(op string, err error) error {
	if err == nil {
		return nil
	}

	var statusErr *transport.StatusError
	if errors.As(err, &statusErr) {
		apiErr := &Error{
			Op:         op,
			Status:     statusErr.Status,
			StatusText: statusErr.StatusText,
			Method:     statusErr.Method,
			RequestURL: statusErr.URL,
			Body:       statusErr.Body,
		}

		var body errorBody
		if len(statusErr.Body) > 0 && json.Unmarshal(statusErr.Body, &body) == nil && body.Sys.Type == "Error" {
			apiErr.Name = body.Sys.ID
			apiErr.Message = body.Message
			apiErr.RequestID = body.RequestID
			apiErr.Details = body.Details
		}
		if apiErr.RequestID == "" {
			apiErr.RequestID = statusErr.Header.Get("X-Contentful-Request-Id")
		}

		apiErr.Err = sentinelFor(apiErr.Status, apiErr.Name)
		return apiErr
	}

	var reqErr *transport.RequestError
	if errors.As(err, &reqErr) {
		apiErr := &Error{
			Op:         op,
			Method:     reqErr.Method,
			RequestURL: reqErr.URL,
			Err:        reqErr.Err,
		}
		if reqErr.Timeout() {
			apiErr.Err = &timeoutError{cause: reqErr.Err}
		}
		return apiErr
	}

	return &Error{Op: op, Err: err}
}

// timeoutError is ErrTimeout that still unwraps to the underlying cause.
type timeoutError struct {
	cause error
}

func (e *timeoutError) Error() string {
	return ErrTimeout.Error() + ": " + e.cause.Error()
}

func (e *timeoutError) Is(target error) bool {
	return target == ErrTimeout
}

func (e *timeoutError) Unwrap() error {
	return e.cause
}
