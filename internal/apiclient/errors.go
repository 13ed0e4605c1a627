package apiclient

import (
	"errors"
	"fmt"
)

// ErrUnknownJob is returned when the service does not know a job id.
var ErrUnknownJob = errors.New("unknown job")

// APIError is a non-success response from the query service.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Detail)
}

// Detail returns the human-readable message carried by err: the service
// detail for an *APIError, otherwise err.Error(). Nil returns "".
func Detail(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return err.Error()
}

// errorBody is the shape of every non-success body.
type errorBody struct {
	Detail string `json:"detail"`
}
