package gateway

import (
	"fmt"
	"net/http"
)

// HTTPStatusError is returned for any non-2xx response. The response body is
// never read into the error.
type HTTPStatusError struct {
	StatusCode int
	Method     string
	Path       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// TransportError is returned when the request never produced a response.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
