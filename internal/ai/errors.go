package ai

import "fmt"

// HTTPError is a non-2xx answer from the completion endpoint.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("[Error %d] %s", e.Status, e.Body)
}

// TransportError covers network, encoding and cancellation failures.
type TransportError struct {
	Detail string
	Err    error
}

func (e *TransportError) Error() string {
	return "[Exception] " + e.Detail
}

func (e *TransportError) Unwrap() error { return e.Err }
