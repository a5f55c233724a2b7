package apiclient

import "fmt"

// TransportError wraps a network-level failure (timeout, connection refused)
// reaching the remote API. The core never retries these; callers keep
// whatever rows they already gathered.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure for %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
