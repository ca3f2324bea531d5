package remote

import "fmt"

// FetchError is returned when a call to the controller API fails.
//
// It wraps the underlying cause (transport error, bad status, decode
// failure) so callers can branch on the category with errors.As:
//
//	var fe *remote.FetchError
//	if errors.As(err, &fe) {
//	    // transient remote failure, local data stays last-known-good
//	}
type FetchError struct {
	// Op names the API operation that failed (e.g. "stations", "priority").
	Op string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("remote fetch %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause for errors.Is/errors.As chains.
func (e *FetchError) Unwrap() error {
	return e.Err
}
