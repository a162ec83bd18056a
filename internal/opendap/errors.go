package opendap

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSuchVariable is returned when a selected variable is not in the dataset
	ErrNoSuchVariable = errors.New("variable not found in dataset")
	// ErrNoSuchDimension is returned when a selection names an unknown dimension
	ErrNoSuchDimension = errors.New("dimension not found")
	// ErrIndexOutOfRange is returned for a dimension index outside the array
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrEmptySelection is returned when a coordinate range matches nothing
	ErrEmptySelection = errors.New("coordinate range selects no values")
	// ErrMalformed is returned for responses that do not decode
	ErrMalformed = errors.New("malformed DAP response")
	// ErrUnsupported is returned for DAP features this client does not read
	ErrUnsupported = errors.New("unsupported DAP feature")
)

// StatusError reports a non-200 answer from the server
type StatusError struct {
	URL        string // Redacted request address
	StatusCode int
	Message    string // DAP error message, when the body carried one
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("GET %s: HTTP %d: %s", e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
}
