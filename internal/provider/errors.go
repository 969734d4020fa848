package provider

import "fmt"

// ErrorKind classifies provider failures
type ErrorKind int

const (
	// KindHTTP indicates a non-2xx response from the backend
	KindHTTP ErrorKind = iota
	// KindInvalidResponse indicates a 2xx response that could not be parsed
	// into the expected completion shape
	KindInvalidResponse
	// KindMalformedJSON indicates GenerateJSON received non-JSON model output
	KindMalformedJSON
)

// String returns the string representation of the kind
func (k ErrorKind) String() string {
	switch k {
	case KindHTTP:
		return "http"
	case KindInvalidResponse:
		return "invalid_response"
	case KindMalformedJSON:
		return "malformed_json"
	default:
		return "unknown"
	}
}

// Error carries upstream failure details for diagnosis
type Error struct {
	Kind   ErrorKind
	Status int    // HTTP status for KindHTTP, zero otherwise
	Body   string // response body excerpt for KindHTTP
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("provider returned status %d: %s", e.Status, e.Body)
	case KindInvalidResponse:
		return fmt.Sprintf("provider response unparsable: %v", e.Err)
	case KindMalformedJSON:
		return fmt.Sprintf("provider output is not valid JSON: %v", e.Err)
	default:
		return fmt.Sprintf("provider error: %v", e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}
