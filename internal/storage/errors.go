package storage

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound matches any RequestError with a 404 status.
	ErrNotFound = errors.New("not found")
	// ErrConflict matches any RequestError with a 409 status.
	ErrConflict = errors.New("conflict")
)

// RequestError is a failed request against the storage service. Every backend
// translates its SDK error into this type.
type RequestError struct {
	StatusCode int
	ErrorCode  string
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("storage request failed: status %d (%s): %s", e.StatusCode, e.ErrorCode, e.Message)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrNotFound) work without knowing the backend.
func (e *RequestError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

// AsRequestError reports whether err carries a RequestError.
func AsRequestError(err error) (*RequestError, bool) {
	var re *RequestError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
