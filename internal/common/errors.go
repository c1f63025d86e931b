package common

import "net/http"

// AppError is a handler-facing error that already knows which HTTP status
// and error code the API should report. Wrapped causes stay reachable
// through errors.Is and errors.As.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    any
	Err        error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BadRequest wraps a client-fault cause with the 400 envelope fields.
func BadRequest(message string, cause error) *AppError {
	return &AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        cause,
	}
}
