// Package apperror defines the error taxonomy shared by every layer of the board.
//
// THREE KINDS OF FAILURE:
//   - ErrValidation: the caller sent something missing or invalid (HTTP 400)
//   - ErrNotFound:   the referenced hardship does not exist (HTTP 404)
//   - ErrInternal:   anything unexpected (HTTP 500, generic message only)
//
// Services return *AppError values wrapping one of the sentinels. Handlers use
// errors.Is to pick a status code and errors.As to read the message.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrInternal   = errors.New("internal error")
)

// GenericMessage is the only text an InternalError ever shows a caller.
const GenericMessage = "Something went wrong!"

type AppError struct {
	Err     error  // sentinel: ErrNotFound, ErrValidation or ErrInternal
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying error, logged but never shown
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the cause so errors.Is matches either.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func NotFound(resource string, id int64) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %d", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Internal wraps an unexpected failure. The cause stays available to logs via
// Error() and errors.Is, while handlers only ever send GenericMessage.
func Internal(cause error) *AppError {
	return &AppError{
		Err:     ErrInternal,
		Message: GenericMessage,
		Cause:   cause,
	}
}

// IsDomain reports whether err is a validation or not-found failure, the two
// kinds a caller is allowed to see verbatim.
func IsDomain(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound)
}
