package errors

import (
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = fmt.Errorf("not found")
	ErrBadRequest   = fmt.Errorf("bad request")
	ErrInvalidInput = fmt.Errorf("invalid input")
	ErrUnauthorized = fmt.Errorf("unauthorized")
	ErrForbidden    = fmt.Errorf("forbidden")
)

// Error carries a client-facing message and unwraps to one of the sentinel kinds above,
// so callers can branch with errors.Is while handlers echo Message verbatim.
type Error struct {
	Kind    error
	Message string
	// Fields holds per-field problems for ErrInvalidInput.
	Fields map[string][]string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func CompanyNotFound(id uuid.UUID) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf("The company with id: %s doesn't exist in the database.", id)}
}

func EmployeeNotFound(id uuid.UUID) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf("Employee with id: %s doesn't exist in the database.", id)}
}

func BadRequest(format string, args ...interface{}) error {
	return &Error{Kind: ErrBadRequest, Message: fmt.Sprintf(format, args...)}
}

func Invalid(fields map[string][]string) error {
	return &Error{Kind: ErrInvalidInput, Message: "One or more validation errors occurred.", Fields: fields}
}

func Unauthorized(message string) error {
	return &Error{Kind: ErrUnauthorized, Message: message}
}

var (
	ErrIDParametersNull     = BadRequest("Parameter ids is null")
	ErrCollectionMismatch   = BadRequest("Collection count mismatch comparing to ids.")
	ErrCompanyCollectionNil = BadRequest("Company collection sent from a client is null.")
	ErrMaxAgeRange          = BadRequest("Max age can't be less than min age.")
)
