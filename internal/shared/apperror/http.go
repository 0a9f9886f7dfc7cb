package apperror

import (
	"errors"
	"net/http"
)

type HTTPError struct {
	Status  int
	Code    string
	Message string
	Details any
}

// ToHTTP converts any error into the status, code and message rendered to clients.
// Errors that are neither *AppError nor *ValidationError never leak their text.
func ToHTTP(err error) HTTPError {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return HTTPError{
			Status:  http.StatusBadRequest,
			Code:    CodeValidation,
			Message: "Validation failed",
			Details: validationErr.Fields,
		}
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return HTTPError{
			Status:  appErr.HTTPStatus,
			Code:    appErr.Code,
			Message: appErr.Message,
		}
	}

	return HTTPError{
		Status:  ErrInternal.HTTPStatus,
		Code:    ErrInternal.Code,
		Message: ErrInternal.Message,
	}
}
