package service

import (
	"errors"

	apperrors "github.com/utafrali/reviewhub/pkg/errors"
)

// Status is the outcome of a Review Manager operation.
type Status int

const (
	StatusOK Status = iota
	StatusUnauthorized
	StatusNotFound
	StatusValidationFailure
	StatusStorageFailure
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusUnauthorized:
		return "unauthorized"
	case StatusNotFound:
		return "not_found"
	case StatusValidationFailure:
		return "validation_failure"
	default:
		return "storage_failure"
	}
}

// StatusOf classifies an error returned by the manager. Errors that are not
// one of the typed outcomes are storage failures.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, apperrors.ErrStorage):
		return StatusStorageFailure
	case errors.Is(err, apperrors.ErrUnauthorized):
		return StatusUnauthorized
	case errors.Is(err, apperrors.ErrNotFound):
		return StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidInput):
		return StatusValidationFailure
	default:
		return StatusStorageFailure
	}
}
