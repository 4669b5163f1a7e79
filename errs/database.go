package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrDatabaseQuery      = errors.New("database query failed")
	ErrDatabaseConnection = errors.New("database connection failed")
	ErrFetchFailed        = errors.New("fetch failed")
)

// Database & Storage Specific Errors
var (
	ErrForeignKeyConstraint = errors.New("foreign key constraint violation")
	ErrReferentialIntegrity = errors.New("linked records exist")
)

func NewNotFound(entity string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusNotFound,
		err:        fmt.Errorf("%s %w", entity, ErrNotFound),
	}
}

// NewDatabaseError creates a new database error with details about the operation
func NewDatabaseError(operation, entity string, cause error) *ApiErr {
	details := fmt.Sprintf("Failed to %s %s", operation, entity)

	var apiErr *ApiErr
	if errors.As(cause, &apiErr) {
		return apiErr
	}

	// Check for common database errors and provide more specific messages
	if cause != nil {
		errStr := cause.Error()
		switch {
		case strings.Contains(errStr, "duplicate key"):
			return &ApiErr{
				StatusCode: http.StatusConflict,
				err:        fmt.Errorf("%s %w", entity, ErrAlreadyExists),
				kind:       ErrConflict,
				Details:    details,
				Cause:      cause,
			}
		case strings.Contains(errStr, "foreign key constraint"):
			return &ApiErr{
				StatusCode: http.StatusConflict,
				err:        ErrForeignKeyConstraint,
				kind:       ErrConflict,
				Details:    fmt.Sprintf("%s: the %s is linked to other records or references a missing one", details, entity),
				Cause:      cause,
			}
		case strings.Contains(errStr, "record not found"), strings.Contains(errStr, "not found"):
			return &ApiErr{
				StatusCode: http.StatusNotFound,
				err:        fmt.Errorf("%s %w", entity, ErrNotFound),
				Details:    details,
				Cause:      cause,
			}
		case strings.Contains(errStr, "connection"):
			return &ApiErr{
				StatusCode: http.StatusServiceUnavailable,
				err:        ErrDatabaseConnection,
				Details:    "Unable to connect to database",
				Cause:      cause,
			}
		}
	}

	// Generic database error
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrDatabaseQuery,
		Details:    details,
		Cause:      cause,
	}
}

// NewFetchError reports a failed collection read. The message embeds the cause
// so it can be shown inline in place of the list.
func NewFetchError(resource string, cause error) *ApiErr {
	status := http.StatusInternalServerError
	var apiErr *ApiErr
	if errors.As(cause, &apiErr) {
		status = apiErr.StatusCode
	}

	causeMsg := "unknown error"
	if cause != nil {
		causeMsg = cause.Error()
	}

	return &ApiErr{
		StatusCode: status,
		err:        ErrFetchFailed,
		Details:    fmt.Sprintf("Failed to fetch %s: %s", resource, causeMsg),
		Cause:      cause,
	}
}

// NewReferentialIntegrityError rejects a delete while child rows still point at the entity.
func NewReferentialIntegrityError(entity, linked string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusConflict,
		err:        ErrReferentialIntegrity,
		kind:       ErrConflict,
		Details:    fmt.Sprintf("Cannot delete %s with linked %s", entity, linked),
	}
}

func IsReferentialIntegrityError(err error) bool {
	return errors.Is(err, ErrReferentialIntegrity)
}

func IsFetchError(err error) bool {
	return errors.Is(err, ErrFetchFailed)
}
