package errs

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Third-party service errors (auth backend, object storage)
var (
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("timeout")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
)

// Configuration & Environment Errors
var (
	ErrConfigMissing = errors.New("configuration missing")
)

// NewServiceError wraps a failed call to an upstream service, keeping its status when it is a client error.
func NewServiceError(service string, statusCode int, message string) *ApiErr {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return &ApiErr{
			StatusCode: http.StatusTooManyRequests,
			err:        ErrRateLimitExceeded,
			Details:    fmt.Sprintf("%s: %s", service, message),
		}
	case statusCode == http.StatusBadRequest, statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden,
		statusCode == http.StatusNotFound, statusCode == http.StatusUnprocessableEntity:
		return &ApiErr{
			StatusCode: statusCode,
			err:        fmt.Errorf("%s rejected the request", service),
			Details:    message,
		}
	}

	return &ApiErr{
		StatusCode: http.StatusBadGateway,
		err:        ErrServiceUnavailable,
		Details:    fmt.Sprintf("%s returned status %d: %s", service, statusCode, message),
	}
}

func NewServiceUnavailableError(service string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusServiceUnavailable,
		err:        ErrServiceUnavailable,
		Details:    fmt.Sprintf("%s is unavailable", service),
		Cause:      cause,
	}
}

func NewInvalidCredentialsError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrInvalidCredentials,
		Details:    "Invalid email or password",
	}
}

func NewTimeoutError(operation string, timeout time.Duration) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusGatewayTimeout,
		err:        ErrTimeout,
		Details:    fmt.Sprintf("%s timed out after %v", operation, timeout),
	}
}

func NewConfigMissingError(key string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrConfigMissing,
		Details:    fmt.Sprintf("Missing configuration value %s", key),
		Field:      key,
	}
}

func IsServiceUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}
