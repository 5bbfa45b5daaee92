package model

import (
	"net/http"

	"github.com/pkg/errors"
)

// ErrWithStatus is an error carrying the HTTP status of a failed provider
// API call, so callers can branch on it without string matching.
type ErrWithStatus struct {
	err    error
	status int
}

func (e *ErrWithStatus) Error() string {
	return e.err.Error()
}

func NewErrWithStatus(status int, err error) error {
	return &ErrWithStatus{
		err:    err,
		status: status,
	}
}

// ErrToStatus extracts the HTTP status from an error chain, defaulting to
// 500 when no ErrWithStatus is present.
func ErrToStatus(err error) int {
	statusErr := &ErrWithStatus{}
	if errors.As(err, &statusErr) {
		return statusErr.status
	}
	return http.StatusInternalServerError
}
