package snow

import (
	"errors"
	"fmt"
)

// ErrUnauthorized indicates the instance rejected the configured
// credentials (HTTP 401 or 403).
var ErrUnauthorized = errors.New("instance rejected credentials")

// NotFoundError indicates the Table API answered 404 for a request path,
// typically an update against a sys_id that no longer exists.
type NotFoundError struct {
	Table string
	ID    string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s record %s not found", e.Table, e.ID)
	}
	return fmt.Sprintf("table %s not found", e.Table)
}

// StatusError carries an unexpected HTTP status together with the
// instance's own error message when one was provided.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("instance returned HTTP %d: %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("instance returned HTTP %d", e.Code)
}
