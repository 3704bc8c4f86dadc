package repository

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"
)

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}

// IsNotFound reports whether err is, or wraps, a *NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// Postgres SQLSTATE classes that mean the server or the connection is gone
// rather than that one statement was rejected.
const (
	classConnectionException  = "08"
	classInsufficientResource = "53"
	classOperatorIntervention = "57"
)

// IsConnectionError reports whether err means the database itself is unusable.
// Constraint violations and other per-statement failures return false.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case classConnectionException, classInsufficientResource, classOperatorIntervention:
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
