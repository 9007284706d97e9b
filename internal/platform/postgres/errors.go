package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/querytask/internal/jobs"
)

// PostgreSQL error codes
const (
	// queryCanceledCode is raised when statement_timeout or a cancel request stops a query
	queryCanceledCode = "57014"

	// adminShutdownCode is raised when the server terminates the session
	adminShutdownCode = "57P01"

	// cannotConnectNowCode is raised while the server is starting up or shutting down
	cannotConnectNowCode = "57P03"

	// tooManyConnectionsCode is raised when the server refuses new sessions
	tooManyConnectionsCode = "53300"

	// connectionExceptionClass prefixes every connection exception code
	connectionExceptionClass = "08"
)

// MapError classifies a query failure as a *jobs.BackendError.
// It wraps the original error to preserve context for logging.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var backendErr *jobs.BackendError
	if errors.As(err, &backendErr) {
		return err
	}

	switch {
	case IsTimeout(err):
		return jobs.NewBackendError(jobs.KindBackendTimeout, "query timed out", err)
	case IsUnavailable(err):
		return jobs.NewBackendError(jobs.KindBackendUnavailable, "query backend unavailable", err)
	default:
		return jobs.NewBackendError(jobs.KindQueryError, "query failed", err)
	}
}

// IsTimeout checks if the error means the query ran out of time, either
// through the caller's deadline or a server-side statement timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == queryCanceledCode {
		return true
	}

	return pgconn.Timeout(err)
}

// IsUnavailable checks if the error means the backend could not be reached
// or dropped the session.
func IsUnavailable(err error) bool {
	if errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case adminShutdownCode, cannotConnectNowCode, tooManyConnectionsCode:
			return true
		}
		return len(pgErr.Code) >= 2 && pgErr.Code[:2] == connectionExceptionClass
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
