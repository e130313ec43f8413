package service

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

const (
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
)

// isTransientConflict reports whether err is a write conflict the database
// may resolve on its own, i.e. one worth retrying. Everything else (including
// connection resets) aborts the confirm transaction immediately.
func isTransientConflict(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlErrLockWaitTimeout || mysqlErr.Number == mysqlErrDeadlock
	}
	return false
}
