package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrConcurrencyAbort is returned when a row lock could not be acquired
// before the store's lock-wait timeout, or a deadlock was broken by the
// database. The caller may retry the whole operation.
var ErrConcurrencyAbort = errors.New("concurrent operation aborted")

// LockForUpdate applies a SELECT ... FOR UPDATE clause on dialects that
// support it. SQLite serializes writers on its own and rejects the
// syntax, so the clause is skipped there; transactions remain exclusive.
func LockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// IsConcurrencyError reports whether err is a lock-wait timeout or
// deadlock reported by the database.
func IsConcurrencyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConcurrencyAbort) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock detected") ||
		strings.Contains(msg, "lock timeout") ||
		strings.Contains(msg, "could not obtain lock") ||
		strings.Contains(msg, "canceling statement due to lock timeout") ||
		strings.Contains(msg, "database is locked")
}
