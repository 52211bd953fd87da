package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	// ErrNotFound means a lookup matched no row. Callers use it as control flow.
	ErrNotFound = errors.New("record not found")
	// ErrSchemaMissing means a table or column the application needs does not exist
	ErrSchemaMissing = errors.New("database schema missing")
	// ErrAuth means the store rejected our credentials
	ErrAuth = errors.New("database authentication failed")
	// ErrDuplicate means a unique constraint rejected the write
	ErrDuplicate = errors.New("duplicate record")
	// ErrUnavailable means the store could not be reached
	ErrUnavailable = errors.New("database unavailable")
)

var taxonomy = []error{ErrNotFound, ErrSchemaMissing, ErrAuth, ErrDuplicate, ErrUnavailable}

// Postgres SQLSTATE codes we distinguish
const (
	pgUndefinedTable      = "42P01"
	pgUndefinedColumn     = "42703"
	pgInvalidAuth         = "28000"
	pgInvalidPassword     = "28P01"
	pgUniqueViolation     = "23505"
	pgConnectionException = "08"
)

// Classify wraps err with the taxonomy sentinel it belongs to. Errors that match
// no class are returned unchanged and count as generic failures.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range taxonomy {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	if kind := kindOf(err); kind != nil {
		return fmt.Errorf("%w: %w", kind, err)
	}
	return err
}

func kindOf(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUndefinedTable, pgErr.Code == pgUndefinedColumn:
			return ErrSchemaMissing
		case pgErr.Code == pgInvalidAuth, pgErr.Code == pgInvalidPassword:
			return ErrAuth
		case pgErr.Code == pgUniqueViolation:
			return ErrDuplicate
		case strings.HasPrefix(pgErr.Code, pgConnectionException):
			return ErrUnavailable
		}
		return nil
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		if strings.Contains(connErr.Error(), "password authentication failed") {
			return ErrAuth
		}
		return ErrUnavailable
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch {
		case sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique,
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
			return ErrDuplicate
		case sqliteErr.Code == sqlite3.ErrAuth, sqliteErr.Code == sqlite3.ErrPerm:
			return ErrAuth
		case sqliteErr.Code == sqlite3.ErrCantOpen, sqliteErr.Code == sqlite3.ErrBusy,
			sqliteErr.Code == sqlite3.ErrLocked:
			return ErrUnavailable
		}
		if isMissingSchemaMessage(sqliteErr.Error()) {
			return ErrSchemaMissing
		}
		return nil
	}

	if isMissingSchemaMessage(err.Error()) {
		return ErrSchemaMissing
	}
	return nil
}

func isMissingSchemaMessage(msg string) bool {
	return strings.Contains(msg, "no such table") || strings.Contains(msg, "no such column")
}

// SetupHint returns the operator instruction for a schema or auth failure, or ""
func SetupHint(err error) string {
	switch {
	case errors.Is(err, ErrSchemaMissing):
		return "database tables are missing; run `wedding-invitation migrate` against this database"
	case errors.Is(err, ErrAuth):
		return "database rejected the credentials; check DATABASE_URL"
	}
	return ""
}
