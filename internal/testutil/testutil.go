// Package testutil provisions throwaway databases for package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"wedding-invitation/internal/storage"
)

// TestBaseURL is the hosting base URL used by tests that build invitation links
const TestBaseURL = "https://example.com"

// OpenTestDB opens an empty in-memory sqlite database private to t
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	db, err := storage.Open(storage.Options{
		Driver: storage.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name),
		Log:    zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := storage.Close(db); err != nil {
			t.Errorf("Failed to close test database: %v", err)
		}
	})
	return db
}

// SetupTestDB opens a fresh in-memory database with the full schema
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db := OpenTestDB(t)
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}

// Logger returns a logger that discards everything
func Logger() zerolog.Logger {
	return zerolog.Nop()
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}

// IntPtr returns a pointer to i
func IntPtr(i int) *int {
	return &i
}
