// Package testutil provides sqlmock helpers shared by repository tests.
package testutil

import (
	"database/sql"
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SetupMockDB creates a mock database connection for testing
func SetupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
	}

	return db, mock, cleanup
}

// NewStrictMockDB is SetupMockDB with cleanup registered on t. At the end of
// the test every expectation must have been met.
func NewStrictMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, cleanup := SetupMockDB(t)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		cleanup()
	})
	return db, mock
}

// StringPtr is a shorthand for optional columns in fixtures
func StringPtr(s string) *string {
	return &s
}

// Deref turns an optional field into a sqlmock row value
func Deref[T any](p *T) driver.Value {
	if p == nil {
		return nil
	}
	return *p
}
