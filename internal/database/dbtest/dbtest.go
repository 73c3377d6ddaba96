// Package dbtest provides an in-memory SQLite database with the production
// migrations applied, for tests of packages that persist through bun.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	"github.com/redmonkez12/teamtasks/internal/database"
)

// NewSQLite returns a migrated database private to the calling test.
// The pool is limited to one connection so writers serialize the same way
// they would on a row lock.
func NewSQLite(t testing.TB) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	sqlDB, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(context.Background(), sqlDB, goose.DialectSQLite3))

	return bun.NewDB(sqlDB, sqlitedialect.New())
}

// Count returns the number of rows in table
func Count(t testing.TB, db bun.IDB, table string) int {
	t.Helper()
	n, err := db.NewSelect().TableExpr(table).Count(context.Background())
	require.NoError(t, err)
	return n
}
