// Package sqlite opens the store on an embedded modernc sqlite database.
package sqlite

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/aussiebroadwan/realmguard/internal/realm/store/sqlstore"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const DriverName = "sqlite"

func init() {
	sqlx.BindDriver(DriverName, sqlx.QUESTION)
}

// NewStore opens dsn and enables foreign keys. The pool is limited to one
// connection: sqlite serializes writers anyway, and PRAGMA foreign_keys plus
// ":memory:" databases are per connection.
func NewStore(dsn string) (*sqlstore.Store, error) {
	db, err := sqlx.Open(DriverName, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	// Enforce FKs
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return sqlstore.New(db, Dialect, ApplyMigrations), nil
}

var Dialect = sqlstore.Dialect{
	Name: DriverName,
	IsUniqueViolation: func(err error) bool {
		return isConstraint(err, "UNIQUE", sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY)
	},
	IsForeignKeyViolation: func(err error) bool {
		return isConstraint(err, "FOREIGN KEY", sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY)
	},
}

// isConstraint matches the extended result code, falling back to the
// message when only the primary SQLITE_CONSTRAINT code is reported.
func isConstraint(err error, kind string, codes ...int) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	if slices.Contains(codes, code) {
		return true
	}
	return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), kind)
}
