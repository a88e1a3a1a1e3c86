// Package postgres opens the store on a PostgreSQL server through lib/pq.
package postgres

import (
	"database/sql"
	"errors"
	"time"

	"github.com/aussiebroadwan/realmguard/internal/realm/store/sqlstore"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const DriverName = "postgres"

const (
	codeUniqueViolation     = pq.ErrorCode("23505")
	codeForeignKeyViolation = pq.ErrorCode("23503")
)

// NewStore connects to dsn and configures a modest connection pool.
func NewStore(dsn string) (*sqlstore.Store, error) {
	db, err := sqlx.Open(DriverName, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	return sqlstore.New(db, Dialect, ApplyMigrations), nil
}

// NewStoreFromDB wraps an already open handle, such as a sqlmock connection.
func NewStoreFromDB(db *sql.DB) *sqlstore.Store {
	return sqlstore.New(sqlx.NewDb(db, DriverName), Dialect, ApplyMigrations)
}

var Dialect = sqlstore.Dialect{
	Name: DriverName,
	IsUniqueViolation: func(err error) bool {
		return hasCode(err, codeUniqueViolation)
	},
	IsForeignKeyViolation: func(err error) bool {
		return hasCode(err, codeForeignKeyViolation)
	},
}

func hasCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}
