package sqlq

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenSQLite opens a SQLite database for serving compiled filters.
// Use ":memory:" for an in-process throwaway database.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("cannot open sqlite database: %w", err)
	}
	return db, nil
}

// OpenPostgres opens a PostgreSQL database for serving compiled
// filters.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("cannot open postgres database: %w", err)
	}
	return db, nil
}

// Dialect returns the active database dialect name (e.g. "sqlite",
// "postgres").
func Dialect(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	return db.Dialector.Name()
}
