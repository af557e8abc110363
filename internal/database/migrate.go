package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies every pending up migration for dialect. An up-to-date schema is not an error.
func Migrate(db *gorm.DB, dialect Dialect) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	src, err := iofs.New(migrationsFS, "migrations/"+string(dialect))
	if err != nil {
		return fmt.Errorf("load %s migrations: %w", dialect, err)
	}

	var driver migratedb.Driver
	switch dialect {
	case DialectPostgres:
		// a dedicated connection keeps driver.Close from closing the shared pool
		var conn *sql.Conn
		conn, err = sqlDB.Conn(context.Background())
		if err == nil {
			driver, err = migratepg.WithConnection(context.Background(), conn, &migratepg.Config{})
			if err != nil {
				conn.Close()
			}
		}
	case DialectSQLite:
		driver, err = sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
	default:
		err = fmt.Errorf("unsupported dialect %q", dialect)
	}
	if err != nil {
		src.Close()
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(dialect), driver)
	if err != nil {
		src.Close()
		return fmt.Errorf("init migrations: %w", err)
	}
	// The sqlite driver closes the shared *sql.DB on Close.
	if dialect == DialectPostgres {
		defer m.Close()
	} else {
		defer src.Close()
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
