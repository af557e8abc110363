// Package dbtest provides migrated in-memory sqlite databases for tests.
package dbtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"taskapi/internal/database"
)

var seq atomic.Int64

// URL returns a connection string for a private shared-cache memory database.
func URL(t testing.TB) string {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))
}

// New opens and migrates a fresh database that is closed when t finishes.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	db, _, err := database.Open(URL(t), zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })

	if err := database.Migrate(db, database.DialectSQLite); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}
