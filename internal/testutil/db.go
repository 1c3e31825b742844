package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/lshigami/examhall/database"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDB returns a migrated sqlite database living in the test's temp dir.
// A single connection serialises writers so concurrent tests exercise the
// unique index rather than sqlite's locking.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "examhall.db")
	db, err := database.Open(sqlite.Open(path + "?_busy_timeout=5000"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("test database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

// FixedClock always returns the same instant until moved.
type FixedClock struct {
	T time.Time
}

func (c *FixedClock) Now() time.Time { return c.T }

// Set moves the clock to t.
func (c *FixedClock) Set(t time.Time) { c.T = t }
