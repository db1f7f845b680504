package db

import (
	"testing"

	"gorm.io/gorm"
)

// OpenTest returns a migrated and seeded in-memory sqlite database that lives
// as long as the test.
func OpenTest(t testing.TB) *gorm.DB {
	t.Helper()

	conn, err := Open("sqlite", "file::memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := Migrate(conn); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	if err := Seed(conn); err != nil {
		t.Fatalf("seed test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return conn
}
