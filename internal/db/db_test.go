package db

import (
	"bytes"
	"errors"
	"testing"

	"echonews/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestGormLoggerSkipsRecordNotFound(t *testing.T) {
	var buf bytes.Buffer
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: newGormLogger(&buf)})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	if err := conn.AutoMigrate(&models.Badge{}); err != nil {
		t.Fatal(err)
	}

	var b models.Badge
	if err := conn.Where("name = ?", "Nobody").First(&b).Error; !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("First() err = %v, want ErrRecordNotFound", err)
	}
	if buf.Len() != 0 {
		t.Errorf("record not found was logged: %q", buf.String())
	}

	// 真正的错误仍然会输出
	conn.Exec("SELECT * FROM no_such_table")
	if buf.Len() == 0 {
		t.Error("failed query was not logged")
	}
}

func TestOpenTestSeedsBadges(t *testing.T) {
	conn := OpenTest(t)
	var n int64
	if err := conn.Model(&models.Badge{}).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	if n == 0 {
		t.Error("no badges seeded")
	}
}
