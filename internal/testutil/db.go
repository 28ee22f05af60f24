// Package testutil opens throwaway stores for package tests.
package testutil

import (
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"investment-service/internal/database"
)

var dbCounter int64

// NewDB returns a migrated store. It uses MySQL when DATABASE_URL is set and a
// private in-memory SQLite database otherwise.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var dialector gorm.Dialector
	dsn := os.Getenv("DATABASE_URL")
	if dsn != "" {
		dialector = mysql.Open(dsn)
	} else {
		name := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddInt64(&dbCounter, 1))
		dialector = sqlite.Open(name)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if dsn == "" {
		sqlDB, err := db.DB()
		if err != nil {
			t.Fatalf("Failed to get sql.DB: %v", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	if dsn != "" {
		cleanup(db)
	}

	t.Cleanup(func() {
		if dsn != "" {
			cleanup(db)
		}
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func cleanup(db *gorm.DB) {
	db.Exec("DELETE FROM withdrawal_requests")
	db.Exec("DELETE FROM subscriptions")
	db.Exec("DELETE FROM packages")
	db.Exec("DELETE FROM users")
}
