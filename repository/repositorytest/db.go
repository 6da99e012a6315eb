// Package repositorytest provides a throwaway SQLite database with the
// service schema for package tests.
package repositorytest

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// schema mirrors infra/migrations in SQLite types. TestSchemaMatchesMigrations
// keeps the column lists and indexes in step.
const schema = `
CREATE TABLE feeds (
    id          TEXT PRIMARY KEY,
    name        TEXT     NOT NULL,
    description TEXT,
    created_at  DATETIME NOT NULL
);
CREATE TABLE images (
    id           TEXT PRIMARY KEY,
    feed_id      TEXT     NOT NULL,
    filename     TEXT     NOT NULL,
    path         TEXT     NOT NULL,
    content_type TEXT,
    size_bytes   INTEGER  NOT NULL DEFAULT 0,
    checksum     TEXT,
    created_at   DATETIME NOT NULL
);
CREATE INDEX idx_images_feed_id ON images (feed_id, created_at);
`

func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "feed.db") + "?_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}
