package gorm

import (
	"strings"

	"github.com/ichigozero/tasktracker/usersvc"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	libgorm "gorm.io/gorm"
)

// DefaultSQLiteFile is used when no database URL is configured.
const DefaultSQLiteFile = "users.db"

// Open connects to Postgres when databaseURL is a postgres DSN and to a
// SQLite file otherwise, then migrates the users table.
func Open(databaseURL string) (*libgorm.DB, error) {
	var dialector libgorm.Dialector
	switch {
	case databaseURL == "":
		dialector = sqlite.Open(DefaultSQLiteFile)
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"), strings.Contains(databaseURL, "host="):
		dialector = postgres.Open(databaseURL)
	default:
		dialector = sqlite.Open(databaseURL)
	}

	db, err := libgorm.Open(dialector, &libgorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&usersvc.User{}); err != nil {
		return nil, err
	}
	return db, nil
}
