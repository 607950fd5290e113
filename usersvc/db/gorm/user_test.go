package gorm_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/ichigozero/tasktracker/usersvc"
	"github.com/ichigozero/tasktracker/usersvc/db/gorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twinj/uuid"
	"gorm.io/driver/sqlite"
	libgorm "gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openDB(t *testing.T) *libgorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewV4().String())
	db, err := libgorm.Open(sqlite.Open(dsn), &libgorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&usersvc.User{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return db
}

func TestUserRepository(t *testing.T) {
	repo := gorm.NewUserRepository(openDB(t))
	ctx := context.Background()

	alice := usersvc.User{ID: uuid.NewV4().String(), UserName: "alice", PasswordHash: "$2a$10$hash"}
	require.NoError(t, repo.Create(ctx, alice))

	got, err := repo.FindByUserName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice, got)

	_, err = repo.FindByUserName(ctx, "bob")
	assert.ErrorIs(t, err, usersvc.ErrUserNotFound)

	dup := usersvc.User{ID: uuid.NewV4().String(), UserName: "alice", PasswordHash: "x"}
	assert.ErrorIs(t, repo.Create(ctx, dup), usersvc.ErrUserExists)
}

func TestUserRepositoryCanceledContext(t *testing.T) {
	repo := gorm.NewUserRepository(openDB(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.FindByUserName(ctx, "alice")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, usersvc.ErrUserNotFound)
}
