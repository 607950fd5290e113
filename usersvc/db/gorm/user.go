package gorm

import (
	"context"
	"errors"

	"github.com/ichigozero/tasktracker/usersvc"
	libgorm "gorm.io/gorm"
)

type userRepository struct {
	db *libgorm.DB
}

func NewUserRepository(db *libgorm.DB) usersvc.UserRepository {
	return &userRepository{db}
}

func (u *userRepository) FindByUserName(ctx context.Context, name string) (usersvc.User, error) {
	var user usersvc.User
	result := u.db.WithContext(ctx).Where("user_name = ?", name).First(&user)
	if errors.Is(result.Error, libgorm.ErrRecordNotFound) {
		return usersvc.User{}, usersvc.ErrUserNotFound
	}

	return user, result.Error
}

// Create relies on the unique index for races; the lookup only turns the
// common case into ErrUserExists.
func (u *userRepository) Create(ctx context.Context, user usersvc.User) error {
	var count int64
	result := u.db.WithContext(ctx).Model(&usersvc.User{}).Where("user_name = ?", user.UserName).Count(&count)
	if result.Error != nil {
		return result.Error
	}
	if count > 0 {
		return usersvc.ErrUserExists
	}

	return u.db.WithContext(ctx).Create(&user).Error
}
