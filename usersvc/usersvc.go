package usersvc

import (
	"context"
	"errors"
)

type User struct {
	ID           string `json:"id" gorm:"primaryKey"`
	UserName     string `json:"userName" gorm:"uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"not null"`
}

type UserRepository interface {
	FindByUserName(ctx context.Context, name string) (User, error)
	Create(ctx context.Context, user User) error
}

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
)
