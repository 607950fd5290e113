package userservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/ichigozero/tasktracker/usersvc"
	"github.com/twinj/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	Verify(ctx context.Context, username, password string) (usersvc.User, error)
	Register(ctx context.Context, username, password string) (usersvc.User, error)
}

func New(users usersvc.UserRepository, cost int, logger log.Logger) (Service, error) {
	var svc Service
	{
		basic, err := NewBasicService(users, cost)
		if err != nil {
			return nil, err
		}
		svc = basic
		svc = LoggingMiddleware(logger)(svc)
	}
	return svc, nil
}

type basicService struct {
	users     usersvc.UserRepository
	cost      int
	dummyHash []byte
}

// NewBasicService hashes a throwaway password with the given cost so that
// lookups of unknown users spend the same bcrypt work as real comparisons.
func NewBasicService(users usersvc.UserRepository, cost int) (Service, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewV4().String()), cost)
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}

	return &basicService{users: users, cost: cost, dummyHash: dummy}, nil
}

func (s *basicService) Verify(ctx context.Context, username, password string) (usersvc.User, error) {
	user, err := s.users.FindByUserName(ctx, username)
	switch {
	case errors.Is(err, usersvc.ErrUserNotFound):
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return usersvc.User{}, usersvc.ErrInvalidCredentials
	case err != nil:
		return usersvc.User{}, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return usersvc.User{}, usersvc.ErrInvalidCredentials
	}

	return user, nil
}

func (s *basicService) Register(ctx context.Context, username, password string) (usersvc.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return usersvc.User{}, usersvc.ErrInvalidArgument
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return usersvc.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := usersvc.User{
		ID:           uuid.NewV4().String(),
		UserName:     username,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return usersvc.User{}, err
	}

	return user, nil
}
