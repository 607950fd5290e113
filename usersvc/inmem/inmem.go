package inmem

import (
	"context"
	"sync"

	"github.com/ichigozero/tasktracker/usersvc"
)

type userRepository struct {
	mtx   sync.RWMutex
	users map[string]usersvc.User
}

// NewUserRepository returns a process-local user store keyed by user name.
func NewUserRepository() usersvc.UserRepository {
	return &userRepository{users: make(map[string]usersvc.User)}
}

func (r *userRepository) FindByUserName(ctx context.Context, name string) (usersvc.User, error) {
	if err := ctx.Err(); err != nil {
		return usersvc.User{}, err
	}

	r.mtx.RLock()
	defer r.mtx.RUnlock()

	user, ok := r.users[name]
	if !ok {
		return usersvc.User{}, usersvc.ErrUserNotFound
	}
	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user usersvc.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()

	if _, ok := r.users[user.UserName]; ok {
		return usersvc.ErrUserExists
	}
	r.users[user.UserName] = user
	return nil
}
