package authservice

import (
	"context"

	"github.com/go-kit/kit/log"
	"github.com/ichigozero/tasktracker/usersvc/pkg/userservice"
)

type Service interface {
	Login(ctx context.Context, username, password string) (string, error)
}

func New(users userservice.Service, t Tokenizer, logger log.Logger) Service {
	var svc Service
	{
		svc = NewBasicService(users, t)
		svc = LoggingMiddleware(logger)(svc)
	}
	return svc
}

type basicService struct {
	users     userservice.Service
	tokenizer Tokenizer
}

func NewBasicService(users userservice.Service, t Tokenizer) Service {
	return &basicService{users: users, tokenizer: t}
}

// Login returns a signed access token for valid credentials. Unknown users
// and wrong passwords yield the same usersvc.ErrInvalidCredentials.
func (s *basicService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.Verify(ctx, username, password)
	if err != nil {
		return "", err
	}

	return s.tokenizer.Generate(user)
}
