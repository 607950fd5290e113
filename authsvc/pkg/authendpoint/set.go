package authendpoint

import (
	"context"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics"
	"github.com/ichigozero/tasktracker/authsvc/pkg/authservice"
)

type Set struct {
	LoginEndpoint endpoint.Endpoint
}

func New(svc authservice.Service, logger log.Logger, duration metrics.Histogram) Set {
	var loginEndpoint endpoint.Endpoint
	{
		loginEndpoint = MakeLoginEndpoint(svc)
		loginEndpoint = InstrumentingMiddleware(duration.With("method", "Login"))(loginEndpoint)
		loginEndpoint = LoggingMiddleware(log.With(logger, "method", "Login"))(loginEndpoint)
	}

	return Set{
		LoginEndpoint: loginEndpoint,
	}
}

func (s Set) Login(ctx context.Context, username, password string) (string, error) {
	response, err := s.LoginEndpoint(ctx, LoginRequest{UserName: username, Password: password})
	if err != nil {
		return "", err
	}

	resp := response.(LoginResponse)
	return resp.AccessToken, resp.Err
}

func MakeLoginEndpoint(s authservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(LoginRequest)
		t, err := s.Login(ctx, req.UserName, req.Password)

		return LoginResponse{AccessToken: t, Err: err}, nil
	}
}

var (
	_ endpoint.Failer = LoginResponse{}
)

type LoginRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	Err         error  `json:"-"`
}

func (r LoginResponse) Failed() error { return r.Err }
