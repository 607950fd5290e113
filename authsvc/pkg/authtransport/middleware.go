package authtransport

import (
	"context"
	stdhttp "net/http"
	"strings"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/ichigozero/tasktracker/authsvc"
	"github.com/ichigozero/tasktracker/authsvc/pkg/authservice"
)

const bearer = "bearer"

// HTTPToContext moves a bearer token from the Authorization header into the
// request context. Requests without one are passed on untouched and are
// rejected later by the authenticator.
func HTTPToContext() httptransport.RequestFunc {
	return func(ctx context.Context, r *stdhttp.Request) context.Context {
		token, ok := extractBearerToken(r.Header.Get("Authorization"))
		if !ok {
			return ctx
		}
		return context.WithValue(ctx, authsvc.TokenContextKey, token)
	}
}

// ContextToHTTP forwards the bearer token found in the context, so that a
// gateway can call the downstream service on behalf of the caller.
func ContextToHTTP() httptransport.RequestFunc {
	return func(ctx context.Context, r *stdhttp.Request) context.Context {
		token, ok := ctx.Value(authsvc.TokenContextKey).(string)
		if ok {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		return ctx
	}
}

// VerifyToken validates the bearer token placed in the context by
// HTTPToContext before the request is decoded. An accepted token exposes
// its subject; a rejected one leaves the context without a subject.
func VerifyToken(v authservice.Validator, logger log.Logger) httptransport.RequestFunc {
	return func(ctx context.Context, _ *stdhttp.Request) context.Context {
		claims, err := verify(ctx, v)
		if err != nil {
			logger.Log("auth", "rejected", "err", err)
			return ctx
		}
		return withClaims(ctx, claims)
	}
}

// RequireSubject refuses to decode a request unless VerifyToken accepted
// its token, so malformed bodies from anonymous callers are never parsed.
func RequireSubject(dec httptransport.DecodeRequestFunc) httptransport.DecodeRequestFunc {
	return func(ctx context.Context, r *stdhttp.Request) (interface{}, error) {
		if _, ok := ctx.Value(authsvc.SubjectContextKey).(string); !ok {
			return nil, authsvc.ErrUnauthorized
		}
		return dec(ctx, r)
	}
}

// NewAuthenticator validates the bearer token in the context and exposes its
// subject to the wrapped endpoint. Every failure is reported to the caller
// as authsvc.ErrUnauthorized; the actual cause is only logged.
func NewAuthenticator(v authservice.Validator, logger log.Logger) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			claims, err := verify(ctx, v)
			if err != nil {
				logger.Log("auth", "rejected", "err", err)
				return nil, authsvc.ErrUnauthorized
			}
			return next(withClaims(ctx, claims), request)
		}
	}
}

func verify(ctx context.Context, v authservice.Validator) (authservice.Claims, error) {
	token, ok := ctx.Value(authsvc.TokenContextKey).(string)
	if !ok {
		return authservice.Claims{}, authsvc.ErrTokenMissing
	}
	return v.Validate(token)
}

func withClaims(ctx context.Context, claims authservice.Claims) context.Context {
	ctx = context.WithValue(ctx, authsvc.SubjectContextKey, claims.Subject)
	return context.WithValue(ctx, authsvc.UserNameContextKey, claims.Name)
}

func extractBearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != bearer {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
