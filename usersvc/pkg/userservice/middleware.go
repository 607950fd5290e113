package userservice

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics"
	"github.com/ichigozero/tasktracker/usersvc"
)

type Middleware func(Service) Service

// LoggingMiddleware never logs passwords or hashes.
func LoggingMiddleware(logger log.Logger) Middleware {
	return func(next Service) Service {
		return loggingMiddleware{logger, next}
	}
}

type loggingMiddleware struct {
	logger log.Logger
	next   Service
}

func (mw loggingMiddleware) Verify(ctx context.Context, username, password string) (user usersvc.User, err error) {
	defer func() {
		mw.logger.Log("method", "Verify", "username", username, "id", user.ID, "err", err)
	}()
	return mw.next.Verify(ctx, username, password)
}

func (mw loggingMiddleware) Register(ctx context.Context, username, password string) (user usersvc.User, err error) {
	defer func() {
		mw.logger.Log("method", "Register", "username", username, "id", user.ID, "err", err)
	}()
	return mw.next.Register(ctx, username, password)
}

func InstrumentingMiddleware(counter metrics.Counter, latency metrics.Histogram) Middleware {
	return func(next Service) Service {
		return instrumentingMiddleware{counter, latency, next}
	}
}

type instrumentingMiddleware struct {
	requestCount   metrics.Counter
	requestLatency metrics.Histogram
	next           Service
}

func (mw instrumentingMiddleware) Verify(ctx context.Context, username, password string) (usersvc.User, error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "verify").Add(1)
		mw.requestLatency.With("method", "verify").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.Verify(ctx, username, password)
}

func (mw instrumentingMiddleware) Register(ctx context.Context, username, password string) (usersvc.User, error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "register").Add(1)
		mw.requestLatency.With("method", "register").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.Register(ctx, username, password)
}
