package taskendpoint

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics"
)

// InstrumentingMiddleware records the duration of each invocation to the
// passed histogram, labeled by whether the endpoint failed.
func InstrumentingMiddleware(duration metrics.Histogram) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			defer func(begin time.Time) {
				duration.With("success", fmt.Sprint(err == nil && !failed(response))).Observe(time.Since(begin).Seconds())
			}(time.Now())
			return next(ctx, request)
		}
	}
}

// LoggingMiddleware logs transport errors, business errors and the
// latency of each invocation.
func LoggingMiddleware(logger log.Logger) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			defer func(begin time.Time) {
				var failure error
				if f, ok := response.(endpoint.Failer); ok {
					failure = f.Failed()
				}
				logger.Log("transport_error", err, "error", failure, "took", time.Since(begin))
			}(time.Now())
			return next(ctx, request)
		}
	}
}

func failed(response interface{}) bool {
	f, ok := response.(endpoint.Failer)
	return ok && f.Failed() != nil
}
