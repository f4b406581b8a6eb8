package service

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/studiodesk/studio-desk/internal/config"
	"github.com/studiodesk/studio-desk/internal/observability"
	apperrors "github.com/studiodesk/studio-desk/pkg/util/errorutil"
)

const tracerName = "github.com/studiodesk/studio-desk/internal/service"

// Fetcher runs backend reads under a per-attempt timeout, retrying
// transient failures with exponential backoff.
type Fetcher struct {
	cfg     config.FetchConfig
	logger  *zap.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer
}

// NewFetcher builds a fetcher. Zero config values fall back to one attempt
// with a five second timeout.
func NewFetcher(cfg config.FetchConfig, logger *zap.Logger, metrics *observability.Metrics) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 100 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{cfg: cfg, logger: logger, metrics: metrics, tracer: otel.Tracer(tracerName)}
}

// fetch runs op for resource. Failures become FETCH_FAILED domain errors
// unless the caller's context ended first, which surfaces as a timeout.
// Missing rows and cancellation are never retried.
func fetch[T any](ctx context.Context, f *Fetcher, resource string, op func(context.Context) (T, error)) (T, error) {
	ctx, span := f.tracer.Start(ctx, "fetch "+resource, trace.WithAttributes(attribute.String("studio_desk.resource", resource)))
	defer span.End()

	start := time.Now()
	attempts := 0
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = f.cfg.InitialBackoff

	result, err := backoff.Retry(ctx, func() (T, error) {
		attempts++
		attemptCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()

		value, err := op(attemptCtx)
		if err == nil {
			return value, nil
		}
		if errors.Is(err, pgx.ErrNoRows) || ctx.Err() != nil {
			return value, backoff.Permanent(err)
		}
		return value, err
	},
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(uint(f.cfg.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			f.logger.Warn("fetch attempt failed; retrying",
				zap.String("resource", resource),
				zap.Int("attempt", attempts),
				zap.Duration("backoff", next),
				zap.Error(err))
		}),
	)
	span.SetAttributes(attribute.Int("studio_desk.attempts", attempts))
	f.metrics.RecordFetch(resource, err, time.Since(start))

	if err == nil {
		return result, nil
	}
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	var zero T
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return zero, err
	case ctx.Err() != nil:
		return zero, apperrors.NewTimeout(resource + " fetch cancelled")
	default:
		f.logger.Error("fetch failed", zap.String("resource", resource), zap.Int("attempts", attempts), zap.Error(err))
		return zero, apperrors.NewFetchFailed(resource, err)
	}
}
