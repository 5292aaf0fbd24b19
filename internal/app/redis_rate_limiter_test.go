package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/DanSamedov/api-smart-savings-sub000/internal/config"
	"github.com/DanSamedov/api-smart-savings-sub000/internal/domain"
)

func TestConsumeRateLimit_NilClientIsNoOp(t *testing.T) {
	var limiter *RedisRateLimiter

	count, retryAfter, err := limiter.ConsumeRateLimit(context.Background(), "interpret", "user", 5, time.Minute)
	if err != nil {
		t.Fatalf("expected nil error from a nil limiter, got %v", err)
	}
	if count != 0 || retryAfter != 0 {
		t.Fatalf("expected zero values from a nil limiter, got count=%d retry=%d", count, retryAfter)
	}
}

type limiterStub struct {
	count      int
	retryAfter int
	err        error
}

func (l *limiterStub) ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (int, int, error) {
	return l.count, l.retryAfter, l.err
}

func newRateLimitedService(limiter RateLimiter) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		ProjectionMaxOccurrences: 24,
		ListRateLimitPerMinute:   10,
	}
	return NewService(&serviceRepoStub{}, nil, &publisherStub{}, NewWalletCache(nil, 0, logger), limiter, logger, cfg)
}

func TestService_ExceededLimitReturnsRateLimitError(t *testing.T) {
	service := newRateLimitedService(&limiterStub{count: 11, retryAfter: 42})

	_, err := service.ListScheduled(context.Background(), uuid.New(), "")

	var rateLimitErr *RateLimitError
	if !errors.As(err, &rateLimitErr) {
		t.Fatalf("expected a RateLimitError, got %v", err)
	}
	if rateLimitErr.RetryAfterSeconds != 42 {
		t.Fatalf("expected retry-after 42, got %d", rateLimitErr.RetryAfterSeconds)
	}
}

func TestService_LimiterOutageFailsOpen(t *testing.T) {
	service := newRateLimitedService(&limiterStub{err: errors.New("redis down")})

	scheduled, err := service.ListScheduled(context.Background(), uuid.New(), string(domain.ScheduleStatusActive))
	if err != nil {
		t.Fatalf("expected the limiter outage to fail open, got %v", err)
	}
	if scheduled != nil {
		t.Fatalf("expected the stub's empty result, got %v", scheduled)
	}
}
