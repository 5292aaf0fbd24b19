/**
 * @description
 * Savings pool operations: creation, listing, interactive contributions and
 * withdrawals, and the member-only activity feed. Interactive contributions
 * publish the same event the execution engine publishes, marked with an
 * "interactive" trigger.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DanSamedov/api-smart-savings-sub000/internal/domain"
	"github.com/DanSamedov/api-smart-savings-sub000/internal/store"
	"github.com/DanSamedov/api-smart-savings-sub000/pkg/rabbitmq"
)

var ErrPoolNameRequired = errors.New("pool name is required")

// CreatePool creates a shared pool or a personal goal owned by the caller.
// The creator is enrolled as the pool's ADMIN member.
func (s *Service) CreatePool(ctx context.Context, userID uuid.UUID, req domain.CreatePoolRequest) (*domain.SavingsPool, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrPoolNameRequired
	}
	if req.TargetAmount < 0 {
		return nil, ErrInvalidAmount
	}
	currency := domain.Currency(strings.ToUpper(strings.TrimSpace(req.Currency)))
	if !currency.Valid() {
		return nil, ErrInvalidCurrency
	}

	pool := &domain.SavingsPool{
		ID:           uuid.New(),
		CreatorID:    userID,
		Name:         name,
		TargetAmount: req.TargetAmount,
		Currency:     currency,
		Solo:         req.Solo,
	}
	if err := s.repo.CreatePool(ctx, pool); err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	s.logger.Info("created savings pool", "pool_id", pool.ID, "user_id", userID, "solo", pool.Solo)
	return pool, nil
}

// ListPools returns the caller's shared pools followed by their personal
// goals.
func (s *Service) ListPools(ctx context.Context, userID uuid.UUID) ([]domain.SavingsPool, error) {
	pools, err := s.repo.FindPoolsByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pools: %w", err)
	}
	goals, err := s.repo.FindGoalsByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch goals: %w", err)
	}
	return append(pools, goals...), nil
}

// ContributeToPool moves money from the caller's wallet into a pool on the
// request path and publishes a contribution event. Returns the pool's new
// balance.
func (s *Service) ContributeToPool(ctx context.Context, userID, poolID uuid.UUID, req domain.PoolMutationRequest) (int64, error) {
	if req.Amount <= 0 {
		return 0, ErrInvalidAmount
	}

	pool, err := s.repo.FindPoolByID(ctx, poolID)
	if err != nil {
		return 0, err
	}

	balance, err := s.repo.ContributeToPool(ctx, userID, poolID, req.Amount)
	if err != nil {
		return 0, err
	}

	s.cache.Invalidate(ctx, userID)

	event := domain.ContributionRecordedEvent{
		PoolID:          poolID,
		PoolName:        pool.Name,
		UserID:          userID,
		ContributorName: s.contributorName(ctx, userID),
		Amount:          req.Amount,
		Currency:        pool.Currency,
		PoolBalance:     balance,
		DestinationType: pool.DestinationType(),
		Trigger:         domain.ContributionTriggerInteractive,
		RecordedAt:      time.Now().UTC(),
	}
	if err := s.producer.Publish(ctx, rabbitmq.SavingsEventsExchange, domain.RoutingKeyContributionRecorded, event); err != nil {
		s.logger.Warn("failed to publish contribution event", "pool_id", poolID, "user_id", userID, "error", err)
	}

	s.logger.Info("recorded interactive contribution", "pool_id", poolID, "user_id", userID, "amount", req.Amount)
	return balance, nil
}

// WithdrawFromPool moves money from a pool back into the caller's wallet,
// capped at the caller's cumulative contribution. Returns the pool's new
// balance.
func (s *Service) WithdrawFromPool(ctx context.Context, userID, poolID uuid.UUID, req domain.PoolMutationRequest) (int64, error) {
	if req.Amount <= 0 {
		return 0, ErrInvalidAmount
	}

	balance, err := s.repo.WithdrawFromPool(ctx, userID, poolID, req.Amount)
	if err != nil {
		return 0, err
	}

	s.cache.Invalidate(ctx, userID)
	s.logger.Info("recorded pool withdrawal", "pool_id", poolID, "user_id", userID, "amount", req.Amount)
	return balance, nil
}

// ListPoolActivity returns a pool's recent activity. Only members may read
// the feed.
func (s *Service) ListPoolActivity(ctx context.Context, userID, poolID uuid.UUID, limit int) ([]domain.PoolActivity, error) {
	member, err := s.repo.IsPoolMember(ctx, poolID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pool membership: %w", err)
	}
	if !member {
		return nil, store.ErrMembershipNotFound
	}

	return s.repo.ListPoolActivity(ctx, poolID, normalizeLimit(limit))
}

// contributorName resolves the user's display name for event payloads.
// Lookup failures degrade to an empty name.
func (s *Service) contributorName(ctx context.Context, userID uuid.UUID) string {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return ""
	}
	return user.DisplayName()
}
