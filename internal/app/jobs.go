/**
 * @description
 * The execution engine: walks due schedules every tick, holds funds against
 * the owner's wallet, credits the destination pool, and advances each
 * schedule along its stored projection log. Each schedule is processed in
 * isolation so one failure never blocks the rest of the batch.
 */

package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/DanSamedov/api-smart-savings-sub000/internal/domain"
	"github.com/DanSamedov/api-smart-savings-sub000/internal/store"
	"github.com/DanSamedov/api-smart-savings-sub000/pkg/rabbitmq"
)

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	repo       store.Repository
	producer   rabbitmq.Publisher
	cache      *WalletCache
	logger     *slog.Logger
	batchLimit int
}

// NewJobs creates a new Jobs runner.
func NewJobs(repo store.Repository, producer rabbitmq.Publisher, cache *WalletCache, logger *slog.Logger, batchLimit int) *Jobs {
	return &Jobs{
		repo:       repo,
		producer:   producer,
		cache:      cache,
		logger:     logger,
		batchLimit: batchLimit,
	}
}

// ProcessDueSchedules is the engine tick. It snapshots the due schedules and
// processes each one; the money movement itself re-checks the claim under a
// row lock, so overlapping ticks execute every occurrence at most once.
func (j *Jobs) ProcessDueSchedules() {
	ctx := context.Background()
	now := time.Now().UTC()

	due, err := j.repo.FindDueSchedules(ctx, now, j.batchLimit)
	if err != nil {
		j.logger.Error("failed to fetch due schedules", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	j.logger.Info("processing due schedules", "count", len(due))

	var executed, skipped, failed, errored int
	for _, schedule := range due {
		switch j.processSchedule(ctx, schedule, now) {
		case outcomeExecuted:
			executed++
		case outcomeSkipped:
			skipped++
		case outcomeFailed:
			failed++
		case outcomeErrored:
			errored++
		}
	}

	j.logger.Info("due schedule processing finished",
		"executed", executed,
		"skipped", skipped,
		"failed", failed,
		"errored", errored,
	)
}

type scheduleOutcome int

const (
	outcomeExecuted scheduleOutcome = iota
	outcomeSkipped
	outcomeFailed
	outcomeErrored
)

func (j *Jobs) processSchedule(ctx context.Context, schedule domain.ScheduledTransaction, now time.Time) scheduleOutcome {
	if schedule.NextRunAt == nil {
		return outcomeSkipped
	}

	poolID := schedule.DestinationID()
	if poolID == nil {
		j.logger.Error("schedule has no destination", "schedule_id", schedule.ID)
		return j.failSchedule(ctx, schedule, "schedule has no destination")
	}

	nextRunAt, nextStatus := nextOccurrence(schedule, now)

	result, err := j.repo.ExecuteScheduledContribution(ctx, store.ExecuteContributionParams{
		ScheduleID:    schedule.ID,
		ExpectedRunAt: *schedule.NextRunAt,
		UserID:        schedule.UserID,
		PoolID:        *poolID,
		Amount:        schedule.Amount,
		NextRunAt:     nextRunAt,
		NextStatus:    nextStatus,
	})
	switch {
	case err == nil:
		// Executed. Fall through to event publication below.
	case errors.Is(err, store.ErrScheduleClaimConflict):
		// Another tick or a cancellation claimed this occurrence first.
		return outcomeSkipped
	case errors.Is(err, store.ErrInsufficientFunds):
		return j.skipOccurrence(ctx, schedule, nextRunAt, nextStatus)
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrWalletNotFound),
		errors.Is(err, store.ErrPoolNotFound),
		errors.Is(err, store.ErrMembershipNotFound):
		j.logger.Error("schedule references missing records", "schedule_id", schedule.ID, "error", err)
		return j.failSchedule(ctx, schedule, err.Error())
	default:
		j.logger.Error("failed to execute scheduled contribution", "schedule_id", schedule.ID, "error", err)
		return outcomeErrored
	}

	j.cache.Invalidate(ctx, schedule.UserID)

	event := domain.ContributionRecordedEvent{
		ScheduleID:      &schedule.ID,
		PoolID:          *poolID,
		PoolName:        result.PoolName,
		UserID:          schedule.UserID,
		ContributorName: j.contributorName(ctx, schedule),
		Amount:          schedule.Amount,
		Currency:        schedule.Currency,
		PoolBalance:     result.PoolBalance,
		DestinationType: schedule.DestinationType,
		Trigger:         domain.ContributionTriggerScheduled,
		RecordedAt:      now,
	}
	if err := j.producer.Publish(ctx, rabbitmq.SavingsEventsExchange, domain.RoutingKeyContributionRecorded, event); err != nil {
		j.logger.Warn("failed to publish contribution event", "schedule_id", schedule.ID, "error", err)
	}

	attrs := []any{
		"schedule_id", schedule.ID,
		"user_id", schedule.UserID,
		"pool_id", *poolID,
		"amount", schedule.Amount,
		"next_status", nextStatus,
	}
	if nextRunAt != nil {
		attrs = append(attrs, "next_run_at", *nextRunAt)
	}
	j.logger.Info("executed scheduled contribution", attrs...)
	return outcomeExecuted
}

// skipOccurrence advances a schedule past an occurrence that could not be
// funded. Insufficient funds are transient, so the schedule stays on its
// track instead of failing.
func (j *Jobs) skipOccurrence(ctx context.Context, schedule domain.ScheduledTransaction, nextRunAt *time.Time, nextStatus domain.ScheduleStatus) scheduleOutcome {
	j.logger.Warn("skipping occurrence, insufficient funds",
		"schedule_id", schedule.ID,
		"user_id", schedule.UserID,
		"amount", schedule.Amount,
	)

	err := j.repo.AdvanceSchedule(ctx, schedule.ID, *schedule.NextRunAt, nextRunAt, nextStatus)
	if err != nil {
		if errors.Is(err, store.ErrScheduleClaimConflict) {
			return outcomeSkipped
		}
		j.logger.Error("failed to advance schedule", "schedule_id", schedule.ID, "error", err)
		return outcomeErrored
	}
	return outcomeSkipped
}

// failSchedule marks a schedule FAILED and publishes the failure event.
func (j *Jobs) failSchedule(ctx context.Context, schedule domain.ScheduledTransaction, reason string) scheduleOutcome {
	if err := j.repo.MarkScheduleFailed(ctx, schedule.ID); err != nil {
		if errors.Is(err, store.ErrScheduleClaimConflict) {
			return outcomeSkipped
		}
		j.logger.Error("failed to mark schedule failed", "schedule_id", schedule.ID, "error", err)
		return outcomeErrored
	}

	event := domain.ScheduleFailedEvent{
		ScheduleID: schedule.ID,
		UserID:     schedule.UserID,
		Reason:     reason,
		FailedAt:   time.Now().UTC(),
	}
	if err := j.producer.Publish(ctx, rabbitmq.SavingsEventsExchange, domain.RoutingKeyScheduleFailed, event); err != nil {
		j.logger.Warn("failed to publish schedule failure event", "schedule_id", schedule.ID, "error", err)
	}

	return outcomeFailed
}

func (j *Jobs) contributorName(ctx context.Context, schedule domain.ScheduledTransaction) string {
	user, err := j.repo.FindUserByID(ctx, schedule.UserID)
	if err != nil {
		return ""
	}
	return user.DisplayName()
}

// nextOccurrence finds the earliest projection entry strictly after now. An
// exhausted log completes the schedule.
func nextOccurrence(schedule domain.ScheduledTransaction, now time.Time) (*time.Time, domain.ScheduleStatus) {
	for _, occurrence := range schedule.ProjectionLog {
		if occurrence.After(now) {
			next := occurrence
			return &next, domain.ScheduleStatusActive
		}
	}
	return nil, domain.ScheduleStatusCompleted
}
