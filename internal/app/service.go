/**
 * @description
 * Core business logic for the savings service. The `Service` struct
 * orchestrates the natural-language scheduling flow: prompt interpretation,
 * draft building with a projection preview, confirmation into a persisted
 * ACTIVE schedule, listing, and cancellation.
 *
 * Key features:
 * - Drafts are lenient: malformed interpretation fields degrade to missing
 *   values and clarification messages, never errors.
 * - Confirmation is strict: every field is validated and the destination name
 *   is resolved against the caller's own pools and goals.
 * - The projection log is computed exactly once at confirmation and stored on
 *   the schedule; the execution engine never re-projects.
 *
 * @dependencies
 * - context, errors, fmt, log/slog, strings, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID generation.
 * - internal/config, internal/domain, internal/store: Configuration, domain
 *   models, and data access.
 * - pkg/rabbitmq: For event publishing.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DanSamedov/api-smart-savings-sub000/internal/config"
	"github.com/DanSamedov/api-smart-savings-sub000/internal/domain"
	"github.com/DanSamedov/api-smart-savings-sub000/internal/store"
	"github.com/DanSamedov/api-smart-savings-sub000/pkg/rabbitmq"
)

var (
	ErrPromptRequired          = errors.New("prompt is required")
	ErrInvalidAmount           = errors.New("amount must be a positive integer")
	ErrInvalidCurrency         = errors.New("unsupported currency")
	ErrInvalidFrequency        = errors.New("unsupported frequency")
	ErrInvalidStartDate        = errors.New("start date is missing or malformed")
	ErrInvalidEndDate          = errors.New("end date is malformed")
	ErrInvalidDayOfWeek        = errors.New("invalid day of week")
	ErrInvalidDestination      = errors.New("destination type must be GROUP or GOAL")
	ErrDestinationNameRequired = errors.New("destination name is required")
	ErrEmptyProjection         = errors.New("no valid execution dates could be calculated")
	ErrInvalidStatusFilter     = errors.New("unsupported status filter")
	ErrNotScheduleOwner        = errors.New("scheduled transaction belongs to another user")
	ErrScheduleTerminal        = errors.New("scheduled transaction is already finished")
	ErrInterpreterUnavailable  = errors.New("interpretation service is unavailable")
)

// RateLimitError is returned when a caller exhausts a per-minute request
// budget. RetryAfterSeconds is the remaining window, rounded up.
type RateLimitError struct {
	RetryAfterSeconds int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry in %d seconds", e.RetryAfterSeconds)
}

// Interpreter turns a natural language prompt into a structured
// interpretation, given the caller's known pools and goals as context.
type Interpreter interface {
	Interpret(ctx context.Context, prompt string, knownGroups, knownGoals map[string]string) (*domain.Interpretation, error)
}

// RateLimiter meters requests per scope and subject over a rolling window.
type RateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// Service provides the core business logic for the savings API.
type Service struct {
	repo        store.Repository
	interpreter Interpreter
	producer    rabbitmq.Publisher
	cache       *WalletCache
	limiter     RateLimiter
	logger      *slog.Logger
	cfg         config.Config
}

// NewService creates a new savings service instance.
func NewService(repo store.Repository, interpreter Interpreter, producer rabbitmq.Publisher, cache *WalletCache, limiter RateLimiter, logger *slog.Logger, cfg config.Config) *Service {
	return &Service{
		repo:        repo,
		interpreter: interpreter,
		producer:    producer,
		cache:       cache,
		limiter:     limiter,
		logger:      logger,
		cfg:         cfg,
	}
}

// Interpret runs the full prompt-to-draft flow: fetch the caller's pools and
// goals for context, call the interpretation service, and build a draft with
// a projection preview. The draft is never persisted.
func (s *Service) Interpret(ctx context.Context, userID uuid.UUID, req domain.InterpretRequest) (*domain.TransactionDraft, error) {
	if err := s.checkRateLimit(ctx, "interpret", userID, s.cfg.InterpretRateLimitPerMinute); err != nil {
		return nil, err
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, ErrPromptRequired
	}

	knownGroups := s.poolContext(ctx, userID)
	knownGoals := s.goalContext(ctx, userID)

	interpretation, err := s.interpreter.Interpret(ctx, prompt, knownGroups, knownGoals)
	if err != nil {
		s.logger.Error("interpretation call failed", "user_id", userID, "error", err)
		return nil, ErrInterpreterUnavailable
	}

	draft := BuildDraft(interpretation, knownGroups, knownGoals, s.cfg.ProjectionMaxOccurrences, time.Now().UTC())
	s.logger.Info("built transaction draft", "user_id", userID, "validation_status", draft.ValidationStatus)
	return draft, nil
}

// poolContext maps the caller's shared pool IDs to names. Failures degrade to
// an empty context so interpretation still proceeds.
func (s *Service) poolContext(ctx context.Context, userID uuid.UUID) map[string]string {
	pools, err := s.repo.FindPoolsByMember(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to fetch pools for interpretation context", "user_id", userID, "error", err)
		return map[string]string{}
	}
	result := make(map[string]string, len(pools))
	for _, p := range pools {
		result[p.ID.String()] = p.Name
	}
	return result
}

func (s *Service) goalContext(ctx context.Context, userID uuid.UUID) map[string]string {
	goals, err := s.repo.FindGoalsByOwner(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to fetch goals for interpretation context", "user_id", userID, "error", err)
		return map[string]string{}
	}
	result := make(map[string]string, len(goals))
	for _, g := range goals {
		result[g.ID.String()] = g.Name
	}
	return result
}

// BuildDraft normalizes an untrusted interpretation into a draft transaction.
// Malformed fields degrade to their zero values; only a missing amount
// triggers a clarification. A projection preview is attached whenever the
// amount and a valid frequency are present.
func BuildDraft(interpretation *domain.Interpretation, knownGroups, knownGoals map[string]string, maxOccurrences int, now time.Time) *domain.TransactionDraft {
	draft := &domain.TransactionDraft{
		Amount:           interpretation.Amount,
		ValidationStatus: domain.DraftStatusValid,
	}

	if interpretation.Currency != nil {
		draft.Currency = domain.Currency(strings.ToUpper(strings.TrimSpace(*interpretation.Currency)))
	}

	frequency := domain.Frequency("")
	if interpretation.Frequency != nil {
		frequency = domain.Frequency(strings.ToUpper(strings.TrimSpace(*interpretation.Frequency)))
		draft.Frequency = frequency
	}

	// A concrete pool ID always wins over whatever type the interpreter guessed.
	destinationType := ""
	if interpretation.DestinationType != nil {
		destinationType = strings.ToUpper(strings.TrimSpace(*interpretation.DestinationType))
	}
	if interpretation.GroupID != nil {
		destinationType = string(domain.DestinationGroup)
		draft.DestinationName = knownGroups[interpretation.GroupID.String()]
	} else if interpretation.GoalName != nil {
		draft.DestinationName = strings.TrimSpace(*interpretation.GoalName)
	}
	draft.DestinationType = domain.DestinationType(destinationType)

	var dayOfWeek *int
	if interpretation.DayOfWeek != nil {
		if parsed, ok := ParseDayOfWeek(*interpretation.DayOfWeek); ok {
			dayOfWeek = parsed
			draft.DayOfWeek = DayOfWeekName(*parsed)
		}
	}

	start := now
	if interpretation.StartDate != nil {
		if parsed, err := parseDate(*interpretation.StartDate); err == nil {
			start = parsed
		}
	}
	draft.StartDate = &start

	if interpretation.EndDate != nil {
		if parsed, err := parseDate(*interpretation.EndDate); err == nil {
			draft.EndDate = &parsed
		}
	}

	if interpretation.Description != nil {
		draft.Description = strings.TrimSpace(*interpretation.Description)
	}

	if draft.Amount == nil {
		draft.ValidationStatus = domain.DraftStatusClarificationRequired
		draft.MissingFields = append(draft.MissingFields, "amount")
		draft.Messages = append(draft.Messages, "Please provide the amount for this transaction.")
	}
	if draft.DestinationName == "" {
		draft.ValidationStatus = domain.DraftStatusClarificationRequired
		draft.MissingFields = append(draft.MissingFields, "destination_name")
		draft.Messages = append(draft.Messages, "Please tell me which pool or goal this is for.")
	}

	if draft.Amount != nil && frequency.Valid() {
		dates := ProjectSchedule(start, draft.EndDate, frequency, dayOfWeek, maxOccurrences)
		draft.ProjectedDates = dates
		if len(dates) > 0 {
			draft.FirstRunDate = &dates[0]
		}
	}

	return draft
}

// Confirm validates a confirmed draft, resolves its destination name against
// the caller's own pools and goals, computes the projection log, and persists
// the schedule as ACTIVE with next_run_at set to the first projected date.
func (s *Service) Confirm(ctx context.Context, userID uuid.UUID, req domain.ConfirmScheduleRequest) (*domain.ScheduledTransaction, error) {
	if err := s.checkRateLimit(ctx, "confirm", userID, s.cfg.ConfirmRateLimitPerMinute); err != nil {
		return nil, err
	}

	// 1. Validate the scalar fields.
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	currency := domain.Currency(strings.ToUpper(strings.TrimSpace(req.Currency)))
	if !currency.Valid() {
		return nil, ErrInvalidCurrency
	}
	frequency := domain.Frequency(strings.ToUpper(strings.TrimSpace(req.Frequency)))
	if !frequency.Valid() {
		return nil, ErrInvalidFrequency
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, ErrInvalidStartDate
	}
	var end *time.Time
	if req.EndDate != nil && strings.TrimSpace(*req.EndDate) != "" {
		parsed, err := parseDate(*req.EndDate)
		if err != nil {
			return nil, ErrInvalidEndDate
		}
		end = &parsed
	}

	// 2. Resolve the destination name to a pool or goal the caller owns.
	destinationType := domain.DestinationType(strings.ToUpper(strings.TrimSpace(req.DestinationType)))
	destinationName := strings.TrimSpace(req.DestinationName)
	if destinationName == "" {
		return nil, ErrDestinationNameRequired
	}

	var groupID, goalID *uuid.UUID
	switch destinationType {
	case domain.DestinationGroup:
		pools, err := s.repo.FindPoolsByMember(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch pools: %w", err)
		}
		found := matchPoolByName(pools, destinationName)
		if found == nil {
			return nil, store.ErrPoolNotFound
		}
		groupID = &found.ID
	case domain.DestinationGoal:
		goals, err := s.repo.FindGoalsByOwner(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch goals: %w", err)
		}
		found := matchPoolByName(goals, destinationName)
		if found == nil {
			return nil, store.ErrGoalNotFound
		}
		goalID = &found.ID
	default:
		return nil, ErrInvalidDestination
	}

	// 3. Normalize the day of week. WEEKLY requires one: a supplied but
	// unparseable value fails, an omitted one defaults to the start weekday.
	var dayOfWeek *int
	if req.DayOfWeek != nil && strings.TrimSpace(*req.DayOfWeek) != "" {
		parsed, ok := ParseDayOfWeek(*req.DayOfWeek)
		if !ok {
			if frequency == domain.FrequencyWeekly {
				return nil, ErrInvalidDayOfWeek
			}
		} else {
			dayOfWeek = parsed
		}
	}
	if frequency == domain.FrequencyWeekly && dayOfWeek == nil {
		weekday := mondayIndexed(start.Weekday())
		dayOfWeek = &weekday
	}

	// 4. Compute the projection log.
	projection := ProjectSchedule(start, end, frequency, dayOfWeek, s.cfg.ProjectionMaxOccurrences)
	if len(projection) == 0 {
		return nil, ErrEmptyProjection
	}

	scheduled := &domain.ScheduledTransaction{
		ID:              uuid.New(),
		UserID:          userID,
		Amount:          req.Amount,
		Currency:        currency,
		Frequency:       frequency,
		DayOfWeek:       dayOfWeek,
		StartDate:       start,
		EndDate:         end,
		DestinationType: destinationType,
		GroupID:         groupID,
		GoalID:          goalID,
		Description:     strings.TrimSpace(req.Description),
		CronDescriptor:  DescribeSchedule(frequency, dayOfWeek),
		Status:          domain.ScheduleStatusActive,
		NextRunAt:       &projection[0],
		ProjectionLog:   projection,
	}

	if err := s.repo.CreateScheduledTransaction(ctx, scheduled); err != nil {
		return nil, fmt.Errorf("failed to create scheduled transaction: %w", err)
	}

	s.logger.Info("created scheduled transaction",
		"schedule_id", scheduled.ID,
		"user_id", userID,
		"frequency", scheduled.Frequency,
		"next_run_at", scheduled.NextRunAt,
	)
	return scheduled, nil
}

// ListScheduled returns the caller's scheduled transactions, optionally
// filtered by status.
func (s *Service) ListScheduled(ctx context.Context, userID uuid.UUID, statusFilter string) ([]domain.ScheduledTransaction, error) {
	if err := s.checkRateLimit(ctx, "list", userID, s.cfg.ListRateLimitPerMinute); err != nil {
		return nil, err
	}

	var status *domain.ScheduleStatus
	if trimmed := strings.TrimSpace(statusFilter); trimmed != "" {
		candidate := domain.ScheduleStatus(strings.ToUpper(trimmed))
		if !candidate.Valid() {
			return nil, ErrInvalidStatusFilter
		}
		status = &candidate
	}

	return s.repo.FindScheduledTransactionsByUser(ctx, userID, status)
}

// CancelScheduled finishes a PENDING or ACTIVE schedule owned by the caller.
// A concurrent engine run that already finished the schedule surfaces as
// ErrScheduleTerminal rather than a spurious success.
func (s *Service) CancelScheduled(ctx context.Context, userID, scheduleID uuid.UUID) error {
	if err := s.checkRateLimit(ctx, "cancel", userID, s.cfg.CancelRateLimitPerMinute); err != nil {
		return err
	}

	scheduled, err := s.repo.FindScheduledTransactionByID(ctx, scheduleID)
	if err != nil {
		return err
	}
	if scheduled.UserID != userID {
		return ErrNotScheduleOwner
	}
	if scheduled.Status.Terminal() {
		return ErrScheduleTerminal
	}

	if err := s.repo.CancelSchedule(ctx, scheduleID, userID); err != nil {
		if errors.Is(err, store.ErrScheduleClaimConflict) {
			return ErrScheduleTerminal
		}
		return fmt.Errorf("failed to cancel scheduled transaction: %w", err)
	}

	s.logger.Info("cancelled scheduled transaction", "schedule_id", scheduleID, "user_id", userID)
	return nil
}

func matchPoolByName(pools []domain.SavingsPool, name string) *domain.SavingsPool {
	for i := range pools {
		if strings.EqualFold(pools[i].Name, name) {
			return &pools[i]
		}
	}
	return nil
}

// checkRateLimit consumes one unit of the caller's per-minute budget for the
// given scope. Limiter outages fail open.
func (s *Service) checkRateLimit(ctx context.Context, scope string, userID uuid.UUID, limit int) error {
	if s.limiter == nil || limit <= 0 {
		return nil
	}
	count, retryAfter, err := s.limiter.ConsumeRateLimit(ctx, scope, userID.String(), limit, time.Minute)
	if err != nil {
		s.logger.Warn("rate limiter unavailable", "scope", scope, "error", err)
		return nil
	}
	if count > limit {
		return &RateLimitError{RetryAfterSeconds: retryAfter}
	}
	return nil
}

// parseDate accepts calendar dates ("2006-01-02") and full RFC 3339
// timestamps, normalized to UTC.
func parseDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, errors.New("empty date")
	}
	if parsed, err := time.Parse("2006-01-02", trimmed); err == nil {
		return parsed.UTC(), nil
	}
	parsed, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}
