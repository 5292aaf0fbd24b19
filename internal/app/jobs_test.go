package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/DanSamedov/api-smart-savings-sub000/internal/domain"
	"github.com/DanSamedov/api-smart-savings-sub000/internal/store"
)

type jobsRepoStub struct {
	store.Repository

	due     []domain.ScheduledTransaction
	dueErr  error
	execErr map[uuid.UUID]error

	executions []store.ExecuteContributionParams
	advances   []advanceCall
	failed     []uuid.UUID
}

type advanceCall struct {
	id        uuid.UUID
	nextRunAt *time.Time
	status    domain.ScheduleStatus
}

func (s *jobsRepoStub) FindDueSchedules(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledTransaction, error) {
	if s.dueErr != nil {
		return nil, s.dueErr
	}
	return s.due, nil
}

func (s *jobsRepoStub) ExecuteScheduledContribution(ctx context.Context, params store.ExecuteContributionParams) (*store.ExecutionResult, error) {
	if err := s.execErr[params.ScheduleID]; err != nil {
		return nil, err
	}
	s.executions = append(s.executions, params)
	return &store.ExecutionResult{PoolName: "Vacation", PoolBalance: 10000}, nil
}

func (s *jobsRepoStub) AdvanceSchedule(ctx context.Context, id uuid.UUID, expectedRunAt time.Time, nextRunAt *time.Time, status domain.ScheduleStatus) error {
	s.advances = append(s.advances, advanceCall{id: id, nextRunAt: nextRunAt, status: status})
	return nil
}

func (s *jobsRepoStub) MarkScheduleFailed(ctx context.Context, id uuid.UUID) error {
	s.failed = append(s.failed, id)
	return nil
}

func (s *jobsRepoStub) FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return &domain.User{ID: userID, FirstName: "Ada", LastName: "Lovelace"}, nil
}

func newTestJobs(repo store.Repository, producer *publisherStub) *Jobs {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := NewWalletCache(nil, 0, logger)
	return NewJobs(repo, producer, cache, logger, 100)
}

// dueSchedule builds an ACTIVE schedule whose first projection entry is in
// the past and whose remaining entries are in the future.
func dueSchedule(futureSlots int) domain.ScheduledTransaction {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	goalID := uuid.New()

	log := []time.Time{past}
	for i := 1; i <= futureSlots; i++ {
		log = append(log, now.Add(time.Duration(i)*24*time.Hour))
	}

	return domain.ScheduledTransaction{
		ID:              uuid.New(),
		UserID:          uuid.New(),
		Amount:          5000,
		Currency:        domain.CurrencyEUR,
		Frequency:       domain.FrequencyDaily,
		DestinationType: domain.DestinationGoal,
		GoalID:          &goalID,
		Status:          domain.ScheduleStatusActive,
		NextRunAt:       &log[0],
		ProjectionLog:   log,
	}
}

func TestProcessDueSchedules_ExecutesAndPublishes(t *testing.T) {
	schedule := dueSchedule(2)
	repo := &jobsRepoStub{due: []domain.ScheduledTransaction{schedule}}
	producer := &publisherStub{}
	jobs := newTestJobs(repo, producer)

	jobs.ProcessDueSchedules()

	if len(repo.executions) != 1 {
		t.Fatalf("expected one execution, got %d", len(repo.executions))
	}
	exec := repo.executions[0]
	if exec.ScheduleID != schedule.ID {
		t.Fatal("expected the due schedule to be executed")
	}
	if !exec.ExpectedRunAt.Equal(*schedule.NextRunAt) {
		t.Fatal("expected the claim to target the due slot")
	}
	if exec.NextStatus != domain.ScheduleStatusActive {
		t.Fatalf("expected the schedule to stay ACTIVE, got %s", exec.NextStatus)
	}
	if exec.NextRunAt == nil || !exec.NextRunAt.Equal(schedule.ProjectionLog[1]) {
		t.Fatal("expected the cursor to advance to the earliest future entry")
	}
	if len(producer.published) != 1 || producer.published[0] != domain.RoutingKeyContributionRecorded {
		t.Fatalf("expected one contribution event, got %v", producer.published)
	}
}

func TestProcessDueSchedules_ExhaustedLogCompletes(t *testing.T) {
	schedule := dueSchedule(0)
	repo := &jobsRepoStub{due: []domain.ScheduledTransaction{schedule}}
	jobs := newTestJobs(repo, &publisherStub{})

	jobs.ProcessDueSchedules()

	if len(repo.executions) != 1 {
		t.Fatalf("expected one execution, got %d", len(repo.executions))
	}
	exec := repo.executions[0]
	if exec.NextStatus != domain.ScheduleStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", exec.NextStatus)
	}
	if exec.NextRunAt != nil {
		t.Fatal("expected a cleared cursor on completion")
	}
}

func TestProcessDueSchedules_InsufficientFundsSkipsAndAdvances(t *testing.T) {
	schedule := dueSchedule(2)
	repo := &jobsRepoStub{
		due:     []domain.ScheduledTransaction{schedule},
		execErr: map[uuid.UUID]error{schedule.ID: store.ErrInsufficientFunds},
	}
	producer := &publisherStub{}
	jobs := newTestJobs(repo, producer)

	jobs.ProcessDueSchedules()

	if len(repo.advances) != 1 {
		t.Fatalf("expected one advance, got %d", len(repo.advances))
	}
	advance := repo.advances[0]
	if advance.status != domain.ScheduleStatusActive {
		t.Fatalf("expected the schedule to stay ACTIVE, got %s", advance.status)
	}
	if advance.nextRunAt == nil || !advance.nextRunAt.Equal(schedule.ProjectionLog[1]) {
		t.Fatal("expected the cursor to skip to the next future entry")
	}
	if len(repo.failed) != 0 {
		t.Fatal("insufficient funds must never fail the schedule")
	}
	if len(producer.published) != 0 {
		t.Fatal("did not expect events for a skipped occurrence")
	}
}

func TestProcessDueSchedules_ClaimConflictHasNoSideEffects(t *testing.T) {
	schedule := dueSchedule(2)
	repo := &jobsRepoStub{
		due:     []domain.ScheduledTransaction{schedule},
		execErr: map[uuid.UUID]error{schedule.ID: store.ErrScheduleClaimConflict},
	}
	producer := &publisherStub{}
	jobs := newTestJobs(repo, producer)

	jobs.ProcessDueSchedules()

	if len(repo.advances) != 0 || len(repo.failed) != 0 {
		t.Fatal("expected no writes for a lost claim")
	}
	if len(producer.published) != 0 {
		t.Fatal("expected no events for a lost claim")
	}
}

func TestProcessDueSchedules_MissingWalletFailsSchedule(t *testing.T) {
	schedule := dueSchedule(2)
	repo := &jobsRepoStub{
		due:     []domain.ScheduledTransaction{schedule},
		execErr: map[uuid.UUID]error{schedule.ID: store.ErrWalletNotFound},
	}
	producer := &publisherStub{}
	jobs := newTestJobs(repo, producer)

	jobs.ProcessDueSchedules()

	if len(repo.failed) != 1 || repo.failed[0] != schedule.ID {
		t.Fatalf("expected the schedule to be marked FAILED, got %v", repo.failed)
	}
	if len(repo.advances) != 0 {
		t.Fatal("a failed schedule must not advance")
	}
	if len(producer.published) != 1 || producer.published[0] != domain.RoutingKeyScheduleFailed {
		t.Fatalf("expected one failure event, got %v", producer.published)
	}
}

func TestProcessDueSchedules_MissingUserFailsSchedule(t *testing.T) {
	schedule := dueSchedule(2)
	repo := &jobsRepoStub{
		due:     []domain.ScheduledTransaction{schedule},
		execErr: map[uuid.UUID]error{schedule.ID: store.ErrUserNotFound},
	}
	producer := &publisherStub{}
	jobs := newTestJobs(repo, producer)

	jobs.ProcessDueSchedules()

	if len(repo.failed) != 1 || repo.failed[0] != schedule.ID {
		t.Fatalf("expected the schedule to be marked FAILED, got %v", repo.failed)
	}
	if len(repo.executions) != 0 || len(repo.advances) != 0 {
		t.Fatal("a schedule with a missing user must not move money or advance")
	}
	if len(producer.published) != 1 || producer.published[0] != domain.RoutingKeyScheduleFailed {
		t.Fatalf("expected one failure event, got %v", producer.published)
	}
}

func TestProcessDueSchedules_FailureIsolation(t *testing.T) {
	broken := dueSchedule(1)
	healthy := dueSchedule(1)
	repo := &jobsRepoStub{
		due:     []domain.ScheduledTransaction{broken, healthy},
		execErr: map[uuid.UUID]error{broken.ID: errors.New("connection reset")},
	}
	jobs := newTestJobs(repo, &publisherStub{})

	jobs.ProcessDueSchedules()

	if len(repo.executions) != 1 || repo.executions[0].ScheduleID != healthy.ID {
		t.Fatal("expected the healthy schedule to execute despite the broken one")
	}
}

func TestProcessDueSchedules_PublishFailureDoesNotFailItem(t *testing.T) {
	schedule := dueSchedule(1)
	repo := &jobsRepoStub{due: []domain.ScheduledTransaction{schedule}}
	producer := &publisherStub{publishErr: errors.New("broker gone")}
	jobs := newTestJobs(repo, producer)

	jobs.ProcessDueSchedules()

	if len(repo.executions) != 1 {
		t.Fatal("expected the execution to commit regardless of the publish failure")
	}
	if len(repo.failed) != 0 {
		t.Fatal("a publish failure must never fail the schedule")
	}
}

func TestNextOccurrence(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	later := now.Add(2 * time.Hour)

	schedule := domain.ScheduledTransaction{ProjectionLog: []time.Time{past, future, later}}
	next, status := nextOccurrence(schedule, now)
	if status != domain.ScheduleStatusActive {
		t.Fatalf("expected ACTIVE, got %s", status)
	}
	if next == nil || !next.Equal(future) {
		t.Fatalf("expected the earliest future entry, got %v", next)
	}

	exhausted := domain.ScheduledTransaction{ProjectionLog: []time.Time{past}}
	next, status = nextOccurrence(exhausted, now)
	if status != domain.ScheduleStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", status)
	}
	if next != nil {
		t.Fatalf("expected a nil cursor, got %v", next)
	}
}
