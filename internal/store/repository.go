/**
 * @description
 * This file defines the `Repository` interface, the contract for all data
 * access the savings service needs. Keeping the interface separate from the
 * PostgreSQL implementation decouples business logic from the database and
 * lets tests substitute stubs.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID handling.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/DanSamedov/api-smart-savings-sub000/internal/domain"
)

// ExecuteContributionParams carries everything the engine needs to execute
// one due slot in a single database transaction: the claim guard
// (ScheduleID + ExpectedRunAt), the money movement, and the precomputed
// schedule advance.
type ExecuteContributionParams struct {
	ScheduleID    uuid.UUID
	ExpectedRunAt time.Time
	UserID        uuid.UUID
	PoolID        uuid.UUID
	Amount        int64
	NextRunAt     *time.Time
	NextStatus    domain.ScheduleStatus
}

// ExecutionResult reports the destination state after a successful execution.
type ExecutionResult struct {
	PoolName    string
	PoolBalance int64
	Solo        bool
}

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// User methods
	FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// Wallet methods
	FindWalletByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	DepositToWallet(ctx context.Context, userID uuid.UUID, amount int64, description string) (*domain.Wallet, error)
	WithdrawFromWallet(ctx context.Context, userID uuid.UUID, amount int64, description string) (*domain.Wallet, error)
	FindWalletTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]domain.WalletTransaction, error)

	// Savings pool methods
	CreatePool(ctx context.Context, pool *domain.SavingsPool) error
	FindPoolByID(ctx context.Context, poolID uuid.UUID) (*domain.SavingsPool, error)
	FindPoolsByMember(ctx context.Context, userID uuid.UUID) ([]domain.SavingsPool, error)
	FindGoalsByOwner(ctx context.Context, userID uuid.UUID) ([]domain.SavingsPool, error)
	IsPoolMember(ctx context.Context, poolID, userID uuid.UUID) (bool, error)
	ContributeToPool(ctx context.Context, userID, poolID uuid.UUID, amount int64) (int64, error)
	WithdrawFromPool(ctx context.Context, userID, poolID uuid.UUID, amount int64) (int64, error)
	ListPoolActivity(ctx context.Context, poolID uuid.UUID, limit int) ([]domain.PoolActivity, error)

	// Scheduled transaction methods
	CreateScheduledTransaction(ctx context.Context, tx *domain.ScheduledTransaction) error
	FindScheduledTransactionByID(ctx context.Context, id uuid.UUID) (*domain.ScheduledTransaction, error)
	FindScheduledTransactionsByUser(ctx context.Context, userID uuid.UUID, status *domain.ScheduleStatus) ([]domain.ScheduledTransaction, error)
	// FindDueSchedules is the execution engine's sole read path: every ACTIVE
	// schedule whose next_run_at has passed, in one snapshot query.
	FindDueSchedules(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledTransaction, error)
	// AdvanceSchedule moves the cursor forward, gated on the schedule still
	// being ACTIVE at the expected slot. Zero rows matched means another
	// actor (a concurrent tick or a cancellation) got there first.
	AdvanceSchedule(ctx context.Context, id uuid.UUID, expectedRunAt time.Time, nextRunAt *time.Time, status domain.ScheduleStatus) error
	MarkScheduleFailed(ctx context.Context, id uuid.UUID) error
	CancelSchedule(ctx context.Context, id, userID uuid.UUID) error

	// ExecuteScheduledContribution performs the engine's money movement for
	// one claimed slot atomically: re-checks the schedule under lock,
	// resolves the owning user, places the wallet hold, writes the ledger
	// row, credits the pool, bumps the contributor counter, appends the
	// activity record, and advances the schedule, all in one transaction.
	// A missing user, wallet, pool, or membership surfaces as the matching
	// sentinel so the caller can mark the schedule FAILED.
	ExecuteScheduledContribution(ctx context.Context, params ExecuteContributionParams) (*ExecutionResult, error)
}
