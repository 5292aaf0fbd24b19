/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface for users, wallets, and scheduled transactions, including the
 * execution engine's single-transaction contribution path.
 *
 * @dependencies
 * - context, time, errors: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DanSamedov/api-smart-savings-sub000/internal/domain"
)

var (
	ErrUserNotFound                  = errors.New("user not found")
	ErrWalletNotFound                = errors.New("wallet not found")
	ErrPoolNotFound                  = errors.New("pool not found")
	ErrGoalNotFound                  = errors.New("goal not found")
	ErrScheduleNotFound              = errors.New("scheduled transaction not found")
	ErrMembershipNotFound            = errors.New("pool membership not found")
	ErrInsufficientFunds             = errors.New("insufficient funds")
	ErrWithdrawalExceedsContribution = errors.New("withdrawal exceeds contributed amount")
	ErrScheduleClaimConflict         = errors.New("schedule claim conflict")
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindUserByID retrieves a user from the database by their ID.
func (r *PostgresRepository) FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var user domain.User
	query := `SELECT id, email, first_name, last_name, created_at FROM users WHERE id = $1`
	err := r.db.QueryRow(ctx, query, userID).Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

const walletColumns = `id, user_id, total_balance, locked_amount, currency, created_at, updated_at`

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var w domain.Wallet
	err := row.Scan(&w.ID, &w.UserID, &w.TotalBalance, &w.LockedAmount, &w.Currency, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// FindWalletByUserID retrieves a user's wallet.
func (r *PostgresRepository) FindWalletByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1`
	wallet, err := scanWallet(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return wallet, nil
}

// DepositToWallet atomically credits a wallet and records the ledger entry.
func (r *PostgresRepository) DepositToWallet(ctx context.Context, userID uuid.UUID, amount int64, description string) (*domain.Wallet, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var walletID uuid.UUID
	// Use FOR UPDATE to lock the row, preventing race conditions.
	err = tx.QueryRow(ctx, "SELECT id FROM wallets WHERE user_id = $1 FOR UPDATE", userID).Scan(&walletID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}

	query := `
		UPDATE wallets SET total_balance = total_balance + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + walletColumns
	wallet, err := scanWallet(tx.QueryRow(ctx, query, amount, walletID))
	if err != nil {
		return nil, err
	}

	err = insertWalletTransaction(ctx, tx, walletID, userID, amount, domain.TxTypeWalletDeposit, description)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return wallet, nil
}

// WithdrawFromWallet atomically debits a wallet after checking the available
// (total minus locked) balance under a row lock.
func (r *PostgresRepository) WithdrawFromWallet(ctx context.Context, userID uuid.UUID, amount int64, description string) (*domain.Wallet, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var walletID uuid.UUID
	var total, locked int64
	err = tx.QueryRow(ctx, "SELECT id, total_balance, locked_amount FROM wallets WHERE user_id = $1 FOR UPDATE", userID).
		Scan(&walletID, &total, &locked)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}

	if total-locked < amount {
		return nil, ErrInsufficientFunds
	}

	query := `
		UPDATE wallets SET total_balance = total_balance - $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + walletColumns
	wallet, err := scanWallet(tx.QueryRow(ctx, query, amount, walletID))
	if err != nil {
		return nil, err
	}

	err = insertWalletTransaction(ctx, tx, walletID, userID, -amount, domain.TxTypeWalletWithdrawal, description)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return wallet, nil
}

// FindWalletTransactions lists a user's most recent ledger entries.
func (r *PostgresRepository) FindWalletTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]domain.WalletTransaction, error) {
	query := `
		SELECT id, wallet_id, owner_id, amount, type, description, status, created_at
		FROM wallet_transactions
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.WalletTransaction
	for rows.Next() {
		var t domain.WalletTransaction
		err := rows.Scan(&t.ID, &t.WalletID, &t.OwnerID, &t.Amount, &t.Type, &t.Description, &t.Status, &t.CreatedAt)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func insertWalletTransaction(ctx context.Context, tx pgx.Tx, walletID, ownerID uuid.UUID, amount int64, txType domain.WalletTransactionType, description string) error {
	query := `
		INSERT INTO wallet_transactions (id, wallet_id, owner_id, amount, type, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'COMPLETED', NOW())
	`
	_, err := tx.Exec(ctx, query, uuid.New(), walletID, ownerID, amount, txType, description)
	return err
}

const scheduleColumns = `id, user_id, amount, currency, frequency, day_of_week, start_date, end_date,
	destination_type, group_id, goal_id, description, cron_descriptor, status, next_run_at,
	projection_log, created_at, updated_at`

func scanScheduledTransaction(row pgx.Row) (*domain.ScheduledTransaction, error) {
	var t domain.ScheduledTransaction
	var projectionRaw []byte
	err := row.Scan(
		&t.ID, &t.UserID, &t.Amount, &t.Currency, &t.Frequency, &t.DayOfWeek, &t.StartDate, &t.EndDate,
		&t.DestinationType, &t.GroupID, &t.GoalID, &t.Description, &t.CronDescriptor, &t.Status, &t.NextRunAt,
		&projectionRaw, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(projectionRaw) > 0 {
		if err := json.Unmarshal(projectionRaw, &t.ProjectionLog); err != nil {
			return nil, fmt.Errorf("decode projection log: %w", err)
		}
	}
	return &t, nil
}

// CreateScheduledTransaction inserts a confirmed schedule with its full
// projection log.
func (r *PostgresRepository) CreateScheduledTransaction(ctx context.Context, t *domain.ScheduledTransaction) error {
	projectionJSON, err := json.Marshal(t.ProjectionLog)
	if err != nil {
		return fmt.Errorf("encode projection log: %w", err)
	}

	query := `
		INSERT INTO scheduled_transactions (
			id,
			user_id,
			amount,
			currency,
			frequency,
			day_of_week,
			start_date,
			end_date,
			destination_type,
			group_id,
			goal_id,
			description,
			cron_descriptor,
			status,
			next_run_at,
			projection_log
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = r.db.Exec(ctx, query,
		t.ID, t.UserID, t.Amount, t.Currency, t.Frequency, t.DayOfWeek, t.StartDate, t.EndDate,
		t.DestinationType, t.GroupID, t.GoalID, t.Description, t.CronDescriptor, t.Status, t.NextRunAt,
		string(projectionJSON),
	)
	return err
}

// FindScheduledTransactionByID retrieves one schedule.
func (r *PostgresRepository) FindScheduledTransactionByID(ctx context.Context, id uuid.UUID) (*domain.ScheduledTransaction, error) {
	query := `SELECT ` + scheduleColumns + ` FROM scheduled_transactions WHERE id = $1`
	schedule, err := scanScheduledTransaction(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	return schedule, nil
}

// FindScheduledTransactionsByUser lists a user's schedules, optionally
// filtered by status, newest first.
func (r *PostgresRepository) FindScheduledTransactionsByUser(ctx context.Context, userID uuid.UUID, status *domain.ScheduleStatus) ([]domain.ScheduledTransaction, error) {
	query := `SELECT ` + scheduleColumns + ` FROM scheduled_transactions WHERE user_id = $1`
	args := []any{userID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []domain.ScheduledTransaction
	for rows.Next() {
		schedule, err := scanScheduledTransaction(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *schedule)
	}
	return schedules, rows.Err()
}

// FindDueSchedules returns every ACTIVE schedule whose next run time has
// passed, oldest first.
func (r *PostgresRepository) FindDueSchedules(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledTransaction, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM scheduled_transactions
		WHERE status = 'ACTIVE' AND next_run_at IS NOT NULL AND next_run_at <= $1
		ORDER BY next_run_at ASC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []domain.ScheduledTransaction
	for rows.Next() {
		schedule, err := scanScheduledTransaction(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *schedule)
	}
	return schedules, rows.Err()
}

// AdvanceSchedule moves the schedule cursor, gated on the row still being
// ACTIVE at the expected slot so concurrent ticks cannot double-advance.
func (r *PostgresRepository) AdvanceSchedule(ctx context.Context, id uuid.UUID, expectedRunAt time.Time, nextRunAt *time.Time, status domain.ScheduleStatus) error {
	query := `
		UPDATE scheduled_transactions
		SET next_run_at = $3, status = $4, updated_at = NOW()
		WHERE id = $1 AND status = 'ACTIVE' AND next_run_at = $2
	`
	tag, err := r.db.Exec(ctx, query, id, expectedRunAt, nextRunAt, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrScheduleClaimConflict
	}
	return nil
}

// MarkScheduleFailed transitions an ACTIVE schedule to the terminal FAILED
// state and clears its cursor.
func (r *PostgresRepository) MarkScheduleFailed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE scheduled_transactions
		SET status = 'FAILED', next_run_at = NULL, updated_at = NOW()
		WHERE id = $1 AND status = 'ACTIVE'
	`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrScheduleClaimConflict
	}
	return nil
}

// CancelSchedule forces a non-terminal schedule to COMPLETED with a cleared
// cursor. Rows are never deleted.
func (r *PostgresRepository) CancelSchedule(ctx context.Context, id, userID uuid.UUID) error {
	query := `
		UPDATE scheduled_transactions
		SET status = 'COMPLETED', next_run_at = NULL, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND status IN ('PENDING', 'ACTIVE')
	`
	tag, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrScheduleClaimConflict
	}
	return nil
}

// ExecuteScheduledContribution runs the engine's money movement for one due
// slot in a single transaction. The schedule row is re-checked under lock so
// a cancellation or a concurrent tick aborts the whole unit, and the wallet
// check-then-hold shares the row-lock discipline of the interactive paths.
func (r *PostgresRepository) ExecuteScheduledContribution(ctx context.Context, params ExecuteContributionParams) (*ExecutionResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var status domain.ScheduleStatus
	var nextRunAt *time.Time
	err = tx.QueryRow(ctx, "SELECT status, next_run_at FROM scheduled_transactions WHERE id = $1 FOR UPDATE", params.ScheduleID).
		Scan(&status, &nextRunAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	if status != domain.ScheduleStatusActive || nextRunAt == nil || !nextRunAt.Equal(params.ExpectedRunAt) {
		return nil, ErrScheduleClaimConflict
	}

	var userExists bool
	err = tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)", params.UserID).Scan(&userExists)
	if err != nil {
		return nil, err
	}
	if !userExists {
		return nil, ErrUserNotFound
	}

	var walletID uuid.UUID
	var total, locked int64
	err = tx.QueryRow(ctx, "SELECT id, total_balance, locked_amount FROM wallets WHERE user_id = $1 FOR UPDATE", params.UserID).
		Scan(&walletID, &total, &locked)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	if total-locked < params.Amount {
		return nil, ErrInsufficientFunds
	}

	var poolName string
	var solo bool
	err = tx.QueryRow(ctx, "SELECT name, is_solo FROM savings_pools WHERE id = $1 FOR UPDATE", params.PoolID).
		Scan(&poolName, &solo)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPoolNotFound
		}
		return nil, err
	}

	ledgerType := domain.TxTypeGroupDeposit
	if solo {
		ledgerType = domain.TxTypeGoalDeposit
	}

	_, err = tx.Exec(ctx, "UPDATE wallets SET locked_amount = locked_amount + $1, updated_at = NOW() WHERE id = $2", params.Amount, walletID)
	if err != nil {
		return nil, err
	}

	description := fmt.Sprintf("Scheduled contribution: %s", poolName)
	err = insertWalletTransaction(ctx, tx, walletID, params.UserID, -params.Amount, ledgerType, description)
	if err != nil {
		return nil, err
	}

	var poolBalance int64
	err = tx.QueryRow(ctx, "UPDATE savings_pools SET current_balance = current_balance + $1, updated_at = NOW() WHERE id = $2 RETURNING current_balance", params.Amount, params.PoolID).
		Scan(&poolBalance)
	if err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, "UPDATE pool_members SET contributed_amount = contributed_amount + $1 WHERE pool_id = $2 AND user_id = $3", params.Amount, params.PoolID, params.UserID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrMembershipNotFound
	}

	err = insertPoolActivity(ctx, tx, params.PoolID, params.UserID, params.Amount, ledgerType)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, "UPDATE scheduled_transactions SET next_run_at = $2, status = $3, updated_at = NOW() WHERE id = $1",
		params.ScheduleID, params.NextRunAt, params.NextStatus)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &ExecutionResult{PoolName: poolName, PoolBalance: poolBalance, Solo: solo}, nil
}
