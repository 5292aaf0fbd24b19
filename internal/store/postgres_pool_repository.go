/**
 * @description
 * PostgreSQL persistence for savings pools: pool and membership lifecycle,
 * the interactive contribute/withdraw flows, and the activity feed. The
 * interactive flows lock the wallet row before the pool row, the same order
 * the execution engine uses, so the two paths serialize cleanly per wallet.
 */

package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/DanSamedov/api-smart-savings-sub000/internal/domain"
)

const poolColumns = `id, creator_id, name, target_amount, current_balance, currency, is_solo, created_at, updated_at`

func scanPool(row pgx.Row) (*domain.SavingsPool, error) {
	var p domain.SavingsPool
	err := row.Scan(&p.ID, &p.CreatorID, &p.Name, &p.TargetAmount, &p.CurrentBalance, &p.Currency, &p.Solo, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePool inserts a pool together with its creator's ADMIN membership.
func (r *PostgresRepository) CreatePool(ctx context.Context, pool *domain.SavingsPool) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO savings_pools (id, creator_id, name, target_amount, current_balance, currency, is_solo)
		VALUES ($1, $2, $3, $4, 0, $5, $6)
	`
	_, err = tx.Exec(ctx, query, pool.ID, pool.CreatorID, pool.Name, pool.TargetAmount, pool.Currency, pool.Solo)
	if err != nil {
		return err
	}

	memberQuery := `
		INSERT INTO pool_members (id, pool_id, user_id, role, contributed_amount)
		VALUES ($1, $2, $3, $4, 0)
	`
	_, err = tx.Exec(ctx, memberQuery, uuid.New(), pool.ID, pool.CreatorID, domain.PoolRoleAdmin)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// FindPoolByID retrieves one pool.
func (r *PostgresRepository) FindPoolByID(ctx context.Context, poolID uuid.UUID) (*domain.SavingsPool, error) {
	query := `SELECT ` + poolColumns + ` FROM savings_pools WHERE id = $1`
	pool, err := scanPool(r.db.QueryRow(ctx, query, poolID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPoolNotFound
		}
		return nil, err
	}
	return pool, nil
}

// FindPoolsByMember lists the shared pools the user currently belongs to.
func (r *PostgresRepository) FindPoolsByMember(ctx context.Context, userID uuid.UUID) ([]domain.SavingsPool, error) {
	query := `
		SELECT p.id, p.creator_id, p.name, p.target_amount, p.current_balance, p.currency, p.is_solo, p.created_at, p.updated_at
		FROM savings_pools p
		JOIN pool_members m ON m.pool_id = p.id
		WHERE m.user_id = $1 AND p.is_solo = FALSE
		ORDER BY p.created_at DESC
	`
	return r.queryPools(ctx, query, userID)
}

// FindGoalsByOwner lists the personal goals (solo pools) the user owns.
func (r *PostgresRepository) FindGoalsByOwner(ctx context.Context, userID uuid.UUID) ([]domain.SavingsPool, error) {
	query := `
		SELECT ` + poolColumns + `
		FROM savings_pools
		WHERE creator_id = $1 AND is_solo = TRUE
		ORDER BY created_at DESC
	`
	return r.queryPools(ctx, query, userID)
}

func (r *PostgresRepository) queryPools(ctx context.Context, query string, args ...any) ([]domain.SavingsPool, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pools []domain.SavingsPool
	for rows.Next() {
		pool, err := scanPool(rows)
		if err != nil {
			return nil, err
		}
		pools = append(pools, *pool)
	}
	return pools, rows.Err()
}

// IsPoolMember reports whether the user has a membership row in the pool.
func (r *PostgresRepository) IsPoolMember(ctx context.Context, poolID, userID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM pool_members WHERE pool_id = $1 AND user_id = $2)`
	err := r.db.QueryRow(ctx, query, poolID, userID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// ContributeToPool atomically moves money from a wallet into a pool on the
// request path: debit the wallet total, record the ledger entry, credit the
// pool, bump the member's contribution counter, and append the activity
// record. Returns the pool's new balance.
func (r *PostgresRepository) ContributeToPool(ctx context.Context, userID, poolID uuid.UUID, amount int64) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var walletID uuid.UUID
	var total, locked int64
	err = tx.QueryRow(ctx, "SELECT id, total_balance, locked_amount FROM wallets WHERE user_id = $1 FOR UPDATE", userID).
		Scan(&walletID, &total, &locked)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, ErrWalletNotFound
		}
		return 0, err
	}
	if total-locked < amount {
		return 0, ErrInsufficientFunds
	}

	var poolName string
	var solo bool
	err = tx.QueryRow(ctx, "SELECT name, is_solo FROM savings_pools WHERE id = $1 FOR UPDATE", poolID).
		Scan(&poolName, &solo)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, ErrPoolNotFound
		}
		return 0, err
	}

	ledgerType := domain.TxTypeGroupDeposit
	if solo {
		ledgerType = domain.TxTypeGoalDeposit
	}

	_, err = tx.Exec(ctx, "UPDATE wallets SET total_balance = total_balance - $1, updated_at = NOW() WHERE id = $2", amount, walletID)
	if err != nil {
		return 0, err
	}

	description := fmt.Sprintf("Contribution to pool: %s", poolName)
	err = insertWalletTransaction(ctx, tx, walletID, userID, -amount, ledgerType, description)
	if err != nil {
		return 0, err
	}

	var poolBalance int64
	err = tx.QueryRow(ctx, "UPDATE savings_pools SET current_balance = current_balance + $1, updated_at = NOW() WHERE id = $2 RETURNING current_balance", amount, poolID).
		Scan(&poolBalance)
	if err != nil {
		return 0, err
	}

	tag, err := tx.Exec(ctx, "UPDATE pool_members SET contributed_amount = contributed_amount + $1 WHERE pool_id = $2 AND user_id = $3", amount, poolID, userID)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrMembershipNotFound
	}

	err = insertPoolActivity(ctx, tx, poolID, userID, amount, ledgerType)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return poolBalance, nil
}

// WithdrawFromPool atomically moves money from a pool back to the member's
// wallet, capped at the member's cumulative contribution. Returns the pool's
// new balance.
func (r *PostgresRepository) WithdrawFromPool(ctx context.Context, userID, poolID uuid.UUID, amount int64) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var walletID uuid.UUID
	err = tx.QueryRow(ctx, "SELECT id FROM wallets WHERE user_id = $1 FOR UPDATE", userID).Scan(&walletID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, ErrWalletNotFound
		}
		return 0, err
	}

	var poolName string
	var solo bool
	err = tx.QueryRow(ctx, "SELECT name, is_solo FROM savings_pools WHERE id = $1 FOR UPDATE", poolID).
		Scan(&poolName, &solo)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, ErrPoolNotFound
		}
		return 0, err
	}

	var contributed int64
	err = tx.QueryRow(ctx, "SELECT contributed_amount FROM pool_members WHERE pool_id = $1 AND user_id = $2 FOR UPDATE", poolID, userID).
		Scan(&contributed)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, ErrMembershipNotFound
		}
		return 0, err
	}
	if contributed < amount {
		return 0, ErrWithdrawalExceedsContribution
	}

	_, err = tx.Exec(ctx, "UPDATE pool_members SET contributed_amount = contributed_amount - $1 WHERE pool_id = $2 AND user_id = $3", amount, poolID, userID)
	if err != nil {
		return 0, err
	}

	var poolBalance int64
	err = tx.QueryRow(ctx, "UPDATE savings_pools SET current_balance = current_balance - $1, updated_at = NOW() WHERE id = $2 RETURNING current_balance", amount, poolID).
		Scan(&poolBalance)
	if err != nil {
		return 0, err
	}

	_, err = tx.Exec(ctx, "UPDATE wallets SET total_balance = total_balance + $1, updated_at = NOW() WHERE id = $2", amount, walletID)
	if err != nil {
		return 0, err
	}

	ledgerType := domain.TxTypeGroupWithdrawal
	if solo {
		ledgerType = domain.TxTypeGoalWithdrawal
	}

	description := fmt.Sprintf("Withdrawal from pool: %s", poolName)
	err = insertWalletTransaction(ctx, tx, walletID, userID, amount, ledgerType, description)
	if err != nil {
		return 0, err
	}

	err = insertPoolActivity(ctx, tx, poolID, userID, amount, ledgerType)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return poolBalance, nil
}

// ListPoolActivity lists a pool's most recent activity entries.
func (r *PostgresRepository) ListPoolActivity(ctx context.Context, poolID uuid.UUID, limit int) ([]domain.PoolActivity, error) {
	query := `
		SELECT id, pool_id, user_id, amount, type, created_at
		FROM pool_activity
		WHERE pool_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, poolID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activity []domain.PoolActivity
	for rows.Next() {
		var a domain.PoolActivity
		err := rows.Scan(&a.ID, &a.PoolID, &a.UserID, &a.Amount, &a.Type, &a.CreatedAt)
		if err != nil {
			return nil, err
		}
		activity = append(activity, a)
	}
	return activity, rows.Err()
}

func insertPoolActivity(ctx context.Context, tx pgx.Tx, poolID, userID uuid.UUID, amount int64, txType domain.WalletTransactionType) error {
	query := `
		INSERT INTO pool_activity (id, pool_id, user_id, amount, type, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	_, err := tx.Exec(ctx, query, uuid.New(), poolID, userID, amount, txType)
	return err
}
