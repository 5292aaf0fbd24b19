/**
 * @description
 * Wallet operations: balance reads with a Redis cache in front, interactive
 * deposits and withdrawals, and the ledger listing. Every mutation
 * invalidates the caller's cached wallet views.
 */

package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/DanSamedov/api-smart-savings-sub000/internal/domain"
)

const (
	defaultTransactionLimit = 20
	maxTransactionLimit     = 100
)

// GetWallet returns the caller's wallet balance view, served from cache when
// a fresh copy exists.
func (s *Service) GetWallet(ctx context.Context, userID uuid.UUID) (*domain.WalletBalance, error) {
	if cached, ok := s.cache.GetBalance(ctx, userID); ok {
		return cached, nil
	}

	wallet, err := s.repo.FindWalletByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	balance := walletBalanceView(wallet)
	s.cache.SetBalance(ctx, userID, balance)
	return balance, nil
}

// Deposit credits the caller's wallet total.
func (s *Service) Deposit(ctx context.Context, userID uuid.UUID, req domain.WalletMutationRequest) (*domain.WalletBalance, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = "Wallet deposit"
	}

	wallet, err := s.repo.DepositToWallet(ctx, userID, req.Amount, description)
	if err != nil {
		return nil, fmt.Errorf("failed to deposit: %w", err)
	}

	s.cache.Invalidate(ctx, userID)
	s.logger.Info("wallet deposit", "user_id", userID, "amount", req.Amount)
	return walletBalanceView(wallet), nil
}

// Withdraw debits the caller's wallet total, bounded by the available
// balance so held funds stay reserved.
func (s *Service) Withdraw(ctx context.Context, userID uuid.UUID, req domain.WalletMutationRequest) (*domain.WalletBalance, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = "Wallet withdrawal"
	}

	wallet, err := s.repo.WithdrawFromWallet(ctx, userID, req.Amount, description)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, userID)
	s.logger.Info("wallet withdrawal", "user_id", userID, "amount", req.Amount)
	return walletBalanceView(wallet), nil
}

// ListWalletTransactions returns the caller's most recent ledger records.
func (s *Service) ListWalletTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]domain.WalletTransaction, error) {
	limit = normalizeLimit(limit)

	if cached, ok := s.cache.GetTransactions(ctx, userID, limit); ok {
		return cached, nil
	}

	transactions, err := s.repo.FindWalletTransactions(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	s.cache.SetTransactions(ctx, userID, limit, transactions)
	return transactions, nil
}

func walletBalanceView(wallet *domain.Wallet) *domain.WalletBalance {
	return &domain.WalletBalance{
		TotalBalance:     wallet.TotalBalance,
		LockedAmount:     wallet.LockedAmount,
		AvailableBalance: wallet.AvailableBalance(),
		Currency:         wallet.Currency,
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultTransactionLimit
	}
	if limit > maxTransactionLimit {
		return maxTransactionLimit
	}
	return limit
}
