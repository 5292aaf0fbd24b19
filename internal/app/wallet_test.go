package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/DanSamedov/api-smart-savings-sub000/internal/domain"
	"github.com/DanSamedov/api-smart-savings-sub000/internal/store"
)

type walletRepoStub struct {
	store.Repository

	wallet      *domain.Wallet
	withdrawErr error

	depositCalled  bool
	withdrawCalled bool
}

func (s *walletRepoStub) FindWalletByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	if s.wallet == nil {
		return nil, store.ErrWalletNotFound
	}
	return s.wallet, nil
}

func (s *walletRepoStub) DepositToWallet(ctx context.Context, userID uuid.UUID, amount int64, description string) (*domain.Wallet, error) {
	s.depositCalled = true
	s.wallet.TotalBalance += amount
	return s.wallet, nil
}

func (s *walletRepoStub) WithdrawFromWallet(ctx context.Context, userID uuid.UUID, amount int64, description string) (*domain.Wallet, error) {
	if s.withdrawErr != nil {
		return nil, s.withdrawErr
	}
	s.withdrawCalled = true
	s.wallet.TotalBalance -= amount
	return s.wallet, nil
}

func TestGetWallet_DerivesAvailableBalance(t *testing.T) {
	repo := &walletRepoStub{wallet: &domain.Wallet{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		TotalBalance: 10000,
		LockedAmount: 3000,
		Currency:     domain.CurrencyEUR,
	}}
	service := newTestService(repo, nil)

	balance, err := service.GetWallet(context.Background(), repo.wallet.UserID)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if balance.AvailableBalance != 7000 {
		t.Fatalf("expected available 7000, got %d", balance.AvailableBalance)
	}
}

func TestDeposit_RejectsNonPositiveAmount(t *testing.T) {
	repo := &walletRepoStub{wallet: &domain.Wallet{}}
	service := newTestService(repo, nil)

	_, err := service.Deposit(context.Background(), uuid.New(), domain.WalletMutationRequest{Amount: 0})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if repo.depositCalled {
		t.Fatal("did not expect a deposit write")
	}
}

func TestWithdraw_InsufficientFundsSurfaces(t *testing.T) {
	repo := &walletRepoStub{
		wallet:      &domain.Wallet{TotalBalance: 4000, LockedAmount: 0},
		withdrawErr: store.ErrInsufficientFunds,
	}
	service := newTestService(repo, nil)

	_, err := service.Withdraw(context.Background(), uuid.New(), domain.WalletMutationRequest{Amount: 5000})
	if !errors.Is(err, store.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestNormalizeLimit(t *testing.T) {
	tests := []struct {
		input int
		want  int
	}{
		{0, defaultTransactionLimit},
		{-3, defaultTransactionLimit},
		{10, 10},
		{500, maxTransactionLimit},
	}

	for _, tc := range tests {
		if got := normalizeLimit(tc.input); got != tc.want {
			t.Fatalf("normalizeLimit(%d): expected %d, got %d", tc.input, tc.want, got)
		}
	}
}
