/**
 * @description
 * Wallet domain models. A wallet tracks a total balance plus a locked amount
 * reserved against scheduled savings; the spendable portion is always
 * total - locked. Every balance mutation leaves a WalletTransaction ledger
 * record (negative amounts are debits).
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Currency is the ISO 4217 code a balance is denominated in.
type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
	CurrencyPLN Currency = "PLN"
	CurrencyGBP Currency = "GBP"
)

// Valid reports whether c is a supported currency.
func (c Currency) Valid() bool {
	switch c {
	case CurrencyEUR, CurrencyUSD, CurrencyPLN, CurrencyGBP:
		return true
	}
	return false
}

// WalletTransactionType classifies ledger records.
type WalletTransactionType string

const (
	TxTypeWalletDeposit     WalletTransactionType = "WALLET_DEPOSIT"
	TxTypeWalletWithdrawal  WalletTransactionType = "WALLET_WITHDRAWAL"
	TxTypeGroupDeposit      WalletTransactionType = "GROUP_SAVINGS_DEPOSIT"
	TxTypeGroupWithdrawal   WalletTransactionType = "GROUP_SAVINGS_WITHDRAWAL"
	TxTypeGoalDeposit       WalletTransactionType = "INDIVIDUAL_SAVINGS_DEPOSIT"
	TxTypeGoalWithdrawal    WalletTransactionType = "INDIVIDUAL_SAVINGS_WITHDRAWAL"
)

// Wallet represents a user's wallet row.
type Wallet struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	TotalBalance int64     `json:"total_balance"` // in minor units
	LockedAmount int64     `json:"locked_amount"` // reserved against scheduled savings
	Currency     Currency  `json:"currency"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AvailableBalance is the spendable portion of the wallet.
func (w *Wallet) AvailableBalance() int64 {
	return w.TotalBalance - w.LockedAmount
}

// WalletTransaction is one ledger record on a wallet.
type WalletTransaction struct {
	ID          uuid.UUID             `json:"id"`
	WalletID    uuid.UUID             `json:"wallet_id"`
	OwnerID     uuid.UUID             `json:"owner_id"`
	Amount      int64                 `json:"amount"` // negative for debits
	Type        WalletTransactionType `json:"type"`
	Description string                `json:"description"`
	Status      string                `json:"status"` // e.g. 'COMPLETED'
	CreatedAt   time.Time             `json:"created_at"`
}

// WalletBalance is the API view of a wallet, including the derived
// available balance.
type WalletBalance struct {
	TotalBalance     int64    `json:"total_balance"`
	LockedAmount     int64    `json:"locked_amount"`
	AvailableBalance int64    `json:"available_balance"`
	Currency         Currency `json:"currency"`
}

// WalletMutationRequest is the DTO for interactive deposits and withdrawals.
type WalletMutationRequest struct {
	Amount      int64  `json:"amount"` // in minor units
	Description string `json:"description"`
}
