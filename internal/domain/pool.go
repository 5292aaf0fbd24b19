/**
 * @description
 * Savings pool domain models. A pool is the destination a contribution flows
 * into: shared pools back GROUP schedules, solo pools are personal goals and
 * back GOAL schedules. Membership rows track each contributor's cumulative
 * amount, and the activity feed records every credit and withdrawal.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// PoolRole defines a member's role within a pool.
type PoolRole string

const (
	PoolRoleAdmin  PoolRole = "ADMIN"
	PoolRoleMember PoolRole = "MEMBER"
)

// SavingsPool maps to the `savings_pools` table.
type SavingsPool struct {
	ID             uuid.UUID `json:"id"`
	CreatorID      uuid.UUID `json:"creator_id"`
	Name           string    `json:"name"`
	TargetAmount   int64     `json:"target_amount"`   // in minor units
	CurrentBalance int64     `json:"current_balance"` // in minor units
	Currency       Currency  `json:"currency"`
	Solo           bool      `json:"solo"` // true = personal goal
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DestinationType reports how the pool is addressed by schedules.
func (p *SavingsPool) DestinationType() DestinationType {
	if p.Solo {
		return DestinationGoal
	}
	return DestinationGroup
}

// PoolMember tracks one user's participation in a pool.
type PoolMember struct {
	ID                uuid.UUID `json:"id"`
	PoolID            uuid.UUID `json:"pool_id"`
	UserID            uuid.UUID `json:"user_id"`
	Role              PoolRole  `json:"role"`
	ContributedAmount int64     `json:"contributed_amount"`
	JoinedAt          time.Time `json:"joined_at"`
}

// PoolActivity is one entry of a pool's visible activity feed.
type PoolActivity struct {
	ID        uuid.UUID             `json:"id"`
	PoolID    uuid.UUID             `json:"pool_id"`
	UserID    uuid.UUID             `json:"user_id"`
	Amount    int64                 `json:"amount"`
	Type      WalletTransactionType `json:"type"`
	CreatedAt time.Time             `json:"created_at"`
}

// CreatePoolRequest is the DTO for creating a pool or a personal goal.
type CreatePoolRequest struct {
	Name         string `json:"name"`
	TargetAmount int64  `json:"target_amount"` // in minor units
	Currency     string `json:"currency"`
	Solo         bool   `json:"solo"`
}

// PoolMutationRequest is the DTO for interactive contribute/withdraw calls.
type PoolMutationRequest struct {
	Amount int64 `json:"amount"` // in minor units
}
