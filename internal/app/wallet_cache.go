/**
 * @description
 * Redis-backed cache for wallet views. Reads are best-effort: any cache
 * failure falls through to the database, and mutations drop every cached
 * view for the user. A nil client disables the cache entirely.
 */

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/DanSamedov/api-smart-savings-sub000/internal/domain"
)

// WalletCache caches wallet balance and ledger views per user.
type WalletCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewWalletCache creates a wallet cache with the given TTL.
func NewWalletCache(client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *WalletCache {
	return &WalletCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *WalletCache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

func balanceKey(userID uuid.UUID) string {
	return fmt.Sprintf("wallet:balance:%s", userID)
}

func transactionsKey(userID uuid.UUID, limit int) string {
	return fmt.Sprintf("wallet:transactions:%s:%d", userID, limit)
}

// GetBalance returns the cached balance view, if present.
func (c *WalletCache) GetBalance(ctx context.Context, userID uuid.UUID) (*domain.WalletBalance, bool) {
	if !c.enabled() {
		return nil, false
	}

	raw, err := c.client.Get(ctx, balanceKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("wallet cache read failed", "user_id", userID, "error", err)
		}
		return nil, false
	}

	var balance domain.WalletBalance
	if err := json.Unmarshal(raw, &balance); err != nil {
		c.logger.Warn("wallet cache entry malformed", "user_id", userID, "error", err)
		return nil, false
	}
	return &balance, true
}

// SetBalance stores the balance view for the cache TTL.
func (c *WalletCache) SetBalance(ctx context.Context, userID uuid.UUID, balance *domain.WalletBalance) {
	if !c.enabled() || balance == nil {
		return
	}

	raw, err := json.Marshal(balance)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, balanceKey(userID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("wallet cache write failed", "user_id", userID, "error", err)
	}
}

// GetTransactions returns the cached ledger page for the given limit, if
// present.
func (c *WalletCache) GetTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]domain.WalletTransaction, bool) {
	if !c.enabled() {
		return nil, false
	}

	raw, err := c.client.Get(ctx, transactionsKey(userID, limit)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("wallet cache read failed", "user_id", userID, "error", err)
		}
		return nil, false
	}

	var transactions []domain.WalletTransaction
	if err := json.Unmarshal(raw, &transactions); err != nil {
		c.logger.Warn("wallet cache entry malformed", "user_id", userID, "error", err)
		return nil, false
	}
	return transactions, true
}

// SetTransactions stores a ledger page for the cache TTL.
func (c *WalletCache) SetTransactions(ctx context.Context, userID uuid.UUID, limit int, transactions []domain.WalletTransaction) {
	if !c.enabled() {
		return
	}

	raw, err := json.Marshal(transactions)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, transactionsKey(userID, limit), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("wallet cache write failed", "user_id", userID, "error", err)
	}
}

// Invalidate drops every cached view for the user.
func (c *WalletCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if !c.enabled() {
		return
	}

	keys := []string{balanceKey(userID)}
	pattern := fmt.Sprintf("wallet:transactions:%s:*", userID)
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("wallet cache scan failed", "user_id", userID, "error", err)
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("wallet cache invalidation failed", "user_id", userID, "error", err)
	}
}
