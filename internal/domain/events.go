/**
 * @description
 * Event payloads published to the `savings.events` topic exchange. Consumers
 * (notification delivery, analytics) live in other services; publishing here
 * is always best-effort and never rolls back a financial mutation.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Routing keys on the savings.events exchange.
const (
	RoutingKeyContributionRecorded = "savings.contribution.recorded"
	RoutingKeyScheduleFailed       = "savings.schedule.failed"
)

// Contribution triggers distinguish engine executions from request-path ones.
const (
	ContributionTriggerScheduled   = "scheduled"
	ContributionTriggerInteractive = "interactive"
)

// ContributionRecordedEvent is published after a contribution lands in a pool.
type ContributionRecordedEvent struct {
	ScheduleID      *uuid.UUID      `json:"schedule_id,omitempty"`
	PoolID          uuid.UUID       `json:"pool_id"`
	PoolName        string          `json:"pool_name"`
	UserID          uuid.UUID       `json:"user_id"`
	ContributorName string          `json:"contributor_name"`
	Amount          int64           `json:"amount"` // in minor units
	Currency        Currency        `json:"currency"`
	PoolBalance     int64           `json:"pool_balance"`
	DestinationType DestinationType `json:"destination_type"`
	Trigger         string          `json:"trigger"`
	RecordedAt      time.Time       `json:"recorded_at"`
}

// ScheduleFailedEvent is published when the engine marks a schedule FAILED.
type ScheduleFailedEvent struct {
	ScheduleID uuid.UUID `json:"schedule_id"`
	UserID     uuid.UUID `json:"user_id"`
	Reason     string    `json:"reason"`
	FailedAt   time.Time `json:"failed_at"`
}
