/**
 * @description
 * This file defines the core domain models for recurring savings schedules.
 * A ScheduledTransaction is the persisted outcome of a confirmed savings
 * intent: it carries the full precomputed projection of execution dates and
 * the cursor (`next_run_at`) the execution engine advances on every tick.
 *
 * @notes
 * - Amounts are stored as `int64` in the smallest currency unit, which
 *   avoids floating-point inaccuracies with financial data.
 * - The projection log is computed exactly once at confirmation and is
 *   immutable afterwards; execution never re-derives the calendar.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Frequency defines how often a scheduled transaction recurs.
type Frequency string

const (
	FrequencyOnce    Frequency = "ONCE"
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
)

// Valid reports whether f is one of the supported frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyOnce, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// ScheduleStatus defines the lifecycle state of a scheduled transaction.
// Transitions only move forward: PENDING -> ACTIVE -> COMPLETED, or
// ACTIVE -> FAILED. FAILED and COMPLETED are terminal.
type ScheduleStatus string

const (
	ScheduleStatusPending   ScheduleStatus = "PENDING"
	ScheduleStatusActive    ScheduleStatus = "ACTIVE"
	ScheduleStatusCompleted ScheduleStatus = "COMPLETED"
	ScheduleStatusFailed    ScheduleStatus = "FAILED"
)

// Valid reports whether s is a known lifecycle state.
func (s ScheduleStatus) Valid() bool {
	switch s {
	case ScheduleStatusPending, ScheduleStatusActive, ScheduleStatusCompleted, ScheduleStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are possible from s.
func (s ScheduleStatus) Terminal() bool {
	return s == ScheduleStatusCompleted || s == ScheduleStatusFailed
}

// DestinationType identifies where a scheduled contribution flows: a shared
// group pool or a personal goal (a solo pool).
type DestinationType string

const (
	DestinationGroup DestinationType = "GROUP"
	DestinationGoal  DestinationType = "GOAL"
)

// ScheduledTransaction maps to the `scheduled_transactions` table.
type ScheduledTransaction struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	Amount          int64           `json:"amount"` // in minor units, always > 0
	Currency        Currency        `json:"currency"`
	Frequency       Frequency       `json:"frequency"`
	DayOfWeek       *int            `json:"day_of_week,omitempty"` // 0=Monday .. 6=Sunday
	StartDate       time.Time       `json:"start_date"`
	EndDate         *time.Time      `json:"end_date,omitempty"`
	DestinationType DestinationType `json:"destination_type"`
	GroupID         *uuid.UUID      `json:"group_id,omitempty"`
	GoalID          *uuid.UUID      `json:"goal_id,omitempty"`
	Description     string          `json:"description"`
	CronDescriptor  string          `json:"cron_descriptor"` // observability only
	Status          ScheduleStatus  `json:"status"`
	NextRunAt       *time.Time      `json:"next_run_at,omitempty"`
	ProjectionLog   []time.Time     `json:"projection_log"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// DestinationID returns the resolved destination pool id for the schedule.
// Exactly one of GroupID/GoalID is set once a schedule is confirmed.
func (t *ScheduledTransaction) DestinationID() *uuid.UUID {
	if t.DestinationType == DestinationGroup {
		return t.GroupID
	}
	return t.GoalID
}

// ConfirmScheduleRequest is the DTO for confirming a reviewed draft into a
// persisted schedule. Dates arrive as strings ("2006-01-02" or RFC 3339) and
// are parsed and validated by the service layer.
type ConfirmScheduleRequest struct {
	Amount          int64   `json:"amount"` // in minor units
	Currency        string  `json:"currency"`
	Frequency       string  `json:"frequency"`
	DestinationType string  `json:"destination_type"`
	DestinationName string  `json:"destination_name"`
	DayOfWeek       *string `json:"day_of_week,omitempty"`
	StartDate       string  `json:"start_date"`
	EndDate         *string `json:"end_date,omitempty"`
	Description     string  `json:"description"`
}
