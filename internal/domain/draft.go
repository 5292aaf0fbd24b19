/**
 * @description
 * This file defines the ephemeral draft models produced between the
 * interpretation collaborator and schedule confirmation. Drafts are returned
 * to the client for review and are never persisted.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// DraftStatus indicates whether a draft is complete enough to confirm.
type DraftStatus string

const (
	DraftStatusValid                 DraftStatus = "VALID"
	DraftStatusClarificationRequired DraftStatus = "CLARIFICATION_REQUIRED"
)

// Interpretation is the untrusted payload returned by the interpretation
// collaborator. Any field may be absent or malformed; all absence and
// type-mismatch handling happens during draft validation, never here.
type Interpretation struct {
	Amount          *int64     `json:"amount,omitempty"` // in minor units
	Currency        *string    `json:"currency,omitempty"`
	Frequency       *string    `json:"frequency,omitempty"`
	DestinationType *string    `json:"destination_type,omitempty"`
	GroupID         *uuid.UUID `json:"group_id,omitempty"`
	GoalName        *string    `json:"goal_name,omitempty"`
	DayOfWeek       *string    `json:"day_of_week,omitempty"`
	StartDate       *string    `json:"start_date,omitempty"`
	EndDate         *string    `json:"end_date,omitempty"`
	Description     *string    `json:"description,omitempty"`
}

// TransactionDraft is the reviewable form of an interpreted savings intent.
type TransactionDraft struct {
	Amount           *int64          `json:"amount,omitempty"` // in minor units
	Currency         Currency        `json:"currency"`
	Frequency        Frequency       `json:"frequency"`
	DestinationType  DestinationType `json:"destination_type"`
	DestinationName  string          `json:"destination_name"`
	DayOfWeek        string          `json:"day_of_week,omitempty"` // name form, e.g. "monday"
	StartDate        *time.Time      `json:"start_date,omitempty"`
	EndDate          *time.Time      `json:"end_date,omitempty"`
	Description      string          `json:"description"`
	ValidationStatus DraftStatus     `json:"validation_status"`
	MissingFields    []string        `json:"missing_fields,omitempty"`
	Messages         []string        `json:"messages,omitempty"`
	ProjectedDates   []time.Time     `json:"projected_dates,omitempty"`
	FirstRunDate     *time.Time      `json:"first_run_date,omitempty"`
}

// InterpretRequest is the DTO for submitting a free-form savings prompt.
type InterpretRequest struct {
	Prompt string `json:"prompt"`
}
