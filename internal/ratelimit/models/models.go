package models

import (
	"time"

	"github.com/google/uuid"

	dErrors "cardforge/pkg/domain-errors"
)

// Action names the operation being admission-controlled. Each action has
// its own window, limit, and burst configuration.
type Action string

const (
	ActionDefault        Action = "default"
	ActionBinLookup      Action = "bin_lookup"
	ActionCardGeneration Action = "card_generation"
	ActionBulkGeneration Action = "bulk_generation"
	ActionPremium        Action = "premium"
)

func (a Action) IsValid() bool {
	switch a {
	case ActionDefault, ActionBinLookup, ActionCardGeneration, ActionBulkGeneration, ActionPremium:
		return true
	}
	return false
}

// AdmissionResult is the outcome of one CheckAndRecord call.
type AdmissionResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when denied
	// ViolationCount is the caller's violation tally after this call;
	// it scales the progressive penalty.
	ViolationCount int `json:"violation_count,omitempty"`
	// Reason describes why admission was denied (window or burst).
	Reason string `json:"reason,omitempty"`
	// Degraded reports that the shared store was unavailable and the
	// in-process fallback answered instead.
	Degraded bool `json:"degraded,omitempty"`
}

// WindowUsage is the state of one sliding window after a store operation.
type WindowUsage struct {
	Admitted   bool      // whether the marker was recorded
	Count      int       // markers in the window including this request if admitted
	BurstCount int       // markers in the burst sub-window
	ResetAt    time.Time // when the oldest marker leaves the window
}

// Violation records one rate limit violation, for audit trails.
type Violation struct {
	ID         string    `json:"id"`
	Identity   string    `json:"identity"`
	Action     Action    `json:"action"`
	Limit      int       `json:"limit"`
	Count      int       `json:"count"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewViolation creates a Violation with domain invariant validation.
func NewViolation(identity string, action Action, limit, count int) (*Violation, error) {
	if identity == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "identity cannot be empty")
	}
	if !action.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid action")
	}
	if limit <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "limit must be positive")
	}
	return &Violation{
		ID:         uuid.NewString(),
		Identity:   identity,
		Action:     action,
		Limit:      limit,
		Count:      count,
		OccurredAt: time.Now(),
	}, nil
}
