package entities

import (
	"time"
)

// InvestigationEventType identifies the kind of status feed event.
type InvestigationEventType string

const (
	// EventTypeStatus signals a non-terminal status transition.
	EventTypeStatus InvestigationEventType = "status"

	// EventTypeSolutionReady signals the successful terminal state and
	// carries the full solution plus any linked inventory.
	EventTypeSolutionReady InvestigationEventType = "solution_ready"

	// EventTypeErrored signals the failed terminal state.
	EventTypeErrored InvestigationEventType = "errored"
)

// InvestigationEvent is published on every status transition of an
// investigation so pollers and SSE clients observe transitions in order.
type InvestigationEvent struct {
	ID         string                 `json:"id"`
	SolutionID string                 `json:"solution_id"`
	EventType  InvestigationEventType `json:"event_type"`
	Status     SolutionStatus         `json:"status"`
	Message    string                 `json:"message,omitempty"`
	Solution   *Solution              `json:"solution,omitempty"`
	Inventory  *Inventory             `json:"inventory,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}
