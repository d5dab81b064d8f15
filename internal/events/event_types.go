package events

import (
	"time"

	"github.com/aniketverma031/helpdesk-project/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated      EventType = "ticket_created"
	EventTicketUpdated      EventType = "ticket_updated"
	EventTicketCommentAdded EventType = "ticket_comment_added"
	EventTicketSLABreached  EventType = "ticket_sla_breached"
	EventUserRoleChanged    EventType = "user_role_changed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title       string              `json:"title"`
	Status      domain.TicketStatus `json:"status"`
	AssignedTo  *string             `json:"assigned_to,omitempty"`
	SLADeadline time.Time           `json:"sla_deadline"`
}

// TicketUpdatedPayload payload.
type TicketUpdatedPayload struct {
	Status     domain.TicketStatus `json:"status"`
	AssignedTo *string             `json:"assigned_to,omitempty"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	CommentID   string `json:"comment_id"`
	AuthorID    string `json:"author_id"`
	BodyPreview string `json:"body_preview"`
}

// TicketSLABreachedPayload payload.
type TicketSLABreachedPayload struct {
	SLADeadline time.Time `json:"sla_deadline"`
	ObservedAt  time.Time `json:"observed_at"`
}

// UserRoleChangedPayload payload.
type UserRoleChangedPayload struct {
	TargetID string      `json:"target_id"`
	OldRole  domain.Role `json:"old_role"`
	NewRole  domain.Role `json:"new_role"`
}
