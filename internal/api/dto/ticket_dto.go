package dto

import (
	"encoding/json"
	"time"

	"github.com/aniketverma031/helpdesk-project/internal/domain"
)

// OptionalString distinguishes an absent JSON field from an explicit
// null, which a PATCH needs to tell "leave the assignee" apart from
// "clear the assignee".
type OptionalString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON records presence before decoding the value.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	AssignedTo  *string `json:"assigned_to"`
	Status      *string `json:"status"`
}

// PatchTicketRequest payload. updated_at carries the optimistic-lock
// token the client last observed; omitting it makes the update
// unconditional.
type PatchTicketRequest struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	AssignedTo  OptionalString `json:"assigned_to"`
	Status      *string        `json:"status"`
	UpdatedAt   *string        `json:"updated_at"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// TicketResponse is the resource shape for list and mutation responses.
type TicketResponse struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	CreatedBy   string              `json:"created_by"`
	AssignedTo  *string             `json:"assigned_to"`
	Status      domain.TicketStatus `json:"status"`
	SLADeadline time.Time           `json:"sla_deadline"`
	IsBreached  bool                `json:"is_breached"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// TicketDetailResponse adds the comment thread, oldest first.
type TicketDetailResponse struct {
	TicketResponse
	Comments []CommentResponse `json:"comments"`
}

// CommentResponse represents one thread entry.
type CommentResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		CreatedBy:   ticket.CreatedBy,
		AssignedTo:  ticket.AssignedTo,
		Status:      ticket.Status,
		SLADeadline: ticket.SLADeadline,
		IsBreached:  ticket.IsBreached,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}

// NewTicketDetailResponse maps a ticket with its comments.
func NewTicketDetailResponse(ticket *domain.Ticket, comments []domain.Comment) TicketDetailResponse {
	items := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, NewCommentResponse(&comments[i]))
	}
	return TicketDetailResponse{
		TicketResponse: NewTicketResponse(ticket),
		Comments:       items,
	}
}

// NewCommentResponse maps a domain comment.
func NewCommentResponse(comment *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID,
		TicketID:  comment.TicketID,
		AuthorID:  comment.AuthorID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}
}
