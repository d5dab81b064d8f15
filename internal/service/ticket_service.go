package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aniketverma031/helpdesk-project/internal/domain"
	"github.com/aniketverma031/helpdesk-project/internal/events"
	"github.com/aniketverma031/helpdesk-project/internal/observability"
	"github.com/aniketverma031/helpdesk-project/internal/repository"
	apperrors "github.com/aniketverma031/helpdesk-project/pkg/util"
)

// conflictDetail is the exact message clients key on for 409 responses.
const conflictDetail = "Conflict: Ticket was updated by someone else."

// TicketService coordinates the ticket lifecycle: creation with SLA
// stamping, role-scoped listing, breach write-through on detail reads,
// optimistically guarded updates and the comment log.
type TicketService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	CommentRepo repository.CommentRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	AssignedTo  *string
	Status      *string
}

// TicketUpdateInput describes a partial update with its lock token.
type TicketUpdateInput struct {
	Title             *string
	Description       *string
	Status            *string
	AssignedTo        *string
	AssigneeSet       bool
	ExpectedUpdatedAt *time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		now:        now,
	}
}

// CreateTicket opens a ticket for the caller. The SLA deadline is
// stamped by the store as creation time + the fixed offset.
func (s *TicketService) CreateTicket(ctx context.Context, creator *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", map[string]any{"field": "title"})
	}
	if description == "" {
		return nil, apperrors.NewValidationError("description required", map[string]any{"field": "description"})
	}

	status := domain.TicketStatusOpen
	if input.Status != nil && *input.Status != "" {
		parsed, err := domain.ParseTicketStatus(*input.Status)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error(), map[string]any{"field": "status"})
		}
		status = parsed
	}

	if input.AssignedTo != nil {
		if err := s.checkAssignee(ctx, *input.AssignedTo); err != nil {
			return nil, err
		}
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: description,
		CreatedBy:   creator.ID,
		AssignedTo:  input.AssignedTo,
		Status:      status,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.metrics.RecordTicketOperation("create")
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  creator.ID,
		Payload: events.TicketCreatedPayload{
			Title:       ticket.Title,
			Status:      ticket.Status,
			AssignedTo:  ticket.AssignedTo,
			SLADeadline: ticket.SLADeadline,
		},
	})
	return ticket, nil
}

// ListTickets returns tickets visible to the caller, newest first.
// Agents and admins see everything; plain users only their own. A
// search term matches title, description or any comment's content.
func (s *TicketService) ListTickets(ctx context.Context, caller *domain.User, search string) ([]domain.Ticket, error) {
	filter := repository.TicketFilter{}
	switch caller.Role {
	case domain.RoleAgent, domain.RoleAdmin:
	case domain.RoleUser:
		filter.CreatedBy = &caller.ID
	default:
		return nil, apperrors.NewForbidden("unknown role")
	}
	if strings.TrimSpace(search) != "" {
		filter.SearchTerm = &search
	}
	return s.tickets.List(ctx, filter)
}

// GetTicket returns the ticket and its comment thread. Reading the
// detail path re-evaluates the SLA flag against the current clock and
// persists it when it changed (explicit write-through; list views may
// serve a stale value until someone visits the detail view).
func (s *TicketService) GetTicket(ctx context.Context, caller *domain.User, ticketID string) (*domain.Ticket, []domain.Comment, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, nil, err
	}

	if err := s.refreshBreach(ctx, caller, ticket); err != nil {
		return nil, nil, err
	}

	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, comments, nil
}

// UpdateTicket applies a field-level partial update. When the input
// carries the updated_at the client last observed, the store rejects
// the write with a conflict if the row moved on since; without it the
// update is unconditional.
func (s *TicketService) UpdateTicket(ctx context.Context, caller *domain.User, ticketID string, input TicketUpdateInput) (*domain.Ticket, error) {
	patch := repository.TicketPatch{
		AssignedTo:  input.AssignedTo,
		AssigneeSet: input.AssigneeSet,
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("title cannot be empty", map[string]any{"field": "title"})
		}
		patch.Title = &title
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return nil, apperrors.NewValidationError("description cannot be empty", map[string]any{"field": "description"})
		}
		patch.Description = &description
	}
	if input.Status != nil {
		status, err := domain.ParseTicketStatus(*input.Status)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error(), map[string]any{"field": "status"})
		}
		patch.Status = &status
	}
	if input.AssigneeSet && input.AssignedTo != nil {
		if err := s.checkAssignee(ctx, *input.AssignedTo); err != nil {
			return nil, err
		}
	}

	ticket, err := s.tickets.UpdateWithGuard(ctx, ticketID, patch, input.ExpectedUpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrVersionMismatch):
			s.metrics.RecordLockConflict()
			return nil, apperrors.NewConflict(conflictDetail, nil)
		case errors.Is(err, pgx.ErrNoRows):
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		default:
			return nil, err
		}
	}

	s.metrics.RecordTicketOperation("update")
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticket.ID,
		ActorID:  caller.ID,
		Payload: events.TicketUpdatedPayload{
			Status:     ticket.Status,
			AssignedTo: ticket.AssignedTo,
		},
	})
	return ticket, nil
}

// AddComment appends to a ticket's comment log. The parent ticket row
// is left untouched, so a comment never trips the optimistic lock.
func (s *TicketService) AddComment(ctx context.Context, author *domain.User, ticketID, content string) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("content required", map[string]any{"field": "content"})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, err
	}

	comment := &domain.Comment{
		TicketID: ticket.ID,
		AuthorID: author.ID,
		Content:  content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.metrics.RecordTicketOperation("comment")
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCommentAdded,
		TicketID: ticket.ID,
		ActorID:  author.ID,
		Payload: events.TicketCommentAddedPayload{
			CommentID:   comment.ID,
			AuthorID:    comment.AuthorID,
			BodyPreview: preview(comment.Content, 120),
		},
	})
	return comment, nil
}

// refreshBreach recomputes the cached breach flag and persists it when
// it changed. Concurrent detail reads race harmlessly here: the
// recomputation is idempotent and the write skips the lock token.
func (s *TicketService) refreshBreach(ctx context.Context, caller *domain.User, ticket *domain.Ticket) error {
	breached := domain.Breached(ticket, s.now())
	if breached == ticket.IsBreached {
		return nil
	}
	if err := s.tickets.SetBreached(ctx, ticket.ID, breached); err != nil {
		return err
	}
	ticket.IsBreached = breached
	if breached {
		s.metrics.RecordSLABreach()
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketSLABreached,
			TicketID: ticket.ID,
			ActorID:  caller.ID,
			Payload: events.TicketSLABreachedPayload{
				SLADeadline: ticket.SLADeadline,
				ObservedAt:  s.now(),
			},
		})
	}
	return nil
}

// checkAssignee rejects assignees that do not exist or are not agents.
func (s *TicketService) checkAssignee(ctx context.Context, assigneeID string) error {
	assignee, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("unknown assignee", map[string]any{"field": "assigned_to"})
		}
		return err
	}
	if assignee.Role != domain.RoleAgent {
		return apperrors.NewValidationError("assignee must be an agent", map[string]any{"field": "assigned_to"})
	}
	return nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func preview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
