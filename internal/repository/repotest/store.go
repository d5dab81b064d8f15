// Package repotest provides an in-memory implementation of the
// repository interfaces for tests. It mirrors the SQL semantics the
// Postgres repositories rely on: microsecond lock-token comparison,
// case-insensitive search across the comment join, and strictly
// increasing updated_at stamps.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aniketverma031/helpdesk-project/internal/domain"
	"github.com/aniketverma031/helpdesk-project/internal/repository"
)

// Store implements repository.UserRepository, repository.TicketRepository
// and repository.CommentRepository over in-memory maps.
type Store struct {
	mu       sync.Mutex
	clock    func() time.Time
	users    map[string]domain.User
	tickets  map[string]domain.Ticket
	comments []domain.Comment
}

// NewStore builds an empty store using the given clock (nil means time.Now).
func NewStore(clock func() time.Time) *Store {
	if clock == nil {
		clock = time.Now
	}
	return &Store{
		clock:   clock,
		users:   make(map[string]domain.User),
		tickets: make(map[string]domain.Ticket),
	}
}

// SetClock swaps the clock mid-test.
func (s *Store) SetClock(clock func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clock
}

// AddUser inserts an account directly, assigning an id when missing.
func (s *Store) AddUser(user domain.User) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.clock()
		user.UpdatedAt = user.CreatedAt
	}
	s.users[user.ID] = user
	return user
}

// TicketByID returns a stored ticket for assertions.
func (s *Store) TicketByID(id string) (domain.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[id]
	return ticket, ok
}

// UserByID returns a stored account for assertions.
func (s *Store) UserByID(id string) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	return user, ok
}

// --- repository.UserRepository ---

func (s *Store) Create(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = uuid.NewString()
	user.CreatedAt = s.clock()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = *user
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (s *Store) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *Store) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.Role = role
	user.UpdatedAt = s.clock()
	s.users[id] = user
	return nil
}

func (s *Store) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.User
	for _, user := range s.users {
		if user.Role == role {
			result = append(result, user)
		}
	}
	sortUsers(result)
	return result, nil
}

func (s *Store) ListAll(ctx context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]domain.User, 0, len(s.users))
	for _, user := range s.users {
		result = append(result, user)
	}
	sortUsers(result)
	return result, nil
}

// --- repository.TicketRepository ---

// TicketStore returns the ticket-repository view of the store.
func (s *Store) TicketStore() repository.TicketRepository { return (*ticketView)(s) }

// CommentStore returns the comment-repository view of the store.
func (s *Store) CommentStore() repository.CommentRepository { return (*commentView)(s) }

type ticketView Store

func (v *ticketView) Create(ctx context.Context, ticket *domain.Ticket) error {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = s.clock()
	ticket.UpdatedAt = ticket.CreatedAt
	ticket.SLADeadline = domain.SLADeadlineFor(ticket.CreatedAt)
	ticket.IsBreached = false
	s.tickets[ticket.ID] = *ticket
	return nil
}

func (v *ticketView) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (v *ticketView) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range s.tickets {
		if filter.CreatedBy != nil && ticket.CreatedBy != *filter.CreatedBy {
			continue
		}
		if filter.SearchTerm != nil && !s.matchesSearch(ticket, *filter.SearchTerm) {
			continue
		}
		result = append(result, ticket)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (v *ticketView) UpdateWithGuard(ctx context.Context, id string, patch repository.TicketPatch, expectedUpdatedAt *time.Time) (*domain.Ticket, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if expectedUpdatedAt != nil &&
		!expectedUpdatedAt.Truncate(time.Microsecond).Equal(ticket.UpdatedAt.Truncate(time.Microsecond)) {
		return nil, repository.ErrVersionMismatch
	}
	if patch.Title != nil {
		ticket.Title = *patch.Title
	}
	if patch.Description != nil {
		ticket.Description = *patch.Description
	}
	if patch.Status != nil {
		ticket.Status = *patch.Status
	}
	if patch.AssigneeSet {
		ticket.AssignedTo = patch.AssignedTo
	}
	stamp := s.clock()
	if !stamp.After(ticket.UpdatedAt) {
		stamp = ticket.UpdatedAt.Add(time.Microsecond)
	}
	ticket.UpdatedAt = stamp
	s.tickets[id] = ticket
	return &ticket, nil
}

func (v *ticketView) SetBreached(ctx context.Context, id string, breached bool) error {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.IsBreached = breached
	s.tickets[id] = ticket
	return nil
}

// --- repository.CommentRepository ---

type commentView Store

func (v *commentView) Create(ctx context.Context, comment *domain.Comment) error {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	comment.ID = uuid.NewString()
	comment.CreatedAt = s.clock()
	s.comments = append(s.comments, *comment)
	return nil
}

func (v *commentView) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Comment
	for _, comment := range s.comments {
		if comment.TicketID == ticketID {
			result = append(result, comment)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Store) matchesSearch(ticket domain.Ticket, term string) bool {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(ticket.Title), needle) ||
		strings.Contains(strings.ToLower(ticket.Description), needle) {
		return true
	}
	for _, comment := range s.comments {
		if comment.TicketID == ticket.ID && strings.Contains(strings.ToLower(comment.Content), needle) {
			return true
		}
	}
	return false
}

func sortUsers(users []domain.User) {
	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})
}
