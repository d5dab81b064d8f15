package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aniketverma031/helpdesk-project/internal/domain"
	"github.com/aniketverma031/helpdesk-project/internal/events"
	"github.com/aniketverma031/helpdesk-project/internal/repository"
	apperrors "github.com/aniketverma031/helpdesk-project/pkg/util"
)

// AgentCache is invalidated when a role change may alter the agent set.
type AgentCache interface {
	Invalidate(ctx context.Context) error
}

// RoleService is the gate in front of role reassignment. Only admins
// pass, and superuser accounts cannot be re-roled through it.
type RoleService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	agentCache AgentCache
}

// NewRoleService constructs the service.
func NewRoleService(users repository.UserRepository, dispatcher events.Dispatcher, agentCache AgentCache) *RoleService {
	return &RoleService{users: users, dispatcher: dispatcher, agentCache: agentCache}
}

// ListUsers returns every account for the admin management view,
// ordered by username.
func (s *RoleService) ListUsers(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("administrator role required")
	}
	return s.users.ListAll(ctx)
}

// AssignRole changes the target's role.
//   - Non-admin actors are rejected with Forbidden; the target is untouched.
//   - Superuser targets keep their role: a differing requested role is
//     reported as ProtectedAccount, which callers surface as a warning
//     rather than a failure.
func (s *RoleService) AssignRole(ctx context.Context, actor *domain.User, targetID string, newRole domain.Role) (*domain.User, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("administrator role required")
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": targetID})
		}
		return nil, err
	}

	if target.IsSuperuser && newRole != target.Role {
		return nil, apperrors.NewProtectedAccount(target.Username)
	}
	if newRole == target.Role {
		return target, nil
	}

	oldRole := target.Role
	if err := s.users.UpdateRole(ctx, target.ID, newRole); err != nil {
		return nil, err
	}
	target.Role = newRole

	// A user may have entered or left the agent pool.
	if s.agentCache != nil {
		_ = s.agentCache.Invalidate(ctx)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventUserRoleChanged,
			ActorID:   actor.ID,
			Timestamp: time.Now(),
			Payload: events.UserRoleChangedPayload{
				TargetID: target.ID,
				OldRole:  oldRole,
				NewRole:  newRole,
			},
		})
	}
	return target, nil
}
