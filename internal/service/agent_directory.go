package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aniketverma031/helpdesk-project/internal/domain"
	"github.com/aniketverma031/helpdesk-project/internal/repository"
)

const agentCacheKey = "helpdesk:agents"

// AgentDirectory serves the assignable-agent picker. Reads go through a
// short-lived Redis cache in front of the user repository; role changes
// invalidate it. The cache is best effort: any Redis failure falls back
// to the database.
type AgentDirectory struct {
	users  repository.UserRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewAgentDirectory constructs the directory.
func NewAgentDirectory(users repository.UserRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *AgentDirectory {
	return &AgentDirectory{users: users, client: client, ttl: ttl, logger: logger}
}

// Choices returns the current assignable agents as picker entries
// ordered by username.
func (d *AgentDirectory) Choices(ctx context.Context) ([]domain.AssigneeChoice, error) {
	if cached, ok := d.fromCache(ctx); ok {
		return cached, nil
	}

	agents, err := d.users.ListByRole(ctx, domain.RoleAgent)
	if err != nil {
		return nil, err
	}
	choices := domain.AssigneeChoices(agents)
	d.store(ctx, choices)
	return choices, nil
}

// Invalidate drops the cached agent set.
func (d *AgentDirectory) Invalidate(ctx context.Context) error {
	if d.client == nil {
		return nil
	}
	return d.client.Del(ctx, agentCacheKey).Err()
}

func (d *AgentDirectory) fromCache(ctx context.Context) ([]domain.AssigneeChoice, bool) {
	if d.client == nil {
		return nil, false
	}
	raw, err := d.client.Get(ctx, agentCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			d.logger.Debug("agent cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var choices []domain.AssigneeChoice
	if err := json.Unmarshal(raw, &choices); err != nil {
		d.logger.Debug("agent cache decode failed", zap.Error(err))
		return nil, false
	}
	return choices, true
}

func (d *AgentDirectory) store(ctx context.Context, choices []domain.AssigneeChoice) {
	if d.client == nil {
		return
	}
	raw, err := json.Marshal(choices)
	if err != nil {
		return
	}
	if err := d.client.Set(ctx, agentCacheKey, raw, d.ttl).Err(); err != nil {
		d.logger.Debug("agent cache write failed", zap.Error(err))
	}
}
