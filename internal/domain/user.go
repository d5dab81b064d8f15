package domain

import (
	"fmt"
	"sort"
	"time"
)

// Role enumerates the access levels an account can hold.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

// ParseRole validates a raw role string against the closed set.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleUser, RoleAgent, RoleAdmin:
		return Role(raw), nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// SeesAllTickets reports whether the role may list tickets it did not create.
func (r Role) SeesAllTickets() bool {
	switch r {
	case RoleAgent, RoleAdmin:
		return true
	default:
		return false
	}
}

// User is the domain model for every account: requesters, agents and admins.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         Role
	IsSuperuser  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AssigneeChoice is one entry in the assignable-agent picker.
type AssigneeChoice struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// AssigneeChoices shapes a caller-provided slice of current agents into
// picker entries ordered by username. The caller decides when the agent
// set is read; this function only shapes it.
func AssigneeChoices(agents []User) []AssigneeChoice {
	choices := make([]AssigneeChoice, 0, len(agents))
	for _, agent := range agents {
		choices = append(choices, AssigneeChoice{ID: agent.ID, Username: agent.Username})
	}
	sort.Slice(choices, func(i, j int) bool {
		return choices[i].Username < choices[j].Username
	})
	return choices
}
