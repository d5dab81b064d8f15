package domain_test

import (
	"testing"

	"github.com/aniketverma031/helpdesk-project/internal/domain"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		raw     string
		want    domain.Role
		wantErr bool
	}{
		{"user", domain.RoleUser, false},
		{"agent", domain.RoleAgent, false},
		{"admin", domain.RoleAdmin, false},
		{"", "", true},
		{"Admin", "", true},
		{"superuser", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := domain.ParseRole(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRole(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseRole(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestRoleSeesAllTickets(t *testing.T) {
	tests := []struct {
		role domain.Role
		want bool
	}{
		{domain.RoleUser, false},
		{domain.RoleAgent, true},
		{domain.RoleAdmin, true},
	}
	for _, tt := range tests {
		if got := tt.role.SeesAllTickets(); got != tt.want {
			t.Errorf("%s.SeesAllTickets() = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestAssigneeChoices(t *testing.T) {
	agents := []domain.User{
		{ID: "3", Username: "zelda"},
		{ID: "1", Username: "alice"},
		{ID: "2", Username: "mallory"},
	}
	choices := domain.AssigneeChoices(agents)
	if len(choices) != 3 {
		t.Fatalf("got %d choices, want 3", len(choices))
	}
	wantOrder := []string{"alice", "mallory", "zelda"}
	for i, want := range wantOrder {
		if choices[i].Username != want {
			t.Errorf("choices[%d].Username = %q, want %q", i, choices[i].Username, want)
		}
	}
}

func TestAssigneeChoicesEmpty(t *testing.T) {
	if got := domain.AssigneeChoices(nil); len(got) != 0 {
		t.Fatalf("AssigneeChoices(nil) = %v, want empty", got)
	}
}
