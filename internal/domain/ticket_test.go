package domain_test

import (
	"testing"

	"github.com/aniketverma031/helpdesk-project/internal/domain"
)

func TestParseTicketStatus(t *testing.T) {
	tests := []struct {
		raw     string
		want    domain.TicketStatus
		wantErr bool
	}{
		{"open", domain.TicketStatusOpen, false},
		{"in_progress", domain.TicketStatusInProgress, false},
		{"closed", domain.TicketStatusClosed, false},
		{"", "", true},
		{"OPEN", "", true},
		{"resolved", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := domain.ParseTicketStatus(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTicketStatus(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTicketStatus(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
