package domain_test

import (
	"testing"
	"time"

	"github.com/aniketverma031/helpdesk-project/internal/domain"
)

func TestSLADeadlineFor(t *testing.T) {
	createdAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	want := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	if got := domain.SLADeadlineFor(createdAt); !got.Equal(want) {
		t.Fatalf("SLADeadlineFor() = %v, want %v", got, want)
	}
}

func TestBreached(t *testing.T) {
	deadline := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	ticket := &domain.Ticket{SLADeadline: deadline}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"well before deadline", deadline.Add(-10 * time.Hour), false},
		{"exactly on deadline", deadline, false},
		{"one nanosecond past", deadline.Add(time.Nanosecond), true},
		{"one hour past", deadline.Add(time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := domain.Breached(ticket, tt.now); got != tt.want {
				t.Errorf("Breached(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}
