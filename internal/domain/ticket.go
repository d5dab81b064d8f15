package domain

import (
	"fmt"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusClosed     TicketStatus = "closed"
)

// ParseTicketStatus validates a raw status string against the closed set.
func ParseTicketStatus(raw string) (TicketStatus, error) {
	switch TicketStatus(raw) {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed:
		return TicketStatus(raw), nil
	default:
		return "", fmt.Errorf("unknown ticket status %q", raw)
	}
}

// Ticket is the aggregate for support requests.
//
// UpdatedAt doubles as the optimistic-lock token on the API update
// path; every mutating write except the breach write-back refreshes it.
type Ticket struct {
	ID          string
	Title       string
	Description string
	CreatedBy   string
	AssignedTo  *string
	Status      TicketStatus
	SLADeadline time.Time
	IsBreached  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
