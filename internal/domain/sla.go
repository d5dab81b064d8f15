package domain

import "time"

// SLAOffset is the fixed window a ticket has before breaching. The
// deadline is stamped once at creation and never recomputed.
const SLAOffset = 48 * time.Hour

// SLADeadlineFor returns the deadline for a ticket created at the given
// instant.
func SLADeadlineFor(createdAt time.Time) time.Time {
	return createdAt.Add(SLAOffset)
}

// Breached reports whether the ticket's SLA deadline has passed. A
// ticket sitting exactly on its deadline is not breached.
func Breached(ticket *Ticket, now time.Time) bool {
	return now.After(ticket.SLADeadline)
}
