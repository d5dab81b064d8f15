package domain

import "time"

// Comment is an immutable note on a ticket thread. Appending one does
// not refresh the parent ticket's UpdatedAt; comments live outside the
// ticket optimistic lock.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}
