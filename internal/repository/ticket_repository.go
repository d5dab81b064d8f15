package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aniketverma031/helpdesk-project/internal/domain"
)

// ErrVersionMismatch signals an optimistic-lock failure: the ticket was
// updated after the caller last observed it.
var ErrVersionMismatch = errors.New("ticket version mismatch")

// updatedAtPrecision is the comparison granularity for the lock token.
// Postgres stores timestamptz at microsecond resolution, so finer
// client values must not cause false conflicts.
const updatedAtPrecision = time.Microsecond

// TicketFilter captures listing parameters.
type TicketFilter struct {
	CreatedBy  *string
	SearchTerm *string
}

// TicketPatch describes a field-level partial update. Nil pointers
// leave the field untouched; AssigneeSet distinguishes "clear the
// assignee" (true with nil AssignedTo) from "leave it alone" (false).
type TicketPatch struct {
	Title       *string
	Description *string
	Status      *domain.TicketStatus
	AssignedTo  *string
	AssigneeSet bool
}

// Empty reports whether the patch changes nothing.
func (p TicketPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && !p.AssigneeSet
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// UpdateWithGuard applies the patch inside one transaction. When
	// expectedUpdatedAt is non-nil it is compared against the current
	// row (at microsecond precision) under a row lock; a mismatch
	// returns ErrVersionMismatch with no mutation applied.
	UpdateWithGuard(ctx context.Context, id string, patch TicketPatch, expectedUpdatedAt *time.Time) (*domain.Ticket, error)
	// SetBreached persists an SLA re-evaluation. It deliberately does
	// not refresh updated_at: the breach flag is an idempotent derived
	// value and must not trip the optimistic lock.
	SetBreached(ctx context.Context, id string, breached bool) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, title, description, created_by, assigned_to, status, sla_deadline, is_breached, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	// created_at defaults to now() and the deadline is derived from the
	// same transaction clock, so sla_deadline == created_at + 48h holds
	// exactly.
	const query = `
        INSERT INTO tickets (title, description, created_by, assigned_to, status, sla_deadline)
        VALUES ($1, $2, $3, $4, $5, now() + make_interval(secs => $6))
        RETURNING id, sla_deadline, is_breached, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.CreatedBy,
		ticket.AssignedTo,
		ticket.Status,
		domain.SLAOffset.Seconds(),
	).Scan(&ticket.ID, &ticket.SLADeadline, &ticket.IsBreached, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, id), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("t.created_by=$%d", len(args)))
	}

	join := ""
	distinct := ""
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		// The comment join fans out one row per matching comment;
		// DISTINCT collapses them back to one row per ticket.
		join = " LEFT JOIN comments c ON c.ticket_id = t.id"
		distinct = "DISTINCT "
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(t.title) LIKE %s OR LOWER(t.description) LIKE %s OR LOWER(c.content) LIKE %s)",
			placeholder, placeholder, placeholder))
	}

	query := fmt.Sprintf(
		`SELECT %st.id, t.title, t.description, t.created_by, t.assigned_to, t.status,
                t.sla_deadline, t.is_breached, t.created_at, t.updated_at
         FROM tickets t%s WHERE %s ORDER BY t.created_at DESC`,
		distinct, join, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) UpdateWithGuard(ctx context.Context, id string, patch TicketPatch, expectedUpdatedAt *time.Time) (*domain.Ticket, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var current domain.Ticket
	const lockQuery = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1 FOR UPDATE`
	if err := scanTicket(tx.QueryRow(ctx, lockQuery, id), &current); err != nil {
		return nil, err
	}

	if expectedUpdatedAt != nil &&
		!expectedUpdatedAt.Truncate(updatedAtPrecision).Equal(current.UpdatedAt.Truncate(updatedAtPrecision)) {
		return nil, ErrVersionMismatch
	}

	if patch.Title != nil {
		current.Title = *patch.Title
	}
	if patch.Description != nil {
		current.Description = *patch.Description
	}
	if patch.Status != nil {
		current.Status = *patch.Status
	}
	if patch.AssigneeSet {
		current.AssignedTo = patch.AssignedTo
	}

	const updateQuery = `
        UPDATE tickets SET title=$1, description=$2, assigned_to=$3, status=$4, updated_at=clock_timestamp()
        WHERE id=$5
        RETURNING updated_at`
	if err := tx.QueryRow(ctx, updateQuery,
		current.Title,
		current.Description,
		current.AssignedTo,
		current.Status,
		id,
	).Scan(&current.UpdatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &current, nil
}

func (r *ticketRepository) SetBreached(ctx context.Context, id string, breached bool) error {
	const query = `UPDATE tickets SET is_breached=$1 WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, breached, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.CreatedBy,
		&ticket.AssignedTo,
		&ticket.Status,
		&ticket.SLADeadline,
		&ticket.IsBreached,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
