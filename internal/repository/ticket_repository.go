package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/deskline/helpdesk-service/internal/domain"
)

// Owner names the ticket column that ties a ticket to the acting user.
type Owner int

const (
	OwnerAddressee Owner = iota
	OwnerAssignee
)

func (o Owner) column() string {
	if o == OwnerAssignee {
		return "assignee_id"
	}
	return "addressee_id"
}

// TicketFilter captures list parameters. Exactly one of AddresseeID or AssigneeID is
// expected; results are newest first.
type TicketFilter struct {
	AddresseeID *int64
	AssigneeID  *int64
	Statuses    []domain.TicketStatus
	Limit       int
	Offset      int
}

// TicketChanges are the optional field writes that accompany a status change.
type TicketChanges struct {
	AssigneeID   *int64
	StartDate    *time.Time
	EndDate      *time.Time
	Priority     *domain.TicketPriority
	Remarks      *string
	AppendRemark *string
	Note         *string
}

// TransitionInput describes one conditional status change.
type TransitionInput struct {
	TicketID  int64
	Owner     Owner
	OwnerID   int64
	From      []domain.TicketStatus
	To        domain.TicketStatus
	Changes   TicketChanges
	ActorRole domain.Role
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	CreateBatch(ctx context.Context, tickets []*domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	CountsByStatus(ctx context.Context, owner Owner, ownerID int64) (map[domain.TicketStatus]int64, error)
	Transition(ctx context.Context, input TransitionInput) (domain.TicketStatus, error)
	DeleteRejected(ctx context.Context, id, addresseeID int64) error
}

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `
        t.id, t.requester_id, t.requester_emp_id, t.requester_username, t.requester_name, t.department,
        t.system_ip, t.issue_text, t.remarks, t.addressee_id, a.display_name, t.assignee_id, s.display_name,
        t.start_date, t.end_date, t.priority, t.status, t.note, t.created_at, t.updated_at
        FROM tickets t
        JOIN users a ON a.id = t.addressee_id
        LEFT JOIN users s ON s.id = t.assignee_id`

// CreateBatch inserts all tickets and their opening history entries in one transaction.
func (r *ticketRepository) CreateBatch(ctx context.Context, tickets []*domain.Ticket) error {
	const query = `
        INSERT INTO tickets (requester_id, requester_emp_id, requester_username, requester_name, department,
                             system_ip, issue_text, remarks, addressee_id, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`

	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		for _, ticket := range tickets {
			if err := tx.QueryRow(ctx, query,
				ticket.RequesterID,
				ticket.RequesterEmpID,
				ticket.RequesterUsername,
				ticket.RequesterName,
				ticket.Department,
				ticket.SystemIP,
				ticket.IssueText,
				ticket.Remarks,
				ticket.AddresseeID,
				string(ticket.Status),
			).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt); err != nil {
				return err
			}
			if err := insertHistory(ctx, tx, &domain.TicketHistory{
				TicketID:  ticket.ID,
				ActorID:   ticket.RequesterID,
				ActorRole: domain.RoleEmployee,
				ToStatus:  ticket.Status,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	return scanTicket(r.db.QueryRow(ctx, `SELECT`+ticketColumns+` WHERE t.id=$1`, id))
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.AddresseeID != nil {
		args = append(args, *filter.AddresseeID)
		clauses = append(clauses, fmt.Sprintf("t.addressee_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("t.assignee_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		args = append(args, statusStrings(filter.Statuses))
		clauses = append(clauses, fmt.Sprintf("t.status = ANY($%d)", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT%s WHERE %s ORDER BY t.created_at DESC, t.id DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) CountsByStatus(ctx context.Context, owner Owner, ownerID int64) (map[domain.TicketStatus]int64, error) {
	query := fmt.Sprintf(`SELECT status, COUNT(*) FROM tickets WHERE %s=$1 GROUP BY status`, owner.column())
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketStatus]int64, len(domain.AllTicketStatuses))
	for rows.Next() {
		var (
			status string
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[domain.TicketStatus(status)] = count
	}
	return counts, rows.Err()
}

// Transition applies a status change only if the ticket is owned by OwnerID and currently
// in one of From. The check and the write are a single statement; the history entry is
// written in the same transaction. It returns the status the ticket left.
func (r *ticketRepository) Transition(ctx context.Context, input TransitionInput) (domain.TicketStatus, error) {
	query := fmt.Sprintf(`
        WITH prev AS (SELECT id, status FROM tickets WHERE id=$1 FOR UPDATE)
        UPDATE tickets t SET
            status=$4,
            assignee_id=COALESCE($5, t.assignee_id),
            start_date=COALESCE($6, t.start_date),
            end_date=COALESCE($7, t.end_date),
            priority=COALESCE($8, t.priority),
            remarks=CASE
                WHEN $9::text IS NOT NULL THEN $9::text
                WHEN $10::text IS NOT NULL THEN COALESCE(t.remarks, '') || $10::text
                ELSE t.remarks END,
            note=COALESCE($11, t.note),
            updated_at=NOW()
        FROM prev
        WHERE t.id=prev.id AND t.%s=$2 AND t.status = ANY($3)
        RETURNING prev.status`, input.Owner.column())

	var from domain.TicketStatus
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var prevStatus string
		err := tx.QueryRow(ctx, query,
			input.TicketID,
			input.OwnerID,
			statusStrings(input.From),
			string(input.To),
			input.Changes.AssigneeID,
			input.Changes.StartDate,
			input.Changes.EndDate,
			priorityString(input.Changes.Priority),
			input.Changes.Remarks,
			input.Changes.AppendRemark,
			input.Changes.Note,
		).Scan(&prevStatus)
		if err != nil {
			if IsNotFound(err) {
				return ErrNoTransition
			}
			return err
		}
		from = domain.TicketStatus(prevStatus)
		return insertHistory(ctx, tx, &domain.TicketHistory{
			TicketID:   input.TicketID,
			ActorID:    &input.OwnerID,
			ActorRole:  input.ActorRole,
			FromStatus: &from,
			ToStatus:   input.To,
			Note:       input.Changes.Note,
		})
	})
	if err != nil {
		return "", err
	}
	return from, nil
}

// DeleteRejected removes a ticket only when it is REJECTED and owned by the addressee.
func (r *ticketRepository) DeleteRejected(ctx context.Context, id, addresseeID int64) error {
	const query = `DELETE FROM tickets WHERE id=$1 AND addressee_id=$2 AND status=$3`
	cmd, err := r.db.Exec(ctx, query, id, addresseeID, string(domain.TicketStatusRejected))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNoTransition
	}
	return nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket   domain.Ticket
		priority *string
		status   string
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.RequesterID,
		&ticket.RequesterEmpID,
		&ticket.RequesterUsername,
		&ticket.RequesterName,
		&ticket.Department,
		&ticket.SystemIP,
		&ticket.IssueText,
		&ticket.Remarks,
		&ticket.AddresseeID,
		&ticket.AddresseeName,
		&ticket.AssigneeID,
		&ticket.AssigneeName,
		&ticket.StartDate,
		&ticket.EndDate,
		&priority,
		&status,
		&ticket.Note,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	ticket.Status = domain.TicketStatus(status)
	if priority != nil {
		p := domain.TicketPriority(*priority)
		ticket.Priority = &p
	}
	return &ticket, nil
}

func statusStrings(statuses []domain.TicketStatus) []string {
	out := make([]string, len(statuses))
	for i, status := range statuses {
		out[i] = string(status)
	}
	return out
}

func priorityString(priority *domain.TicketPriority) *string {
	if priority == nil {
		return nil
	}
	s := string(*priority)
	return &s
}
