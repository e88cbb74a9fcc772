package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/deskline/helpdesk-service/internal/domain"
)

// TicketHistoryRepository reads audit entries. Entries are written by the ticket
// repository inside the transaction that changes the status.
type TicketHistoryRepository interface {
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error)
}

type ticketHistoryRepository struct {
	db DBTX
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(db DBTX) TicketHistoryRepository {
	return &ticketHistoryRepository{db: db}
}

func insertHistory(ctx context.Context, tx pgx.Tx, history *domain.TicketHistory) error {
	const query = `
        INSERT INTO ticket_history (ticket_id, actor_id, actor_role, from_status, to_status, note)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`

	var from *string
	if history.FromStatus != nil {
		s := string(*history.FromStatus)
		from = &s
	}
	return tx.QueryRow(ctx, query,
		history.TicketID,
		history.ActorID,
		string(history.ActorRole),
		from,
		string(history.ToStatus),
		history.Note,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	const query = `
        SELECT id, ticket_id, actor_id, actor_role, from_status, to_status, note, created_at
        FROM ticket_history WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.TicketHistory{}
	for rows.Next() {
		var (
			history   domain.TicketHistory
			actorRole string
			from      *string
			to        string
		)
		if err := rows.Scan(
			&history.ID,
			&history.TicketID,
			&history.ActorID,
			&actorRole,
			&from,
			&to,
			&history.Note,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		history.ActorRole = domain.Role(actorRole)
		history.ToStatus = domain.TicketStatus(to)
		if from != nil {
			status := domain.TicketStatus(*from)
			history.FromStatus = &status
		}
		result = append(result, history)
	}
	return result, rows.Err()
}
