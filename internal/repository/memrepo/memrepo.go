// Package memrepo holds in-memory repositories with the same conditional-write
// semantics as the Postgres ones. Tests use it in place of a database.
package memrepo

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/deskline/helpdesk-service/internal/domain"
	"github.com/deskline/helpdesk-service/internal/repository"
)

// Store is the shared state behind the repositories.
type Store struct {
	mu          sync.Mutex
	users       map[int64]*domain.User
	tickets     map[int64]*domain.Ticket
	history     []domain.TicketHistory
	nextUser    int64
	nextTicket  int64
	nextHistory int64
	clock       time.Time

	// FailWrites, when set, is returned by every ticket write.
	FailWrites error
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:   make(map[int64]*domain.User),
		tickets: make(map[int64]*domain.Ticket),
		clock:   time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp so ordering is deterministic.
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

// AddUser stores a copy of user, assigning an id when it has none.
func (s *Store) AddUser(user domain.User) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == 0 {
		s.nextUser++
		user.ID = s.nextUser
	} else if user.ID > s.nextUser {
		s.nextUser = user.ID
	}
	user.CreatedAt = s.tick()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = &user
	out := user
	return &out
}

// AddTicket stores a copy of ticket as is, bypassing the workflow.
func (s *Store) AddTicket(ticket domain.Ticket) *domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket.ID == 0 {
		s.nextTicket++
		ticket.ID = s.nextTicket
	} else if ticket.ID > s.nextTicket {
		s.nextTicket = ticket.ID
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = s.tick()
	}
	ticket.UpdatedAt = ticket.CreatedAt
	s.tickets[ticket.ID] = &ticket
	return s.decorate(ticket)
}

// Ticket returns the stored ticket.
func (s *Store) Ticket(id int64) (*domain.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return nil, false
	}
	return s.decorate(*ticket), true
}

// TicketCount returns the number of stored tickets.
func (s *Store) TicketCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tickets)
}

// Users returns the user repository.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Tickets returns the ticket repository.
func (s *Store) Tickets() repository.TicketRepository { return ticketRepo{s} }

// History returns the history repository.
func (s *Store) History() repository.TicketHistoryRepository { return historyRepo{s} }

func (s *Store) decorate(ticket domain.Ticket) *domain.Ticket {
	if addressee, ok := s.users[ticket.AddresseeID]; ok {
		ticket.AddresseeName = addressee.DisplayName
	}
	ticket.AssigneeName = nil
	if ticket.AssigneeID != nil {
		if assignee, ok := s.users[*ticket.AssigneeID]; ok {
			name := assignee.DisplayName
			ticket.AssigneeName = &name
		}
	}
	return &ticket
}

func (s *Store) decorateUser(user domain.User) *domain.User {
	user.ReportsToName = nil
	if user.ReportsToID != nil {
		if manager, ok := s.users[*user.ReportsToID]; ok {
			name := manager.DisplayName
			user.ReportsToName = &name
		}
	}
	return &user
}

func (s *Store) appendHistory(entry domain.TicketHistory) {
	s.nextHistory++
	entry.ID = s.nextHistory
	entry.CreatedAt = s.clock
	s.history = append(s.history, entry)
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	created := r.s.AddUser(*user)
	user.ID = created.ID
	user.CreatedAt = created.CreatedAt
	user.UpdatedAt = created.UpdatedAt
	return nil
}

func (r userRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if user, ok := r.s.users[id]; ok {
		return r.s.decorateUser(*user), nil
	}
	return nil, pgx.ErrNoRows
}

func (r userRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, user := range r.s.sortedUsers() {
		if user.Username == username {
			return r.s.decorateUser(*user), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r userRepo) FindByKey(_ context.Context, key string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	users := r.s.sortedUsers()
	for _, user := range users {
		if user.EmployeeCode != nil && *user.EmployeeCode == key {
			return r.s.decorateUser(*user), nil
		}
	}
	for _, user := range users {
		if user.Username == key || strconv.FormatInt(user.ID, 10) == key {
			return r.s.decorateUser(*user), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r userRepo) ListByDisplayName(_ context.Context, displayName string, role domain.Role) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.User{}
	for _, user := range r.s.sortedUsers() {
		if user.DisplayName == displayName && user.Role == role {
			out = append(out, *r.s.decorateUser(*user))
		}
	}
	return out, nil
}

func (r userRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.User{}
	for _, user := range r.s.sortedUsers() {
		if user.Role == role {
			out = append(out, *r.s.decorateUser(*user))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	return out, nil
}

func (s *Store) sortedUsers() []*domain.User {
	out := make([]*domain.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type ticketRepo struct{ s *Store }

func (r ticketRepo) CreateBatch(_ context.Context, tickets []*domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWrites != nil {
		return r.s.FailWrites
	}
	for _, ticket := range tickets {
		r.s.nextTicket++
		ticket.ID = r.s.nextTicket
		ticket.CreatedAt = r.s.tick()
		ticket.UpdatedAt = ticket.CreatedAt
		stored := *ticket
		r.s.tickets[ticket.ID] = &stored
		r.s.appendHistory(domain.TicketHistory{
			TicketID:  ticket.ID,
			ActorID:   ticket.RequesterID,
			ActorRole: domain.RoleEmployee,
			ToStatus:  ticket.Status,
		})
	}
	return nil
}

func (r ticketRepo) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if ticket, ok := r.s.tickets[id]; ok {
		return r.s.decorate(*ticket), nil
	}
	return nil, pgx.ErrNoRows
}

func (r ticketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	matched := []domain.Ticket{}
	for _, ticket := range r.s.tickets {
		if filter.AddresseeID != nil && ticket.AddresseeID != *filter.AddresseeID {
			continue
		}
		if filter.AssigneeID != nil && (ticket.AssigneeID == nil || *ticket.AssigneeID != *filter.AssigneeID) {
			continue
		}
		if len(filter.Statuses) > 0 && !ticket.Status.In(filter.Statuses) {
			continue
		}
		matched = append(matched, *r.s.decorate(*ticket))
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	offset := filter.Offset
	if offset < 0 || offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (r ticketRepo) CountsByStatus(_ context.Context, owner repository.Owner, ownerID int64) (map[domain.TicketStatus]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := map[domain.TicketStatus]int64{}
	for _, ticket := range r.s.tickets {
		if owns(ticket, owner, ownerID) {
			counts[ticket.Status]++
		}
	}
	return counts, nil
}

func (r ticketRepo) Transition(_ context.Context, input repository.TransitionInput) (domain.TicketStatus, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWrites != nil {
		return "", r.s.FailWrites
	}
	ticket, ok := r.s.tickets[input.TicketID]
	if !ok || !owns(ticket, input.Owner, input.OwnerID) || !ticket.Status.In(input.From) {
		return "", repository.ErrNoTransition
	}

	from := ticket.Status
	changes := input.Changes
	ticket.Status = input.To
	if changes.AssigneeID != nil {
		id := *changes.AssigneeID
		ticket.AssigneeID = &id
	}
	if changes.StartDate != nil {
		ticket.StartDate = changes.StartDate
	}
	if changes.EndDate != nil {
		ticket.EndDate = changes.EndDate
	}
	if changes.Priority != nil {
		ticket.Priority = changes.Priority
	}
	switch {
	case changes.Remarks != nil:
		remarks := *changes.Remarks
		ticket.Remarks = &remarks
	case changes.AppendRemark != nil:
		remarks := *changes.AppendRemark
		if ticket.Remarks != nil {
			remarks = *ticket.Remarks + remarks
		}
		ticket.Remarks = &remarks
	}
	if changes.Note != nil {
		note := *changes.Note
		ticket.Note = &note
	}
	ticket.UpdatedAt = r.s.tick()

	actor := input.OwnerID
	r.s.appendHistory(domain.TicketHistory{
		TicketID:   ticket.ID,
		ActorID:    &actor,
		ActorRole:  input.ActorRole,
		FromStatus: &from,
		ToStatus:   input.To,
		Note:       changes.Note,
	})
	return from, nil
}

func (r ticketRepo) DeleteRejected(_ context.Context, id, addresseeID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWrites != nil {
		return r.s.FailWrites
	}
	ticket, ok := r.s.tickets[id]
	if !ok || ticket.AddresseeID != addresseeID || ticket.Status != domain.TicketStatusRejected {
		return repository.ErrNoTransition
	}
	delete(r.s.tickets, id)
	kept := r.s.history[:0]
	for _, entry := range r.s.history {
		if entry.TicketID != id {
			kept = append(kept, entry)
		}
	}
	r.s.history = kept
	return nil
}

func owns(ticket *domain.Ticket, owner repository.Owner, ownerID int64) bool {
	if owner == repository.OwnerAssignee {
		return ticket.AssigneeID != nil && *ticket.AssigneeID == ownerID
	}
	return ticket.AddresseeID == ownerID
}

type historyRepo struct{ s *Store }

func (r historyRepo) ListByTicket(_ context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.TicketHistory{}
	for _, entry := range r.s.history {
		if entry.TicketID == ticketID {
			out = append(out, entry)
		}
	}
	return out, nil
}
