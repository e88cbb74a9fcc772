package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNotAssigned TicketStatus = "NOT_ASSIGNED"
	TicketStatusAssigned    TicketStatus = "ASSIGNED"
	TicketStatusNotStarted  TicketStatus = "NOT_STARTED"
	TicketStatusInProcess   TicketStatus = "INPROCESS"
	TicketStatusComplete    TicketStatus = "COMPLETE"
	TicketStatusFixed       TicketStatus = "FIXED"
	TicketStatusRejected    TicketStatus = "REJECTED"
)

// AllTicketStatuses lists every status in lifecycle order.
var AllTicketStatuses = []TicketStatus{
	TicketStatusNotAssigned,
	TicketStatusAssigned,
	TicketStatusNotStarted,
	TicketStatusInProcess,
	TicketStatusComplete,
	TicketStatusFixed,
	TicketStatusRejected,
}

// ActiveAssignedStatuses are the states in which the assignee may move a ticket.
var ActiveAssignedStatuses = []TicketStatus{
	TicketStatusAssigned,
	TicketStatusNotStarted,
	TicketStatusInProcess,
}

// OpenStatuses are all non-terminal states.
var OpenStatuses = []TicketStatus{
	TicketStatusNotAssigned,
	TicketStatusAssigned,
	TicketStatusNotStarted,
	TicketStatusInProcess,
}

// Valid reports membership in the closed status set.
func (s TicketStatus) Valid() bool {
	for _, candidate := range AllTicketStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition other than deletion is defined from s.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusComplete || s == TicketStatusFixed || s == TicketStatusRejected
}

// In reports whether s is one of the given statuses.
func (s TicketStatus) In(statuses []TicketStatus) bool {
	for _, candidate := range statuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// ParseAddresseeStatus reads a status from an addressee's point of view, where
// PENDING means the ticket is still waiting to be assigned.
func ParseAddresseeStatus(raw string) (TicketStatus, bool) {
	return parseStatus(raw, TicketStatusNotAssigned)
}

// ParseAssigneeStatus reads a status from a technician's point of view, where
// PENDING means assigned work that has not started.
func ParseAssigneeStatus(raw string) (TicketStatus, bool) {
	return parseStatus(raw, TicketStatusNotStarted)
}

func parseStatus(raw string, pending TicketStatus) (TicketStatus, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	switch normalized {
	case "PENDING":
		return pending, true
	case "IN_PROCESS", "IN_PROGRESS":
		return TicketStatusInProcess, true
	}
	status := TicketStatus(normalized)
	if !status.Valid() {
		return "", false
	}
	return status, true
}

// TicketPriority is the urgency chosen by the addressee at assignment.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "Low"
	TicketPriorityMedium TicketPriority = "Medium"
	TicketPriorityHigh   TicketPriority = "High"
)

// ParseTicketPriority accepts any casing of Low, Medium or High.
func ParseTicketPriority(raw string) (TicketPriority, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low":
		return TicketPriorityLow, true
	case "medium":
		return TicketPriorityMedium, true
	case "high":
		return TicketPriorityHigh, true
	}
	return "", false
}

// Ticket is one issue routed to one addressee.
type Ticket struct {
	ID                int64
	RequesterID       *int64
	RequesterEmpID    string
	RequesterUsername string
	RequesterName     string
	Department        string
	SystemIP          string
	IssueText         string
	Remarks           *string
	AddresseeID       int64
	AddresseeName     string
	AssigneeID        *int64
	AssigneeName      *string
	StartDate         *time.Time
	EndDate           *time.Time
	Priority          *TicketPriority
	Status            TicketStatus
	// Note holds the fix note or the rejection reason, whichever ended the ticket.
	Note      *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
