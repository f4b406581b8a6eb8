package domain

import (
	"fmt"
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew             TicketStatus = "new"
	TicketStatusAssigned        TicketStatus = "assigned"
	TicketStatusInProgress      TicketStatus = "in_progress"
	TicketStatusPendingCustomer TicketStatus = "pending_customer"
	TicketStatusResolved        TicketStatus = "resolved"
	TicketStatusClosed          TicketStatus = "closed"
	TicketStatusReopened        TicketStatus = "reopened"
)

// TicketStatuses lists every valid status in display order.
var TicketStatuses = []TicketStatus{
	TicketStatusNew,
	TicketStatusAssigned,
	TicketStatusInProgress,
	TicketStatusPendingCustomer,
	TicketStatusResolved,
	TicketStatusClosed,
	TicketStatusReopened,
}

// ParseTicketStatus validates a raw status value.
func ParseTicketStatus(raw string) (TicketStatus, error) {
	candidate := TicketStatus(strings.ToLower(strings.TrimSpace(raw)))
	for _, status := range TicketStatuses {
		if status == candidate {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown ticket status %q", raw)
}

// IsDone reports whether the status ends the working lifecycle.
func (s TicketStatus) IsDone() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// IsWorking reports whether somebody is actively handling the ticket.
func (s TicketStatus) IsWorking() bool {
	return s == TicketStatusAssigned || s == TicketStatusInProgress
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityCritical TicketPriority = "critical"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityLow      TicketPriority = "low"
)

// TicketPriorities lists every valid priority from most to least urgent.
var TicketPriorities = []TicketPriority{
	TicketPriorityCritical,
	TicketPriorityHigh,
	TicketPriorityMedium,
	TicketPriorityLow,
}

// ParseTicketPriority validates a raw priority value.
func ParseTicketPriority(raw string) (TicketPriority, error) {
	candidate := TicketPriority(strings.ToLower(strings.TrimSpace(raw)))
	for _, priority := range TicketPriorities {
		if priority == candidate {
			return priority, nil
		}
	}
	return "", fmt.Errorf("unknown ticket priority %q", raw)
}

// Rank orders priorities: critical=3, high=2, medium=1, low=0.
func (p TicketPriority) Rank() int {
	switch p {
	case TicketPriorityCritical:
		return 3
	case TicketPriorityHigh:
		return 2
	case TicketPriorityMedium:
		return 1
	default:
		return 0
	}
}

// SLAState summarizes a ticket's deadline position.
type SLAState string

const (
	SLAStateNone     SLAState = "none"
	SLAStateOnTrack  SLAState = "on_track"
	SLAStateOverdue  SLAState = "overdue"
	SLAStateBreached SLAState = "breached"
)

// Ticket is a denormalized ticket row as returned by the list query.
type Ticket struct {
	ID            string
	TicketNumber  string
	Title         string
	Description   string
	Status        TicketStatus
	Priority      TicketPriority
	CategoryID    string
	SubcategoryID *string
	StudioID      string
	AssigneeID    *string
	ReporterID    string
	Source        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ResolvedAt    *time.Time
	SLADueAt      *time.Time
	SLABreached   bool
	Tags          []string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Mood          string

	Category    *Category
	Subcategory *Subcategory
	Studio      *Studio
	Assignee    *User
	Reporter    *User
}

// SLAState derives the deadline position at the given instant.
// A breached flag always wins over the due timestamp.
func (t *Ticket) SLAState(now time.Time) SLAState {
	if t.SLABreached {
		return SLAStateBreached
	}
	if t.SLADueAt == nil {
		return SLAStateNone
	}
	if t.SLADueAt.Before(now) && !t.Status.IsDone() {
		return SLAStateOverdue
	}
	return SLAStateOnTrack
}

// IsOverdue reports whether the ticket counts as overdue on the stats strip.
func (t *Ticket) IsOverdue(now time.Time) bool {
	if t.Status.IsDone() {
		return false
	}
	if t.SLABreached {
		return true
	}
	return t.SLADueAt != nil && t.SLADueAt.Before(now)
}
