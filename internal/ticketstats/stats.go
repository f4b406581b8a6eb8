// Package ticketstats reduces the loaded ticket window into the counters
// shown above the ticket list.
package ticketstats

import (
	"time"

	"github.com/studiodesk/studio-desk/internal/domain"
)

// ScopeLoadedWindow marks counts taken over the rows currently loaded.
const ScopeLoadedWindow = "loaded_window"

// Stats holds the stats strip counters.
type Stats struct {
	Total      int    `json:"total"`
	New        int    `json:"new"`
	InProgress int    `json:"inProgress"`
	Resolved   int    `json:"resolved"`
	Overdue    int    `json:"overdue"`
	Critical   int    `json:"critical"`
	Scope      string `json:"scope"`
	WindowSize int    `json:"windowSize"`
}

// Compute counts tickets at instant now. It never looks past the slice it is
// given, so results describe the loaded window only.
func Compute(tickets []domain.Ticket, now time.Time) Stats {
	stats := Stats{
		Total:      len(tickets),
		Scope:      ScopeLoadedWindow,
		WindowSize: len(tickets),
	}
	for i := range tickets {
		t := &tickets[i]
		switch {
		case t.Status == domain.TicketStatusNew:
			stats.New++
		case t.Status.IsWorking():
			stats.InProgress++
		case t.Status.IsDone():
			stats.Resolved++
		}
		if t.IsOverdue(now) {
			stats.Overdue++
		}
		if t.Priority == domain.TicketPriorityCritical {
			stats.Critical++
		}
	}
	return stats
}
