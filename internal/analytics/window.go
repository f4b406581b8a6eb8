// Package analytics aggregates the ticket population behind the analytics
// dashboard.
package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/studiodesk/studio-desk/internal/domain"
)

// Range is the analytics look-back period.
type Range string

const (
	Range7Days   Range = "7d"
	Range30Days  Range = "30d"
	Range90Days  Range = "90d"
	Range12Month Range = "12m"
)

// Ranges lists every supported range.
var Ranges = []Range{Range7Days, Range30Days, Range90Days, Range12Month}

// DefaultRange is used when no range is requested.
const DefaultRange = Range30Days

// ParseRange validates a raw range, defaulting empty input.
func ParseRange(raw string) (Range, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return DefaultRange, nil
	}
	for _, r := range Ranges {
		if string(r) == raw {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown analytics range %q", raw)
}

// Granularity is the trend bucket size.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// Granularity picks the trend bucket for the range.
func (r Range) Granularity() Granularity {
	switch r {
	case Range7Days:
		return GranularityDay
	case Range12Month:
		return GranularityMonth
	default:
		return GranularityWeek
	}
}

// Start returns the inclusive lower bound of the range.
func (r Range) Start(now time.Time) time.Time {
	switch r {
	case Range7Days:
		return now.AddDate(0, 0, -7)
	case Range90Days:
		return now.AddDate(0, 0, -90)
	case Range12Month:
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, 0, -30)
	}
}

// Window selects the tickets an analytics snapshot covers.
type Window struct {
	Range    Range
	StudioID domain.Option[string]
	Location *time.Location
}

// Key identifies the window in the snapshot cache.
func (w Window) Key() string {
	studio := "all"
	if id, ok := w.StudioID.Get(); ok {
		studio = id
	}
	return fmt.Sprintf("%s:%s", w.Range, studio)
}

func (w Window) location() *time.Location {
	if w.Location == nil {
		return time.UTC
	}
	return w.Location
}
