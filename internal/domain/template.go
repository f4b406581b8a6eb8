package domain

import "time"

// Template pre-fills the new-ticket form for a common request type.
type Template struct {
	ID                   string
	Name                 string
	Description          string
	Category             string
	Subcategory          string
	Priority             TicketPriority
	SuggestedTitle       string
	SuggestedDescription string
	Tags                 []string
	SLAHours             int
	QuickTips            []string
	RequiredFields       []string
	CommonFollowUps      []string
	UsageCount           int
	LastUsedAt           *time.Time
	IsCustom             bool
	CreatedAt            time.Time
}

// Clone returns a deep copy so callers never share slices with the catalog.
func (t Template) Clone() Template {
	out := t
	out.Tags = append([]string(nil), t.Tags...)
	out.QuickTips = append([]string(nil), t.QuickTips...)
	out.RequiredFields = append([]string(nil), t.RequiredFields...)
	out.CommonFollowUps = append([]string(nil), t.CommonFollowUps...)
	if t.LastUsedAt != nil {
		last := *t.LastUsedAt
		out.LastUsedAt = &last
	}
	return out
}
