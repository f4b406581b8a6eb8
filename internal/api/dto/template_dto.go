package dto

import (
	"time"

	"github.com/studiodesk/studio-desk/internal/domain"
	"github.com/studiodesk/studio-desk/internal/templates"
)

// CreateTemplateRequest payload. Tags is the comma separated form value.
type CreateTemplateRequest struct {
	Name                 string `json:"name"`
	Description          string `json:"description"`
	Category             string `json:"category"`
	Subcategory          string `json:"subcategory"`
	Priority             string `json:"priority"`
	SuggestedTitle       string `json:"suggested_title"`
	SuggestedDescription string `json:"suggested_description"`
	Tags                 string `json:"tags"`
	SLAHours             int    `json:"sla_hours"`
}

// Draft converts the request into a catalog draft.
func (r CreateTemplateRequest) Draft() templates.Draft {
	return templates.Draft{
		Name:                 r.Name,
		Description:          r.Description,
		Category:             r.Category,
		Subcategory:          r.Subcategory,
		Priority:             r.Priority,
		SuggestedTitle:       r.SuggestedTitle,
		SuggestedDescription: r.SuggestedDescription,
		Tags:                 r.Tags,
		SLAHours:             r.SLAHours,
	}
}

// TemplateResponse describes one catalog entry.
type TemplateResponse struct {
	ID                   string                `json:"id"`
	Name                 string                `json:"name"`
	Description          string                `json:"description"`
	Category             string                `json:"category"`
	Subcategory          string                `json:"subcategory"`
	Priority             domain.TicketPriority `json:"priority"`
	SuggestedTitle       string                `json:"suggested_title"`
	SuggestedDescription string                `json:"suggested_description"`
	Tags                 []string              `json:"tags"`
	SLAHours             int                   `json:"sla_hours"`
	QuickTips            []string              `json:"quick_tips"`
	RequiredFields       []string              `json:"required_fields"`
	CommonFollowUps      []string              `json:"common_follow_ups"`
	UsageCount           int                   `json:"usage_count"`
	LastUsedAt           *time.Time            `json:"last_used_at"`
	LastUsedLabel        string                `json:"last_used_label,omitempty"`
	IsCustom             bool                  `json:"is_custom"`
	CreatedAt            time.Time             `json:"created_at"`
}

// TemplateListResponse is the template management payload.
type TemplateListResponse struct {
	Templates  []TemplateResponse `json:"templates"`
	Categories []string           `json:"categories"`
	Count      int                `json:"count"`
	Total      int                `json:"total"`
}

// PrefillResponse is what the new-ticket form receives.
type PrefillResponse struct {
	TemplateID     string                `json:"template_id"`
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	Priority       domain.TicketPriority `json:"priority"`
	Category       string                `json:"category"`
	Subcategory    string                `json:"subcategory"`
	Tags           []string              `json:"tags"`
	SLAHours       int                   `json:"sla_hours"`
	Placeholders   []string              `json:"placeholders"`
	RequiredFields []string              `json:"required_fields"`
	UsageCount     int                   `json:"usage_count"`
}

// NewTemplateResponse maps a template, labelling its last use relative to now.
func NewTemplateResponse(t domain.Template, now time.Time) TemplateResponse {
	return TemplateResponse{
		ID:                   t.ID,
		Name:                 t.Name,
		Description:          t.Description,
		Category:             t.Category,
		Subcategory:          t.Subcategory,
		Priority:             t.Priority,
		SuggestedTitle:       t.SuggestedTitle,
		SuggestedDescription: t.SuggestedDescription,
		Tags:                 nonNil(t.Tags),
		SLAHours:             t.SLAHours,
		QuickTips:            nonNil(t.QuickTips),
		RequiredFields:       nonNil(t.RequiredFields),
		CommonFollowUps:      nonNil(t.CommonFollowUps),
		UsageCount:           t.UsageCount,
		LastUsedAt:           t.LastUsedAt,
		LastUsedLabel:        templates.LastUsedLabel(t, now),
		IsCustom:             t.IsCustom,
		CreatedAt:            t.CreatedAt,
	}
}

// NewTemplateListResponse maps a listing.
func NewTemplateListResponse(list []domain.Template, categories []string, total int, now time.Time) TemplateListResponse {
	resp := TemplateListResponse{
		Templates:  make([]TemplateResponse, 0, len(list)),
		Categories: nonNil(categories),
		Count:      len(list),
		Total:      total,
	}
	for _, t := range list {
		resp.Templates = append(resp.Templates, NewTemplateResponse(t, now))
	}
	return resp
}

// NewPrefillResponse maps a prefill.
func NewPrefillResponse(p templates.Prefill, usage int) PrefillResponse {
	return PrefillResponse{
		TemplateID:     p.TemplateID,
		Title:          p.Title,
		Description:    p.Description,
		Priority:       p.Priority,
		Category:       p.Category,
		Subcategory:    p.Subcategory,
		Tags:           nonNil(p.Tags),
		SLAHours:       p.SLAHours,
		Placeholders:   nonNil(p.Placeholders),
		RequiredFields: nonNil(p.RequiredFields),
		UsageCount:     usage,
	}
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
