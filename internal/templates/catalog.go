// Package templates manages the quick-start ticket template catalog.
package templates

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/xeonx/timeago"

	"github.com/studiodesk/studio-desk/internal/domain"
)

var (
	ErrNameRequired     = errors.New("template name is required")
	ErrInvalidPriority  = errors.New("invalid template priority")
	ErrBuiltinProtected = errors.New("built-in templates cannot be deleted")
)

// DefaultCategory labels templates created without a category.
const DefaultCategory = "Custom"

// Options tune catalog behavior.
type Options struct {
	AllowBuiltinDelete bool
	Now                func() time.Time
}

// Catalog is an ordered template list. It is not safe for concurrent use;
// the session store serializes access.
type Catalog struct {
	seed      *Seed
	opts      Options
	templates []domain.Template
}

// NewCatalog returns a catalog holding the seed templates.
func NewCatalog(seed *Seed, opts Options) *Catalog {
	c := &Catalog{seed: seed, opts: opts}
	c.Reset()
	return c
}

// RestoreCatalog rebuilds a catalog from previously saved templates.
func RestoreCatalog(seed *Seed, opts Options, saved []domain.Template) *Catalog {
	c := &Catalog{seed: seed, opts: opts, templates: make([]domain.Template, 0, len(saved))}
	for _, t := range saved {
		c.templates = append(c.templates, t.Clone())
	}
	return c
}

func (c *Catalog) now() time.Time {
	if c.opts.Now != nil {
		return c.opts.Now()
	}
	return time.Now()
}

// Snapshot returns copies of every template in catalog order.
func (c *Catalog) Snapshot() []domain.Template {
	out := make([]domain.Template, 0, len(c.templates))
	for _, t := range c.templates {
		out = append(out, t.Clone())
	}
	return out
}

// Len returns the catalog size.
func (c *Catalog) Len() int { return len(c.templates) }

// Filter narrows List results. Search matches name, description or any tag.
type Filter struct {
	Search   string
	Category domain.Option[string]
	Priority domain.Option[domain.TicketPriority]
}

// List returns matching templates in catalog order.
func (c *Catalog) List(f Filter) []domain.Template {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]domain.Template, 0, len(c.templates))
	for _, t := range c.templates {
		if !f.Category.Allows(t.Category) || !f.Priority.Allows(t.Priority) {
			continue
		}
		if term != "" && !matchesSearch(t, term) {
			continue
		}
		out = append(out, t.Clone())
	}
	return out
}

func matchesSearch(t domain.Template, term string) bool {
	if strings.Contains(strings.ToLower(t.Name), term) || strings.Contains(strings.ToLower(t.Description), term) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

// Categories returns distinct categories in first-appearance order.
func (c *Catalog) Categories() []string {
	var out []string
	for _, t := range c.templates {
		if t.Category != "" && !slices.Contains(out, t.Category) {
			out = append(out, t.Category)
		}
	}
	return out
}

// Get looks up a template by id.
func (c *Catalog) Get(id string) (domain.Template, bool) {
	idx := c.indexOf(id)
	if idx < 0 {
		return domain.Template{}, false
	}
	return c.templates[idx].Clone(), true
}

// Draft carries the fields of the create form. Tags is comma separated.
type Draft struct {
	Name                 string
	Description          string
	Category             string
	Subcategory          string
	Priority             string
	SuggestedTitle       string
	SuggestedDescription string
	Tags                 string
	SLAHours             int
}

// Create validates d and inserts the new template at the front.
func (c *Catalog) Create(d Draft) (domain.Template, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return domain.Template{}, ErrNameRequired
	}
	priority := domain.TicketPriorityMedium
	if raw := strings.TrimSpace(d.Priority); raw != "" {
		parsed, err := domain.ParseTicketPriority(raw)
		if err != nil {
			return domain.Template{}, fmt.Errorf("%w: %q", ErrInvalidPriority, d.Priority)
		}
		priority = parsed
	}
	if d.SLAHours < 0 {
		return domain.Template{}, fmt.Errorf("sla hours must not be negative")
	}
	category := strings.TrimSpace(d.Category)
	if category == "" {
		category = DefaultCategory
	}

	now := c.now()
	t := domain.Template{
		ID:                   c.uniqueID(fmt.Sprintf("custom-%s-%d", slugify(name), now.UnixMilli())),
		Name:                 name,
		Description:          strings.TrimSpace(d.Description),
		Category:             category,
		Subcategory:          strings.TrimSpace(d.Subcategory),
		Priority:             priority,
		SuggestedTitle:       d.SuggestedTitle,
		SuggestedDescription: d.SuggestedDescription,
		Tags:                 ParseTags(d.Tags),
		SLAHours:             d.SLAHours,
		IsCustom:             true,
		CreatedAt:            now,
	}
	c.templates = slices.Insert(c.templates, 0, t)
	return t.Clone(), nil
}

// Duplicate copies the template with id and inserts the copy at the front.
func (c *Catalog) Duplicate(id string) (domain.Template, bool) {
	idx := c.indexOf(id)
	if idx < 0 {
		return domain.Template{}, false
	}
	now := c.now()
	dup := c.templates[idx].Clone()
	dup.ID = c.uniqueID(fmt.Sprintf("%s-copy-%d", id, now.UnixMilli()))
	dup.Name += " (Copy)"
	dup.IsCustom = true
	dup.UsageCount = 0
	dup.LastUsedAt = nil
	dup.CreatedAt = now
	c.templates = slices.Insert(c.templates, 0, dup)
	return dup.Clone(), true
}

// Delete removes the template with id. Missing ids are a no-op and report
// false.
func (c *Catalog) Delete(id string) (bool, error) {
	idx := c.indexOf(id)
	if idx < 0 {
		return false, nil
	}
	if !c.templates[idx].IsCustom && !c.opts.AllowBuiltinDelete {
		return false, ErrBuiltinProtected
	}
	c.templates = slices.Delete(c.templates, idx, idx+1)
	return true, nil
}

// Reset restores the built-in catalog, dropping custom templates and usage.
func (c *Catalog) Reset() {
	if c.seed == nil {
		c.templates = nil
		return
	}
	c.templates = c.seed.Templates(c.now())
}

// Prefill is what the new-ticket form receives when a template is used.
type Prefill struct {
	TemplateID     string
	Title          string
	Description    string
	Priority       domain.TicketPriority
	Category       string
	Subcategory    string
	Tags           []string
	SLAHours       int
	Placeholders   []string
	RequiredFields []string
}

// SelectForUse builds the prefill for id and records the use.
func (c *Catalog) SelectForUse(id string) (Prefill, bool) {
	idx := c.indexOf(id)
	if idx < 0 {
		return Prefill{}, false
	}
	now := c.now()
	t := &c.templates[idx]
	t.UsageCount++
	t.LastUsedAt = &now

	return Prefill{
		TemplateID:     t.ID,
		Title:          t.SuggestedTitle,
		Description:    t.SuggestedDescription,
		Priority:       t.Priority,
		Category:       t.Category,
		Subcategory:    t.Subcategory,
		Tags:           slices.Clone(t.Tags),
		SLAHours:       t.SLAHours,
		Placeholders:   Placeholders(t.SuggestedTitle, t.SuggestedDescription),
		RequiredFields: slices.Clone(t.RequiredFields),
	}, true
}

func (c *Catalog) indexOf(id string) int {
	return slices.IndexFunc(c.templates, func(t domain.Template) bool { return t.ID == id })
}

func (c *Catalog) uniqueID(base string) string {
	id := base
	for n := 2; c.indexOf(id) >= 0; n++ {
		id = base + "-" + strconv.Itoa(n)
	}
	return id
}

var placeholderPattern = regexp.MustCompile(`\[([^\[\]]+)\]`)

// Placeholders returns distinct bracketed tokens across texts in order of
// first appearance.
func Placeholders(texts ...string) []string {
	var out []string
	for _, text := range texts {
		for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
			token := strings.TrimSpace(m[1])
			if token != "" && !slices.Contains(out, token) {
				out = append(out, token)
			}
		}
	}
	return out
}

// ParseTags splits a comma separated list, trimming and dropping empties.
func ParseTags(raw string) []string {
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// LastUsedLabel renders the relative "last used" text, empty when unused.
func LastUsedLabel(t domain.Template, now time.Time) string {
	if t.LastUsedAt == nil {
		return ""
	}
	return timeago.English.FormatReference(*t.LastUsedAt, now)
}

func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if slug == "" {
		return "template"
	}
	return slug
}
