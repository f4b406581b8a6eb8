package templates

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/studiodesk/studio-desk/internal/domain"
)

//go:embed seed.yaml
var defaultSeedYAML []byte

type seedFile struct {
	Templates []seedTemplate `yaml:"templates"`
}

type seedTemplate struct {
	ID                   string   `yaml:"id"`
	Name                 string   `yaml:"name"`
	Description          string   `yaml:"description"`
	Category             string   `yaml:"category"`
	Subcategory          string   `yaml:"subcategory"`
	Priority             string   `yaml:"priority"`
	SLAHours             int      `yaml:"sla_hours"`
	SuggestedTitle       string   `yaml:"suggested_title"`
	SuggestedDescription string   `yaml:"suggested_description"`
	Tags                 []string `yaml:"tags"`
	QuickTips            []string `yaml:"quick_tips"`
	RequiredFields       []string `yaml:"required_fields"`
	CommonFollowUps      []string `yaml:"common_follow_ups"`
	UsageCount           int      `yaml:"usage_count"`
	LastUsedAgo          string   `yaml:"last_used_ago"`
}

// Seed is the validated built-in catalog. Timestamps are relative so each
// new session sees plausible "last used" values.
type Seed struct {
	entries []seedEntry
}

type seedEntry struct {
	template    domain.Template
	lastUsedAgo time.Duration
	hasLastUsed bool
}

// DefaultSeed parses the embedded built-in templates.
func DefaultSeed() (*Seed, error) {
	return ParseSeed(defaultSeedYAML)
}

// LoadSeedFile parses a seed file from disk, falling back to the embedded
// catalog when path is empty.
func LoadSeedFile(path string) (*Seed, error) {
	if path == "" {
		return DefaultSeed()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template seed: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed validates a YAML seed document.
func ParseSeed(data []byte) (*Seed, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode template seed: %w", err)
	}
	if len(file.Templates) == 0 {
		return nil, fmt.Errorf("template seed is empty")
	}

	seen := make(map[string]struct{}, len(file.Templates))
	seed := &Seed{entries: make([]seedEntry, 0, len(file.Templates))}
	for i, raw := range file.Templates {
		id := strings.TrimSpace(raw.ID)
		if id == "" {
			return nil, fmt.Errorf("template seed entry %d: missing id", i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("template seed entry %d: duplicate id %q", i, id)
		}
		seen[id] = struct{}{}

		if strings.TrimSpace(raw.Name) == "" {
			return nil, fmt.Errorf("template %q: missing name", id)
		}
		priority, err := domain.ParseTicketPriority(raw.Priority)
		if err != nil {
			return nil, fmt.Errorf("template %q: %w", id, err)
		}

		entry := seedEntry{template: domain.Template{
			ID:                   id,
			Name:                 raw.Name,
			Description:          raw.Description,
			Category:             raw.Category,
			Subcategory:          raw.Subcategory,
			Priority:             priority,
			SuggestedTitle:       raw.SuggestedTitle,
			SuggestedDescription: raw.SuggestedDescription,
			Tags:                 raw.Tags,
			SLAHours:             raw.SLAHours,
			QuickTips:            raw.QuickTips,
			RequiredFields:       raw.RequiredFields,
			CommonFollowUps:      raw.CommonFollowUps,
			UsageCount:           raw.UsageCount,
		}}
		if raw.LastUsedAgo != "" {
			ago, err := time.ParseDuration(raw.LastUsedAgo)
			if err != nil {
				return nil, fmt.Errorf("template %q: last_used_ago: %w", id, err)
			}
			entry.lastUsedAgo = ago
			entry.hasLastUsed = true
		}
		seed.entries = append(seed.entries, entry)
	}
	return seed, nil
}

// Templates materializes the seed at instant now.
func (s *Seed) Templates(now time.Time) []domain.Template {
	out := make([]domain.Template, 0, len(s.entries))
	for _, e := range s.entries {
		t := e.template.Clone()
		t.CreatedAt = now
		if e.hasLastUsed {
			last := now.Add(-e.lastUsedAgo)
			t.LastUsedAt = &last
		}
		out = append(out, t)
	}
	return out
}

// Len returns the number of built-in templates.
func (s *Seed) Len() int { return len(s.entries) }
