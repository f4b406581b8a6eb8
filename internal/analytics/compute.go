package analytics

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/studiodesk/studio-desk/internal/domain"
)

// Snapshot is one computed analytics dashboard.
type Snapshot struct {
	Range           Range             `json:"range"`
	StudioID        string            `json:"studioId,omitempty"`
	Granularity     Granularity       `json:"granularity"`
	From            time.Time         `json:"from"`
	GeneratedAt     time.Time         `json:"generatedAt"`
	Overview        Overview          `json:"overview"`
	Trends          []TrendPoint      `json:"trends"`
	ByCategory      []CategoryShare   `json:"byCategory"`
	ByStudio        []StudioLoad      `json:"byStudio"`
	ByPriority      []PriorityCount   `json:"byPriority"`
	TeamPerformance []TeamPerformance `json:"teamPerformance"`
	ResolutionTimes []HistogramBucket `json:"resolutionTimes"`
}

type Overview struct {
	Total              int     `json:"total"`
	Open               int     `json:"open"`
	Resolved           int     `json:"resolved"`
	AvgResolutionHours float64 `json:"avgResolutionHours"`
	SLATracked         int     `json:"slaTracked"`
	SLACompliance      float64 `json:"slaCompliance"`
	CriticalOpen       int     `json:"criticalOpen"`
}

type TrendPoint struct {
	Label    string    `json:"label"`
	Start    time.Time `json:"start"`
	Created  int       `json:"created"`
	Resolved int       `json:"resolved"`
}

type CategoryShare struct {
	CategoryID string  `json:"categoryId"`
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type StudioLoad struct {
	StudioID string `json:"studioId"`
	Name     string `json:"name"`
	Open     int    `json:"open"`
	Resolved int    `json:"resolved"`
}

type PriorityCount struct {
	Priority domain.TicketPriority `json:"priority"`
	Count    int                   `json:"count"`
}

type TeamPerformance struct {
	Team               string  `json:"team"`
	Handled            int     `json:"handled"`
	Resolved           int     `json:"resolved"`
	AvgResolutionHours float64 `json:"avgResolutionHours"`
	SLACompliance      float64 `json:"slaCompliance"`
}

type HistogramBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type resolutionBound struct {
	label string
	upper time.Duration
}

var resolutionBounds = []resolutionBound{
	{"<1h", time.Hour},
	{"1-4h", 4 * time.Hour},
	{"4-8h", 8 * time.Hour},
	{"8-24h", 24 * time.Hour},
	{"24-48h", 48 * time.Hour},
	{">48h", 0},
}

// Compute aggregates tickets created inside w at instant now. Tickets outside
// the window or studio are ignored.
func Compute(tickets []domain.Ticket, w Window, now time.Time) Snapshot {
	if w.Range == "" {
		w.Range = DefaultRange
	}
	from := w.Range.Start(now)
	snap := Snapshot{
		Range:       w.Range,
		Granularity: w.Range.Granularity(),
		From:        from,
		GeneratedAt: now,
	}
	if id, ok := w.StudioID.Get(); ok {
		snap.StudioID = id
	}

	inWindow := make([]*domain.Ticket, 0, len(tickets))
	for i := range tickets {
		t := &tickets[i]
		if t.CreatedAt.Before(from) || t.CreatedAt.After(now) || !w.StudioID.Allows(t.StudioID) {
			continue
		}
		inWindow = append(inWindow, t)
	}

	snap.Overview = overview(inWindow)
	snap.Trends = trends(inWindow, w, from, now)
	snap.ByCategory = byCategory(inWindow)
	snap.ByStudio = byStudio(inWindow)
	snap.ByPriority = byPriority(inWindow)
	snap.TeamPerformance = teamPerformance(inWindow)
	snap.ResolutionTimes = resolutionHistogram(inWindow)
	return snap
}

type resolutionAcc struct {
	total time.Duration
	count int
}

func (a *resolutionAcc) add(t *domain.Ticket) {
	if d, ok := resolutionTime(t); ok {
		a.total += d
		a.count++
	}
}

func (a resolutionAcc) hours() float64 {
	if a.count == 0 {
		return 0
	}
	return round1(a.total.Hours() / float64(a.count))
}

type slaAcc struct {
	tracked   int
	compliant int
}

func (a *slaAcc) add(t *domain.Ticket) {
	if t.SLADueAt == nil {
		return
	}
	a.tracked++
	if !t.SLABreached {
		a.compliant++
	}
}

func (a slaAcc) percent() float64 {
	return percent(a.compliant, a.tracked)
}

func overview(tickets []*domain.Ticket) Overview {
	var ov Overview
	var res resolutionAcc
	var sla slaAcc
	for _, t := range tickets {
		ov.Total++
		if t.Status.IsDone() {
			ov.Resolved++
		} else {
			ov.Open++
			if t.Priority == domain.TicketPriorityCritical {
				ov.CriticalOpen++
			}
		}
		res.add(t)
		sla.add(t)
	}
	ov.AvgResolutionHours = res.hours()
	ov.SLATracked = sla.tracked
	ov.SLACompliance = sla.percent()
	return ov
}

func trends(tickets []*domain.Ticket, w Window, from, now time.Time) []TrendPoint {
	loc := w.location()
	gran := w.Range.Granularity()

	var points []TrendPoint
	for start := bucketStart(from.In(loc), gran); !start.After(now); start = nextBucket(start, gran) {
		points = append(points, TrendPoint{Label: bucketLabel(start, gran), Start: start})
	}
	for _, t := range tickets {
		if i := bucketIndex(points, t.CreatedAt); i >= 0 {
			points[i].Created++
		}
		if t.ResolvedAt != nil && !t.ResolvedAt.Before(from) && !t.ResolvedAt.After(now) {
			if i := bucketIndex(points, *t.ResolvedAt); i >= 0 {
				points[i].Resolved++
			}
		}
	}
	return points
}

// bucketIndex finds the last bucket starting at or before ts.
func bucketIndex(points []TrendPoint, ts time.Time) int {
	i, found := slices.BinarySearchFunc(points, ts, func(p TrendPoint, target time.Time) int {
		return p.Start.Compare(target)
	})
	if found {
		return i
	}
	return i - 1
}

func bucketStart(t time.Time, g Granularity) time.Time {
	y, m, d := t.Date()
	switch g {
	case GranularityMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	case GranularityWeek:
		day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	}
}

func nextBucket(t time.Time, g Granularity) time.Time {
	switch g {
	case GranularityMonth:
		return t.AddDate(0, 1, 0)
	case GranularityWeek:
		return t.AddDate(0, 0, 7)
	default:
		return t.AddDate(0, 0, 1)
	}
}

func bucketLabel(t time.Time, g Granularity) string {
	switch g {
	case GranularityMonth:
		return t.Format("Jan 2006")
	case GranularityWeek:
		return "Week of " + t.Format("Jan 2")
	default:
		return t.Format("Mon Jan 2")
	}
}

func byCategory(tickets []*domain.Ticket) []CategoryShare {
	index := map[string]int{}
	var out []CategoryShare
	for _, t := range tickets {
		i, ok := index[t.CategoryID]
		if !ok {
			name := t.CategoryID
			if t.Category != nil && t.Category.Name != "" {
				name = t.Category.Name
			}
			i = len(out)
			index[t.CategoryID] = i
			out = append(out, CategoryShare{CategoryID: t.CategoryID, Name: name})
		}
		out[i].Count++
	}
	for i := range out {
		out[i].Percentage = percent(out[i].Count, len(tickets))
	}
	slices.SortStableFunc(out, func(a, b CategoryShare) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

func byStudio(tickets []*domain.Ticket) []StudioLoad {
	index := map[string]int{}
	var out []StudioLoad
	for _, t := range tickets {
		i, ok := index[t.StudioID]
		if !ok {
			name := t.StudioID
			if t.Studio != nil && t.Studio.Name != "" {
				name = t.Studio.Name
			}
			i = len(out)
			index[t.StudioID] = i
			out = append(out, StudioLoad{StudioID: t.StudioID, Name: name})
		}
		if t.Status.IsDone() {
			out[i].Resolved++
		} else {
			out[i].Open++
		}
	}
	slices.SortFunc(out, func(a, b StudioLoad) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

func byPriority(tickets []*domain.Ticket) []PriorityCount {
	out := make([]PriorityCount, len(domain.TicketPriorities))
	for i, p := range domain.TicketPriorities {
		out[i].Priority = p
	}
	for _, t := range tickets {
		for i := range out {
			if out[i].Priority == t.Priority {
				out[i].Count++
			}
		}
	}
	return out
}

func teamPerformance(tickets []*domain.Ticket) []TeamPerformance {
	type acc struct {
		handled  int
		resolved int
		res      resolutionAcc
		sla      slaAcc
	}
	teams := map[string]*acc{}
	for _, t := range tickets {
		if t.Assignee == nil || t.Assignee.Team == "" {
			continue
		}
		a, ok := teams[t.Assignee.Team]
		if !ok {
			a = &acc{}
			teams[t.Assignee.Team] = a
		}
		a.handled++
		if t.Status.IsDone() {
			a.resolved++
		}
		a.res.add(t)
		a.sla.add(t)
	}
	out := make([]TeamPerformance, 0, len(teams))
	for team, a := range teams {
		out = append(out, TeamPerformance{
			Team:               team,
			Handled:            a.handled,
			Resolved:           a.resolved,
			AvgResolutionHours: a.res.hours(),
			SLACompliance:      a.sla.percent(),
		})
	}
	slices.SortFunc(out, func(a, b TeamPerformance) int { return cmp.Compare(a.Team, b.Team) })
	return out
}

func resolutionHistogram(tickets []*domain.Ticket) []HistogramBucket {
	out := make([]HistogramBucket, len(resolutionBounds))
	for i, b := range resolutionBounds {
		out[i].Label = b.label
	}
	for _, t := range tickets {
		d, ok := resolutionTime(t)
		if !ok {
			continue
		}
		for i, b := range resolutionBounds {
			if b.upper == 0 || d < b.upper {
				out[i].Count++
				break
			}
		}
	}
	return out
}

func resolutionTime(t *domain.Ticket) (time.Duration, bool) {
	if t.ResolvedAt == nil || t.ResolvedAt.Before(t.CreatedAt) {
		return 0, false
	}
	return t.ResolvedAt.Sub(t.CreatedAt), true
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round1(float64(part) * 100 / float64(whole))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
