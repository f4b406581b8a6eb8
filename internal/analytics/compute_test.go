package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiodesk/studio-desk/internal/domain"
)

// Tuesday.
var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func ago(d time.Duration) time.Time { return now.Add(-d) }

func ptr[T any](v T) *T { return &v }

func fixture() []domain.Ticket {
	frontDesk := &domain.User{ID: "u1", Team: "Front Desk"}
	tech := &domain.User{ID: "u2", Team: "Tech"}
	booking := &domain.Category{ID: "c1", Name: "Booking & Technology"}
	safety := &domain.Category{ID: "c2", Name: "Health & Safety"}
	kwality := &domain.Studio{ID: "s1", Name: "Kwality House"}
	supreme := &domain.Studio{ID: "s2", Name: "Supreme HQ"}

	return []domain.Ticket{
		{
			ID: "1", Status: domain.TicketStatusResolved, Priority: domain.TicketPriorityHigh,
			CategoryID: "c1", Category: booking, StudioID: "s1", Studio: kwality, Assignee: tech,
			CreatedAt: ago(50 * time.Hour), ResolvedAt: ptr(ago(49*time.Hour + 30*time.Minute)),
			SLADueAt: ptr(ago(46 * time.Hour)),
		},
		{
			ID: "2", Status: domain.TicketStatusClosed, Priority: domain.TicketPriorityMedium,
			CategoryID: "c1", Category: booking, StudioID: "s2", Studio: supreme, Assignee: frontDesk,
			CreatedAt: ago(30 * time.Hour), ResolvedAt: ptr(ago(25 * time.Hour)),
			SLADueAt: ptr(ago(28 * time.Hour)), SLABreached: true,
		},
		{
			ID: "3", Status: domain.TicketStatusInProgress, Priority: domain.TicketPriorityCritical,
			CategoryID: "c2", Category: safety, StudioID: "s1", Studio: kwality, Assignee: tech,
			CreatedAt: ago(3 * time.Hour), SLADueAt: ptr(ago(2 * time.Hour)),
		},
		{
			ID: "4", Status: domain.TicketStatusNew, Priority: domain.TicketPriorityLow,
			CategoryID: "c1", Category: booking, StudioID: "s2", Studio: supreme,
			CreatedAt: ago(time.Hour),
		},
		{
			ID: "old", Status: domain.TicketStatusNew, Priority: domain.TicketPriorityCritical,
			CategoryID: "c2", Category: safety, StudioID: "s1", Studio: kwality,
			CreatedAt: ago(40 * 24 * time.Hour),
		},
	}
}

func TestComputeOverview(t *testing.T) {
	snap := Compute(fixture(), Window{Range: Range7Days}, now)

	assert.Equal(t, Overview{
		Total:              4,
		Open:               2,
		Resolved:           2,
		AvgResolutionHours: 2.8,
		SLATracked:         3,
		SLACompliance:      66.7,
		CriticalOpen:       1,
	}, snap.Overview)
	assert.Equal(t, GranularityDay, snap.Granularity)
}

func TestComputeStudioScope(t *testing.T) {
	snap := Compute(fixture(), Window{Range: Range90Days, StudioID: domain.Some("s1")}, now)

	assert.Equal(t, 3, snap.Overview.Total)
	assert.Equal(t, "s1", snap.StudioID)
	require.Len(t, snap.ByStudio, 1)
	assert.Equal(t, StudioLoad{StudioID: "s1", Name: "Kwality House", Open: 2, Resolved: 1}, snap.ByStudio[0])
}

func TestComputeBreakdowns(t *testing.T) {
	snap := Compute(fixture(), Window{Range: Range30Days}, now)

	assert.Equal(t, []CategoryShare{
		{CategoryID: "c1", Name: "Booking & Technology", Count: 3, Percentage: 75},
		{CategoryID: "c2", Name: "Health & Safety", Count: 1, Percentage: 25},
	}, snap.ByCategory)

	assert.Equal(t, []PriorityCount{
		{Priority: domain.TicketPriorityCritical, Count: 1},
		{Priority: domain.TicketPriorityHigh, Count: 1},
		{Priority: domain.TicketPriorityMedium, Count: 1},
		{Priority: domain.TicketPriorityLow, Count: 1},
	}, snap.ByPriority)

	assert.Equal(t, []TeamPerformance{
		{Team: "Front Desk", Handled: 1, Resolved: 1, AvgResolutionHours: 5, SLACompliance: 0},
		{Team: "Tech", Handled: 2, Resolved: 1, AvgResolutionHours: 0.5, SLACompliance: 100},
	}, snap.TeamPerformance)

	counts := map[string]int{}
	for _, b := range snap.ResolutionTimes {
		counts[b.Label] = b.Count
	}
	assert.Equal(t, map[string]int{"<1h": 1, "1-4h": 0, "4-8h": 1, "8-24h": 0, "24-48h": 0, ">48h": 0}, counts)
}

func TestTrendBuckets(t *testing.T) {
	daily := Compute(fixture(), Window{Range: Range7Days}, now)
	require.Len(t, daily.Trends, 8)
	last := daily.Trends[len(daily.Trends)-1]
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), last.Start)
	assert.Equal(t, 2, last.Created)

	weekly := Compute(fixture(), Window{Range: Range30Days}, now)
	for _, p := range weekly.Trends {
		assert.Equal(t, time.Monday, p.Start.Weekday())
	}
	total := 0
	for _, p := range weekly.Trends {
		total += p.Created
	}
	assert.Equal(t, 4, total)

	monthly := Compute(fixture(), Window{Range: Range12Month}, now)
	assert.Len(t, monthly.Trends, 13)
	assert.Equal(t, "Mar 2026", monthly.Trends[12].Label)
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("")
	require.NoError(t, err)
	assert.Equal(t, Range30Days, r)

	r, err = ParseRange("12M")
	require.NoError(t, err)
	assert.Equal(t, Range12Month, r)

	_, err = ParseRange("1y")
	assert.Error(t, err)
}

func TestWindowKey(t *testing.T) {
	assert.Equal(t, "7d:all", Window{Range: Range7Days}.Key())
	assert.Equal(t, "90d:s1", Window{Range: Range90Days, StudioID: domain.Some("s1")}.Key())
}

func TestMemoryCacheTTL(t *testing.T) {
	cache := NewMemoryCache()
	clock := now
	cache.now = func() time.Time { return clock }
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "7d:all", Snapshot{Range: Range7Days}, time.Minute))
	snap, ok, err := cache.Get(ctx, "7d:all")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Range7Days, snap.Range)

	clock = clock.Add(2 * time.Minute)
	_, ok, err = cache.Get(ctx, "7d:all")
	require.NoError(t, err)
	assert.False(t, ok)
}
