package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/studiodesk/studio-desk/internal/analytics"
)

func newAnalyticsCmd(c *cli) *cobra.Command {
	var rangeFlag, studio string
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show the analytics snapshot for a date range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := analytics.ParseRange(rangeFlag)
			if err != nil {
				return err
			}
			snap, err := c.client.Analytics(cmd.Context(), r, studio)
			if err != nil {
				return err
			}
			c.renderSnapshot(snap)
			return nil
		},
	}
	cmd.Flags().StringVar(&rangeFlag, "range", string(analytics.DefaultRange), "7d, 30d, 90d or 12m")
	cmd.Flags().StringVar(&studio, "studio", "", "studio id, all studios when empty")
	return cmd
}

func (c *cli) renderSnapshot(snap *analytics.Snapshot) {
	scope := "all studios"
	if snap.StudioID != "" {
		scope = snap.StudioID
	}
	fmt.Fprintln(c.out, titleStyle.Render(fmt.Sprintf("Analytics %s, %s", snap.Range, scope)))

	o := snap.Overview
	fmt.Fprintln(c.out, strings.Join([]string{
		stat("total", o.Total), stat("open", o.Open), stat("resolved", o.Resolved),
		stat("critical open", o.CriticalOpen), stat("sla tracked", o.SLATracked),
	}, ""))
	fmt.Fprintf(c.out, "Avg resolution %.1fh, SLA compliance %.1f%%\n", o.AvgResolutionHours, o.SLACompliance)

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	section := func(title string) {
		_ = w.Flush()
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, headerStyle.Render(title))
	}

	section("Trend by " + string(snap.Granularity))
	for _, p := range snap.Trends {
		fmt.Fprintf(w, "%s\t%d created\t%d resolved\n", p.Label, p.Created, p.Resolved)
	}
	section("Categories")
	for _, s := range snap.ByCategory {
		fmt.Fprintf(w, "%s\t%d\t%.1f%%\n", s.Name, s.Count, s.Percentage)
	}
	section("Studios")
	for _, s := range snap.ByStudio {
		fmt.Fprintf(w, "%s\t%d open\t%d resolved\n", s.Name, s.Open, s.Resolved)
	}
	section("Priorities")
	for _, p := range snap.ByPriority {
		fmt.Fprintf(w, "%s\t%d\n", p.Priority, p.Count)
	}
	section("Teams")
	for _, t := range snap.TeamPerformance {
		fmt.Fprintf(w, "%s\t%d handled\t%d resolved\t%.1fh avg\t%.1f%% SLA\n",
			t.Team, t.Handled, t.Resolved, t.AvgResolutionHours, t.SLACompliance)
	}
	section("Resolution times")
	for _, b := range snap.ResolutionTimes {
		fmt.Fprintf(w, "%s\t%d\n", b.Label, b.Count)
	}
	_ = w.Flush()
}
