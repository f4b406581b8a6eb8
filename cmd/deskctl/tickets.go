package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/xeonx/timeago"

	"github.com/studiodesk/studio-desk/internal/api/dto"
	"github.com/studiodesk/studio-desk/internal/export"
	"github.com/studiodesk/studio-desk/internal/listview"
	"github.com/studiodesk/studio-desk/internal/ticketquery"
)

type ticketFlags struct {
	search    string
	status    string
	priority  string
	category  string
	studio    string
	source    string
	assignee  string
	dateRange string
	sla       string
	sort      string
	limit     int

	watch  time.Duration
	export string
	output string
}

// state validates the flags the same way the API validates query params.
func (f ticketFlags) state() (ticketquery.State, error) {
	params := map[string]string{
		"search":      f.search,
		"status":      f.status,
		"priority":    f.priority,
		"category_id": f.category,
		"studio_id":   f.studio,
		"source":      f.source,
		"assignee":    f.assignee,
		"date_range":  f.dateRange,
		"sla":         f.sla,
		"sort":        f.sort,
	}
	if f.limit > 0 {
		params["limit"] = strconv.Itoa(f.limit)
	}
	return ticketquery.ParseState(func(key string) string { return params[key] })
}

func newTicketsCmd(c *cli) *cobra.Command {
	var f ticketFlags
	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "List tickets with filters, sorting and a stats strip",
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := f.state()
			if err != nil {
				return err
			}
			if f.export != "" {
				return c.exportTickets(cmd.Context(), state, f)
			}
			return c.listTickets(cmd.Context(), state, f.watch)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.search, "search", "", "match title, number, customer name or email")
	flags.StringVar(&f.status, "status", "", "ticket status, e.g. new, in_progress, resolved, or all")
	flags.StringVar(&f.priority, "priority", "", "critical, high, medium, low or all")
	flags.StringVar(&f.category, "category", "", "category id")
	flags.StringVar(&f.studio, "studio", "", "studio id")
	flags.StringVar(&f.source, "source", "", "ticket source")
	flags.StringVar(&f.assignee, "assignee", "", "user id or unassigned")
	flags.StringVar(&f.dateRange, "date-range", "", "all, today, 7d, 30d or 90d")
	flags.StringVar(&f.sla, "sla", "", "all, breached or at_risk")
	flags.StringVar(&f.sort, "sort", "", "newest, oldest, priority or updated")
	flags.IntVar(&f.limit, "limit", 0, "row cap")
	flags.DurationVar(&f.watch, "watch", 0, "refresh interval, 0 lists once")
	flags.StringVar(&f.export, "export", "", "download as xlsx or csv instead of listing")
	flags.StringVarP(&f.output, "output", "o", "", "export file, defaults to the server's file name")
	return cmd
}

func (c *cli) listTickets(ctx context.Context, state ticketquery.State, watch time.Duration) error {
	view := listview.New(func(ctx context.Context) (*dto.TicketListResponse, error) {
		return c.client.ListTickets(ctx, state)
	}, func(p *dto.TicketListResponse) bool {
		return p == nil || len(p.Tickets) == 0
	})

	if watch <= 0 {
		st, err := view.Refresh(ctx)
		c.renderTickets(st)
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	ticker := time.NewTicker(watch)
	defer ticker.Stop()
	for {
		st, err := view.Refresh(ctx)
		if errors.Is(err, listview.ErrSuperseded) {
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
		c.renderTickets(st)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (c *cli) renderTickets(st listview.State[*dto.TicketListResponse]) {
	switch st.Status {
	case listview.StatusFailed:
		fmt.Fprintln(c.out, renderError(st.Err))
		return
	case listview.StatusEmpty:
		fmt.Fprintln(c.out, mutedStyle.Render("No tickets match the current filters."))
		return
	case listview.StatusLoaded:
	default:
		return
	}

	page := st.Page
	s := page.Stats
	fmt.Fprintln(c.out, titleStyle.Render(fmt.Sprintf("Tickets (%d of %d loaded)", page.Meta.Count, page.Meta.Limit)))
	fmt.Fprintln(c.out, strings.Join([]string{
		stat("total", s.Total), stat("new", s.New), stat("in progress", s.InProgress),
		stat("resolved", s.Resolved), stat("overdue", s.Overdue), stat("critical", s.Critical),
	}, ""))
	if page.Meta.ActiveFilters > 0 {
		fmt.Fprintln(c.out, mutedStyle.Render(fmt.Sprintf("%d filters active", page.Meta.ActiveFilters)))
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NUMBER\tPRIORITY\tSTATUS\tTITLE\tSTUDIO\tASSIGNEE\tSLA\tUPDATED")
	for _, t := range page.Tickets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.TicketNumber, t.Priority, t.Status, truncate(t.Title, 48),
			refName(t.Studio, "-"), refName(t.Assignee, "Unassigned"), t.SLAState,
			timeago.English.FormatReference(t.UpdatedAt, page.Meta.AsOf))
	}
	_ = w.Flush()
	if page.Meta.Truncated {
		fmt.Fprintln(c.out, mutedStyle.Render("More tickets match; narrow the filters or raise --limit."))
	}
}

func (c *cli) exportTickets(ctx context.Context, state ticketquery.State, f ticketFlags) error {
	format, err := export.ParseFormat(f.export)
	if err != nil {
		return err
	}
	out, err := c.client.ExportTickets(ctx, state, format)
	if err != nil {
		return err
	}
	path := f.output
	if path == "" {
		path = out.Filename
	}
	if path == "" {
		path = format.Filename(time.Now())
	}
	if err := os.WriteFile(path, out.Body, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(c.out, "Wrote %s (%d bytes)\n", path, len(out.Body))
	if out.Truncated {
		fmt.Fprintln(c.out, mutedStyle.Render("Export was capped at the row limit."))
	}
	return nil
}

func refName(ref *dto.RefResponse, fallback string) string {
	if ref == nil || ref.Name == "" {
		return fallback
	}
	return ref.Name
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
