// Package export renders the ticket list as a spreadsheet download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/studiodesk/studio-desk/internal/domain"
)

// Format is a supported download format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

const sheetName = "Tickets"

const timeLayout = "2006-01-02 15:04"

// Header is the column row shared by every format.
var Header = []string{
	"Ticket", "Title", "Status", "Priority", "Category", "Studio",
	"Assignee", "Source", "Created", "Updated", "SLA Due", "SLA State",
}

// ParseFormat validates a requested format. Empty input selects xlsx.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Filename builds the attachment name for an export taken at now.
func (f Format) Filename(now time.Time) string {
	return fmt.Sprintf("tickets-%s.%s", now.Format("20060102-150405"), f)
}

// Rows flattens tickets into display rows. Times are rendered in loc.
func Rows(tickets []domain.Ticket, now time.Time, loc *time.Location) [][]string {
	if loc == nil {
		loc = time.UTC
	}
	out := make([][]string, 0, len(tickets))
	for i := range tickets {
		t := &tickets[i]
		slaDue := ""
		if t.SLADueAt != nil {
			slaDue = t.SLADueAt.In(loc).Format(timeLayout)
		}
		out = append(out, []string{
			t.TicketNumber,
			t.Title,
			string(t.Status),
			string(t.Priority),
			categoryName(t),
			studioName(t),
			assigneeName(t),
			t.Source,
			t.CreatedAt.In(loc).Format(timeLayout),
			t.UpdatedAt.In(loc).Format(timeLayout),
			slaDue,
			string(t.SLAState(now)),
		})
	}
	return out
}

// Write renders tickets to w in the requested format.
func Write(w io.Writer, format Format, tickets []domain.Ticket, now time.Time, loc *time.Location) error {
	rows := Rows(tickets, now, loc)
	switch format {
	case FormatCSV:
		return writeCSV(w, rows)
	case FormatXLSX:
		return writeXLSX(w, rows)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

func writeCSV(w io.Writer, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return writer.Error()
}

func writeXLSX(w io.Writer, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	if err := setRow(f, 1, Header); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, i+2, row); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(Header))
	if err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1F2937"}},
	})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", bold); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "A", lastCol, 18); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "B", "B", 42); err != nil {
		return err
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}
	if len(rows) > 0 {
		ref := fmt.Sprintf("A1:%s%d", lastCol, len(rows)+1)
		if err := f.AutoFilter(sheetName, ref, nil); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func setRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheetName, cell, &values)
}

func categoryName(t *domain.Ticket) string {
	if t.Category != nil {
		return t.Category.Name
	}
	return t.CategoryID
}

func studioName(t *domain.Ticket) string {
	if t.Studio != nil {
		return t.Studio.Name
	}
	return t.StudioID
}

func assigneeName(t *domain.Ticket) string {
	switch {
	case t.Assignee != nil:
		return t.Assignee.Name
	case t.AssigneeID != nil:
		return *t.AssigneeID
	default:
		return "Unassigned"
	}
}
