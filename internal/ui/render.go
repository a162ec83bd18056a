package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ngmaloney/wind-wave/internal/models"
)

// maxErrorWidth truncates error text in table cells
const maxErrorWidth = 60

// RenderSummary renders the outcome of a run as a table, one row per variant
func RenderSummary(run *models.RunRecord) string {
	rows := make([][]string, 0, len(run.Variants))
	for _, v := range run.Variants {
		rows = append(rows, []string{
			string(v.Variant),
			v.Status,
			dash(v.Stage),
			fmt.Sprintf("%d", v.Rows),
			formatUploads(v.Uploads),
			dash(truncate(v.Error, maxErrorWidth)),
		})
	}

	t := newTable("VARIANT", "STATUS", "STAGE", "ROWS", "UPLOADS", "ERROR").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 1 {
				return statusStyle(rows[row][1])
			}
			if col == 4 && strings.Contains(rows[row][4], "!") {
				return warningStyle
			}
			return cellStyle
		})

	title := titleStyle.Render(fmt.Sprintf("Run %s  input %s  output %s  product %s",
		shortID(run.ID), run.InputDate, run.OutputDate, run.Product))
	footer := mutedStyle.Render(fmt.Sprintf("finished in %s", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond)))

	return lipgloss.JoinVertical(lipgloss.Left, title, t.String(), footer)
}

// RenderHistory renders recent variant runs as a table
func RenderHistory(entries []models.HistoryEntry) string {
	if len(entries) == 0 {
		return mutedStyle.Render("No runs recorded yet")
	}

	rows := historyRows(entries)
	t := newTable(historyHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 4 {
				return statusStyle(rows[row][4])
			}
			return cellStyle
		})
	return t.String()
}

var historyHeaders = []string{"STARTED", "RUN", "OUTPUT", "VARIANT", "STATUS", "STAGE", "ROWS", "UPLOADS"}

func historyRows(entries []models.HistoryEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		uploads := fmt.Sprintf("%d", e.Uploaded)
		if e.Failed > 0 {
			uploads = fmt.Sprintf("%d (%d failed)", e.Uploaded, e.Failed)
		}
		rows = append(rows, []string{
			e.StartedAt.Local().Format("2006-01-02 15:04"),
			shortID(e.RunID),
			e.OutputDate,
			string(e.Variant),
			e.Status,
			dash(e.Stage),
			fmt.Sprintf("%d", e.Rows),
			uploads,
		})
	}
	return rows
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...)
}

func statusStyle(status string) lipgloss.Style {
	if status == models.StatusOK {
		return successStyle
	}
	return failureStyle
}

// formatUploads summarizes uploads per endpoint, e.g. "primary 6/6".
// Endpoints with failures are flagged with "!".
func formatUploads(uploads []models.UploadRecord) string {
	if len(uploads) == 0 {
		return "-"
	}
	total := map[string]int{}
	ok := map[string]int{}
	for _, u := range uploads {
		total[u.Endpoint]++
		if u.Error == "" {
			ok[u.Endpoint]++
		}
	}
	names := make([]string, 0, len(total))
	for name := range total {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		part := fmt.Sprintf("%s %d/%d", name, ok[name], total[name])
		if ok[name] < total[name] {
			part += "!"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
