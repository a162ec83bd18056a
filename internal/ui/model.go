package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ngmaloney/wind-wave/internal/models"
)

// AppState represents the current state of the history browser
type AppState int

const (
	StateLoading AppState = iota // Reading the ledger
	StateDisplay                 // Showing the run table
	StateDetail                  // Showing one variant run
	StateError                   // Error state
)

// Loader reads recent variant runs
type Loader func() ([]models.HistoryEntry, error)

// Model is the interactive history browser
type Model struct {
	state  AppState
	width  int
	height int
	err    error

	load    Loader
	entries []models.HistoryEntry
	table   table.Model
}

// NewModel creates a history browser backed by load
func NewModel(load Loader) Model {
	t := table.New(
		table.WithColumns(historyColumns()),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorBorder).
		BorderBottom(true).
		Bold(true).
		Foreground(colorPrimary)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(colorPrimary).
		Bold(false)
	t.SetStyles(s)

	return Model{
		state: StateLoading,
		load:  load,
		table: t,
	}
}

func historyColumns() []table.Column {
	widths := []int{16, 8, 8, 7, 7, 9, 6, 14}
	cols := make([]table.Column, len(historyHeaders))
	for i, h := range historyHeaders {
		cols[i] = table.Column{Title: h, Width: widths[i]}
	}
	return cols
}

// Init starts reading the ledger
func (m Model) Init() tea.Cmd {
	return loadHistory(m.load)
}

func loadHistory(load Loader) tea.Cmd {
	return func() tea.Msg {
		entries, err := load()
		if err != nil {
			return errMsg{err: err}
		}
		return historyLoadedMsg{entries: entries}
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if h := msg.Height - 8; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case errMsg:
		m.err = msg.err
		m.state = StateError
		return m, nil

	case historyLoadedMsg:
		m.entries = msg.entries
		rows := make([]table.Row, 0, len(msg.entries))
		for _, r := range historyRows(msg.entries) {
			rows = append(rows, table.Row(r))
		}
		m.table.SetRows(rows)
		m.state = StateDisplay
		return m, nil

	case tea.KeyMsg:
		// Global keys
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}

		switch m.state {
		case StateDisplay:
			switch msg.String() {
			case "enter":
				if len(m.entries) > 0 {
					m.state = StateDetail
				}
				return m, nil
			case "r":
				m.state = StateLoading
				return m, loadHistory(m.load)
			}
		case StateDetail:
			if msg.String() == "esc" || msg.String() == "enter" {
				m.state = StateDisplay
			}
			return m, nil
		case StateError:
			// Any key retries
			m.err = nil
			m.state = StateLoading
			return m, loadHistory(m.load)
		}
	}

	var cmd tea.Cmd
	if m.state == StateDisplay {
		m.table, cmd = m.table.Update(msg)
	}
	return m, cmd
}

// Selected returns the highlighted entry
func (m Model) Selected() (models.HistoryEntry, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.entries) {
		return models.HistoryEntry{}, false
	}
	return m.entries[i], true
}

// View renders the UI
func (m Model) View() string {
	switch m.state {
	case StateLoading:
		return "Loading run history..."
	case StateError:
		return m.viewError()
	case StateDetail:
		return m.viewDetail()
	}
	return m.viewTable()
}

func (m Model) viewTable() string {
	title := titleStyle.Render("Wind/Wave Run History")
	if len(m.entries) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, "", mutedStyle.Render("No runs recorded yet"), helpStyle.Render("R: Reload • Q: Quit"))
	}
	subtitle := mutedStyle.Render(fmt.Sprintf("%d variant runs", len(m.entries)))
	help := helpStyle.Render("↑/↓: Navigate • Enter: Details • R: Reload • Q: Quit")
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "", m.table.View(), help)
}

func (m Model) viewDetail() string {
	e, ok := m.Selected()
	if !ok {
		return m.viewTable()
	}

	field := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-9s", label)) + " " + value
	}
	status := statusStyle(e.Status).Render(e.Status)

	lines := []string{
		titleStyle.Render(fmt.Sprintf("%s %s", e.Variant, e.OutputDate)),
		"",
		field("Run", e.RunID),
		field("Started", e.StartedAt.Local().Format("2006-01-02 15:04:05")),
		field("Product", string(e.Product)),
		field("Status", status),
		field("Stage", dash(e.Stage)),
		field("Rows", fmt.Sprintf("%d", e.Rows)),
		field("Uploads", fmt.Sprintf("%d ok, %d failed", e.Uploaded, e.Failed)),
	}
	if e.Error != "" {
		lines = append(lines, field("Error", e.Error))
	}
	lines = append(lines, helpStyle.Render("Esc: Back • Q: Quit"))
	return strings.Join(lines, "\n")
}

func (m Model) viewError() string {
	title := lipgloss.NewStyle().
		Foreground(colorDanger).
		Bold(true).
		Render("✗ Error")

	var errorMsg string
	if m.err != nil {
		errorMsg = m.err.Error()
	} else {
		errorMsg = "An unknown error occurred"
	}

	help := helpStyle.Render("Press any key to retry • Q: Quit")
	return lipgloss.JoinVertical(lipgloss.Left, title, "", errorMsg, "", help)
}
