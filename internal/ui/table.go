package ui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/emosense/internal/formatter"
	"github.com/desertthunder/emosense/internal/models"
)

var (
	historyWidths = []int{4, 12, 11, 20, 6}
	userWidths    = []int{10, 12, 20, 26, 10, 6}
)

func columns(headers []string, widths []int) []table.Column {
	cols := make([]table.Column, len(headers))
	for i, h := range headers {
		cols[i] = table.Column{Title: h, Width: widths[i]}
	}
	return cols
}

func toRows(rows [][]string) []table.Row {
	out := make([]table.Row, len(rows))
	for i, r := range rows {
		out[i] = table.Row(r)
	}
	return out
}

func newTable(height int) table.Model {
	t := table.New(table.WithFocused(true), table.WithHeight(height))

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.Foreground(lipgloss.Color("#FFFDF5")).Background(lipgloss.Color("#7D56F4"))
	t.SetStyles(s)
	return t
}

// historyTable fills t with the employee's own detections.
func historyTable(t *table.Model, records []models.EmotionRecord) {
	t.SetRows(nil)
	t.SetColumns(columns(formatter.HistoryHeaders, historyWidths))
	t.SetRows(toRows(formatter.HistoryRows(records)))
}

// usersTable fills t with the employee list an admin sees.
func usersTable(t *table.Model, users []models.Profile) {
	t.SetRows(nil)
	t.SetColumns(columns(formatter.UserHeaders, userWidths))
	t.SetRows(toRows(formatter.UserRows(users)))
}
