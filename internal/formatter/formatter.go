// package formatter renders emotion history and user lists as text tables, JSON, CSV and Markdown
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/emosense/internal/models"
	"github.com/desertthunder/emosense/internal/shared"
)

// Format selects an output encoding.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatText, FormatJSON, FormatCSV, FormatMarkdown}

// ParseFormat accepts a format name or a short alias ("md", "txt").
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", "txt":
		return FormatText, nil
	case "md":
		return FormatMarkdown, nil
	default:
		if slices.Contains(Formats, f) {
			return f, nil
		}
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
	}
}

// Ext returns the file extension used for exports.
func (f Format) Ext() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	default:
		return ".txt"
	}
}

// TimeLayout is used for every rendered timestamp.
const TimeLayout = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(TimeLayout)
}

// Column headers shared by every format and the dashboard tables.
var (
	HistoryHeaders = []string{"#", "Emotion", "Confidence", "Timestamp", "Glyph"}
	UserHeaders    = []string{"ID", "Emotion", "Name", "Email", "Role", "Glyph"}
)

// HistoryRows numbers records from 1 in their stored order.
func HistoryRows(records []models.EmotionRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for i, r := range records {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			r.Emotion,
			r.ConfidencePercent(),
			formatTime(r.Timestamp),
			models.Glyph(r.Emotion),
		})
	}
	return rows
}

// UserRows renders a missing emotion as "-".
func UserRows(users []models.Profile) [][]string {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		emotion := u.Emotion
		if emotion == "" {
			emotion = "-"
		}
		rows = append(rows, []string{u.ID, emotion, u.Name, u.Email, u.Role, models.Glyph(u.Emotion)})
	}
	return rows
}

// History renders emotion records in the given format.
func History(records []models.EmotionRecord, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		if records == nil {
			records = []models.EmotionRecord{}
		}
		return shared.MarshalJSON(records, true)
	case FormatCSV:
		return toCSV(HistoryHeaders, HistoryRows(records))
	case FormatMarkdown:
		return toMarkdown("Emotion History", HistoryHeaders, HistoryRows(records)), nil
	default:
		if len(records) == 0 {
			return []byte("No emotion history yet.\n"), nil
		}
		return toText(HistoryHeaders, HistoryRows(records)), nil
	}
}

// Users renders a user list in the given format.
func Users(users []models.Profile, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		if users == nil {
			users = []models.Profile{}
		}
		return shared.MarshalJSON(users, true)
	case FormatCSV:
		return toCSV(UserHeaders, UserRows(users))
	case FormatMarkdown:
		return toMarkdown("Employees", UserHeaders, UserRows(users)), nil
	default:
		if len(users) == 0 {
			return []byte("No users found.\n"), nil
		}
		return toText(UserHeaders, UserRows(users)), nil
	}
}

// Stats renders per-emotion counts, most frequent first.
func Stats(stats map[string]int, format Format) ([]byte, error) {
	labels := make([]string, 0, len(stats))
	for label := range stats {
		labels = append(labels, label)
	}
	slices.SortFunc(labels, func(a, b string) int {
		if stats[a] != stats[b] {
			return stats[b] - stats[a]
		}
		return strings.Compare(a, b)
	})

	headers := []string{"Emotion", "Count", "Glyph"}
	rows := make([][]string, 0, len(labels))
	for _, label := range labels {
		rows = append(rows, []string{label, strconv.Itoa(stats[label]), models.Glyph(label)})
	}

	switch format {
	case FormatJSON:
		return shared.MarshalJSON(stats, true)
	case FormatCSV:
		return toCSV(headers, rows)
	case FormatMarkdown:
		return toMarkdown("Emotion Stats", headers, rows), nil
	default:
		if len(rows) == 0 {
			return []byte("No emotion history yet.\n"), nil
		}
		return toText(headers, rows), nil
	}
}

func toCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write CSV record: %w", err)
	}
	return buf.Bytes(), nil
}

func toMarkdown(title string, headers []string, rows [][]string) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Entries**: %d\n\n", len(rows)))
	if len(rows) == 0 {
		return buf.Bytes()
	}

	buf.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	buf.WriteString("|" + strings.Repeat(" --- |", len(headers)) + "\n")
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = strings.ReplaceAll(c, "|", `\|`)
		}
		buf.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return buf.Bytes()
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func toText(headers []string, rows [][]string) []byte {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return []byte(t.Render() + "\n")
}

// WriteExport writes data to path, defaulting to "<base><ext>" in the working directory.
func WriteExport(data []byte, path, base string, format Format) (string, error) {
	if path == "" {
		path = base + format.Ext()
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}
