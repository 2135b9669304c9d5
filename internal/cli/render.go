package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/business-anzsic-locator/internal/model"
)

// RenderOutcome formats an identify outcome for the terminal.
func RenderOutcome(address string, outcome model.Outcome) string {
	if outcome.Failed() {
		return FormatError(outcome.Error)
	}

	results := outcome.Results()
	if outcome.Status == model.StatusMultiple {
		var b strings.Builder
		b.WriteString(FormatInfo(fmt.Sprintf("%q looks like a shared building; %d businesses found nearby", address, len(results))))
		b.WriteString("\n")
		for i, r := range results {
			b.WriteString("\n")
			b.WriteString(RenderResult(fmt.Sprintf("%d. %s", i+1, r.BusinessName), r))
		}
		return b.String()
	}

	if len(results) == 0 {
		return FormatWarning("No results")
	}
	return RenderResult(results[0].BusinessName, results[0])
}

// RenderResult renders one classified business in a box.
func RenderResult(title string, r model.ClassificationResult) string {
	rows := [][2]string{
		{"Address", r.Address},
		{"Type", r.DetectedType},
		{"Match", matchLabel(r.MatchMethod)},
		{"ANZSIC", formatClassification(r.RecommendedClassification)},
	}
	if r.AIClassification != nil {
		rows = append(rows, [2]string{"AI suggestion", RobotIcon + " " + formatClassification(*r.AIClassification)})
	}
	if len(r.RawTypes) > 0 {
		rows = append(rows, [2]string{"Place types", SubtleStyle.Render(strings.Join(r.RawTypes, ", "))})
	}
	return RenderBox(title, renderPairs(rows))
}

// RenderTable renders rows under a bold header, padding every column to its widest cell.
func RenderTable(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	line := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(widths))
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			parts[i] = TableCellStyle.Width(widths[i] + 2).Render(cell)
		}
		return style.Render(lipgloss.JoinHorizontal(lipgloss.Top, parts...))
	}

	var b strings.Builder
	b.WriteString(line(header, TableHeaderStyle))
	for _, row := range rows {
		b.WriteString("\n")
		b.WriteString(line(row, lipgloss.NewStyle()))
	}
	return b.String()
}

// RenderTaxonomy lists taxonomy entries as a table.
func RenderTaxonomy(entries []model.TaxonomyEntry) string {
	if len(entries) == 0 {
		return FormatWarning("No matching ANZSIC classes")
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Code, e.Title, e.Division, e.DivisionTitle})
	}
	return RenderTable([]string{"Code", "Title", "Div", "Division"}, rows)
}

func renderPairs(rows [][2]string) string {
	labelWidth := 0
	for _, r := range rows {
		labelWidth = max(labelWidth, lipgloss.Width(r[0]))
	}

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		label := BoldStyle.Width(labelWidth + 2).Render(r[0])
		lines = append(lines, label+r[1])
	}
	return strings.Join(lines, "\n")
}

func formatClassification(c model.Classification) string {
	if c.IsUnknown() {
		return UnknownStyle.Render(c.Code + " " + c.Title)
	}
	return CodeStyle.Render(c.Code) + " " + c.Title
}

func matchLabel(m model.MatchMethod) string {
	switch m {
	case model.MatchDirectMap:
		return "place type"
	case model.MatchDirectMapFallback:
		return "secondary place type"
	case model.MatchKeyword:
		return "business name keyword"
	case model.MatchFailed:
		return ErrorStyle.Render("no deterministic match")
	default:
		return string(m)
	}
}
