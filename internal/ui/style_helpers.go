package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BgStyle renders text segments that all share one background color. Lipgloss
// emits a reset after every styled segment, which shows through as gaps
// between words unless every space is styled too.
type BgStyle struct {
	bg    lipgloss.Color
	space string
}

// NewBgStyle creates a background style helper for the given color.
func NewBgStyle(bgColor string) BgStyle {
	bg := lipgloss.Color(bgColor)
	return BgStyle{
		bg:    bg,
		space: lipgloss.NewStyle().Background(bg).Render(" "),
	}
}

// Render renders text with style, applying the background to every
// character including spaces.
func (b BgStyle) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	wordStyle := style.Background(b.bg)
	if !strings.Contains(text, " ") {
		return wordStyle.Render(text)
	}
	words := strings.Split(text, " ")
	for i, w := range words {
		if w != "" {
			words[i] = wordStyle.Render(w)
		}
	}
	return strings.Join(words, b.space)
}

// Space returns a single styled space.
func (b BgStyle) Space() string {
	return b.space
}

// Spaces returns n styled spaces.
func (b BgStyle) Spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return lipgloss.NewStyle().Background(b.bg).Render(strings.Repeat(" ", n))
}

// Sep returns a styled separator string.
func (b BgStyle) Sep(sep string) string {
	return lipgloss.NewStyle().Background(b.bg).Render(sep)
}

// Join joins parts with a styled separator.
func (b BgStyle) Join(parts []string, sep string) string {
	return strings.Join(parts, b.Sep(sep))
}

// FillLine pads rendered content to width with the background color.
func (b BgStyle) FillLine(content string, width int) string {
	return lipgloss.NewStyle().Background(b.bg).Width(width).Render(content)
}

// paneColors returns the border and background colors of a pane.
func (m Model) paneColors(focused bool) (border, bg string) {
	if focused {
		return m.theme.BorderFocus, m.theme.FocusBg
	}
	return m.theme.Border, m.theme.SurfaceAlt
}

// renderTitledBox renders content in a box with the title embedded in the
// top border: ┌─── Title ───┐
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	borderColor, bgColor := m.paneColors(focused)
	bg := NewBgStyle(bgColor)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColor))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := max(width-2, 0)
	title = truncate(title, max(innerWidth-4, 0))
	titleLen := lipgloss.Width(title)
	leftPad := max((innerWidth-titleLen-2)/2, 0)
	rightPad := max(innerWidth-titleLen-2-leftPad, 0)

	top := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)
	bottom := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).MaxWidth(innerWidth).Background(lipgloss.Color(bgColor))
	lines := strings.Split(content, "\n")
	boxHeight := max(height-2, 0)

	rows := make([]string, 0, boxHeight)
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		rows = append(rows, bg.Render("│", borderStyle)+contentStyle.Render(line)+bg.Render("│", borderStyle))
	}

	return top + "\n" + strings.Join(rows, "\n") + "\n" + bottom
}

// renderRows renders one line per row, highlighting selected. Rows before
// offset are skipped so the selection stays visible in height lines.
func (m Model) renderRows(rows []string, selected, height, width int, bgColor string) string {
	if len(rows) == 0 || height <= 0 {
		return ""
	}
	offset := scrollOffset(selected, len(rows), height)
	end := min(offset+height, len(rows))

	lines := make([]string, 0, end-offset)
	for i := offset; i < end; i++ {
		bg := bgColor
		if i == selected {
			bg = m.theme.SelectionBg
		}
		lines = append(lines, lipgloss.NewStyle().Background(lipgloss.Color(bg)).Width(width).MaxWidth(width).Render(rows[i]))
	}
	return strings.Join(lines, "\n")
}

// scrollOffset returns the first visible row so that selected is on screen.
func scrollOffset(selected, total, height int) int {
	if height <= 0 || total <= height {
		return 0
	}
	offset := selected - height + 1
	if offset < 0 {
		return 0
	}
	return min(offset, total-height)
}
