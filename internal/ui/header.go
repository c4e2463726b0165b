package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tally/internal/inventory"
)

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render("tally", styles.Logo)}

	if !m.snapshot.HasProducts {
		if m.snapshot.LastError != nil {
			parts = append(parts,
				bg.Render("BACKEND "+classifyConnectionError(m.snapshot.LastError), styles.DangerText.Bold(true)),
				bg.Render("Retrying...", styles.WarningText.Bold(true)),
			)
			if m.config != nil && m.config.LogPath != "" {
				parts = append(parts,
					bg.Render("logs", styles.FaintText)+bg.Space()+
						bg.Render(truncateMiddle(m.config.LogPath, 50), styles.MutedText))
			}
		} else {
			parts = append(parts, bg.Render("Connecting to backend...", styles.WarningText.Bold(true)))
		}
		return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
	}

	if m.snapshot.IsOffline() {
		parts = append(parts, bg.Render("● OFFLINE", styles.DangerText))
	} else {
		parts = append(parts, bg.Render("● ONLINE", styles.SuccessText))
	}

	parts = append(parts,
		bg.Render("Products:", styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d", len(m.snapshot.Products)), styles.Text),
	)

	low := len(m.snapshot.LowStock(LowStockThreshold))
	lowStyle := styles.MutedText
	if low > 0 {
		lowStyle = styles.WarningText
	}
	parts = append(parts,
		bg.Render(ternary(compact, "Low:", "Low stock:"), styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d", low), lowStyle),
	)

	if m.salesMounted {
		sum := m.sales.Summary()
		parts = append(parts,
			bg.Render("Sales:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", sum.Count), styles.Text)+sep+
				bg.Render("•", styles.FaintText)+sep+
				bg.Render("Units:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", sum.Units), styles.Text)+sep+
				bg.Render("•", styles.FaintText)+sep+
				bg.Render("Revenue:", styles.MutedText)+bg.Space()+
				bg.Render(formatMoney(sum.Revenue), styles.InfoText),
		)
	}

	if ts := m.formatTimestamp(); ts != "" && !compact {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}

	if m.snapshot.LastError != nil {
		limit := 80
		if compact {
			limit = 40
		}
		parts = append(parts,
			bg.Render("ERROR", styles.DangerText.Bold(true))+bg.Space()+
				bg.Render(truncate(inventory.Describe(m.snapshot.LastError), limit), styles.DangerText),
		)
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// formatTimestamp formats the last update time with relative indicator.
func (m Model) formatTimestamp() string {
	updated := m.snapshot.LastUpdated
	if updated.IsZero() {
		return ""
	}

	since := time.Since(updated)
	ts := updated.Format("15:04:05")
	switch {
	case since < time.Minute:
		ts += " (now)"
	case since < time.Hour:
		ts += fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		ts += fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	}
	return ts
}

// classifyConnectionError returns a short description of the connection error.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	if inventory.Kind(err) == inventory.KindServer {
		return "ERROR"
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	default:
		return "UNREACHABLE"
	}
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewSales:
		commands = []cmd{
			{"o", m.sales.Params().Sort.Label()},
			{"/", "Search"},
			{"j/k", "Navigate"},
			{"r", "Reload"},
			{"1", "Products"},
			{"L", "Logs"},
			{"?", "More"},
		}
	case ViewAddProduct:
		commands = []cmd{
			{"tab", "Next field"},
			{"enter", "Save"},
			{"esc", "Cancel"},
		}
	case ViewLogs:
		commands = []cmd{
			{"Space", ternary(m.logFollow, "Pause", "Follow")},
			{"j/k", "Scroll"},
			{"r", "Reload"},
			{"1", "Products"},
			{"s", "Sales"},
			{"?", "More"},
		}
	default:
		commands = []cmd{
			{"/", "Search"},
			{"j/k", "Navigate"},
			{"+", "Sale"},
			{"u", "Stock"},
			{"a", "Add"},
			{"D", "Delete"},
			{"s", "Sales"},
			{"L", "Logs"},
			{"?", "More"},
		}
	}

	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+2)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	if m.searching {
		segments = append(segments, m.search.View())
	}

	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, sep))
}

// renderAlert renders the dismissable banner.
func (m Model) renderAlert() string {
	if m.alert == nil {
		return ""
	}
	color := m.theme.Info
	if m.alert.danger {
		color = m.theme.Danger
	}
	styles := m.theme.Styles().WithBackground(m.theme.Background)
	bg := NewBgStyle(m.theme.Background)
	textStyle := styles.Text.Foreground(lipgloss.Color(color))
	line := bg.Render("! ", textStyle.Bold(true)) +
		bg.Render(truncate(m.alert.text, max(m.width-16, 10)), textStyle) +
		bg.Spaces(2) + bg.Render("esc dismiss", styles.FaintText)
	return bg.FillLine(line, m.width)
}
