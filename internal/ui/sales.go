package ui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/five82/tally/internal/inventory"
	"github.com/five82/tally/internal/sales"
)

// enterSales switches to the sales view, fetching the first page on first
// entry.
func (m Model) enterSales() (tea.Model, tea.Cmd) {
	m.currentView = ViewSales
	if m.salesMounted {
		return m, nil
	}
	m.salesMounted = true
	req, ok := m.sales.Start()
	if !ok {
		return m, nil
	}
	return m, m.fetchSalesCmd(req)
}

// salesRows is the number of list rows visible in the sales pane.
func (m Model) salesRows() int {
	return max(m.contentHeight()-2, 1)
}

// checkNearEnd asks for the next page when the selection is within
// NearEndRows of the end of the projected list.
func (m *Model) checkNearEnd() tea.Cmd {
	if !m.salesMounted {
		return nil
	}
	count := len(m.sales.Projected())
	if m.selectedSale < count-NearEndRows {
		return nil
	}
	req, ok := m.sales.OnNearEnd()
	if !ok {
		return nil
	}
	return m.fetchSalesCmd(req)
}

// handleSalesKey processes keyboard input for the sales view.
func (m Model) handleSalesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.sales.Projected())

	switch msg.String() {
	case "j", "down":
		if m.selectedSale < count-1 {
			m.selectedSale++
		}
		cmd := m.checkNearEnd()
		return m, cmd
	case "k", "up":
		if m.selectedSale > 0 {
			m.selectedSale--
		}
	case "g", "home":
		m.selectedSale = 0
	case "G", "end":
		m.selectedSale = max(count-1, 0)
		cmd := m.checkNearEnd()
		return m, cmd
	case "/":
		cmd := m.startSearch()
		return m, cmd
	case "o":
		m.sales.OnSortChange(m.sales.Params().Sort.Next())
		m.selectedSale = 0
		m.savePrefs()
	case "r":
		req, ok := m.sales.Refresh()
		if !ok {
			return m, nil
		}
		m.selectedSale = 0
		m.alert = nil
		return m, m.fetchSalesCmd(req)
	}

	return m, nil
}

// handleSalesPage feeds a page response to the sales view.
func (m Model) handleSalesPage(msg salesPageMsg) (tea.Model, tea.Cmd) {
	out := m.sales.Apply(msg.req, msg.records, msg.err)
	if !out.Applied {
		return m, nil
	}
	if out.Err != nil {
		m.setError("Failed to fetch sales", out.Err)
		return m, nil
	}

	m.metrics.AddMalformed(len(out.Malformed))
	m.metrics.SetReconciled(m.sales.Collection().Len())

	count := len(m.sales.Projected())
	if m.selectedSale >= count {
		m.selectedSale = max(count-1, 0)
	}

	// Keep loading while the list does not fill the pane.
	if count < m.salesRows() {
		if req, ok := m.sales.OnNearEnd(); ok {
			return m, m.fetchSalesCmd(req)
		}
	}
	return m, nil
}

// selectedSaleRecord returns the highlighted sale, if any.
func (m Model) selectedSaleRecord() (inventory.SaleRecord, bool) {
	records := m.sales.Projected()
	if m.selectedSale < 0 || m.selectedSale >= len(records) {
		return inventory.SaleRecord{}, false
	}
	return records[m.selectedSale], true
}

// salesStatus describes the pager state for the list title.
func (m Model) salesStatus() string {
	switch m.sales.State() {
	case sales.FetchingPage, sales.FetchingMore:
		return m.spinner.View() + " loading"
	case sales.Failed:
		return "failed, scroll to retry"
	case sales.Exhausted:
		return "end"
	default:
		return ""
	}
}

// renderSales renders the projected sales list and the sale detail pane.
func (m Model) renderSales() string {
	styles := m.theme.Styles()
	contentHeight := m.contentHeight()

	listWidth := m.width * 60 / 100
	if m.width >= LayoutExtraWideWidth {
		listWidth = m.width * 45 / 100
	}
	detailWidth := m.width - listWidth

	records := m.sales.Projected()
	params := m.sales.Params()
	title := fmt.Sprintf("Sales (%d) by %s", len(records), params.Sort.Label())
	if params.Search != "" {
		title += " /" + truncate(params.Search, 16)
	}
	if status := m.salesStatus(); status != "" {
		title += " · " + status
	}

	_, listBg := m.paneColors(true)
	rows := make([]string, len(records))
	for i, rec := range records {
		rowBg := listBg
		if i == m.selectedSale {
			rowBg = m.theme.SelectionBg
		}
		rows[i] = m.formatSaleRow(rec, listWidth-2, rowBg, i == m.selectedSale)
	}
	list := m.renderRows(rows, m.selectedSale, contentHeight-2, listWidth-2, listBg)
	if len(records) == 0 {
		empty := "No sales recorded"
		switch {
		case m.sales.State().Fetching():
			empty = "Loading sales data..."
		case params.Search != "":
			empty = "No sales match"
		}
		list = NewBgStyle(listBg).Render(empty, styles.MutedText)
	}
	listPane := m.renderTitledBox(title, list, listWidth, contentHeight, true)

	_, detailBg := m.paneColors(false)
	detail := NewBgStyle(detailBg).Render("Select a sale", styles.MutedText)
	if rec, ok := m.selectedSaleRecord(); ok {
		detail = m.renderSaleDetail(rec, detailWidth-4, detailBg)
	}
	detailPane := m.renderTitledBox("Sale Detail", detail, detailWidth, contentHeight, false)

	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// formatSaleRow renders "date  product  qty × price".
func (m Model) formatSaleRow(rec inventory.SaleRecord, width int, bgColor string, selected bool) string {
	bg := NewBgStyle(bgColor)
	date := formatSaleDate(rec.SaleDate)
	amount := fmt.Sprintf("%d × %s", rec.Quantity, formatMoney(rec.SellingPrice))

	nameWidth := max(width-lipgloss.Width(date)-lipgloss.Width(amount)-6, 8)
	name := rec.ProductName()
	missing := !rec.HasProduct()
	if missing {
		name = "(product unavailable)"
	}
	name = padRight(truncate(name, nameWidth), nameWidth)

	var dateStyle, nameStyle, amountStyle lipgloss.Style
	if selected {
		sel := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		dateStyle, nameStyle, amountStyle = sel, sel, sel
	} else {
		styles := m.theme.Styles()
		dateStyle = styles.MutedText
		nameStyle = styles.Text
		if missing {
			nameStyle = styles.FaintText
		}
		amountStyle = styles.AccentText
	}

	return bg.Space() + bg.Render(date, dateStyle) + bg.Spaces(2) +
		bg.Render(name, nameStyle) + bg.Spaces(2) + bg.Render(amount, amountStyle)
}

// renderSaleDetail renders the selected sale, or the unavailable state when
// its product no longer exists.
func (m Model) renderSaleDetail(rec inventory.SaleRecord, width int, bgColor string) string {
	styles := m.theme.Styles().WithBackground(bgColor)
	bg := NewBgStyle(bgColor)

	field := func(label, value string, style lipgloss.Style) string {
		return bg.Render(padRight(label, 14), styles.MutedText) + bg.Render(truncate(value, max(width-14, 8)), style)
	}

	lines := []string{field("Sale ID", rec.ID, styles.FaintText), ""}
	if !rec.HasProduct() {
		lines = append(lines, bg.Render("Product information not available.", styles.DangerText))
	} else {
		lines = append(lines,
			field("Product", ternary(rec.Product.Name == "", "-", rec.Product.Name), styles.Text.Bold(true)),
			field("Product ID", rec.Product.ID, styles.FaintText),
		)
		if rec.Product.Price != nil {
			lines = append(lines, field("List price", formatMoney(*rec.Product.Price), styles.MutedText))
		}
	}
	lines = append(lines,
		field("Quantity", strconv.Itoa(rec.Quantity), styles.Text),
		field("Selling price", formatMoney(rec.SellingPrice), styles.AccentText),
		field("Total", formatMoney(rec.Total()), styles.SuccessText),
		field("Sale date", formatSaleDate(rec.SaleDate), styles.Text),
	)
	return strings.Join(lines, "\n")
}

// logSalesState records the pager state when leaving the app.
func (m Model) logSalesState() {
	m.logger.Debug("sales view closed",
		zap.Stringer("state", m.sales.State()),
		zap.Int("records", m.sales.Collection().Len()),
	)
}
