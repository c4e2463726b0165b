package ui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tally/internal/inventory"
)

// FilterProducts keeps products whose name contains query, ignoring case and
// surrounding whitespace. An empty query keeps everything.
func FilterProducts(products []inventory.Product, query string) []inventory.Product {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return products
	}
	var out []inventory.Product
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			out = append(out, p)
		}
	}
	return out
}

// visibleProducts returns the filtered product list.
func (m Model) visibleProducts() []inventory.Product {
	return FilterProducts(m.snapshot.Products, m.productQuery)
}

// selectedProductItem returns the highlighted product, if any.
func (m Model) selectedProductItem() (inventory.Product, bool) {
	items := m.visibleProducts()
	if m.selectedProduct < 0 || m.selectedProduct >= len(items) {
		return inventory.Product{}, false
	}
	return items[m.selectedProduct], true
}

func (m *Model) clampProductSelection() {
	n := len(m.visibleProducts())
	if m.selectedProduct >= n {
		m.selectedProduct = n - 1
	}
	if m.selectedProduct < 0 {
		m.selectedProduct = 0
	}
}

// handleProductsKey processes keyboard input for the products view.
func (m Model) handleProductsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.visibleProducts())

	switch msg.String() {
	case "j", "down":
		if m.selectedProduct < count-1 {
			m.selectedProduct++
		}
	case "k", "up":
		if m.selectedProduct > 0 {
			m.selectedProduct--
		}
	case "g", "home":
		m.selectedProduct = 0
	case "G", "end":
		m.selectedProduct = max(count-1, 0)
	case "/":
		cmd := m.startSearch()
		return m, cmd
	case "r":
		return m, m.refreshProductsCmd()
	case "a":
		m.addForm = newAddProductForm()
		m.currentView = ViewAddProduct
		return m, nil
	case "enter":
		if p, ok := m.selectedProductItem(); ok {
			return m, m.fetchProductCmd(p.ID)
		}
	case "+":
		if p, ok := m.selectedProductItem(); ok {
			m.modal = formModal{form: newRecordSaleForm(p, m.now)}
		}
	case "u":
		if p, ok := m.selectedProductItem(); ok {
			m.modal = formModal{form: newUpdateStockForm(p)}
		}
	case "D":
		if p, ok := m.selectedProductItem(); ok {
			m.modal = newDeleteConfirm(p)
		}
	}

	return m, nil
}

// handleAddProductKey routes keys to the add-product form.
func (m Model) handleAddProductKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	next, cmd, done := m.addForm.Update(msg, m.keys)
	m.addForm = next
	if done {
		m.currentView = ViewProducts
	}
	return m, cmd
}

func (m Model) handleProductDetail(msg productDetailMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setError("Failed to fetch product details", msg.err)
		return m, nil
	}
	if msg.product == nil {
		return m, nil
	}
	p := *msg.product
	m.detail = &p
	if m.store != nil {
		m.store.Upsert(p)
	}
	return m, fetchSnapshotCmd(m.store)
}

// renderProducts renders the product list and the detail pane side by side.
func (m Model) renderProducts() string {
	styles := m.theme.Styles()
	contentHeight := m.contentHeight()

	if !m.snapshot.HasProducts {
		msg := styles.MutedText.Render("Loading products...")
		if m.snapshot.LastError != nil {
			msg = styles.DangerText.Render("Products unavailable: " + inventory.Describe(m.snapshot.LastError))
		}
		return lipgloss.Place(m.width, contentHeight, lipgloss.Center, lipgloss.Center, msg)
	}

	listWidth := m.width * 55 / 100
	if m.width >= LayoutExtraWideWidth {
		listWidth = m.width * 40 / 100
	}
	detailWidth := m.width - listWidth

	items := m.visibleProducts()
	title := fmt.Sprintf("Products (%d)", len(m.snapshot.Products))
	if m.productQuery != "" {
		title = fmt.Sprintf("Products (%d/%d) /%s", len(items), len(m.snapshot.Products), truncate(m.productQuery, 16))
	}

	_, listBg := m.paneColors(true)
	rows := make([]string, len(items))
	for i, p := range items {
		rowBg := listBg
		if i == m.selectedProduct {
			rowBg = m.theme.SelectionBg
		}
		rows[i] = m.formatProductRow(p, listWidth-2, rowBg, i == m.selectedProduct)
	}
	list := m.renderRows(rows, m.selectedProduct, contentHeight-2, listWidth-2, listBg)
	if len(items) == 0 {
		list = NewBgStyle(listBg).Render("No products match", styles.MutedText)
	}
	listPane := m.renderTitledBox(title, list, listWidth, contentHeight, true)

	_, detailBg := m.paneColors(false)
	detail := NewBgStyle(detailBg).Render("Select a product", styles.MutedText)
	if p, ok := m.selectedProductItem(); ok {
		if m.detail != nil && m.detail.ID == p.ID {
			p = *m.detail
		}
		detail = m.renderProductDetail(p, detailWidth-4, detailBg)
	}
	detailPane := m.renderTitledBox("Details", detail, detailWidth, contentHeight, false)

	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// formatProductRow renders "name · category   price  stock".
func (m Model) formatProductRow(p inventory.Product, width int, bgColor string, selected bool) string {
	bg := NewBgStyle(bgColor)
	price := formatMoney(p.Price)
	stock := strconv.Itoa(p.Stock)

	nameWidth := max(width-len(price)-len(stock)-6, 8)
	name := padRight(truncate(p.Name, nameWidth), nameWidth)

	var nameStyle, priceStyle, stockStyle lipgloss.Style
	if selected {
		sel := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		nameStyle, priceStyle, stockStyle = sel, sel, sel
	} else {
		styles := m.theme.Styles()
		nameStyle = styles.Text
		priceStyle = styles.MutedText
		stockStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.stockColor(p.Stock, LowStockThreshold)))
	}

	return bg.Space() + bg.Render(name, nameStyle) + bg.Spaces(2) +
		bg.Render(price, priceStyle) + bg.Spaces(2) + bg.Render(padLeft(stock, 3), stockStyle)
}

// renderProductDetail renders every field of a product.
func (m Model) renderProductDetail(p inventory.Product, width int, bgColor string) string {
	styles := m.theme.Styles().WithBackground(bgColor)
	bg := NewBgStyle(bgColor)

	field := func(label, value string, style lipgloss.Style) string {
		return bg.Render(padRight(label, 12), styles.MutedText) + bg.Render(truncate(value, max(width-12, 8)), style)
	}

	level := stockLevel(p.Stock, LowStockThreshold)
	lines := []string{
		bg.Render(truncate(p.Name, width), styles.Text.Bold(true)),
		"",
		field("ID", p.ID, styles.FaintText),
		field("Category", ternary(p.Category == "", "-", p.Category), styles.Text),
		field("Price", formatMoney(p.Price), styles.AccentText),
		field("Stock", strconv.Itoa(p.Stock), styles.Text) + bg.Space() + styles.StockStyle(level).Render(strings.ToUpper(level)),
	}
	if p.ImageURL != "" {
		lines = append(lines, field("Image", p.ImageURL, styles.FaintText))
	}
	if desc := strings.TrimSpace(p.Description); desc != "" {
		lines = append(lines, "", bg.Render("Description", styles.MutedText))
		wrapped := lipgloss.NewStyle().Width(max(width, 10)).Render(desc)
		for _, line := range strings.Split(wrapped, "\n") {
			lines = append(lines, bg.Render(line, styles.Text))
		}
	}
	lines = append(lines, "", bg.Render("+ sale · u stock · D delete · enter reload", styles.FaintText))
	return strings.Join(lines, "\n")
}

// renderAddProduct renders the add-product form centered in the content area.
func (m Model) renderAddProduct() string {
	width := min(m.width, 72)
	content := m.addForm.render(m.theme, max(width-6, 20))
	_, bgColor := m.paneColors(true)
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = " " + line
	}
	box := m.renderTitledBox("Add Product", NewBgStyle(bgColor).FillLine(strings.Join(lines, "\n"), width-2), width, m.contentHeight(), true)
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, box)
}
