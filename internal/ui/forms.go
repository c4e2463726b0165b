package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/five82/tally/internal/inventory"
)

// Input validation errors.
var (
	ErrInvalidQuantity = errors.New("quantity must be a positive whole number")
	ErrInvalidPrice    = errors.New("price must be a positive amount")
	ErrInvalidStock    = errors.New("stock must be a non-negative whole number")
	ErrMissingField    = errors.New("field is required")
)

// ParseSaleInput validates the record-sale form. saleDate is set to now in
// UTC.
func ParseSaleInput(productID, quantity, price string, now time.Time) (inventory.SaleInput, error) {
	var errs []error
	productID = strings.TrimSpace(productID)
	if productID == "" {
		errs = append(errs, fmt.Errorf("product: %w", ErrMissingField))
	}
	qty, err := strconv.Atoi(strings.TrimSpace(quantity))
	if err != nil || qty <= 0 {
		errs = append(errs, ErrInvalidQuantity)
	}
	amount, err := parsePrice(price)
	if err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return inventory.SaleInput{}, errors.Join(errs...)
	}
	return inventory.SaleInput{
		ProductID:    productID,
		Quantity:     qty,
		SellingPrice: amount,
		SaleDate:     now.UTC().Truncate(time.Second),
	}, nil
}

// ParseStock validates a stock count.
func ParseStock(text string) (int, error) {
	stock, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || stock < 0 {
		return 0, ErrInvalidStock
	}
	return stock, nil
}

// ProductFields is the raw text of the add-product form.
type ProductFields struct {
	Name        string
	Description string
	Price       string
	Category    string
	Stock       string
	ImageURL    string
}

// ParseNewProduct validates the add-product form. Every field but the image
// URL is required.
func ParseNewProduct(f ProductFields) (inventory.NewProduct, error) {
	var errs []error
	required := func(label, value string) string {
		value = strings.TrimSpace(value)
		if value == "" {
			errs = append(errs, fmt.Errorf("%s: %w", label, ErrMissingField))
		}
		return value
	}

	out := inventory.NewProduct{
		Name:        required("name", f.Name),
		Description: required("description", f.Description),
		Category:    required("category", f.Category),
		ImageURL:    strings.TrimSpace(f.ImageURL),
	}
	if price := required("price", f.Price); price != "" {
		amount, err := parsePrice(price)
		if err != nil {
			errs = append(errs, err)
		}
		out.Price = amount
	}
	if stock := required("stock", f.Stock); stock != "" {
		n, err := ParseStock(stock)
		if err != nil {
			errs = append(errs, err)
		}
		out.Stock = n
	}
	if len(errs) > 0 {
		return inventory.NewProduct{}, errors.Join(errs...)
	}
	return out, nil
}

func parsePrice(text string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(text), "$"))
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, ErrInvalidPrice
	}
	return amount, nil
}

// Intent messages emitted by forms and confirmed dialogs.

type createProductMsg struct{ input inventory.NewProduct }

type updateStockMsg struct {
	id    string
	stock int
}

type recordSaleMsg struct{ input inventory.SaleInput }

type deleteProductMsg struct{ id string }

// newInput returns a text input with a steady cursor.
func newInput(placeholder, prompt string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = prompt
	ti.CharLimit = limit
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

// form is a column of labelled text inputs. submit turns the values into an
// intent message or reports why they are invalid.
type form struct {
	title  string
	labels []string
	inputs []textinput.Model
	focus  int
	err    string
	submit func(values []string) (tea.Msg, error)
}

func newForm(title string, labels, values []string, submit func([]string) (tea.Msg, error)) form {
	inputs := make([]textinput.Model, len(labels))
	for i, label := range labels {
		ti := newInput(label, "", 200)
		if i < len(values) {
			ti.SetValue(values[i])
		}
		inputs[i] = ti
	}
	f := form{title: title, labels: labels, inputs: inputs, submit: submit}
	f.setFocus(0)
	return f
}

func (f *form) setFocus(idx int) {
	if len(f.inputs) == 0 {
		return
	}
	f.focus = (idx + len(f.inputs)) % len(f.inputs)
	for i := range f.inputs {
		if i == f.focus {
			f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
}

func (f form) values() []string {
	out := make([]string, len(f.inputs))
	for i, in := range f.inputs {
		out[i] = in.Value()
	}
	return out
}

// Update handles a key for the form. done is true when the form was
// submitted or cancelled.
func (f form) Update(msg tea.Msg, keys keyMap) (form, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return f, nil, false
	}
	switch {
	case key.Matches(km, keys.Escape):
		return f, nil, true
	case key.Matches(km, keys.Confirm):
		intent, err := f.submit(f.values())
		if err != nil {
			f.err = err.Error()
			return f, nil, false
		}
		return f, func() tea.Msg { return intent }, true
	case key.Matches(km, keys.NextItem):
		f.setFocus(f.focus + 1)
		return f, nil, false
	case key.Matches(km, keys.PrevItem):
		f.setFocus(f.focus - 1)
		return f, nil, false
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(km)
	return f, cmd, false
}

func (f form) render(theme Theme, width int) string {
	styles := theme.Styles()
	labelWidth := 0
	for _, l := range f.labels {
		labelWidth = max(labelWidth, len(l))
	}

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(f.title))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", width)))
	b.WriteString("\n\n")
	for i, label := range f.labels {
		labelStyle := styles.MutedText
		if i == f.focus {
			labelStyle = styles.AccentText
		}
		b.WriteString(labelStyle.Render(padRight(label, labelWidth+2)))
		f.inputs[i].Width = max(width-labelWidth-3, 10)
		b.WriteString(f.inputs[i].View())
		b.WriteString("\n")
	}
	if f.err != "" {
		b.WriteString("\n")
		for _, line := range strings.Split(f.err, "\n") {
			b.WriteString(styles.DangerText.Render(line))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("tab next · enter save · esc cancel"))
	return b.String()
}

// Form constructors

func newAddProductForm() form {
	labels := []string{"Name", "Description", "Price", "Category", "Stock", "Image URL"}
	return newForm("Add New Product", labels, nil, func(v []string) (tea.Msg, error) {
		p, err := ParseNewProduct(ProductFields{
			Name: v[0], Description: v[1], Price: v[2], Category: v[3], Stock: v[4], ImageURL: v[5],
		})
		if err != nil {
			return nil, err
		}
		return createProductMsg{input: p}, nil
	})
}

func newRecordSaleForm(p inventory.Product, now func() time.Time) form {
	title := "Record sale: " + truncate(p.Name, 30)
	values := []string{"", ""}
	if p.Price.IsPositive() {
		values[1] = p.Price.StringFixed(2)
	}
	return newForm(title, []string{"Quantity sold", "Selling price"}, values, func(v []string) (tea.Msg, error) {
		input, err := ParseSaleInput(p.ID, v[0], v[1], now())
		if err != nil {
			return nil, err
		}
		return recordSaleMsg{input: input}, nil
	})
}

func newUpdateStockForm(p inventory.Product) form {
	title := "Update stock: " + truncate(p.Name, 30)
	return newForm(title, []string{"New stock"}, []string{strconv.Itoa(p.Stock)}, func(v []string) (tea.Msg, error) {
		stock, err := ParseStock(v[0])
		if err != nil {
			return nil, err
		}
		return updateStockMsg{id: p.ID, stock: stock}, nil
	})
}

func newDeleteConfirm(p inventory.Product) confirmModal {
	return confirmModal{
		title:  "Confirm Delete",
		prompt: fmt.Sprintf("Delete %q? This cannot be undone.", p.Name),
		onYes:  deleteProductMsg{id: p.ID},
	}
}
